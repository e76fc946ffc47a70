// Package ledger holds the in-memory record store that owns the three
// collections. It is the single writer of record state; the allocation and
// report engines only read from it.
//
// Mutation semantics follow the permissive policy of the tracker: updates and
// deletes aimed at an unknown id are silent no-ops, and no uniqueness checks
// are performed on display keys.
package ledger

import (
	"sync"

	"github.com/google/uuid"

	"lendtrack/internal/core"
)

// Kind names one of the three record collections in change notifications
// and snapshot documents.
type Kind string

const (
	KindGroups      Kind = "groups"
	KindMembers     Kind = "members"
	KindCollections Kind = "collections"
)

// Change describes a store mutation. Watchers receive the affected
// collection, not the individual record: the persistence layer mirrors whole
// collections.
type Change struct {
	Kind Kind
}

// Store owns the group, member and collection records.
type Store struct {
	mu          sync.Mutex
	groups      []core.Group
	members     []core.Member
	collections []core.Collection
	watchers    []func(Change)
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Watch registers fn to be called synchronously after every mutation.
func (s *Store) Watch(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func (s *Store) notify(kind Kind) {
	s.mu.Lock()
	watchers := make([]func(Change), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()
	for _, fn := range watchers {
		fn(Change{Kind: kind})
	}
}

// newID generates a record identifier. Collisions are not checked; within a
// process UUIDs are unique with overwhelming probability.
func newID() string {
	return uuid.New().String()
}

// Groups returns a copy of the group records in insertion order.
func (s *Store) Groups() []core.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Group(nil), s.groups...)
}

// Members returns a copy of the member records in insertion order.
func (s *Store) Members() []core.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Member(nil), s.members...)
}

// Collections returns a copy of the collection records in insertion order.
func (s *Store) Collections() []core.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Collection(nil), s.collections...)
}

// MemberByID finds a member by display key. Returns nil when absent.
func (s *Store) MemberByID(memberID string) *core.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.members {
		if s.members[i].MemberID == memberID {
			m := s.members[i]
			return &m
		}
	}
	return nil
}

// GroupByNo finds a group by display key. Returns nil when absent.
func (s *Store) GroupByNo(groupNo string) *core.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].GroupNo == groupNo {
			g := s.groups[i]
			return &g
		}
	}
	return nil
}

// AddGroup appends a group, assigning a fresh id. The caller-supplied ID
// field is ignored.
func (s *Store) AddGroup(g core.Group) core.Group {
	g.ID = newID()
	s.mu.Lock()
	s.groups = append(s.groups, g)
	s.mu.Unlock()
	s.notify(KindGroups)
	return g
}

// AddMember appends a member, assigning a fresh id.
func (s *Store) AddMember(m core.Member) core.Member {
	m.ID = newID()
	s.mu.Lock()
	s.members = append(s.members, m)
	s.mu.Unlock()
	s.notify(KindMembers)
	return m
}

// AddCollection appends a collection record, assigning a fresh id. The
// principal/interest split is expected to be filled in by the caller (the
// tracker service runs the allocation engine before storing).
func (s *Store) AddCollection(c core.Collection) core.Collection {
	c.ID = newID()
	s.mu.Lock()
	s.collections = append(s.collections, c)
	s.mu.Unlock()
	s.notify(KindCollections)
	return c
}
