package ledger

import "lendtrack/internal/core"

// Patch types carry partial updates: nil fields are left untouched, supplied
// fields overwrite. This is the merge semantics of the update operations.
type (
	GroupPatch struct {
		GroupNo       *string
		GroupName     *string
		GroupHeadName *string
		HeadContact   *string
		MeetingDay    *string
		FormationDate *string
	}

	MemberPatch struct {
		MemberID      *string
		MemberName    *string
		Address       *string
		Landmark      *string
		GroupNo       *string
		LoanAmount    *float64
		TotalInterest *float64
		Weeks         *int
		StartDate     *string
		Status        *core.MemberStatus
	}

	// CollectionPatch can set principal/interest directly. A caller doing
	// so takes on the amountPaid == principal+interest invariant itself;
	// the store does not re-check it.
	CollectionPatch struct {
		CollectionDate *string
		MemberID       *string
		GroupNo        *string
		WeekNo         *int
		AmountPaid     *float64
		PrincipalPaid  *float64
		InterestPaid   *float64
		Status         *string
		CollectedBy    *string
	}
)

func apply[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// UpdateGroup merges the patch into the group with the given internal id.
// Unknown ids are a silent no-op.
func (s *Store) UpdateGroup(id string, p GroupPatch) {
	s.mu.Lock()
	updated := false
	for i := range s.groups {
		if s.groups[i].ID != id {
			continue
		}
		g := &s.groups[i]
		apply(&g.GroupNo, p.GroupNo)
		apply(&g.GroupName, p.GroupName)
		apply(&g.GroupHeadName, p.GroupHeadName)
		apply(&g.HeadContact, p.HeadContact)
		apply(&g.MeetingDay, p.MeetingDay)
		apply(&g.FormationDate, p.FormationDate)
		updated = true
		break
	}
	s.mu.Unlock()
	if updated {
		s.notify(KindGroups)
	}
}

// UpdateMember merges the patch into the member with the given internal id.
func (s *Store) UpdateMember(id string, p MemberPatch) {
	s.mu.Lock()
	updated := false
	for i := range s.members {
		if s.members[i].ID != id {
			continue
		}
		m := &s.members[i]
		apply(&m.MemberID, p.MemberID)
		apply(&m.MemberName, p.MemberName)
		apply(&m.Address, p.Address)
		apply(&m.Landmark, p.Landmark)
		apply(&m.GroupNo, p.GroupNo)
		apply(&m.LoanAmount, p.LoanAmount)
		apply(&m.TotalInterest, p.TotalInterest)
		apply(&m.Weeks, p.Weeks)
		apply(&m.StartDate, p.StartDate)
		apply(&m.Status, p.Status)
		updated = true
		break
	}
	s.mu.Unlock()
	if updated {
		s.notify(KindMembers)
	}
}

// UpdateCollection merges the patch into the collection with the given
// internal id.
func (s *Store) UpdateCollection(id string, p CollectionPatch) {
	s.mu.Lock()
	updated := false
	for i := range s.collections {
		if s.collections[i].ID != id {
			continue
		}
		c := &s.collections[i]
		apply(&c.CollectionDate, p.CollectionDate)
		apply(&c.MemberID, p.MemberID)
		apply(&c.GroupNo, p.GroupNo)
		apply(&c.WeekNo, p.WeekNo)
		apply(&c.AmountPaid, p.AmountPaid)
		apply(&c.PrincipalPaid, p.PrincipalPaid)
		apply(&c.InterestPaid, p.InterestPaid)
		apply(&c.Status, p.Status)
		apply(&c.CollectedBy, p.CollectedBy)
		updated = true
		break
	}
	s.mu.Unlock()
	if updated {
		s.notify(KindCollections)
	}
}

// DeleteGroup removes the group with the given internal id. Dependent
// members are kept; there is no cascading delete.
func (s *Store) DeleteGroup(id string) {
	s.mu.Lock()
	deleted := false
	for i := range s.groups {
		if s.groups[i].ID == id {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			deleted = true
			break
		}
	}
	s.mu.Unlock()
	if deleted {
		s.notify(KindGroups)
	}
}

// DeleteMember removes the member with the given internal id. Its
// collections are kept as history.
func (s *Store) DeleteMember(id string) {
	s.mu.Lock()
	deleted := false
	for i := range s.members {
		if s.members[i].ID == id {
			s.members = append(s.members[:i], s.members[i+1:]...)
			deleted = true
			break
		}
	}
	s.mu.Unlock()
	if deleted {
		s.notify(KindMembers)
	}
}

// DeleteCollection removes the collection with the given internal id.
func (s *Store) DeleteCollection(id string) {
	s.mu.Lock()
	deleted := false
	for i := range s.collections {
		if s.collections[i].ID == id {
			s.collections = append(s.collections[:i], s.collections[i+1:]...)
			deleted = true
			break
		}
	}
	s.mu.Unlock()
	if deleted {
		s.notify(KindCollections)
	}
}

// ReplaceGroups swaps the whole group collection (snapshot import and
// startup load).
func (s *Store) ReplaceGroups(groups []core.Group) {
	s.mu.Lock()
	s.groups = append([]core.Group(nil), groups...)
	s.mu.Unlock()
	s.notify(KindGroups)
}

// ReplaceMembers swaps the whole member collection.
func (s *Store) ReplaceMembers(members []core.Member) {
	s.mu.Lock()
	s.members = append([]core.Member(nil), members...)
	s.mu.Unlock()
	s.notify(KindMembers)
}

// ReplaceCollections swaps the whole collection list.
func (s *Store) ReplaceCollections(collections []core.Collection) {
	s.mu.Lock()
	s.collections = append([]core.Collection(nil), collections...)
	s.mu.Unlock()
	s.notify(KindCollections)
}
