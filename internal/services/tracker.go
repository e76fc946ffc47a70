// Package services wires the record store, allocation engine, report engine
// and snapshot codec into the single surface the presentation layer calls,
// and mirrors every mutation into the durable key-value substrate.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lendtrack/internal/allocation"
	"lendtrack/internal/core"
	"lendtrack/internal/ledger"
	applog "lendtrack/internal/log"
	"lendtrack/internal/report"
	"lendtrack/internal/seed"
	"lendtrack/internal/snapshot"
	"lendtrack/internal/storage"
)

// persistTimeout bounds each background substrate write.
const persistTimeout = 10 * time.Second

// Publisher emits collection-change events. Optional; a nil publisher
// disables eventing without disabling persistence.
type Publisher interface {
	PublishCollectionChanged(ctx context.Context, collection string, revision int64) error
}

// Tracker is the state owner of the group-lending book. Constructed once per
// process; mutations update in-memory state first and then fire a
// non-blocking persistence write whose failure is logged, never surfaced to
// the mutating caller.
type Tracker struct {
	store   *ledger.Store
	reports *report.Engine
	kv      storage.KV
	pub     Publisher
	logs    *applog.StructuredLogger

	// The bridge serializes synchronously (capturing state as of the
	// mutation) and writes in the background. lastWritten keeps a late
	// goroutine from clobbering a newer write for the same key; writeMu
	// serializes substrate writes per key among the background
	// goroutines. persistMu is never held across a substrate call, so a
	// slow write never stalls the next mutating caller.
	wg          sync.WaitGroup
	persistMu   sync.Mutex
	revision    int64
	lastWritten map[ledger.Kind]int64
	writeMu     map[ledger.Kind]*sync.Mutex
}

// NewCollection is the caller-facing shape of a repayment event. Principal
// and interest are never caller-supplied; the allocation engine derives them
// from the member's loan terms.
type NewCollection struct {
	CollectionDate string
	MemberID       string
	GroupNo        string
	WeekNo         int
	AmountPaid     float64
	Status         string
	CollectedBy    string
}

// New builds a tracker over kv, seeding any absent collection with the
// built-in demonstration dataset. pub may be nil.
func New(ctx context.Context, kv storage.KV, pub Publisher) (*Tracker, error) {
	t := &Tracker{
		store:       ledger.New(),
		kv:          kv,
		pub:         pub,
		logs:        applog.NewStructuredLogger(applog.Default().WithComponent(applog.ComponentTracker)),
		lastWritten: make(map[ledger.Kind]int64),
		writeMu: map[ledger.Kind]*sync.Mutex{
			ledger.KindGroups:      {},
			ledger.KindMembers:     {},
			ledger.KindCollections: {},
		},
	}
	t.reports = report.New(t.store)

	if err := t.load(ctx); err != nil {
		return nil, err
	}

	// Watch after loading so startup replacements don't echo back into
	// the substrate.
	t.store.Watch(t.onChange)
	return t, nil
}

func (t *Tracker) load(ctx context.Context) error {
	if err := loadCollection(ctx, t.kv, storage.KeyGroups, seed.Groups, t.store.ReplaceGroups); err != nil {
		return err
	}
	if err := loadCollection(ctx, t.kv, storage.KeyMembers, seed.Members, t.store.ReplaceMembers); err != nil {
		return err
	}
	return loadCollection(ctx, t.kv, storage.KeyCollections, seed.Collections, t.store.ReplaceCollections)
}

// loadCollection reads one key, falling back to the seed data only when the
// key is absent. Seeded data is written back so the first run is durable. A
// present value that no longer parses may still be recoverable by hand, so
// it refuses to start instead of overwriting it.
func loadCollection[T any](ctx context.Context, kv storage.KV, key string, seedFn func() []T, replace func([]T)) error {
	value, ok, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}

	if ok {
		var records []T
		if err := json.Unmarshal([]byte(value), &records); err != nil {
			return fmt.Errorf("parse stored %s: %w", key, err)
		}
		replace(records)
		return nil
	}

	records := seedFn()
	replace(records)

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal seed for %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("persist seed for %s: %w", key, err)
	}
	slog.Info("Seeded collection with demonstration data", "key", key, "records", len(records))
	return nil
}

// onChange is the persistence bridge: marshal now, write later.
func (t *Tracker) onChange(c ledger.Change) {
	payload, err := t.marshalKind(c.Kind)
	if err != nil {
		slog.Error("Failed to serialize collection for persistence",
			"collection", c.Kind, "error", err)
		return
	}

	t.persistMu.Lock()
	t.revision++
	rev := t.revision
	t.persistMu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		// One write per key at a time, so an older payload can never
		// land after a newer one. Mutating callers never take this
		// lock.
		mu := t.writeMu[c.Kind]
		mu.Lock()
		defer mu.Unlock()

		t.persistMu.Lock()
		stale := rev <= t.lastWritten[c.Kind]
		t.persistMu.Unlock()
		if stale {
			// A newer write for this key already landed.
			return
		}

		if err := t.kv.Set(ctx, keyFor(c.Kind), payload); err != nil {
			slog.Error("Failed to persist collection",
				"collection", c.Kind, "revision", rev, "error", err)
			return
		}

		t.persistMu.Lock()
		if rev > t.lastWritten[c.Kind] {
			t.lastWritten[c.Kind] = rev
		}
		t.persistMu.Unlock()

		if t.pub != nil {
			if err := t.pub.PublishCollectionChanged(ctx, string(c.Kind), rev); err != nil {
				slog.Error("Failed to publish change event",
					"collection", c.Kind, "revision", rev, "error", err)
			}
		}
	}()
}

func (t *Tracker) marshalKind(kind ledger.Kind) (string, error) {
	var payload []byte
	var err error
	switch kind {
	case ledger.KindGroups:
		payload, err = json.Marshal(t.store.Groups())
	case ledger.KindMembers:
		payload, err = json.Marshal(t.store.Members())
	case ledger.KindCollections:
		payload, err = json.Marshal(t.store.Collections())
	default:
		return "", fmt.Errorf("unknown collection kind %q", kind)
	}
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func keyFor(kind ledger.Kind) string {
	switch kind {
	case ledger.KindGroups:
		return storage.KeyGroups
	case ledger.KindMembers:
		return storage.KeyMembers
	default:
		return storage.KeyCollections
	}
}

// Flush waits for in-flight persistence writes. Called on shutdown and by
// tests; ordinary callers never wait.
func (t *Tracker) Flush() {
	t.wg.Wait()
}

// Close flushes pending writes. The substrate and publisher are owned by
// the caller and closed there.
func (t *Tracker) Close() error {
	t.Flush()
	return nil
}

// --- mutation surface ---

// AddGroup records a new lending group. Always succeeds; groupNo uniqueness
// is not validated.
func (t *Tracker) AddGroup(g core.Group) core.Group {
	added := t.store.AddGroup(g)
	slog.Info("Group added", "group_no", added.GroupNo, "id", added.ID)
	return added
}

// UpdateGroup merges the patch into the group with the given internal id;
// silent no-op when the id is unknown.
func (t *Tracker) UpdateGroup(id string, p ledger.GroupPatch) {
	t.store.UpdateGroup(id, p)
}

// DeleteGroup removes a group. Members keep their groupNo; their group
// summary simply resolves to nothing afterwards.
func (t *Tracker) DeleteGroup(id string) {
	t.store.DeleteGroup(id)
}

// AddMember records a new borrower.
func (t *Tracker) AddMember(m core.Member) core.Member {
	added := t.store.AddMember(m)
	slog.Info("Member added",
		"member_id", added.MemberID,
		"group_no", added.GroupNo,
		"loan_amount", added.LoanAmount)
	return added
}

// UpdateMember merges the patch into the member with the given internal id.
// Changing loan terms does not touch the principal/interest split of
// collections already on record.
func (t *Tracker) UpdateMember(id string, p ledger.MemberPatch) {
	t.store.UpdateMember(id, p)
}

// DeleteMember removes a borrower; collection history survives.
func (t *Tracker) DeleteMember(id string) {
	t.store.DeleteMember(id)
}

// AddCollection records a repayment. The payment is split into principal
// and interest from the member's original loan terms. A collection naming an
// unknown memberId is rejected silently: nil is returned and nothing is
// stored, mirroring the permissive no-op policy of the other mutations.
func (t *Tracker) AddCollection(in NewCollection) *core.Collection {
	member := t.store.MemberByID(in.MemberID)
	if member == nil {
		slog.Warn("Collection rejected, unknown member", "member_id", in.MemberID)
		return nil
	}

	principal, interest := allocation.Split(member.LoanAmount, member.TotalInterest, in.AmountPaid)
	added := t.store.AddCollection(core.Collection{
		CollectionDate: in.CollectionDate,
		MemberID:       in.MemberID,
		GroupNo:        in.GroupNo,
		WeekNo:         in.WeekNo,
		AmountPaid:     in.AmountPaid,
		PrincipalPaid:  principal,
		InterestPaid:   interest,
		Status:         in.Status,
		CollectedBy:    in.CollectedBy,
	})
	t.logs.LogCollectionRecorded(context.Background(),
		added.MemberID, added.GroupNo, added.WeekNo,
		added.AmountPaid, added.PrincipalPaid, added.InterestPaid)
	return &added
}

// UpdateCollection merges the patch into the collection with the given
// internal id. Direct edits may break amountPaid == principal+interest; the
// tracker keeps whatever the caller wrote.
func (t *Tracker) UpdateCollection(id string, p ledger.CollectionPatch) {
	t.store.UpdateCollection(id, p)
}

// DeleteCollection removes a repayment record.
func (t *Tracker) DeleteCollection(id string) {
	t.store.DeleteCollection(id)
}

// --- query surface ---

// Groups lists all groups in insertion order.
func (t *Tracker) Groups() []core.Group { return t.store.Groups() }

// Members lists all members in insertion order.
func (t *Tracker) Members() []core.Member { return t.store.Members() }

// Collections lists all collections in insertion order.
func (t *Tracker) Collections() []core.Collection { return t.store.Collections() }

// MemberSummary returns the derived position of one member, nil when the
// memberId is unknown.
func (t *Tracker) MemberSummary(memberID string) *report.MemberSummary {
	return t.reports.MemberSummary(memberID)
}

// AllMemberSummaries returns a summary per member in listing order.
func (t *Tracker) AllMemberSummaries() []report.MemberSummary {
	return t.reports.AllMemberSummaries()
}

// GroupSummary returns the derived position of one group, nil when the
// groupNo is unknown.
func (t *Tracker) GroupSummary(groupNo string) *report.GroupSummary {
	return t.reports.GroupSummary(groupNo)
}

// AllGroupSummaries returns a summary per group in listing order.
func (t *Tracker) AllGroupSummaries() []report.GroupSummary {
	return t.reports.AllGroupSummaries()
}

// OverallSummary aggregates the whole book.
func (t *Tracker) OverallSummary() report.OverallSummary {
	return t.reports.OverallSummary()
}

// WeeklyData returns per-week rollups from week 1 to the highest week on
// record.
func (t *Tracker) WeeklyData() []report.WeekEntry {
	return t.reports.WeeklyData()
}

// CollectionsForWeek returns the collections recorded under weekNo.
func (t *Tracker) CollectionsForWeek(weekNo int) []core.Collection {
	return t.reports.CollectionsForWeek(weekNo)
}

// ExpectedCollectionsForWeek returns active members still owing
// installments. The parameter is ignored (see report.Engine).
func (t *Tracker) ExpectedCollectionsForWeek(weekNo int) []report.MemberSummary {
	return t.reports.ExpectedCollectionsForWeek(weekNo)
}

// ExportSnapshot serializes the full state as a portable JSON document.
func (t *Tracker) ExportSnapshot() (string, error) {
	return snapshot.Export(t.store)
}

// ImportSnapshot restores collections from a snapshot document. Malformed
// input returns an error with state unchanged; a valid document replaces
// exactly the collections whose keys it carries, and the replacements flow
// through the persistence bridge like any other mutation.
func (t *Tracker) ImportSnapshot(text string) error {
	return snapshot.Import(t.store, text)
}
