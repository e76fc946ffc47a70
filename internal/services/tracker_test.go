package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"lendtrack/internal/core"
	"lendtrack/internal/ledger"
	"lendtrack/internal/storage"
)

func newTestTracker(t *testing.T) (*Tracker, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	tracker, err := New(context.Background(), kv, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { tracker.Close() })
	return tracker, kv
}

func TestNewSeedsWhenSubstrateEmpty(t *testing.T) {
	tracker, kv := newTestTracker(t)

	if got := len(tracker.Groups()); got != 3 {
		t.Errorf("expected 3 seeded groups, got %d", got)
	}
	if got := len(tracker.Members()); got != 5 {
		t.Errorf("expected 5 seeded members, got %d", got)
	}
	if got := len(tracker.Collections()); got != 5 {
		t.Errorf("expected 5 seeded collections, got %d", got)
	}

	// Seeding writes straight back so the first run is durable.
	for _, key := range []string{storage.KeyGroups, storage.KeyMembers, storage.KeyCollections} {
		if _, ok, _ := kv.Get(context.Background(), key); !ok {
			t.Errorf("expected %s persisted after seeding", key)
		}
	}
}

func TestNewLoadsExistingState(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()

	members := []core.Member{{ID: "m1", MemberID: "M777", LoanAmount: 900, Weeks: 3, Status: core.StatusActive}}
	payload, _ := json.Marshal(members)
	kv.Set(ctx, storage.KeyMembers, string(payload))

	tracker, err := New(ctx, kv, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer tracker.Close()

	got := tracker.Members()
	if len(got) != 1 || got[0].MemberID != "M777" {
		t.Errorf("expected stored member, got %+v", got)
	}
	// The other two keys were absent and fall back to seed data.
	if len(tracker.Groups()) != 3 {
		t.Error("groups should seed independently of members")
	}
}

func TestAddCollectionAllocatesFromMemberTerms(t *testing.T) {
	tracker, _ := newTestTracker(t)

	// Seed member M001: loanAmount 10000, totalInterest 4000.
	added := tracker.AddCollection(NewCollection{
		CollectionDate: "2024-02-12",
		MemberID:       "M001",
		GroupNo:        "G001",
		WeekNo:         3,
		AmountPaid:     1000,
		Status:         "Collected",
		CollectedBy:    "Meena Kumari",
	})
	if added == nil {
		t.Fatal("expected collection to be accepted")
	}
	if added.PrincipalPaid != 714.29 || added.InterestPaid != 285.71 {
		t.Errorf("allocation = %v/%v, want 714.29/285.71",
			added.PrincipalPaid, added.InterestPaid)
	}
	if added.ID == "" {
		t.Error("expected generated id")
	}
}

func TestAddCollectionUnknownMemberRejectedSilently(t *testing.T) {
	tracker, _ := newTestTracker(t)
	before := len(tracker.Collections())

	if got := tracker.AddCollection(NewCollection{MemberID: "M999", AmountPaid: 500}); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	if len(tracker.Collections()) != before {
		t.Error("rejected collection must not be stored")
	}
}

func TestMutationsPersistToSubstrate(t *testing.T) {
	tracker, kv := newTestTracker(t)
	ctx := context.Background()

	g := tracker.AddGroup(core.Group{GroupNo: "G010", GroupName: "Shakti Group"})
	tracker.Flush()

	value, ok, err := kv.Get(ctx, storage.KeyGroups)
	if err != nil || !ok {
		t.Fatalf("get groups: ok=%v err=%v", ok, err)
	}
	var persisted []core.Group
	if err := json.Unmarshal([]byte(value), &persisted); err != nil {
		t.Fatalf("persisted groups unreadable: %v", err)
	}
	found := false
	for _, pg := range persisted {
		if pg.ID == g.ID && pg.GroupNo == "G010" {
			found = true
		}
	}
	if !found {
		t.Error("added group missing from persisted collection")
	}

	// Deletes persist too.
	tracker.DeleteGroup(g.ID)
	tracker.Flush()
	value, _, _ = kv.Get(ctx, storage.KeyGroups)
	if strings.Contains(value, "G010") {
		t.Error("deleted group still persisted")
	}
}

func TestNewRefusesCorruptStoredValue(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	kv.Set(ctx, storage.KeyMembers, `{"not": "a member array"`)

	if _, err := New(ctx, kv, nil); err == nil {
		t.Fatal("expected error for unparseable stored value")
	}

	// The stored value must survive untouched for manual recovery.
	value, ok, _ := kv.Get(ctx, storage.KeyMembers)
	if !ok || value != `{"not": "a member array"` {
		t.Errorf("stored value was rewritten: ok=%v value=%q", ok, value)
	}
}

// slowKV delays writes; reads pass straight through.
type slowKV struct {
	*storage.MemoryKV
	delay time.Duration
}

func (s *slowKV) Set(ctx context.Context, key, value string) error {
	time.Sleep(s.delay)
	return s.MemoryKV.Set(ctx, key, value)
}

func TestMutationsDoNotWaitForPersistence(t *testing.T) {
	kv := &slowKV{MemoryKV: storage.NewMemoryKV(), delay: 300 * time.Millisecond}
	tracker, err := New(context.Background(), storage.NewMemoryKV(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer tracker.Close()
	tracker.kv = kv // swap in the slow substrate after seeding

	g := tracker.AddGroup(core.Group{GroupNo: "G030"})

	// The first write is still in flight; the next mutation must return
	// without waiting for it.
	start := time.Now()
	tracker.DeleteGroup(g.ID)
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("mutation blocked %v on an in-flight substrate write", elapsed)
	}

	tracker.Flush()
	value, _, _ := kv.Get(context.Background(), storage.KeyGroups)
	if strings.Contains(value, "G030") {
		t.Error("final persisted state must reflect the delete")
	}
}

func TestUpdateMemberDoesNotRewriteHistory(t *testing.T) {
	tracker, _ := newTestTracker(t)

	before := tracker.MemberSummary("M001")
	m := tracker.Members()[0]
	if m.MemberID != "M001" {
		t.Fatalf("unexpected seed order: %s", m.MemberID)
	}

	newLoan := 20000.0
	tracker.UpdateMember(m.ID, ledger.MemberPatch{LoanAmount: &newLoan})

	after := tracker.MemberSummary("M001")
	if after.TotalPrincipalCollected != before.TotalPrincipalCollected {
		t.Error("past allocations must not change with loan terms")
	}
	if after.TotalPayable != 24000 {
		t.Errorf("TotalPayable = %v, want 24000", after.TotalPayable)
	}
}

func TestSnapshotRoundTripThroughTracker(t *testing.T) {
	tracker, _ := newTestTracker(t)

	text, err := tracker.ExportSnapshot()
	if err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}

	// Wipe members via a partial import, then restore the full snapshot.
	if err := tracker.ImportSnapshot(`{"members": []}`); err != nil {
		t.Fatalf("partial import failed: %v", err)
	}
	if len(tracker.Members()) != 0 {
		t.Fatal("partial import should have cleared members")
	}
	if len(tracker.Groups()) != 3 {
		t.Error("partial import must leave groups untouched")
	}

	if err := tracker.ImportSnapshot(text); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if len(tracker.Members()) != 5 {
		t.Errorf("expected 5 members after restore, got %d", len(tracker.Members()))
	}
}

func TestImportSnapshotMalformedKeepsStateAndReturnsError(t *testing.T) {
	tracker, kv := newTestTracker(t)
	ctx := context.Background()
	tracker.Flush()
	beforeGroups, _, _ := kv.Get(ctx, storage.KeyGroups)

	if err := tracker.ImportSnapshot(`{"groups": [oops`); err == nil {
		t.Fatal("expected parse error")
	}
	if len(tracker.Groups()) != 3 {
		t.Error("malformed import must not mutate state")
	}

	tracker.Flush()
	afterGroups, _, _ := kv.Get(ctx, storage.KeyGroups)
	if beforeGroups != afterGroups {
		t.Error("malformed import must not trigger persistence")
	}
}

func TestImportSnapshotPersists(t *testing.T) {
	tracker, kv := newTestTracker(t)
	ctx := context.Background()

	text := `{"collections": [{"id": "x1", "memberId": "M001", "groupNo": "G001", "weekNo": 1, "amountPaid": 50, "principalPaid": 35.71, "interestPaid": 14.29}]}`
	if err := tracker.ImportSnapshot(text); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	tracker.Flush()

	value, ok, _ := kv.Get(ctx, storage.KeyCollections)
	if !ok || !strings.Contains(value, `"x1"`) {
		t.Errorf("imported collections not persisted: %q", value)
	}
}

type recordingPublisher struct {
	collections []string
}

func (p *recordingPublisher) PublishCollectionChanged(_ context.Context, collection string, _ int64) error {
	p.collections = append(p.collections, collection)
	return nil
}

func TestChangeEventsPublished(t *testing.T) {
	kv := storage.NewMemoryKV()
	pub := &recordingPublisher{}
	tracker, err := New(context.Background(), kv, pub)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer tracker.Close()

	tracker.AddGroup(core.Group{GroupNo: "G020"})
	tracker.Flush()

	if len(pub.collections) != 1 || pub.collections[0] != "groups" {
		t.Errorf("published = %v, want [groups]", pub.collections)
	}
}
