package snapshot

import (
	"encoding/json"
	"strings"
	"testing"

	"lendtrack/internal/core"
	"lendtrack/internal/ledger"
)

func seededStore() *ledger.Store {
	s := ledger.New()
	s.AddGroup(core.Group{GroupNo: "G001", GroupName: "Lakshmi SHG", MeetingDay: "Monday"})
	s.AddMember(core.Member{
		MemberID: "M001", MemberName: "Devi", GroupNo: "G001",
		LoanAmount: 10000, TotalInterest: 4000, Weeks: 14, Status: core.StatusActive,
	})
	s.AddCollection(core.Collection{
		CollectionDate: "2024-02-05", MemberID: "M001", GroupNo: "G001",
		WeekNo: 1, AmountPaid: 1000, PrincipalPaid: 714.29, InterestPaid: 285.71,
	})
	return s
}

func TestExportRoundTrip(t *testing.T) {
	src := seededStore()

	text, err := Export(src)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := ledger.New()
	if err := Import(dst, text); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(dst.Groups()) != 1 || len(dst.Members()) != 1 || len(dst.Collections()) != 1 {
		t.Fatalf("round trip lost records: %d/%d/%d",
			len(dst.Groups()), len(dst.Members()), len(dst.Collections()))
	}

	gotMember := dst.Members()[0]
	wantMember := src.Members()[0]
	if gotMember != wantMember {
		t.Errorf("member mismatch:\n got %+v\nwant %+v", gotMember, wantMember)
	}
	if got, want := dst.Collections()[0], src.Collections()[0]; got != want {
		t.Errorf("collection mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestExportIsPrettyPrintedWithVerbatimFieldNames(t *testing.T) {
	text, err := Export(seededStore())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if !strings.Contains(text, "\n  ") {
		t.Error("expected indented output")
	}
	for _, field := range []string{
		`"groups"`, `"members"`, `"collections"`,
		`"groupNo"`, `"memberId"`, `"loanAmount"`, `"totalInterest"`,
		`"weekNo"`, `"amountPaid"`, `"principalPaid"`, `"interestPaid"`,
	} {
		if !strings.Contains(text, field) {
			t.Errorf("missing field %s in export", field)
		}
	}
}

func TestExportEmptyStoreUsesEmptyArrays(t *testing.T) {
	text, err := Export(ledger.New())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	for _, key := range []string{"groups", "members", "collections"} {
		if string(doc[key]) != "[]" {
			t.Errorf("%s = %s, want []", key, doc[key])
		}
	}
}

// A document carrying only one key replaces that collection and leaves the
// other two alone.
func TestImportPartialDocument(t *testing.T) {
	s := seededStore()

	text := `{"members": [{"id": "x1", "memberId": "M900", "memberName": "Asha", "groupNo": "G001", "loanAmount": 2000, "totalInterest": 400, "weeks": 8, "status": "Active"}]}`
	if err := Import(s, text); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(s.Groups()) != 1 || len(s.Collections()) != 1 {
		t.Error("groups and collections must be untouched")
	}
	members := s.Members()
	if len(members) != 1 || members[0].MemberID != "M900" {
		t.Errorf("members not replaced: %+v", members)
	}
}

func TestImportMalformedLeavesStateUnchanged(t *testing.T) {
	s := seededStore()

	cases := []string{
		`{not json`,
		`{"groups": "not-an-array"}`,
		`{"groups": [], "members": [{"loanAmount": "oops"}]}`,
	}
	for _, text := range cases {
		if err := Import(s, text); err == nil {
			t.Errorf("expected parse error for %q", text)
		}
	}

	if len(s.Groups()) != 1 || len(s.Members()) != 1 || len(s.Collections()) != 1 {
		t.Error("malformed import must not mutate state")
	}
}

// Sections are validated before any replacement: a document with one good
// and one bad section applies neither.
func TestImportIsAllOrNothingAtParse(t *testing.T) {
	s := seededStore()

	text := `{"groups": [], "collections": [{"weekNo": "bad"}]}`
	if err := Import(s, text); err == nil {
		t.Fatal("expected parse error")
	}
	if len(s.Groups()) != 1 {
		t.Error("groups must not be replaced when another section fails to parse")
	}
}
