package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lendtrack/internal/core"
	applog "lendtrack/internal/log"
	"lendtrack/internal/report"
	"lendtrack/internal/services"
	"lendtrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tracker, err := services.New(context.Background(), storage.NewMemoryKV(), nil)
	if err != nil {
		t.Fatalf("building tracker: %v", err)
	}
	t.Cleanup(func() { tracker.Close() })

	srv := NewServer(":0", tracker, applog.New(applog.DefaultConfig()))
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestListGroupsReturnsSeedData(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/groups", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var groups []core.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(groups) != 3 {
		t.Errorf("got %d groups, want 3", len(groups))
	}
}

func TestCreateGroup(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/groups",
		`{"groupNo": "G050", "groupName": "Pragati Group", "groupHeadName": "Asha Devi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created core.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected server-assigned id")
	}
	if created.GroupNo != "G050" {
		t.Errorf("groupNo = %q, want G050", created.GroupNo)
	}
}

func TestCreateGroupMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/groups", `{"groupNo": `)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateGroupMergesFields(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/groups",
		`{"groupNo": "G060", "groupName": "Original", "meetingDay": "Monday"}`)
	var created core.Group
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doRequest(t, srv, http.MethodPut, "/api/groups/"+created.ID, `{"groupName": "Renamed"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/groups", "")
	var groups []core.Group
	_ = json.Unmarshal(rec.Body.Bytes(), &groups)
	for _, g := range groups {
		if g.ID != created.ID {
			continue
		}
		if g.GroupName != "Renamed" {
			t.Errorf("groupName = %q, want Renamed", g.GroupName)
		}
		if g.MeetingDay != "Monday" {
			t.Errorf("meetingDay = %q, want Monday untouched", g.MeetingDay)
		}
		return
	}
	t.Fatal("updated group not found in list")
}

func TestUpdateUnknownGroupIsNoOp(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/groups/no-such-id", `{"groupName": "X"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for silent no-op", rec.Code)
	}
}

func TestCreateCollectionComputesAllocation(t *testing.T) {
	srv := newTestServer(t)

	// Seed member M001 has loanAmount 10000 and totalInterest 4000.
	rec := doRequest(t, srv, http.MethodPost, "/api/collections",
		`{"collectionDate": "2024-03-04", "memberId": "M001", "groupNo": "G001", "weekNo": 4, "amountPaid": 1000, "status": "Collected", "collectedBy": "Meena Kumari"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created core.Collection
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.PrincipalPaid != 714.29 || created.InterestPaid != 285.71 {
		t.Errorf("allocation = %v/%v, want 714.29/285.71", created.PrincipalPaid, created.InterestPaid)
	}
}

func TestCreateCollectionUnknownMember(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections",
		`{"memberId": "M999", "amountPaid": 100}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestCreateCollectionIgnoresClientAllocation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections",
		`{"memberId": "M001", "groupNo": "G001", "weekNo": 5, "amountPaid": 1000, "principalPaid": 999, "interestPaid": 1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var created core.Collection
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	if created.PrincipalPaid == 999 {
		t.Error("client-supplied principalPaid must be ignored")
	}
}

func TestMemberSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/members/M001/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var summary report.MemberSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if summary.TotalPayable != 14000 {
		t.Errorf("totalPayable = %v, want 14000", summary.TotalPayable)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/members/M999/summary", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown member status = %d, want 404", rec.Code)
	}
}

func TestGroupSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/groups/G001/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/groups/G999/summary", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown group status = %d, want 404", rec.Code)
	}
}

func TestOverallSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var summary report.OverallSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if summary.TotalGroups != 3 || summary.TotalMembers != 5 {
		t.Errorf("counts = %d/%d, want 3/5", summary.TotalGroups, summary.TotalMembers)
	}
}

func TestWeekEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/weeks/1/collections", "")
	if rec.Code != http.StatusOK {
		t.Errorf("collections status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/weeks/abc/collections", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid week status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/weeks/1/expected", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected status = %d, want 200", rec.Code)
	}
}

func TestSnapshotRoundTripOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, want 200", rec.Code)
	}
	exported := rec.Body.String()
	if !strings.Contains(exported, `"groups"`) {
		t.Errorf("unexpected snapshot payload: %.100s", exported)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/snapshot", exported)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("import status = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/snapshot", `{"groups": [broken`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed import status = %d, want 422", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/groups", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestMutationRateLimit(t *testing.T) {
	srv := newTestServer(t)

	var limited bool
	for i := 0; i < 70; i++ {
		rec := doRequest(t, srv, http.MethodPost, "/api/groups", `{"groupNo": "GX"}`)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected rate limiting to kick in for rapid mutations")
	}
}
