package http

import (
	"io"
	"net/http"

	"lendtrack/internal/core"
	"lendtrack/internal/ledger"
	applog "lendtrack/internal/log"
	"lendtrack/internal/report"
	"lendtrack/internal/services"
)

// --- groups ---

// groupPatchRequest mirrors ledger.GroupPatch with wire field names. Absent
// fields stay nil and are not applied.
type groupPatchRequest struct {
	GroupNo       *string `json:"groupNo"`
	GroupName     *string `json:"groupName"`
	GroupHeadName *string `json:"groupHeadName"`
	HeadContact   *string `json:"headContact"`
	MeetingDay    *string `json:"meetingDay"`
	FormationDate *string `json:"formationDate"`
}

func (req groupPatchRequest) toPatch() ledger.GroupPatch {
	return ledger.GroupPatch{
		GroupNo:       sanitizePtr(req.GroupNo),
		GroupName:     sanitizePtr(req.GroupName),
		GroupHeadName: sanitizePtr(req.GroupHeadName),
		HeadContact:   sanitizePtr(req.HeadContact),
		MeetingDay:    sanitizePtr(req.MeetingDay),
		FormationDate: sanitizePtr(req.FormationDate),
	}
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Groups())
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var g core.Group
	if err := decodeJSON(r, &g); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	g.GroupNo = sanitizeInput(g.GroupNo)
	g.GroupName = sanitizeInput(g.GroupName)
	g.GroupHeadName = sanitizeInput(g.GroupHeadName)

	added := s.tracker.AddGroup(g)
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.tracker.UpdateGroup(r.PathValue("id"), req.toPatch())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	s.tracker.DeleteGroup(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGroupSummary(w http.ResponseWriter, r *http.Request) {
	summary := s.tracker.GroupSummary(r.PathValue("groupNo"))
	if summary == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- members ---

type memberPatchRequest struct {
	MemberID      *string  `json:"memberId"`
	MemberName    *string  `json:"memberName"`
	Address       *string  `json:"address"`
	Landmark      *string  `json:"landmark"`
	GroupNo       *string  `json:"groupNo"`
	LoanAmount    *float64 `json:"loanAmount"`
	TotalInterest *float64 `json:"totalInterest"`
	Weeks         *int     `json:"weeks"`
	StartDate     *string  `json:"startDate"`
	Status        *string  `json:"status"`
}

func (req memberPatchRequest) toPatch() ledger.MemberPatch {
	p := ledger.MemberPatch{
		MemberID:      sanitizePtr(req.MemberID),
		MemberName:    sanitizePtr(req.MemberName),
		Address:       sanitizePtr(req.Address),
		Landmark:      sanitizePtr(req.Landmark),
		GroupNo:       sanitizePtr(req.GroupNo),
		LoanAmount:    req.LoanAmount,
		TotalInterest: req.TotalInterest,
		Weeks:         req.Weeks,
		StartDate:     sanitizePtr(req.StartDate),
	}
	if req.Status != nil {
		status := core.MemberStatus(sanitizeInput(*req.Status))
		p.Status = &status
	}
	return p
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Members())
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var m core.Member
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m.MemberID = sanitizeInput(m.MemberID)
	m.MemberName = sanitizeInput(m.MemberName)
	m.GroupNo = sanitizeInput(m.GroupNo)

	added := s.tracker.AddMember(m)
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.tracker.UpdateMember(r.PathValue("id"), req.toPatch())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	s.tracker.DeleteMember(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMemberSummary(w http.ResponseWriter, r *http.Request) {
	summary := s.tracker.MemberSummary(r.PathValue("memberId"))
	if summary == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- collections ---

// createCollectionRequest is the client payload for recording a repayment.
// Principal and interest are never accepted from the client; the allocation
// engine computes them from the member's loan terms.
type createCollectionRequest struct {
	CollectionDate string  `json:"collectionDate"`
	MemberID       string  `json:"memberId"`
	GroupNo        string  `json:"groupNo"`
	WeekNo         int     `json:"weekNo"`
	AmountPaid     float64 `json:"amountPaid"`
	Status         string  `json:"status"`
	CollectedBy    string  `json:"collectedBy"`
}

type collectionPatchRequest struct {
	CollectionDate *string  `json:"collectionDate"`
	MemberID       *string  `json:"memberId"`
	GroupNo        *string  `json:"groupNo"`
	WeekNo         *int     `json:"weekNo"`
	AmountPaid     *float64 `json:"amountPaid"`
	PrincipalPaid  *float64 `json:"principalPaid"`
	InterestPaid   *float64 `json:"interestPaid"`
	Status         *string  `json:"status"`
	CollectedBy    *string  `json:"collectedBy"`
}

func (req collectionPatchRequest) toPatch() ledger.CollectionPatch {
	return ledger.CollectionPatch{
		CollectionDate: sanitizePtr(req.CollectionDate),
		MemberID:       sanitizePtr(req.MemberID),
		GroupNo:        sanitizePtr(req.GroupNo),
		WeekNo:         req.WeekNo,
		AmountPaid:     req.AmountPaid,
		PrincipalPaid:  req.PrincipalPaid,
		InterestPaid:   req.InterestPaid,
		Status:         sanitizePtr(req.Status),
		CollectedBy:    sanitizePtr(req.CollectedBy),
	}
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Collections())
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added := s.tracker.AddCollection(services.NewCollection{
		CollectionDate: sanitizeInput(req.CollectionDate),
		MemberID:       sanitizeInput(req.MemberID),
		GroupNo:        sanitizeInput(req.GroupNo),
		WeekNo:         req.WeekNo,
		AmountPaid:     req.AmountPaid,
		Status:         sanitizeInput(req.Status),
		CollectedBy:    sanitizeInput(req.CollectedBy),
	})
	if added == nil {
		writeError(w, http.StatusUnprocessableEntity, "unknown memberId")
		return
	}

	logger := applog.FromContext(r.Context())
	logger.InfoContext(r.Context(), "Collection recorded via API",
		applog.FieldMemberID, added.MemberID,
		applog.FieldWeekNo, added.WeekNo,
		applog.FieldAmountPaid, added.AmountPaid)

	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.tracker.UpdateCollection(r.PathValue("id"), req.toPatch())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	s.tracker.DeleteCollection(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// --- summaries ---

func (s *Server) handleOverallSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.OverallSummary())
}

func (s *Server) handleAllMemberSummaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.AllMemberSummaries())
}

func (s *Server) handleAllGroupSummaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.AllGroupSummaries())
}

func (s *Server) handleWeeklyData(w http.ResponseWriter, r *http.Request) {
	entries := s.tracker.WeeklyData()
	if entries == nil {
		entries = []report.WeekEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleWeekCollections(w http.ResponseWriter, r *http.Request) {
	weekNo, err := parseWeekNo(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.CollectionsForWeek(weekNo))
}

func (s *Server) handleWeekExpected(w http.ResponseWriter, r *http.Request) {
	weekNo, err := parseWeekNo(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.ExpectedCollectionsForWeek(weekNo))
}

// --- snapshot ---

func (s *Server) handleExportSnapshot(w http.ResponseWriter, r *http.Request) {
	text, err := s.tracker.ExportSnapshot()
	if err != nil {
		s.structured.LogError(r.Context(), "Snapshot export failed", err,
			applog.OpExport, applog.NewFields())
		writeError(w, http.StatusInternalServerError, "snapshot export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="lendtrack-snapshot.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleImportSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed reading request body")
		return
	}

	if err := s.tracker.ImportSnapshot(string(body)); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Snapshot import rejected",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpImport)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeInput(*s)
	return &clean
}
