package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"lendtrack/internal/core"
	"lendtrack/internal/ledger"
	applog "lendtrack/internal/log"
	"lendtrack/internal/report"
	"lendtrack/internal/services"
)

// Tracker is the service surface the HTTP API exposes.
type Tracker interface {
	Groups() []core.Group
	AddGroup(g core.Group) core.Group
	UpdateGroup(id string, p ledger.GroupPatch)
	DeleteGroup(id string)

	Members() []core.Member
	AddMember(m core.Member) core.Member
	UpdateMember(id string, p ledger.MemberPatch)
	DeleteMember(id string)

	Collections() []core.Collection
	AddCollection(in services.NewCollection) *core.Collection
	UpdateCollection(id string, p ledger.CollectionPatch)
	DeleteCollection(id string)

	MemberSummary(memberID string) *report.MemberSummary
	AllMemberSummaries() []report.MemberSummary
	GroupSummary(groupNo string) *report.GroupSummary
	AllGroupSummaries() []report.GroupSummary
	OverallSummary() report.OverallSummary
	WeeklyData() []report.WeekEntry
	CollectionsForWeek(weekNo int) []core.Collection
	ExpectedCollectionsForWeek(weekNo int) []report.MemberSummary

	ExportSnapshot() (string, error)
	ImportSnapshot(text string) error
}

// Server wraps http.Server with the JSON API routes and security middleware.
type Server struct {
	http.Server
	tracker      Tracker
	logger       *applog.Logger
	structured   *applog.StructuredLogger
	rateLimiter  *rateLimiter
	metrics      securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, tracker Tracker, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		tracker:     tracker,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(defaultMutationsPerMinute),
	}
	s.structured = applog.NewStructuredLogger(s.logger)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/groups", s.withSecurity(s.handleListGroups))
	mux.HandleFunc("POST /api/groups", s.withSecurity(s.handleCreateGroup))
	mux.HandleFunc("PUT /api/groups/{id}", s.withSecurity(s.handleUpdateGroup))
	mux.HandleFunc("DELETE /api/groups/{id}", s.withSecurity(s.handleDeleteGroup))
	mux.HandleFunc("GET /api/groups/{groupNo}/summary", s.withSecurity(s.handleGroupSummary))

	mux.HandleFunc("GET /api/members", s.withSecurity(s.handleListMembers))
	mux.HandleFunc("POST /api/members", s.withSecurity(s.handleCreateMember))
	mux.HandleFunc("PUT /api/members/{id}", s.withSecurity(s.handleUpdateMember))
	mux.HandleFunc("DELETE /api/members/{id}", s.withSecurity(s.handleDeleteMember))
	mux.HandleFunc("GET /api/members/{memberId}/summary", s.withSecurity(s.handleMemberSummary))

	mux.HandleFunc("GET /api/collections", s.withSecurity(s.handleListCollections))
	mux.HandleFunc("POST /api/collections", s.withSecurity(s.handleCreateCollection))
	mux.HandleFunc("PUT /api/collections/{id}", s.withSecurity(s.handleUpdateCollection))
	mux.HandleFunc("DELETE /api/collections/{id}", s.withSecurity(s.handleDeleteCollection))

	mux.HandleFunc("GET /api/summary", s.withSecurity(s.handleOverallSummary))
	mux.HandleFunc("GET /api/summary/members", s.withSecurity(s.handleAllMemberSummaries))
	mux.HandleFunc("GET /api/summary/groups", s.withSecurity(s.handleAllGroupSummaries))
	mux.HandleFunc("GET /api/weekly", s.withSecurity(s.handleWeeklyData))
	mux.HandleFunc("GET /api/weeks/{weekNo}/collections", s.withSecurity(s.handleWeekCollections))
	mux.HandleFunc("GET /api/weeks/{weekNo}/expected", s.withSecurity(s.handleWeekExpected))

	mux.HandleFunc("GET /api/snapshot", s.withSecurity(s.handleExportSnapshot))
	mux.HandleFunc("POST /api/snapshot", s.withSecurity(s.handleImportSnapshot))

	// The logger middleware puts the request logger into the context so
	// handlers and withSecurity can pull it back out.
	s.Server = http.Server{
		Addr:    addr,
		Handler: applog.Middleware(s.logger)(mux),
	}

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurity adds security headers, rate limiting, and request logging.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		logger := applog.FromContext(r.Context()).With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		s.structured.LogHTTPStart(ctx, r, clientIP, requestID)

		// Rate limit mutations only; reads stay cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, &s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP, requestID)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
