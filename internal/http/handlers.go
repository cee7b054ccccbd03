package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"sheetledger/internal/core"
	"sheetledger/internal/log"
	"sheetledger/internal/session"
	"sheetledger/internal/view"
)

// Status line set when the provider round trip fails.
const statusSignInFailed = "Sign-in failed. Please try again."

// pageData feeds index.html.
type pageData struct {
	Status        string
	Notice        string
	Panels        session.Panels
	SignInEnabled bool
	MaxNameLength int
	List          view.ListView
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).String(),
	})
}

// handleReady reports whether the page can be served and sign-in works.
// Missing credentials make the server not ready, though it keeps serving the
// page with the explanatory status line.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.renderer.Ready() {
		checks["templates"] = "ok"
	} else {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.gate.Ready() {
		checks["sign_in"] = "ok"
	} else {
		checks["sign_in"] = "failed: " + session.StatusMissingCredentials
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	checks["sessions"] = map[string]interface{}{
		"active": s.sessions.Len(),
		"status": "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.tracer.GetMetrics()
	counters := []struct {
		name, help, kind string
		value            int64
	}{
		{"http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests},
		{"http_server_errors_total", "Responses with a 5xx status", "counter", traceMetrics.FailedResponses},
		{"ledger_entries_added_total", "Entries confirmed written", "counter", atomic.LoadInt64(&s.metrics.entriesAdded)},
		{"ledger_append_failures_total", "Entries the provider rejected", "counter", atomic.LoadInt64(&s.metrics.appendFailures)},
		{"ledger_load_failures_total", "Failed list loads", "counter", atomic.LoadInt64(&s.metrics.loadFailures)},
		{"rate_limit_hits_total", "Requests refused by the rate limiter", "counter", s.limiter.Rejected()},
		{"suspicious_requests_total", "Requests matching scan patterns", "counter", s.detector.SuspiciousCount()},
		{"active_sessions", "Sessions held in memory", "gauge", int64(s.sessions.Len())},
		{"uptime_seconds", "Application uptime in seconds", "gauge", int64(time.Since(s.metrics.started).Seconds())},
	}
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", c.name, c.kind)
		fmt.Fprintf(w, "%s %d\n\n", c.name, c.value)
	}
}

// handleIndex renders the full page. For a signed-in session the resource is
// resolved first, so a failed resolve at sign-in is retried by reloading.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowedError("GET, HEAD").Write(w)
		return
	}

	ctx := r.Context()
	sess := s.sessions.Current(w, r)
	filter := sess.ActiveFilter()

	list := view.NotResolved(filter)
	if sess.SignedIn() {
		if _, err := s.ledger.Resolve(ctx, sess); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Resolve failed on page load",
				log.FieldSessionID, sess.ID, log.FieldError, err)
		} else {
			list = s.loadList(ctx, sess, filter)
		}
	}

	snap := sess.Snapshot()
	data := pageData{
		Status:        s.gate.Status(sess),
		Notice:        snap.Notice,
		Panels:        s.gate.Panels(sess),
		SignInEnabled: s.gate.Ready(),
		MaxNameLength: maxNameLength,
		List:          list,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Page(w, data); err != nil {
		s.logTemplateError(ctx, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// handleLogin redirects to the provider consent screen.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	if !s.gate.Ready() {
		ErrorResponse(http.StatusServiceUnavailable, session.StatusMissingCredentials).Write(w)
		return
	}
	sess := s.sessions.Load(w, r)
	url, err := s.gate.SignIn(sess)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Sign-in URL failed",
			log.FieldOperation, log.OpSignIn, log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, session.StatusMissingCredentials).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleCallback completes the provider round trip and returns to the page.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)
	q := r.URL.Query()

	if reason := q.Get("error"); reason != "" {
		logger.WarnContext(ctx, "Sign-in cancelled at provider",
			log.FieldOperation, log.OpSignIn, "reason", sanitizeInput(reason))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess, ok := s.sessions.Lookup(w, r)
	if !ok {
		logger.WarnContext(ctx, "OAuth callback without a session", log.FieldOperation, log.OpSignIn)
		BadRequestError("Sign-in request expired. Please try again.").Write(w)
		return
	}

	err := s.gate.Complete(ctx, sess, q.Get("state"), q.Get("code"))
	switch {
	case errors.Is(err, session.ErrStateMismatch):
		logger.WarnContext(ctx, "OAuth state mismatch",
			log.FieldOperation, log.OpSignIn, log.FieldSessionID, sess.ID)
		BadRequestError("Sign-in request expired. Please try again.").Write(w)
		return
	case err != nil:
		logger.ErrorContext(ctx, "Sign-in failed",
			log.FieldOperation, log.OpSignIn, log.FieldSessionID, sess.ID, log.FieldError, err)
		sess.SetStatus(statusSignInFailed)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout signs the session out and returns to the page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if sess, ok := s.sessions.Lookup(w, r); ok {
		s.gate.SignOut(r.Context(), sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loadList loads rows for sess and turns them into a list view. Errors become
// the load-error view; they never fail the request.
func (s *Server) loadList(ctx context.Context, sess *session.Session, filter core.Filter) view.ListView {
	res, err := s.ledger.Load(ctx, sess, filter)
	if err != nil {
		s.metrics.loadFailed()
		log.FromContext(ctx).ErrorContext(ctx, "Error loading entries",
			log.FieldOperation, log.OpLoad,
			log.FieldSessionID, sess.ID,
			log.FieldFilter, filter.String(),
			log.FieldError, err)
		return view.LoadError(filter)
	}
	if !res.Resolved {
		return view.NotResolved(filter)
	}
	return view.RenderFiltered(res.Entries, res.Total, filter)
}

func (s *Server) logTemplateError(ctx context.Context, err error) {
	log.FromContext(ctx).WithComponent(log.ComponentTemplate).ErrorContext(ctx, "Template render failed",
		log.FieldOperation, log.OpRender, log.FieldError, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
