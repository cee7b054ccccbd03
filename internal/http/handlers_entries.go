package http

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"sheetledger/internal/core"
	"sheetledger/internal/log"
	"sheetledger/internal/services"
)

// Alert texts for the entry form.
const (
	alertAppendFailed = "Error adding entry. Please try again."
	alertEmptyName    = "Please enter a name for the entry."
	alertNameTooLong  = "Entry name is too long."
	alertSignedOut    = "Please sign in to access your tracker"

	alertAmountOutOfRange = "Amount is too large."
	alertRateLimited      = "Too many requests. Please wait a minute and try again."
)

const maxNameLength = 200

// handleCreateEntry appends one row. On success the list is re-read from the
// provider and swapped in together with a form:reset trigger. On failure the
// list on screen is left as is and the form keeps its values.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)
	sess, ok := s.sessions.Lookup(w, r)
	if !ok || !sess.SignedIn() {
		UnauthorizedError(alertSignedOut).Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	if utf8.RuneCountInString(name) > maxNameLength {
		UnprocessableEntityError(alertNameTooLong).Write(w)
		return
	}
	amount := sanitizeInput(r.Form.Get("amount"))
	if _, err := core.ParseAmount(amount); err != nil {
		UnprocessableEntityError(alertAmountOutOfRange).Write(w)
		return
	}
	entry := core.NewEntry(name, amount, r.Form.Get("type"))

	err := s.ledger.Append(ctx, sess, entry)
	switch {
	case errors.Is(err, core.ErrEmptyName):
		UnprocessableEntityError(alertEmptyName).Write(w)
		return
	case errors.Is(err, services.ErrSignedOut):
		UnauthorizedError(alertSignedOut).Write(w)
		return
	case err != nil:
		s.metrics.appendFailed()
		logger.ErrorContext(ctx, "Error adding entry",
			log.FieldOperation, log.OpAppend,
			log.FieldSessionID, sess.ID,
			log.FieldError, err)
		AlertResponse(http.StatusBadGateway, alertAppendFailed).Write(w)
		return
	}
	s.metrics.entryAdded()

	list := s.loadList(ctx, sess, sess.ActiveFilter())
	html, err := s.renderer.RenderHTML(list)
	if err != nil {
		s.logTemplateError(ctx, err)
		// The row is written; reset the form anyway and let the next load repaint.
		NewHTMXResponse().Status(http.StatusInternalServerError).NoSwap().TriggerFormReset().Write(w)
		return
	}
	NewHTMXResponse().
		TriggerFormReset().
		BodyHTML(html).
		Write(w)
}

// handleEntries switches the active tab and returns the list partial.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	ctx := r.Context()
	sess, ok := s.sessions.Lookup(w, r)
	if !ok || !sess.SignedIn() {
		UnauthorizedError(alertSignedOut).Write(w)
		return
	}

	raw := r.URL.Query().Get("filter")
	filter, err := core.ParseFilter(raw)
	if err != nil {
		log.FromContext(ctx).DebugContext(ctx, "Unknown filter, showing all",
			log.FieldFilter, sanitizeInput(raw))
	}
	sess.SetActiveFilter(filter)

	html, err := s.renderer.RenderHTML(s.loadList(ctx, sess, filter))
	if err != nil {
		s.logTemplateError(ctx, err)
		InternalServerError("Error loading entries. Please try again.").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(html).Write(w)
}

// handleRateLimited answers a throttled write with a blocking alert. The
// form keeps its values.
func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	AlertResponse(http.StatusTooManyRequests, alertRateLimited).Write(w)
}
