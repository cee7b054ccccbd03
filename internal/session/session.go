// Package session tracks who is signed in for each browser and which ledger
// resource they resolved. Nothing here is persisted.
package session

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"sheetledger/internal/core"
)

// Status lines shown above the app.
const (
	StatusMissingCredentials = "This app requires Google API credentials to be configured."
	StatusSignedOut          = "Please sign in to access your tracker"
	statusSignedInFmt        = "Signed in as %s"
)

// ResourceRef points at the resolved spreadsheet and its data sheet.
type ResourceRef struct {
	ResourceID string
	SheetName  string
}

// Session is the per-browser state. All fields are guarded by mu; callers use
// the accessors or Snapshot.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	signedIn     bool
	userEmail    string
	displayName  string
	token        *oauth2.Token
	tokenSource  oauth2.TokenSource
	resource     *ResourceRef
	status       string
	notice       string
	activeFilter core.Filter
	oauthState   string
}

// View is an immutable copy of a session used for rendering.
type View struct {
	ID           string
	SignedIn     bool
	UserEmail    string
	DisplayName  string
	Resource     *ResourceRef
	Status       string
	Notice       string
	ActiveFilter core.Filter
}

func newSession(id string) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		status:       StatusSignedOut,
		activeFilter: core.FilterAll,
	}
}

// Snapshot returns a consistent copy of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:           s.ID,
		SignedIn:     s.signedIn,
		UserEmail:    s.userEmail,
		DisplayName:  s.displayName,
		Status:       s.status,
		Notice:       s.notice,
		ActiveFilter: s.activeFilter,
	}
	if s.resource != nil {
		ref := *s.resource
		v.Resource = &ref
	}
	return v
}

func (s *Session) SignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedIn
}

func (s *Session) UserEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userEmail
}

// TokenSource returns the refreshing token source for the signed-in user, or
// nil when signed out.
func (s *Session) TokenSource() oauth2.TokenSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenSource
}

// Resource returns the resolved resource, or nil.
func (s *Session) Resource() *ResourceRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resource == nil {
		return nil
	}
	ref := *s.resource
	return &ref
}

// SetResource records the resolved resource. A nil ref clears it.
func (s *Session) SetResource(ref *ResourceRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref == nil {
		s.resource = nil
		return
	}
	cp := *ref
	s.resource = &cp
}

func (s *Session) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// ResetStatus puts back the status line for the current sign-in state,
// dropping any earlier error message.
func (s *Session) ResetStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signedIn {
		s.status = fmt.Sprintf(statusSignedInFmt, s.displayName)
	} else {
		s.status = StatusSignedOut
	}
}

// SetNotice sets a secondary warning line, e.g. about duplicate resources.
func (s *Session) SetNotice(notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = notice
}

func (s *Session) ActiveFilter() core.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeFilter
}

// SetActiveFilter makes f the single active tab.
func (s *Session) SetActiveFilter(f core.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeFilter = f
}
