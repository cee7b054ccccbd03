package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sheetledger/internal/log"
)

var (
	ErrMissingCredentials = errors.New("missing Google OAuth client credentials")
	ErrStateMismatch      = errors.New("oauth state mismatch")
	ErrNotInitialized     = errors.New("sign-in is not configured")
)

// Listener is notified after every sign-in state transition.
type Listener func(ctx context.Context, s *Session, signedIn bool)

// Panels says which top-level panel is visible. Exactly one is true.
type Panels struct {
	AuthVisible bool
	AppVisible  bool
}

// Gate wraps the identity provider and drives session transitions.
type Gate struct {
	logger *log.Logger

	mu        sync.RWMutex
	provider  Provider
	listeners []Listener
}

func NewGate(logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Gate{logger: logger.WithComponent(log.ComponentSession)}
}

// Initialize configures the provider. On ErrMissingCredentials the gate stays
// usable but every sign-in attempt fails and the status line says why.
func (g *Gate) Initialize(cfg ProviderConfig) error {
	p, err := NewProvider(cfg)
	if err != nil {
		g.logger.Warn("Sign-in disabled", log.FieldError, err)
		return err
	}
	g.SetProvider(p)
	return nil
}

// SetProvider installs p directly.
func (g *Gate) SetProvider(p Provider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.provider = p
}

// Ready reports whether a provider is configured.
func (g *Gate) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.provider != nil
}

func (g *Gate) currentProvider() (Provider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.provider == nil {
		return nil, ErrNotInitialized
	}
	return g.provider, nil
}

// OnChange registers l for every future transition.
func (g *Gate) OnChange(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

func (g *Gate) notify(ctx context.Context, s *Session, signedIn bool) {
	g.mu.RLock()
	ls := append([]Listener(nil), g.listeners...)
	g.mu.RUnlock()
	for _, l := range ls {
		l(ctx, s, signedIn)
	}
}

// SignIn returns the consent URL for s, bound to a fresh state value.
func (g *Gate) SignIn(s *Session) (string, error) {
	p, err := g.currentProvider()
	if err != nil {
		return "", err
	}
	state := uuid.NewString()
	s.mu.Lock()
	s.oauthState = state
	s.mu.Unlock()
	return p.AuthCodeURL(state), nil
}

// Complete finishes the provider round trip: it checks state, exchanges the
// code, reads the profile and marks the session signed in.
func (g *Gate) Complete(ctx context.Context, s *Session, state, code string) error {
	p, err := g.currentProvider()
	if err != nil {
		return err
	}

	s.mu.Lock()
	expected := s.oauthState
	s.oauthState = ""
	s.mu.Unlock()
	if expected == "" || state != expected {
		return ErrStateMismatch
	}

	tok, err := p.Exchange(ctx, code)
	if err != nil {
		return err
	}
	prof, err := p.Profile(ctx, tok)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.signedIn = true
	s.userEmail = prof.Email
	s.displayName = prof.Name
	s.token = tok
	s.tokenSource = p.TokenSource(tok)
	s.resource = nil
	s.notice = ""
	s.status = fmt.Sprintf(statusSignedInFmt, prof.Name)
	s.mu.Unlock()

	g.logger.InfoContext(ctx, "User signed in",
		log.FieldOperation, log.OpSignIn,
		log.FieldSessionID, s.ID,
		log.FieldUser, prof.Email)
	g.notify(ctx, s, true)
	return nil
}

// SignOut forgets the token and resolved resource.
func (g *Gate) SignOut(ctx context.Context, s *Session) {
	s.mu.Lock()
	was := s.signedIn
	s.signedIn = false
	s.userEmail = ""
	s.displayName = ""
	s.token = nil
	s.tokenSource = nil
	s.resource = nil
	s.notice = ""
	s.oauthState = ""
	s.status = StatusSignedOut
	s.mu.Unlock()

	if was {
		g.logger.InfoContext(ctx, "User signed out",
			log.FieldOperation, log.OpSignOut,
			log.FieldSessionID, s.ID)
	}
	g.notify(ctx, s, false)
}

// Status returns the status line for s.
func (g *Gate) Status(s *Session) string {
	if !g.Ready() {
		return StatusMissingCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Panels returns which panel s should see.
func (g *Gate) Panels(s *Session) Panels {
	in := s.SignedIn()
	return Panels{AuthVisible: !in, AppVisible: in}
}
