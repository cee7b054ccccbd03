package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"sheetledger/internal/cache"
	"sheetledger/internal/log"
)

// CookieName holds the session id.
const CookieName = "sheetledger_session"

// Store keeps sessions in memory with an idle timeout and a size cap. The
// least recently used session is dropped first.
//
// Only sign-in creates a stored session. Anonymous visitors get a transient
// one that never enters the cache, so crawlers cannot push signed-in users out.
type Store struct {
	sessions *cache.LRUCache[*Session]
	ttl      time.Duration
	secure   bool
}

// NewStore creates a store. logger may be nil; when set, sessions dropped for
// capacity or idleness are logged.
func NewStore(maxSessions int, ttl time.Duration, secureCookie bool, logger *log.Logger) *Store {
	opts := []cache.Option[*Session]{cache.WithSlidingExpiry[*Session]()}
	if logger != nil {
		opts = append(opts, cache.WithEvictCallback(func(id string, s *Session) {
			logger.Info("Session evicted",
				log.FieldSessionID, id,
				"signed_in", s.SignedIn())
		}))
	}
	return &Store{
		sessions: cache.NewLRUCache[*Session](maxSessions, ttl, opts...),
		ttl:      ttl,
		secure:   secureCookie,
	}
}

// Cleaner exposes the backing cache to the cleanup manager.
func (st *Store) Cleaner() cache.Cleaner { return st.sessions }

func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return st.sessions.Get(id)
}

// New creates and stores an empty signed-out session.
func (st *Store) New() *Session {
	s := newSession(uuid.NewString())
	st.sessions.Set(s.ID, s)
	return s
}

// Anonymous returns a signed-out session that is not stored.
func (st *Store) Anonymous() *Session { return newSession("") }

func (st *Store) Delete(id string) { st.sessions.Delete(id) }

func (st *Store) Len() int { return st.sessions.Size() }

// Lookup returns the stored session named by the request cookie. A hit
// refreshes the cookie so it expires together with the idle timeout.
func (st *Store) Lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	s, ok := st.Get(c.Value)
	if !ok {
		return nil, false
	}
	st.setCookie(w, s.ID)
	return s, true
}

// Current is Lookup falling back to an anonymous session.
func (st *Store) Current(w http.ResponseWriter, r *http.Request) *Session {
	if s, ok := st.Lookup(w, r); ok {
		return s
	}
	return st.Anonymous()
}

// Load returns the session named by the request cookie, creating one (and
// setting the cookie) when missing or expired. Only the sign-in route calls it.
func (st *Store) Load(w http.ResponseWriter, r *http.Request) *Session {
	if s, ok := st.Lookup(w, r); ok {
		return s
	}
	s := st.New()
	st.setCookie(w, s.ID)
	return s
}

func (st *Store) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(st.ttl.Seconds()),
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
