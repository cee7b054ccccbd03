package session

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sheetledger/internal/log"
)

func TestStore_LoadCreatesAndReuses(t *testing.T) {
	st := NewStore(10, time.Hour, false, nil)

	rec := httptest.NewRecorder()
	s := st.Load(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != s.ID {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if s.SignedIn() || s.ActiveFilter() != "all" {
		t.Fatalf("new session should be signed out on the all tab: %+v", s.Snapshot())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	again := st.Load(httptest.NewRecorder(), req)
	if again != s {
		t.Fatal("expected the same session for the same cookie")
	}
	if st.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", st.Len())
	}
}

func TestStore_UnknownCookieGetsFreshSession(t *testing.T) {
	st := NewStore(10, time.Hour, true, nil)
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	s := st.Load(rec, req)
	if s.ID == "stale" {
		t.Fatal("stale id must not be reused")
	}
	if c := rec.Result().Cookies(); len(c) != 1 || !c[0].Secure {
		t.Fatalf("expected a secure replacement cookie, got %+v", c)
	}
}

func TestStore_LookupRefreshesCookie(t *testing.T) {
	st := NewStore(10, 2*time.Hour, false, nil)
	s := st.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: s.ID})
	rec := httptest.NewRecorder()
	got, ok := st.Lookup(rec, req)
	if !ok || got != s {
		t.Fatalf("Lookup() = %v, %v", got, ok)
	}
	c := rec.Result().Cookies()
	if len(c) != 1 || c[0].Value != s.ID || c[0].MaxAge != int((2*time.Hour).Seconds()) {
		t.Fatalf("expected a refreshed cookie, got %+v", c)
	}

	rec = httptest.NewRecorder()
	if _, ok := st.Lookup(rec, httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("cookieless lookup should miss")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("a miss must not set a cookie")
	}
}

func TestStore_AnonymousRequestsDoNotEvictSignedIn(t *testing.T) {
	st := NewStore(2, time.Hour, false, nil)
	kept := st.New()

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		s := st.Current(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if s.ID != "" || s.SignedIn() {
			t.Fatalf("expected a transient signed-out session, got %+v", s.Snapshot())
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatal("anonymous visitors must not get a cookie")
		}
	}
	if _, ok := st.Get(kept.ID); !ok {
		t.Fatal("stored session was evicted by anonymous traffic")
	}
	if st.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", st.Len())
	}
}

func TestStore_CapacityEvictsOldestAndLogs(t *testing.T) {
	var buf bytes.Buffer
	st := NewStore(2, time.Hour, false, log.NewText(&buf, slog.LevelInfo, log.ComponentSession))
	a := st.New()
	st.New()
	st.New()
	if _, ok := st.Get(a.ID); ok {
		t.Fatal("oldest session should be evicted")
	}
	if st.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", st.Len())
	}
	out := buf.String()
	if !strings.Contains(out, "Session evicted") || !strings.Contains(out, a.ID) {
		t.Fatalf("eviction not logged:\n%s", out)
	}
}
