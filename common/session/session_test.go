package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	st := NewWithCleanupInterval(0)
	cfg := Config{
		IdleTimeout:     20 * time.Millisecond,
		AbsoluteTimeout: 500 * time.Millisecond,
		RefreshThrottle: time.Nanosecond,
		GCInterval:      0,
		Cookie: CookieConfig{
			Name:     "session_id",
			Path:     "/",
			Secure:   false,
			HTTPOnly: true,
		},
	}
	return NewManager(st, cfg)
}

func TestManager_CreateGetDelete(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()

	s, err := m.CreateSession(User{Username: "alice"}, true)
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if s.SessionID == "" {
		t.Fatalf("CreateSession returned empty SessionID")
	}
	if !s.IsAdmin {
		t.Fatalf("IsAdmin should be set")
	}
	if s.Timing.IdleUntil.After(s.Timing.AbsoluteUntil) {
		t.Fatalf("IdleUntil should not be after AbsoluteUntil")
	}

	got, err := m.GetSession(s.SessionID)
	if err != nil || got.SessionID != s.SessionID || got.User.Username != "alice" {
		t.Fatalf("GetSession mismatch got=%v err=%v", got, err)
	}

	if err := m.DeleteSession(s.SessionID, ReasonManual); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	if _, err := m.GetSession(s.SessionID); err == nil {
		t.Fatalf("GetSession should fail after delete")
	}
}

func TestManager_RefreshUpdatesIdle(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()

	s, err := m.CreateSession(User{Username: "bob"}, false)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	before := s.Timing.IdleUntil
	if err := m.Refresh(s.SessionID); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	s2, _ := m.GetSession(s.SessionID)
	if s2.Timing.IdleUntil.Before(before) {
		t.Fatalf("IdleUntil moved backwards")
	}
}

func TestManager_WriteAndValidateCookie(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()

	s, err := m.CreateSession(User{Username: "carol"}, false)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	rr := httptest.NewRecorder()
	m.WriteCookie(rr, s.SessionID)
	if rr.Header().Get("Set-Cookie") == "" {
		t.Fatalf("expected Set-Cookie header to be set")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: s.SessionID})
	if _, err := m.ValidateFromRequest(req); err != nil {
		t.Fatalf("ValidateFromRequest unexpected error: %v", err)
	}
}

func TestManager_ValidateRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()

	s, err := m.CreateSession(User{Username: "dave"}, false)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	time.Sleep(25 * time.Millisecond) // past the idle timeout

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: s.SessionID})
	if _, err := m.ValidateFromRequest(req); err == nil {
		t.Fatalf("ValidateFromRequest should reject an idle-expired session")
	}
}

func TestManager_RequireAdmin(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()

	admin, _ := m.CreateSession(User{Username: "root"}, true)
	plain, _ := m.CreateSession(User{Username: "pleb"}, false)

	h := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(sessionID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("DELETE", "/users/alice", nil)
		if sessionID != "" {
			req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: sessionID})
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := do(admin.SessionID); rr.Code != http.StatusNoContent {
		t.Fatalf("admin request: got %d, want 204", rr.Code)
	}
	if rr := do(plain.SessionID); rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin request: got %d, want 403", rr.Code)
	}
	rr := do("")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request: got %d, want 401", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("error responses should be JSON")
	}
}

func TestManager_ActiveSessions(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()

	_, _ = m.CreateSession(User{Username: "one"}, false)
	_, _ = m.CreateSession(User{Username: "two"}, false)

	active, err := m.ActiveSessions()
	if err != nil {
		t.Fatalf("ActiveSessions error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("ActiveSessions returned %d, want 2", len(active))
	}
}
