package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mordilloSan/go-logger/logger"
)

type DeleteReason string

const (
	ReasonLogout     DeleteReason = "logout"
	ReasonGCIdle     DeleteReason = "gc_idle"
	ReasonGCAbsolute DeleteReason = "gc_absolute"
	ReasonManual     DeleteReason = "manual"
	ReasonServerQuit DeleteReason = "server_quit"
)

type Config struct {
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration
	RefreshThrottle time.Duration
	GCInterval      time.Duration
	Cookie          CookieConfig
}

type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	SameSite http.SameSite
	Secure   bool
	HTTPOnly bool
}

var DefaultConfig = Config{
	IdleTimeout:     30 * time.Minute,
	AbsoluteTimeout: 12 * time.Hour,
	RefreshThrottle: 60 * time.Second,
	GCInterval:      15 * time.Second,
	Cookie: CookieConfig{
		Name:     "session_id",
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
		Secure:   true,
		HTTPOnly: true,
	},
}

type User struct {
	Username string `json:"username"`
}

type Timing struct {
	CreatedAt     time.Time `json:"created_at"`
	LastAccess    time.Time `json:"last_access"`
	LastRefresh   time.Time `json:"last_refresh"`
	IdleUntil     time.Time `json:"idle_until"`
	AbsoluteUntil time.Time `json:"absolute_until"`
}

type Session struct {
	SessionID string `json:"session_id"`
	User      User   `json:"user"`
	IsAdmin   bool   `json:"is_admin"`
	Timing    Timing `json:"timing"`
}

// Store persists serialized sessions keyed by token. Commit's expiry is the
// absolute deadline; expired entries must not come back from Find or All.
type Store interface {
	Find(string) ([]byte, bool, error)
	Commit(string, []byte, time.Time) error
	Delete(string) error
	All() (map[string][]byte, error)
}

var ErrNotFound = errors.New("session not found")

type Manager struct {
	cfg Config
	st  Store

	gcStop chan struct{}
}

func NewManager(store Store, cfg Config) *Manager {
	m := &Manager{st: store, cfg: cfg}
	if m.cfg.IdleTimeout == 0 {
		m.cfg.IdleTimeout = DefaultConfig.IdleTimeout
	}
	if m.cfg.AbsoluteTimeout == 0 {
		m.cfg.AbsoluteTimeout = DefaultConfig.AbsoluteTimeout
	}
	if m.cfg.RefreshThrottle == 0 {
		m.cfg.RefreshThrottle = DefaultConfig.RefreshThrottle
	}
	if m.cfg.Cookie.Name == "" {
		m.cfg.Cookie = DefaultConfig.Cookie
	}

	logger.Infof("Session manager ready")
	logger.Debugf("Session timings (idle=%v, absolute=%v, refresh=%v, gc=%v)",
		m.cfg.IdleTimeout, m.cfg.AbsoluteTimeout, m.cfg.RefreshThrottle, m.cfg.GCInterval)

	// Idle sweep runs in the background; absolute expiry is the store's TTL.
	if m.cfg.GCInterval > 0 {
		m.gcStop = make(chan struct{})
		go m.gcLoop()
	}

	return m
}

func (m *Manager) Close() {
	if m.gcStop != nil {
		close(m.gcStop)
	}
	logger.Infof("Session manager stopped")
}

// CookieName returns the effective cookie name in use.
func (m *Manager) CookieName() string { return m.cfg.Cookie.Name }

// Config returns a copy of the effective config.
func (m *Manager) Config() Config { return m.cfg }

func randID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func expiredIdle(s *Session, now time.Time) bool     { return now.After(s.Timing.IdleUntil) }
func expiredAbsolute(s *Session, now time.Time) bool { return now.After(s.Timing.AbsoluteUntil) }

func decode(b []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Manager) CreateSession(user User, isAdmin bool) (*Session, error) {
	id, err := randID(16)
	if err != nil {
		return nil, fmt.Errorf("rand id: %w", err)
	}
	now := time.Now()
	abs := now.Add(m.cfg.AbsoluteTimeout)
	idle := now.Add(m.cfg.IdleTimeout)
	if idle.After(abs) {
		idle = abs
	}

	sess := &Session{
		SessionID: id,
		User:      user,
		IsAdmin:   isAdmin,
		Timing: Timing{
			CreatedAt:     now,
			LastAccess:    now,
			LastRefresh:   now,
			IdleUntil:     idle,
			AbsoluteUntil: abs,
		},
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := m.st.Commit(id, b, abs); err != nil {
		return nil, err
	}

	logger.Infof("Created session for user '%s' (admin=%v)", user.Username, isAdmin)
	return sess, nil
}

func (m *Manager) GetSession(id string) (*Session, error) {
	b, ok, err := m.st.Find(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return decode(b)
}

func (m *Manager) DeleteSession(id string, r DeleteReason) error {
	b, ok, err := m.st.Find(id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	_ = m.st.Delete(id)
	if s, err := decode(b); err == nil {
		logger.Infof("Deleted session for user '%s' (reason=%s)", s.User.Username, r)
	}
	return nil
}

func (m *Manager) Refresh(id string) error {
	s, err := m.GetSession(id)
	if err != nil {
		return err
	}
	now := time.Now()
	s.Timing.LastAccess = now
	if now.Sub(s.Timing.LastRefresh) >= m.cfg.RefreshThrottle {
		s.Timing.LastRefresh = now
		newIdle := now.Add(m.cfg.IdleTimeout)
		if newIdle.After(s.Timing.AbsoluteUntil) {
			newIdle = s.Timing.AbsoluteUntil
		}
		s.Timing.IdleUntil = newIdle
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.st.Commit(id, b, s.Timing.AbsoluteUntil)
}

func (m *Manager) CookieMaxAgeSeconds() int {
	return int(m.cfg.AbsoluteTimeout.Seconds())
}

func (m *Manager) WriteCookie(w http.ResponseWriter, sessionID string) {
	c := &http.Cookie{
		Name:     m.cfg.Cookie.Name,
		Value:    sessionID,
		Domain:   m.cfg.Cookie.Domain,
		Path:     m.cfg.Cookie.Path,
		SameSite: m.cfg.Cookie.SameSite,
		Secure:   m.cfg.Cookie.Secure,
		HttpOnly: m.cfg.Cookie.HTTPOnly,
	}
	if sessionID == "" {
		c.Expires = time.Unix(1, 0)
		c.MaxAge = -1
	} else {
		c.MaxAge = m.CookieMaxAgeSeconds()
	}
	w.Header().Add("Set-Cookie", c.String())
	w.Header().Add("Cache-Control", `no-cache="Set-Cookie"`)
}

func (m *Manager) DeleteCookie(w http.ResponseWriter) { m.WriteCookie(w, "") }

func (m *Manager) ValidateFromRequest(r *http.Request) (*Session, error) {
	ck, err := r.Cookie(m.cfg.Cookie.Name)
	if err != nil || ck.Value == "" {
		return nil, fmt.Errorf("missing or invalid %s", m.cfg.Cookie.Name)
	}
	s, err := m.GetSession(ck.Value)
	if err != nil {
		logger.Debugf("Access attempt with unknown %s: %s", m.cfg.Cookie.Name, ck.Value)
		return nil, fmt.Errorf("unknown session ID")
	}
	now := time.Now()
	if expiredAbsolute(s, now) {
		_ = m.DeleteSession(s.SessionID, ReasonGCAbsolute)
		logger.Warnf("Expired session (absolute) by '%s'", s.User.Username)
		return nil, fmt.Errorf("session expired")
	}
	if expiredIdle(s, now) {
		_ = m.DeleteSession(s.SessionID, ReasonGCIdle)
		logger.Warnf("Expired session (idle) by '%s'", s.User.Username)
		return nil, fmt.Errorf("session expired")
	}
	_ = m.Refresh(s.SessionID)
	return s, nil
}

type ctxKeyType string

const ctxKey ctxKeyType = "session"

// RequireSession validates the session cookie and stores the session in the
// request context.
func (m *Manager) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.ValidateFromRequest(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin is RequireSession plus an admin check. Ordinary users get 403.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		if s == nil || !s.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"admin rights required"}`))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// FromContext extracts the session from the request context.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey).(*Session); ok {
		return s
	}
	return nil
}

func (m *Manager) gcLoop() {
	t := time.NewTicker(m.cfg.GCInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			mm, err := m.st.All()
			if err != nil {
				continue
			}
			now := time.Now()
			collected := 0
			for tok, data := range mm {
				s, err := decode(data)
				if err != nil {
					continue
				}
				if expiredIdle(s, now) {
					_ = m.st.Delete(tok)
					collected++
				}
			}
			if collected > 0 {
				logger.Infof("Session GC: collected %d idle-expired session(s)", collected)
			}
		case <-m.gcStop:
			return
		}
	}
}

// ActiveSessions returns decoded, non-expired sessions.
func (m *Manager) ActiveSessions() ([]*Session, error) {
	all, err := m.st.All()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]*Session, 0, len(all))
	for _, b := range all {
		s, err := decode(b)
		if err != nil {
			continue
		}
		if expiredAbsolute(s, now) || expiredIdle(s, now) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
