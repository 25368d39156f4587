package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragos-nas/webadmin/common/session"
	"github.com/ragos-nas/webadmin/directory"
	"github.com/ragos-nas/webadmin/quota"
	"github.com/ragos-nas/webadmin/store"
)

// --- fakes -----------------------------------------------------------------

type fakeDir struct {
	users      []string
	records    map[string]directory.UserRecord
	err        error
	created    []directory.CreateUserParams
	deleted    []string
	passwdSets []string
}

func (f *fakeDir) ListUsers() ([]string, error) { return f.users, f.err }
func (f *fakeDir) GetUser(u string) (directory.UserRecord, error) {
	if f.err != nil {
		return directory.UserRecord{}, f.err
	}
	return f.records[u], nil
}
func (f *fakeDir) CreateUser(p directory.CreateUserParams) error {
	f.created = append(f.created, p)
	return f.err
}
func (f *fakeDir) DeleteUser(u string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, u)
	return nil
}
func (f *fakeDir) EnableUser(string) error  { return f.err }
func (f *fakeDir) DisableUser(string) error { return f.err }
func (f *fakeDir) SetPassword(u, pw string, mc bool) error {
	f.passwdSets = append(f.passwdSets, u)
	return f.err
}
func (f *fakeDir) ListGroups() ([]string, error) { return nil, f.err }
func (f *fakeDir) GroupMembers(g string) (directory.GroupRecord, error) {
	return directory.GroupRecord{Groupname: g}, f.err
}
func (f *fakeDir) CreateGroup(string, string) error           { return f.err }
func (f *fakeDir) DeleteGroup(string) error                   { return f.err }
func (f *fakeDir) AddGroupMembers(string, []string) error     { return f.err }
func (f *fakeDir) RemoveGroupMembers(string, []string) error  { return f.err }
func (f *fakeDir) DomainInfo() (map[string]string, error)     { return map[string]string{}, f.err }
func (f *fakeDir) PasswordSettings() (map[string]string, error) {
	return map[string]string{}, f.err
}
func (f *fakeDir) TestConnection() error { return f.err }

type quotaSet struct {
	username string
	soft     int64
	hard     int64
}

type fakeQuota struct {
	records []quota.Record
	err     error
	sets    []quotaSet
	removed []string
}

func (f *fakeQuota) Filesystem() string { return "/mnt/ragostorage" }
func (f *fakeQuota) SetUserQuota(u string, s, h int64) error {
	if f.err != nil {
		return f.err
	}
	f.sets = append(f.sets, quotaSet{u, s, h})
	return nil
}
func (f *fakeQuota) RemoveUserQuota(u string) error {
	f.removed = append(f.removed, u)
	return f.err
}
func (f *fakeQuota) GetUserQuota(u string) (quota.Record, error) {
	if f.err != nil {
		return quota.Record{}, f.err
	}
	for _, r := range f.records {
		if r.Username == u {
			return r, nil
		}
	}
	return quota.Record{Username: u}, nil
}
func (f *fakeQuota) AllQuotas() ([]quota.Record, error) { return f.records, f.err }
func (f *fakeQuota) TopUsers(n int) ([]quota.Record, error) {
	if n < len(f.records) {
		return f.records[:n], f.err
	}
	return f.records, f.err
}
func (f *fakeQuota) FilesystemUsage() (quota.FilesystemUsage, error) {
	return quota.FilesystemUsage{Mountpoint: "/mnt/ragostorage"}, f.err
}

// --- harness ---------------------------------------------------------------

type harness struct {
	mux   *http.ServeMux
	dir   *fakeDir
	quota *fakeQuota
	st    *store.Store
	admin *http.Cookie
	plain *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	sm := session.NewManager(session.NewWithCleanupInterval(0), session.Config{
		IdleTimeout:     time.Minute,
		AbsoluteTimeout: time.Hour,
		GCInterval:      0,
		Cookie:          session.CookieConfig{Name: "session_id", Path: "/", HTTPOnly: true},
	})
	t.Cleanup(sm.Close)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dir := &fakeDir{records: map[string]directory.UserRecord{}}
	fq := &fakeQuota{}
	h := &Handlers{Dir: dir, Quota: fq, Store: st, SM: sm}

	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, sm, h)

	adminSess, err := sm.CreateSession(session.User{Username: "administrator"}, true)
	require.NoError(t, err)
	plainSess, err := sm.CreateSession(session.User{Username: "alice"}, false)
	require.NoError(t, err)

	return &harness{
		mux:   mux,
		dir:   dir,
		quota: fq,
		st:    st,
		admin: &http.Cookie{Name: "session_id", Value: adminSess.SessionID},
		plain: &http.Cookie{Name: "session_id", Value: plainSess.SessionID},
	}
}

func (h *harness) do(method, path string, body any, ck *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.3.55:50000"
	if ck != nil {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

// --- tests -----------------------------------------------------------------

func TestSetUserQuota_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		body setQuotaRequest
		want int
	}{
		{"valid", setQuotaRequest{SoftLimitMB: 5120, HardLimitMB: 10240}, http.StatusOK},
		{"soft over hard", setQuotaRequest{SoftLimitMB: 10240, HardLimitMB: 5120}, http.StatusBadRequest},
		{"zero soft", setQuotaRequest{SoftLimitMB: 0, HardLimitMB: 100}, http.StatusBadRequest},
		{"negative", setQuotaRequest{SoftLimitMB: -1, HardLimitMB: 100}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do("PUT", "/api/quotas/testuser", tt.body, h.admin)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	// only the valid request reached the engine
	require.Len(t, h.quota.sets, 1)
	assert.Equal(t, quotaSet{"testuser", 5120, 10240}, h.quota.sets[0])
}

func TestQuotaWrites_RequireAdmin(t *testing.T) {
	h := newHarness(t)
	body := setQuotaRequest{SoftLimitMB: 100, HardLimitMB: 200}

	assert.Equal(t, http.StatusForbidden, h.do("PUT", "/api/quotas/bob", body, h.plain).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do("PUT", "/api/quotas/bob", body, nil).Code)
	assert.Empty(t, h.quota.sets)

	// reads only need a session
	assert.Equal(t, http.StatusOK, h.do("GET", "/api/quotas", nil, h.plain).Code)
}

func TestDeleteUser_ProtectedMapsToForbidden(t *testing.T) {
	h := newHarness(t)
	h.dir.err = directory.ErrProtectedUser

	w := h.do("DELETE", "/api/users/administrator", nil, h.admin)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteUser_ClearsQuota(t *testing.T) {
	h := newHarness(t)

	w := h.do("DELETE", "/api/users/olduser", nil, h.admin)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, []string{"olduser"}, h.dir.deleted)
	assert.Equal(t, []string{"olduser"}, h.quota.removed)
}

func TestCreateUser_WeakPasswordRejected(t *testing.T) {
	h := newHarness(t)

	w := h.do("POST", "/api/users", directory.CreateUserParams{
		Username: "newuser", Password: "weak",
	}, h.admin)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, h.dir.created, "weak password must not reach the directory")
}

func TestCreateUser_Success_Audited(t *testing.T) {
	h := newHarness(t)

	w := h.do("POST", "/api/users", directory.CreateUserParams{
		Username: "newuser", Password: "Abc12345",
	}, h.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, h.dir.created, 1)

	entries, total, err := h.st.ListAudit(t.Context(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "create_user", entries[0].Action)
	assert.Equal(t, "administrator", entries[0].Username)
	assert.Equal(t, "newuser", entries[0].Target)
	assert.Equal(t, "10.0.3.55", entries[0].IPAddress)
	assert.Equal(t, store.AuditSuccess, entries[0].Status)
}

func TestCreateUser_MustChangeDefaultsOn(t *testing.T) {
	h := newHarness(t)

	// field omitted entirely
	w := h.do("POST", "/api/users", map[string]string{
		"username": "newuser", "password": "Abc12345",
	}, h.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Len(t, h.dir.created, 1)
	assert.True(t, h.dir.created[0].MustChangePassword,
		"omitting mustChangePassword must force a change on first login")

	// explicit opt-out is honored
	w = h.do("POST", "/api/users", map[string]any{
		"username": "svcacct", "password": "Abc12345", "mustChangePassword": false,
	}, h.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, h.dir.created, 2)
	assert.False(t, h.dir.created[1].MustChangePassword)
}

func TestDeleteUser_RefusalAudited(t *testing.T) {
	h := newHarness(t)
	h.dir.err = directory.ErrProtectedUser

	w := h.do("DELETE", "/api/users/administrator", nil, h.admin)
	require.Equal(t, http.StatusForbidden, w.Code)

	entries, total, err := h.st.ListAudit(t.Context(), 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "delete_user", entries[0].Action)
	assert.Equal(t, "administrator", entries[0].Target)
	assert.Equal(t, store.AuditFailed, entries[0].Status)
	assert.Equal(t, "10.0.3.55", entries[0].IPAddress)
	assert.Contains(t, entries[0].Details, "administrator account")
}

func TestApplyQuotaPolicy(t *testing.T) {
	h := newHarness(t)

	id, err := h.st.CreatePolicy(t.Context(), store.QuotaPolicy{
		Name: "Power User", SoftLimitMB: 20480, HardLimitMB: 40960,
	})
	require.NoError(t, err)

	w := h.do("POST", "/api/quotas/alice/policy", applyPolicyRequest{PolicyID: id}, h.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, h.quota.sets, 1)
	assert.Equal(t, quotaSet{"alice", 20480, 40960}, h.quota.sets[0])

	// unknown preset
	w = h.do("POST", "/api/quotas/alice/policy", applyPolicyRequest{PolicyID: 999}, h.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers_QuotaEnrichment(t *testing.T) {
	h := newHarness(t)
	h.dir.users = []string{"alice", "bob"}
	h.quota.records = []quota.Record{
		{Username: "alice", UsedMB: 42, SoftLimitMB: 50, HardLimitMB: 100},
	}

	w := h.do("GET", "/api/users", nil, h.plain)
	require.Equal(t, http.StatusOK, w.Code)

	var users []UserSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)

	assert.Equal(t, "alice", users[0].Username)
	require.NotNil(t, users[0].Quota)
	assert.Equal(t, int64(42), users[0].Quota.UsedMB)
	assert.Nil(t, users[1].Quota)
}

func TestServiceStatuses_NoBus(t *testing.T) {
	h := newHarness(t)

	w := h.do("GET", "/api/services", nil, h.plain)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
