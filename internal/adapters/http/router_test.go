package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	router "github.com/dkeye/rclass/internal/adapters/http"
	"github.com/dkeye/rclass/internal/adapters/signal"
	"github.com/dkeye/rclass/internal/adapters/store/badgerstore"
	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/app/orch"
	"github.com/dkeye/rclass/internal/config"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Result bool            `json:"result"`
	Data   json.RawMessage `json:"data"`
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newServer(t *testing.T) *client {
	t.Helper()
	store, err := badgerstore.Open("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(nil),
		Rooms:    core.NewRoomManager(ctx, store),
		Store:    store,
		Policy:   domain.DefaultPolicy(),
	}
	cfg := &config.Config{Mode: "test", Secret: "0123456789abcdef0123456789abcdef"}
	srv := httptest.NewServer(router.SetupRouter(ctx, cfg, o, signal.NewSignalWSController(o, signal.Options{})))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		_ = store.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	c := newServer(t)
	status, _ := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := c.do(http.MethodGet, "/api/rooms", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Result)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestSessionLifecycle(t *testing.T) {
	c := newServer(t)

	status, env := c.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `"log on required"`, string(env.Data))

	status, env = c.do(http.MethodPost, "/api/register", map[string]string{"login": "alice", "name": "Alice", "password": "secret"})
	require.Equal(t, http.StatusOK, status)
	var acc domain.Account
	require.NoError(t, json.Unmarshal(env.Data, &acc))
	assert.Equal(t, domain.AccountMember, acc.Type)

	status, env = c.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, status)
	var me domain.Account
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, acc.ID, me.ID)

	status, _ = c.do(http.MethodPost, "/api/register", map[string]string{"login": "ALICE", "name": "Other", "password": "secret"})
	assert.Equal(t, http.StatusConflict, status)

	status, env = c.do(http.MethodGet, "/api/attendance/me?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.AttendancePage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 5, page.Limit)
	assert.Zero(t, page.Total)

	status, _ = c.do(http.MethodGet, "/api/attendance/me?limit=1000", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.do(http.MethodGet, "/api/attendance/rooms/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodPost, "/api/login", map[string]string{"login": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = c.do(http.MethodPost, "/api/login", map[string]string{"login": "alice", "password": "secret"})
	assert.Equal(t, http.StatusOK, status)
}

func TestGuestsCannotReadRoomAttendance(t *testing.T) {
	c := newServer(t)

	status, _ := c.do(http.MethodPost, "/api/guest", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := c.do(http.MethodPost, "/api/guest", map[string]string{"name": "Visitor"})
	require.Equal(t, http.StatusOK, status)
	var acc domain.Account
	require.NoError(t, json.Unmarshal(env.Data, &acc))
	assert.Equal(t, domain.AccountGuest, acc.Type)

	status, env = c.do(http.MethodGet, "/api/attendance/rooms/anything", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, env.Result)
}

func TestMalformedBodies(t *testing.T) {
	c := newServer(t)
	status, env := c.do(http.MethodPost, "/api/login", map[string]string{"login": "alice"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `"bad payload"`, string(env.Data))
}
