package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	v1 "hush/shared/contracts/realtime/v1"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DatabaseURL = ":memory:"
	cfg.Session.JWTSecret = []byte(testSecret)
	cfg.Password.Params.MemoryKiB = 8 * 1024
	cfg.Password.Params.Iterations = 1
	cfg.Password.Params.Parallelism = 1
	return cfg
}

func newTestApp(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()

	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token string, body any) (int, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func registerUser(t *testing.T, base, username string) string {
	t.Helper()
	status, out := postJSON(t, base+"/register", "", map[string]any{
		"username": username,
		"password": username + "-secret-pw",
	})
	require.Equal(t, http.StatusOK, status, out)
	return out["token"].(string)
}

func TestNew_RejectsMissingSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Session.JWTSecret = nil

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestApp_OpsEndpoints(t *testing.T) {
	srv := newTestApp(t, testConfig())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	registerUser(t, srv.URL, "alice")

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `hush_auth_events_total{event="auth.register.success"} 1`)
	require.Contains(t, string(body), "hush_http_requests_total")
}

func TestApp_ReadinessRequiresPostgres(t *testing.T) {
	cfg := testConfig()
	cfg.ReadinessRequireDB = true
	srv := newTestApp(t, cfg)

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestApp_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	srv := newTestApp(t, cfg)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// A message sent over HTTP reaches the recipient's WebSocket, and marking it read
// notifies the sender.
func TestApp_RealtimePush(t *testing.T) {
	srv := newTestApp(t, testConfig())
	alice := registerUser(t, srv.URL, "alice")
	bob := registerUser(t, srv.URL, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dial := func(token string) *websocket.Conn {
		conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", &websocket.DialOptions{
			Subprotocols: []string{v1.Subprotocol},
			HTTPHeader:   http.Header{"Authorization": []string{"Bearer " + token}},
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.CloseNow() })
		return conn
	}
	read := func(conn *websocket.Conn) v1.Envelope {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var env v1.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	}

	bobWS := dial(bob)
	require.Equal(t, v1.TypeHelloAck, read(bobWS).Type)
	aliceWS := dial(alice)
	require.Equal(t, v1.TypeHelloAck, read(aliceWS).Type)

	status, out := postJSON(t, srv.URL+"/messages", alice, map[string]any{"to_username": "bob", "body": "ping"})
	require.Equal(t, http.StatusOK, status, out)
	id := out["message"].(map[string]any)["id"].(string)

	env := read(bobWS)
	require.Equal(t, v1.TypeMessageNew, env.Type)
	var np v1.MessageNewPayload
	require.NoError(t, env.Decode(&np))
	require.Equal(t, id, np.ID)
	require.Equal(t, "alice", np.FromUsername)

	status, out = postJSON(t, srv.URL+"/messages/"+id+"/read", bob, map[string]any{})
	require.Equal(t, http.StatusOK, status, out)

	env = read(aliceWS)
	require.Equal(t, v1.TypeMessageRead, env.Type)
	var rp v1.MessageReadPayload
	require.NoError(t, env.Decode(&rp))
	require.Equal(t, id, rp.ID)
}
