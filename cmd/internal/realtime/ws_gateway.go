package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	v1 "hush/shared/contracts/realtime/v1"
)

// TokenVerifier resolves a session token to a username.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Gateway is the WebSocket entrypoint. It authenticates each connection once,
// registers it with the Hub, and then only writes: clients receive pushes and send
// nothing but hello.
type Gateway struct {
	log    *slog.Logger
	hub    *Hub
	tokens TokenVerifier
	cfg    Config

	// Derived for websocket.Accept, which checks cross-origin requests against
	// host patterns on its own.
	originPatterns []string

	now func() time.Time
}

// NewGateway constructs a Gateway.
func NewGateway(log *slog.Logger, hub *Hub, tokens TokenVerifier, cfg Config) (*Gateway, error) {
	if hub == nil {
		return nil, errors.New("realtime: nil hub")
	}
	if tokens == nil {
		return nil, errors.New("realtime: nil token verifier")
	}
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Gateway{
		log:            log,
		hub:            hub,
		tokens:         tokens,
		cfg:            cfg,
		originPatterns: originPatterns(cfg.AllowedOrigins),
		now:            func() time.Time { return time.Now().UTC() },
	}, nil
}

// ServeHTTP upgrades the request and runs the session until either side leaves.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := g.enforceOrigin(r); err != nil {
		g.log.Info("ws.reject.origin", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	// A bearer header authenticates at upgrade time; otherwise hello must.
	username := ""
	if tok := bearerToken(r); tok != "" {
		u, err := g.tokens.Verify(tok)
		if err != nil {
			g.log.Info("ws.reject.token", "remote", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		username = u
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:       []string{v1.Subprotocol},
		OriginPatterns:     g.originPatterns,
		InsecureSkipVerify: g.cfg.DevInsecure,
	})
	if err != nil {
		g.log.Error("ws.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	if sp := conn.Subprotocol(); sp != v1.Subprotocol {
		g.log.Info("ws.reject.subprotocol", "got", sp, "want", v1.Subprotocol)
		_ = conn.Close(websocket.StatusProtocolError, "subprotocol required")
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if username == "" {
		u, code, err := g.awaitHello(ctx, conn)
		if errors.Is(err, errHelloTimeout) {
			g.log.Info("ws.hello.timeout", "remote", r.RemoteAddr)
			return
		}
		if err != nil {
			g.log.Info("ws.hello.fail", "code", code, "err", err, "remote", r.RemoteAddr)
			g.writeDirect(ctx, conn, code, err.Error())
			_ = conn.Close(websocket.StatusPolicyViolation, "hello failed")
			return
		}
		username = u
	}

	g.serve(ctx, cancel, conn, username)
}

func (g *Gateway) serve(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, username string) {
	now := g.now()
	sessionID, err := newSessionID(now)
	if err != nil {
		g.log.Error("ws.session.id.fail", "err", err)
		_ = conn.Close(websocket.StatusInternalError, "internal error")
		return
	}

	client := NewClient(username, sessionID, g.cfg.SendQueueSize)
	ack, err := g.envelope(v1.TypeHelloAck, v1.HelloAckPayload{SessionID: sessionID, Username: username})
	if err != nil {
		g.log.Error("ws.hello_ack.fail", "err", err)
		_ = conn.Close(websocket.StatusInternalError, "internal error")
		return
	}
	client.offer(ack)
	g.hub.Join(client)
	g.log.Info("ws.session.open", "session_id", sessionID, "username", username)

	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.hub.Leave(client)
			client.Close()
			_ = conn.Close(code, reason)
			cancel()
			g.log.Info("ws.session.close", "session_id", sessionID, "username", username, "reason", reason)
		})
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case env := <-client.Send:
				if err := writeEnvelope(ctx, conn, env, g.cfg.WriteTimeout); err != nil {
					g.log.Info("ws.write.fail", "session_id", sessionID, "close_status", websocket.CloseStatus(err), "err", err)
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)
		g.heartbeat(ctx, client, conn, func() { shutdown(websocket.StatusGoingAway, "heartbeat failed") })
	}()

	g.readLoop(ctx, client, conn, shutdown)

	shutdown(websocket.StatusNormalClosure, "bye")
	<-writerDone

	select {
	case <-heartbeatDone:
	case <-time.After(closeGrace):
	}
}

// readLoop consumes client frames until the connection ends. Clients have
// nothing to say after hello, so anything else is answered with an error frame.
func (g *Gateway) readLoop(ctx context.Context, client *Client, conn *websocket.Conn, shutdown func(websocket.StatusCode, string)) {
	rl := NewRateLimiter(g.cfg.RateEvents, g.cfg.RateWindow)

	for {
		// Reads carry no deadline; the heartbeat owns liveness.
		data, err := readFrame(ctx, conn)

		if err != nil {
			switch classifyReadErr(err) {
			case readErrClose:
				shutdown(websocket.StatusNormalClosure, "peer closed")
			case readErrCtxDone:
				shutdown(websocket.StatusNormalClosure, "context done")
			case readErrConnClosed:
				shutdown(websocket.StatusAbnormalClosure, "conn closed")
			default:
				g.log.Info("ws.read.fail", "session_id", client.SessionID, "err", err)
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			return
		}

		if !rl.Allow(g.now()) {
			g.writeDirect(ctx, conn, "rate_limited", "too many frames")
			shutdown(websocket.StatusPolicyViolation, "rate limited")
			return
		}

		var env v1.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.sendError(client, "bad_json", "invalid JSON")
			continue
		}
		if err := env.Validate(); err != nil {
			g.sendError(client, "bad_envelope", err.Error())
			continue
		}

		// A repeated hello must name the same user.
		username, err := g.verifyHello(env)
		if err != nil {
			g.sendError(client, "unauthorized", "invalid token")
			continue
		}
		if username != client.Username {
			g.writeDirect(ctx, conn, "unauthorized", "token names a different user")
			shutdown(websocket.StatusPolicyViolation, "identity changed")
			return
		}
		if ack, err := g.envelope(v1.TypeHelloAck, v1.HelloAckPayload{SessionID: client.SessionID, Username: client.Username}); err == nil {
			client.offer(ack)
		}
	}
}

var errHelloTimeout = errors.New("hello timeout")

// awaitHello reads the first frame, which must be a valid hello, within HelloTimeout.
// It returns the authenticated username or an error code for the client.
//
// The timeout is a timer rather than a Read deadline: coder/websocket tears the
// connection down when a Read context expires, which would swallow the error frame.
// On errHelloTimeout the connection is already closed with StatusPolicyViolation.
func (g *Gateway) awaitHello(ctx context.Context, conn *websocket.Conn) (string, string, error) {
	timer := time.AfterFunc(g.cfg.HelloTimeout, func() {
		g.writeDirect(ctx, conn, "hello_required", "no hello before timeout")
		_ = conn.Close(websocket.StatusPolicyViolation, "hello timeout")
	})

	data, err := readFrame(ctx, conn)
	if !timer.Stop() {
		return "", "hello_required", errHelloTimeout
	}
	if err != nil {
		return "", "hello_required", fmt.Errorf("no hello: %w", err)
	}

	var env v1.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", "bad_json", errors.New("invalid JSON")
	}
	if err := env.Validate(); err != nil {
		return "", "hello_required", err
	}

	username, err := g.verifyHello(env)
	if err != nil {
		return "", "unauthorized", errors.New("invalid token")
	}
	return username, "", nil
}

func (g *Gateway) verifyHello(env v1.Envelope) (string, error) {
	if env.Type != v1.TypeHello {
		return "", fmt.Errorf("unexpected %s", env.Type)
	}
	var p v1.HelloPayload
	if err := env.Decode(&p); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Token) == "" {
		return "", errors.New("missing token")
	}
	return g.tokens.Verify(strings.TrimSpace(p.Token))
}

func (g *Gateway) heartbeat(ctx context.Context, client *Client, conn *websocket.Conn, fail func()) {
	t := time.NewTicker(g.cfg.HeartbeatInterval)
	defer t.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case <-t.C:
			hbCtx, hbCancel := context.WithTimeout(ctx, g.cfg.HeartbeatTimeout)
			err := conn.Ping(hbCtx)
			hbCancel()

			if err == nil {
				failures = 0
				continue
			}
			failures++
			g.log.Info("ws.ping.fail", "session_id", client.SessionID, "failures", failures, "err", err)
			if failures >= maxPingFailures {
				fail()
				return
			}
		}
	}
}

func (g *Gateway) envelope(typ string, payload any) (v1.Envelope, error) {
	now := g.now()
	id, err := newEnvelopeID(now)
	if err != nil {
		return v1.Envelope{}, err
	}
	return v1.New(typ, id, now, payload)
}

func (g *Gateway) sendError(client *Client, code, msg string) {
	env, err := g.envelope(v1.TypeError, v1.ErrorPayload{Code: code, Message: msg})
	if err != nil {
		return
	}
	client.offer(env)
}

// writeDirect writes an error frame synchronously, for failures that end the
// connection before the writer goroutine could drain its queue.
func (g *Gateway) writeDirect(ctx context.Context, conn *websocket.Conn, code, msg string) {
	env, err := g.envelope(v1.TypeError, v1.ErrorPayload{Code: code, Message: msg})
	if err != nil {
		return
	}
	_ = writeEnvelope(ctx, conn, env, g.cfg.WriteTimeout)
}

func readFrame(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	mt, data, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if mt != websocket.MessageText && mt != websocket.MessageBinary {
		return nil, fmt.Errorf("unsupported message type: %v", mt)
	}
	return data, nil
}

func writeEnvelope(parent context.Context, conn *websocket.Conn, env v1.Envelope, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

// ---- read error classification ----

type readErrKind uint8

const (
	readErrUnknown readErrKind = iota
	readErrClose
	readErrCtxDone
	readErrConnClosed
)

func classifyReadErr(err error) readErrKind {
	if websocket.CloseStatus(err) != -1 {
		return readErrClose
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return readErrCtxDone
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return readErrConnClosed
	}
	return readErrUnknown
}

// ---- origin policy ----

func (g *Gateway) enforceOrigin(r *http.Request) error {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		if g.cfg.OriginRequired {
			return errors.New("missing origin")
		}
		return nil
	}
	if len(g.cfg.AllowedOrigins) == 0 {
		return errors.New("origin not allowed (no allowlist)")
	}

	host := originHostOnly(origin)
	for _, a := range g.cfg.AllowedOrigins {
		switch {
		case a == "*":
			return nil
		case origin == a:
			return nil
		case host != "" && host == originHostOnly(a):
			return nil
		}
	}
	return fmt.Errorf("origin not allowed: %s", origin)
}

func originHostOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		s = u.Host
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(s)
}

// originPatterns derives websocket.Accept host patterns from the allowlist so both
// checks agree. Accept matches against host:port, so each host also gets a
// port wildcard. "*" stays a match-all pattern.
func originPatterns(allowed []string) []string {
	var out []string
	for _, a := range allowed {
		h := originHostOnly(a)
		if h == "" || slices.Contains(out, h) {
			continue
		}
		out = append(out, h)
		if h != "*" {
			out = append(out, h+":*")
		}
	}
	slices.Sort(out)
	return out
}

func bearerToken(r *http.Request) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
