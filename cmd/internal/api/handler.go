package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hush/cmd/identity"
	"hush/cmd/internal/access"
	"hush/cmd/internal/apperr"
	"hush/cmd/internal/messages"
)

// Credentials is the credential service as seen by the API.
type Credentials interface {
	Register(ctx context.Context, in identity.RegisterInput) (identity.User, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	RecordLogin(ctx context.Context, username string, now time.Time) error
	ListProfiles(ctx context.Context) ([]identity.UserSummary, error)
}

// Tokens issues and verifies session tokens.
type Tokens interface {
	Issue(username string) (string, error)
	Verify(token string) (string, error)
}

// Notifier is told about committed message writes. Implementations must not block.
type Notifier interface {
	MessageSent(m messages.Message)
	MessageRead(m messages.Message)
}

// Deps are the services every handler needs.
type Deps struct {
	Credentials Credentials
	Tokens      Tokens
	Guard       *access.Guard
	Messages    messages.Store
}

// Handler wires the HTTP routes to the credential, session and message services.
type Handler struct {
	log *slog.Logger
	cfg Config

	creds  Credentials
	tokens Tokens
	guard  *access.Guard
	msgs   messages.Store

	notify  Notifier
	metrics *Metrics
	now     func() time.Time
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithNotifier sets the realtime notifier for message events.
func WithNotifier(n Notifier) HandlerOption {
	return func(h *Handler) {
		if n != nil {
			h.notify = n
		}
	}
}

// WithMetrics sets the domain event counters.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithClock overrides the time source used for sent_at, read_at and last_login_at.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, cfg Config, deps Deps, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	switch {
	case deps.Credentials == nil:
		return nil, errors.New("api: nil credentials")
	case deps.Tokens == nil:
		return nil, errors.New("api: nil tokens")
	case deps.Guard == nil:
		return nil, errors.New("api: nil guard")
	case deps.Messages == nil:
		return nil, errors.New("api: nil message store")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	h := &Handler{
		log:    log,
		cfg:    cfg,
		creds:  deps.Credentials,
		tokens: deps.Tokens,
		guard:  deps.Guard,
		msgs:   deps.Messages,
		notify: noopNotifier{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Register wires the API routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /register", h.handleRegister)

	mux.HandleFunc("GET /users", h.handleListUsers)
	mux.HandleFunc("GET /users/{username}", h.handleGetUser)
	mux.HandleFunc("GET /users/{username}/from", h.handleSent)
	mux.HandleFunc("GET /users/{username}/to", h.handleReceived)

	mux.HandleFunc("POST /messages", h.handleSend)
	mux.HandleFunc("GET /messages/{id}", h.handleGetMessage)
	mux.HandleFunc("POST /messages/{id}/read", h.handleMarkRead)
}

// ---- auth ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	username := identity.NormalizeUsername(req.Username)
	ok, err := h.creds.Authenticate(r.Context(), username, req.Password)
	if err != nil {
		writeAppError(w, h.log, "auth.login.fail", err)
		return
	}
	if !ok {
		h.audit(r, "auth.login.failed", username)
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid username or password")
		return
	}

	h.grant(w, r, username, "auth.login.success")
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	u, err := h.creds.Register(r.Context(), identity.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Now:       h.now(),
	})
	if err != nil {
		if apperr.IsConflict(err) {
			h.audit(r, "auth.register.conflict", identity.NormalizeUsername(req.Username))
		}
		writeAppError(w, h.log, "auth.register.fail", err)
		return
	}

	h.grant(w, r, u.Username, "auth.register.success")
}

// grant records the login once and issues the token. It runs only after the
// password has been verified or the account has just been created.
func (h *Handler) grant(w http.ResponseWriter, r *http.Request, username, event string) {
	if err := h.creds.RecordLogin(r.Context(), username, h.now()); err != nil {
		writeAppError(w, h.log, "auth.record_login.fail", err)
		return
	}
	tok, err := h.tokens.Issue(username)
	if err != nil {
		h.log.Error("auth.token.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	h.audit(r, event, username)
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok})
}

// requireAuth resolves the caller from the Authorization header, then the body's
// "_token" field, then the "_token" query parameter.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request, bodyToken string) (string, bool) {
	tok := bearerToken(r)
	if tok == "" {
		tok = strings.TrimSpace(bodyToken)
	}
	if tok == "" {
		tok = strings.TrimSpace(r.URL.Query().Get("_token"))
	}
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing token")
		return "", false
	}

	username, err := h.tokens.Verify(tok)
	if err != nil {
		h.metrics.authEvent("auth.token.rejected")
		writeAppError(w, h.log, "auth.token.verify.fail", err)
		return "", false
	}
	return username, true
}

// authHeader verifies a bearer header before the body is read, so a bad header
// token is a 401 whatever the body holds. With no header it returns "" and true,
// leaving the body _token to requireAuth.
func (h *Handler) authHeader(w http.ResponseWriter, r *http.Request) (string, bool) {
	if bearerToken(r) == "" {
		return "", true
	}
	return h.requireAuth(w, r, "")
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	scheme, tok, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// ---- users ----

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAuth(w, r, ""); !ok {
		return
	}
	users, err := h.creds.ListProfiles(r.Context())
	if err != nil {
		writeAppError(w, h.log, "users.list.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": toUserSummaries(users)})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requireAuth(w, r, "")
	if !ok {
		return
	}
	u, err := h.guard.Profile(r.Context(), requester, r.PathValue("username"))
	if err != nil {
		writeAppError(w, h.log, "users.get.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(u)})
}

func (h *Handler) handleSent(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requireAuth(w, r, "")
	if !ok {
		return
	}
	list, err := h.guard.Sent(r.Context(), requester, r.PathValue("username"))
	if err != nil {
		writeAppError(w, h.log, "users.sent.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": toSent(list)})
}

func (h *Handler) handleReceived(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requireAuth(w, r, "")
	if !ok {
		return
	}
	list, err := h.guard.Received(r.Context(), requester, r.PathValue("username"))
	if err != nil {
		writeAppError(w, h.log, "users.received.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": toReceived(list)})
}

// ---- messages ----

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.authHeader(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if requester == "" {
		if requester, ok = h.requireAuth(w, r, req.Token); !ok {
			return
		}
	}

	m, err := h.msgs.Send(r.Context(), messages.SendInput{
		From: requester,
		To:   req.ToUsername,
		Body: req.Body,
		Now:  h.now(),
	})
	if err != nil {
		writeAppError(w, h.log, "messages.send.fail", err)
		return
	}

	h.metrics.sent()
	h.notify.MessageSent(m)
	writeJSON(w, http.StatusOK, map[string]any{"message": toNewMessage(m)})
}

func (h *Handler) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requireAuth(w, r, "")
	if !ok {
		return
	}
	d, err := h.guard.ViewMessage(r.Context(), requester, r.PathValue("id"))
	if err != nil {
		writeAppError(w, h.log, "messages.get.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": toMessageDetail(d)})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.authHeader(w, r)
	if !ok {
		return
	}
	var req tokenOnlyRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if requester == "" {
		if requester, ok = h.requireAuth(w, r, req.Token); !ok {
			return
		}
	}

	m, first, err := h.guard.MarkRead(r.Context(), requester, r.PathValue("id"), h.now())
	if err != nil {
		writeAppError(w, h.log, "messages.read.fail", err)
		return
	}

	if first {
		h.metrics.read()
		h.notify.MessageRead(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": readReceiptResponse{ID: m.ID, ReadAt: m.ReadAt}})
}

type noopNotifier struct{}

func (noopNotifier) MessageSent(messages.Message) {}
func (noopNotifier) MessageRead(messages.Message) {}
