package realtime

import (
	"log/slog"
	"sync"
	"time"

	"hush/cmd/internal/messages"
	v1 "hush/shared/contracts/realtime/v1"
)

// Hub tracks live clients per username and fans out message events to them.
// It holds no message state; the store stays the source of truth.
type Hub struct {
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time

	mu    sync.RWMutex
	users map[string]map[*Client]struct{}
}

// NewHub constructs a Hub. metrics may be nil.
func NewHub(log *slog.Logger, metrics *Metrics) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
		users:   make(map[string]map[*Client]struct{}),
	}
}

// Join adds c under c.Username.
func (h *Hub) Join(c *Client) {
	h.mu.Lock()
	set, ok := h.users[c.Username]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[c.Username] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.connected()
}

// Leave removes c. Leaving twice is a no-op.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	set, ok := h.users[c.Username]
	_, present := set[c]
	if ok && present {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.Username)
		}
	}
	h.mu.Unlock()

	if present {
		h.metrics.disconnected()
	}
}

// Online reports how many connections username currently has.
func (h *Hub) Online(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[username])
}

// Publish offers env to every connection of username without blocking.
// Clients whose queue is full miss the event. It returns the number delivered.
func (h *Hub) Publish(username string, env v1.Envelope) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[username]))
	for c := range h.users[username] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.offer(env) {
			delivered++
			continue
		}
		h.metrics.dropped(env.Type)
		h.log.Warn("ws.publish.drop", "session_id", c.SessionID, "username", username, "type", env.Type)
	}
	h.metrics.published(env.Type, delivered)
	return delivered
}

// MessageSent pushes message.new to the recipient.
func (h *Hub) MessageSent(m messages.Message) {
	h.emit(m.ToUsername, v1.TypeMessageNew, v1.MessageNewPayload{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
	})
}

// MessageRead pushes message.read to the sender.
func (h *Hub) MessageRead(m messages.Message) {
	if m.ReadAt == nil {
		return
	}
	h.emit(m.FromUsername, v1.TypeMessageRead, v1.MessageReadPayload{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		ReadAt:       *m.ReadAt,
	})
}

func (h *Hub) emit(username, typ string, payload any) {
	if h.Online(username) == 0 {
		return
	}
	now := h.now()
	id, err := newEnvelopeID(now)
	if err != nil {
		h.log.Error("ws.envelope.id.fail", "err", err)
		return
	}
	env, err := v1.New(typ, id, now, payload)
	if err != nil {
		h.log.Error("ws.envelope.build.fail", "type", typ, "err", err)
		return
	}
	h.Publish(username, env)
}
