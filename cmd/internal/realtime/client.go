package realtime

import (
	"sync"

	v1 "hush/shared/contracts/realtime/v1"
)

// Client is one authenticated WebSocket connection.
//
// Send is never closed: publishers may still hold the client after it leaves the
// hub, and a send on a closed channel would panic. done stops the goroutines.
type Client struct {
	SessionID string
	Username  string
	Send      chan v1.Envelope

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a Client with a bounded send queue.
func NewClient(username, sessionID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 64
	}
	return &Client{
		SessionID: sessionID,
		Username:  username,
		Send:      make(chan v1.Envelope, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// Done is closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close is idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// offer enqueues env without blocking and reports whether it was accepted.
func (c *Client) offer(env v1.Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- env:
		return true
	default:
		return false
	}
}
