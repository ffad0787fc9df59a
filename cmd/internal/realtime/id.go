package realtime

import (
	"time"

	"hush/cmd/identity/ids"
)

// newSessionID returns a ULID naming one WebSocket session in logs and hello.ack.
func newSessionID(now time.Time) (string, error) {
	return ids.NewULID(now)
}

// newEnvelopeID returns a ULID for a server-originated envelope.
func newEnvelopeID(now time.Time) (string, error) {
	return ids.NewULID(now)
}
