// Package v1 defines the hush realtime protocol, version 1.
//
// Clients open a WebSocket with subprotocol "hush.realtime.v1" and must send a
// hello carrying their session token before anything else. After hello.ack the
// server pushes message.new to the recipient and message.read to the sender.
// The package has no server dependencies so clients can import it.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Subprotocol is the WebSocket subprotocol name.
const Subprotocol = "hush.realtime.v1"

// Version is embedded into every envelope.
const Version = "v1"

const (
	// TypeHello authenticates the connection (client -> server).
	TypeHello = "hello"
	// TypeHelloAck confirms the session (server -> client).
	TypeHelloAck = "hello.ack"

	// TypeMessageNew announces a message to its recipient.
	TypeMessageNew = "message.new"
	// TypeMessageRead tells the sender the recipient has read a message.
	TypeMessageRead = "message.read"

	TypeError = "error"
)

var clientTypes = map[string]struct{}{
	TypeHello: {},
}

// Envelope is the wire wrapper for every frame.
type Envelope struct {
	V       string          `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks a client-sent envelope.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.V) == "" {
		return errors.New("missing field: v")
	}
	if e.V != Version {
		return fmt.Errorf("unsupported protocol version: %q", e.V)
	}
	if strings.TrimSpace(e.Type) == "" {
		return errors.New("missing field: type")
	}
	if _, ok := clientTypes[e.Type]; !ok {
		return fmt.Errorf("unsupported type: %q", e.Type)
	}
	if len(e.Payload) == 0 {
		return errors.New("missing field: payload")
	}
	return nil
}

// New builds an envelope with payload marshaled to JSON.
func New(typ, id string, ts time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("v1: marshal %s payload: %w", typ, err)
	}
	return Envelope{V: Version, Type: typ, ID: id, TS: ts.UTC(), Payload: raw}, nil
}

// Decode unmarshals the envelope payload into dst, rejecting unknown fields.
func (e Envelope) Decode(dst any) error {
	dec := json.NewDecoder(strings.NewReader(string(e.Payload)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("v1: decode %s payload: %w", e.Type, err)
	}
	return nil
}
