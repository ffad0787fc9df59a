package v1

import "time"

type HelloPayload struct {
	Token string `json:"token"`
}

type HelloAckPayload struct {
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
}

type MessageNewPayload struct {
	ID           string    `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

type MessageReadPayload struct {
	ID           string    `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	ReadAt       time.Time `json:"read_at"`
}

// ErrorPayload codes: bad_json, bad_envelope, hello_required, unauthorized, unsupported.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
