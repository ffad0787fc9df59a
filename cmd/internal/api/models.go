package api

import (
	"time"

	"hush/cmd/identity"
	"hush/cmd/internal/messages"
)

// Every request body may carry "_token", the body-field alternative to the
// Authorization header.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"_token,omitempty"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Token     string `json:"_token,omitempty"`
}

type sendRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
	Token      string `json:"_token,omitempty"`
}

type tokenOnlyRequest struct {
	Token string `json:"_token,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userSummaryResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type userResponse struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

type partyResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type sentResponse struct {
	ID     string        `json:"id"`
	ToUser partyResponse `json:"to_user"`
	Body   string        `json:"body"`
	SentAt time.Time     `json:"sent_at"`
	ReadAt *time.Time    `json:"read_at"`
}

type receivedResponse struct {
	ID       string        `json:"id"`
	FromUser partyResponse `json:"from_user"`
	Body     string        `json:"body"`
	SentAt   time.Time     `json:"sent_at"`
	ReadAt   *time.Time    `json:"read_at"`
}

type newMessageResponse struct {
	ID           string    `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

type messageDetailResponse struct {
	ID       string        `json:"id"`
	Body     string        `json:"body"`
	SentAt   time.Time     `json:"sent_at"`
	ReadAt   *time.Time    `json:"read_at"`
	FromUser partyResponse `json:"from_user"`
	ToUser   partyResponse `json:"to_user"`
}

type readReceiptResponse struct {
	ID     string     `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

func toUserSummaries(in []identity.UserSummary) []userSummaryResponse {
	out := make([]userSummaryResponse, 0, len(in))
	for _, u := range in {
		out = append(out, userSummaryResponse{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName})
	}
	return out
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinedAt:    u.JoinedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func toParty(p messages.Party) partyResponse {
	return partyResponse{Username: p.Username, FirstName: p.FirstName, LastName: p.LastName, Phone: p.Phone}
}

func toSent(in []messages.Sent) []sentResponse {
	out := make([]sentResponse, 0, len(in))
	for _, m := range in {
		out = append(out, sentResponse{
			ID:     m.ID,
			ToUser: toParty(m.ToUser),
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
		})
	}
	return out
}

func toReceived(in []messages.Received) []receivedResponse {
	out := make([]receivedResponse, 0, len(in))
	for _, m := range in {
		out = append(out, receivedResponse{
			ID:       m.ID,
			FromUser: toParty(m.FromUser),
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
		})
	}
	return out
}

func toNewMessage(m messages.Message) newMessageResponse {
	return newMessageResponse{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
	}
}

func toMessageDetail(d messages.Detail) messageDetailResponse {
	return messageDetailResponse{
		ID:       d.ID,
		Body:     d.Body,
		SentAt:   d.SentAt,
		ReadAt:   d.ReadAt,
		FromUser: toParty(d.FromUser),
		ToUser:   toParty(d.ToUser),
	}
}
