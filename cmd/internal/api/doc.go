// Package api serves hush's HTTP JSON surface: login and registration, the user
// directory, mailboxes and messages.
//
// Handlers authenticate with a bearer token (or the legacy "_token" field), hand
// the request to the credential service or the access guard, and map typed errors
// from apperr onto status codes. Successful message writes are pushed to an
// optional Notifier after the store has committed them.
package api
