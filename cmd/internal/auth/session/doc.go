// Package session is the hush session issuer.
//
// A session is nothing but a signed, self-contained bearer token whose subject is a
// username. Nothing is stored server-side: a token is valid exactly when its signature
// verifies against the server key (and, when a TTL is configured, it has not expired).
//
// Two formats are supported: HS256 JWT (default) and PASETO v4.public. The format and
// keys are fixed when the Issuer is built.
package session
