// Package identity is the hush credential store.
//
// It owns user records and the password hashes attached to them. Hashes are produced
// and checked here (via cmd/security/password) and never leave the package: every
// read path returns a User, which has no hash field.
//
// Persistence is behind Store, implemented for PostgreSQL and SQLite. Service layers
// the credential rules on top: username canonicalization, password policy, and
// authentication that behaves the same for unknown users and wrong passwords.
package identity
