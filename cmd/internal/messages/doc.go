// Package messages is the hush message store: directed text messages between two
// registered users, with send and read timestamps.
//
// The store does not authorize anything; cmd/internal/access decides who may see or
// mark a message before the store's data is returned.
package messages
