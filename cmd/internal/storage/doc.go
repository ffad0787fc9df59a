// Package storage owns database plumbing shared by the hush stores: opening the
// Postgres pool or the embedded SQLite database, applying the embedded goose
// migrations for either dialect, and classifying constraint violations from both
// drivers so stores can translate them into domain errors.
//
// The pool / *sql.DB returned here is owned by the caller. Stores never close it.
package storage
