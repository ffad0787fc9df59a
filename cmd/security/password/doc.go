// Package password hashes and verifies user passwords for hush.
//
// Two one-way, salted, deliberately slow schemes are supported:
//   - Argon2id (default) in the PHC string format
//     $argon2id$v=19$m=<KiB>,t=<iter>,p=<par>$<salt>$<key>
//   - bcrypt with a configurable cost factor ($2a$/$2b$/$2y$ hashes)
//
// Verify dispatches on the stored hash prefix, so rows written under either scheme keep
// verifying after the configured algorithm changes. Stored hashes are treated as untrusted
// input: parameters far above the configured cost are refused instead of computed.
package password
