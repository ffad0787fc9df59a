// Package token holds the signing-secret primitives behind hush session tokens.
//
// It loads symmetric signing secrets from the environment with a minimum size and
// derives short, non-reversible fingerprints of secrets and tokens so that logs can
// correlate key rotations and sessions without ever carrying the material itself.
//
// Environment:
// - HUSH_JWT_SECRET: HS256 signing secret, at least MinSecretBytes bytes.
package token
