// Package password hashes and verifies the secret field of auth list items
// with bcrypt.
//
// Hashes use the standard modular crypt format produced by
// golang.org/x/crypto/bcrypt ($2a$<cost>$...). [Bcrypt.NeedsUpgrade] reports
// hashes made with a lower cost so callers can re-hash after a successful
// sign-in.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Looking items up and
// deciding what a failed comparison means is the Engine's job.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other authbridge package.
//   - Log plaintext passwords.
package password
