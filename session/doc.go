// Package session implements the session strategy: starting a session for a
// (listKey, itemId) identity, resolving a token back to that identity, and
// ending it.
//
// # Strategies
//
//   - [Stateless] signs the session data into the token itself. Nothing is
//     stored server side; ending a session only clears the client cookie.
//   - [Stored] keeps the session in Redis through [Store] and hands out a
//     signed token that carries only the session id, so sessions can be
//     revoked.
//
// # Binary encoding
//
// Stored sessions are written as a compact versioned binary blob (see
// [Encode]). Decode rejects unknown versions and truncated input.
//
// # Architecture boundaries
//
// This package owns the [Strategy] contract, the Redis [Store], cookie
// handling and token extraction. It does NOT decide which requests may start
// a session; credential checks live in the credential and middleware
// packages.
//
// # What this package must NOT do
//
//   - Import authbridge or middleware (no upward imports).
//   - Store plaintext credentials in a [Session].
package session
