// Package jwt issues and verifies the signed tokens that carry session data
// between the session strategy and HTTP clients.
//
// # Architecture boundaries
//
// The [Manager] owns signing keys and parser options. It knows the claim
// layout ({listKey, itemId, isAdmin, sid}) but nothing about cookies,
// Redis, or which requests are allowed to start a session.
//
// # What this package must NOT do
//
//   - Import authbridge, session, or middleware (no upward imports).
//   - Accept a token signed with an algorithm other than the configured one.
//   - Fall back to an unverified parse on any error path.
package jwt
