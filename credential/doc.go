// Package credential decides whether an incoming Authorization header value
// names a known identity.
//
// A [Verifier] maps a raw header value to an [Identity]. The auth bridge
// middleware mints a session for whatever identity the verifier returns, so
// the verifier is the only place shared secrets are compared.
//
// # What this package must NOT do
//
//   - Mint or store sessions.
//   - Modify the request.
package credential
