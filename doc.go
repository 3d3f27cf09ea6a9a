// Package authbridge provides the session engine behind the auth bridge: it
// mints, resolves and ends sessions for items of the auth list, signs users
// in with a password, and creates the first (admin) item.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// authbridge is the public surface. It exposes [Engine], [Builder], [Config]
// and value types. Token signing lives in jwt, session persistence in
// session, item storage in repository, and the HTTP middleware in
// middleware. Audit dispatch is internal.
//
// # What this package must NOT do
//
//   - Read or write HTTP requests. The middleware package does that.
//   - Expose Redis clients or the session encoding in its API.
//   - Import middleware or api (no import cycles).
package authbridge
