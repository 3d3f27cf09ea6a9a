// Package middleware holds the HTTP middleware around the authbridge engine.
//
// # Components
//
//   - [Bridge] swaps a recognised shared-secret Authorization header for a
//     freshly minted session token before the request continues.
//   - [Guard] and [Optional] resolve the session token of a request and put
//     the session in the request context.
//   - [RequireAdmin] rejects sessions the access rule does not allow.
//   - [Gin] adapts any of them to a gin handler.
//
// # Architecture boundaries
//
// This package translates HTTP into engine calls. Credential matching is the
// verifier's job and minting is the engine's.
//
// # What this package must NOT do
//
//   - Parse or sign tokens.
//   - Access Redis or the item store.
//   - Touch any request field other than the Authorization header (Bridge)
//     or the request context (guards).
package middleware
