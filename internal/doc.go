// Package internal holds engine helpers that are private to authbridge.
//
// # Sub-packages
//
//   - audit: async audit event dispatch and sinks
//   - rate: Redis fixed-window sign-in throttling
//
// # What this package must NOT do
//
//   - Export types that appear in the public authbridge API except through
//     root-package aliases.
package internal
