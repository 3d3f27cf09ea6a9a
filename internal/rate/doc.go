// Package rate throttles password sign-ins with Redis fixed-window
// counters.
//
// The first failure in a window INCRs the counter and sets its TTL. Later
// failures only INCR. Keys are <prefix>:si:<email> and, with PerIP,
// <prefix>:sip:<ip>.
//
// # What this package must NOT do
//
//   - Decide what a failure is. The engine calls Fail and Reset.
//   - Be imported outside this module.
package rate
