// Package api serves the GraphQL session API: the authenticated item,
// password sign-in, first item creation and sign-out.
//
// Sign-in and first item creation set the session cookie; endSession clears
// it. The handler expects middleware.Optional (and usually the auth bridge)
// in front of it so resolvers can read the current session from the request
// context.
package api
