// Package repository stores items of the auth list ("User").
//
// Three [ItemStore] implementations exist: [Memory] for tests and
// throwaway runs, [Bolt] for a single-file database, and [Postgres] over a
// pgx pool. [Open] picks one from a DATABASE_URL style string.
//
// # What this package must NOT do
//
//   - Hash or compare passwords. PasswordHash is stored as given.
//   - Know about sessions.
package repository
