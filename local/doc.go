// Package local is the on-device cache for user records: one sqlite row per
// user, keyed by id, written once and read many times.
//
// Lookups are plain awaited queries returning an optional record; there is no
// change notification. Inserts never fail on an existing id, the first write wins.
// Upsert exists for explicit refreshes and is never used by the read path.
//
// The schema is managed with golang-migrate from files embedded in the binary:
//
//	store, err := local.Open("data/users.db")
//	if err != nil {
//		return err
//	}
//	if err := store.ApplyMigrations(); err != nil {
//		return err
//	}
package local
