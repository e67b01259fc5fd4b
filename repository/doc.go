// Package repository implements the cache-then-network read path for users.
//
// # Read path
//
//  1. Look the id up in the local store
//  2. On a hit, map the stored row to a User and return it; no remote call is made
//  3. On a miss, fetch the wire representation remotely
//  4. Map it to a User, write the storage form back to the local store
//  5. Return the User
//
// Steps run sequentially inside the caller's goroutine. There is no expiry and
// no guard against two concurrent misses for the same id: both fetch, both
// write, and the store keeps the first row. Wrap the repository with
// repositorycache when in-flight requests should be collapsed.
//
// # Refresh
//
// GetUser never re-fetches a cached record. Refresh is the only way to pull a
// newer copy: it always calls the remote and upserts the row.
//
// # Errors
//
// Storage and remote errors propagate to the caller unchanged. An invalid id
// is rejected with user.ErrInvalidID before either store is touched.
package repository
