// Package repositorycache provides an in-memory decorator for the user repository.
//
// # Overview
//
// CachedRepository wraps any repository.Repository and serves GetUser through a
// cache.CacheService. It sits in front of the sqlite read-through path so hot
// ids are answered from memory and concurrent requests for the same cold id
// share one trip to the local store (and, on a miss there, one remote fetch).
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	base := repository.New(store, remote.NewClient(baseURL))
//	cached := repositorycache.New(base, svc, cache.NewNamespacedKeySerializer("user"))
//
//	u, err := cached.GetUser(ctx, "42")
//
// # Caching Behavior
//
//  1. Build the key from the method name and id
//  2. On a hit, return the stored User
//  3. On a miss, call the wrapped repository and store the result
//  4. Track the key in the registry once the lookup succeeds
//
// Errors are never cached. Entries expire with the configured TTL; since the
// wrapped repository never changes a cached row on its own, expiry only costs a
// sqlite lookup.
//
// # Invalidation
//
// Refresh delegates to the wrapped repository and, on success, removes every
// tracked key for that id. The key registry matches the exact key or the key
// followed by cache.KeySeparator, so refreshing "4" never evicts "42".
// Only ids whose fetch succeeded are tracked, so failed lookups do not grow
// the registry.
package repositorycache
