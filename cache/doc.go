// Package cache provides the in-memory tier used in front of the user repository.
//
// # Overview
//
// This package exports two interfaces and their default implementations:
//
//   - CacheService: read-through GetOrFetch plus key and prefix deletion
//   - KeySerializer: builds stable cache keys from a method name and arguments
//
// NewCacheService returns a CacheService backed by sturdyc, which also collapses
// concurrent fetches for the same key into a single call.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	keys := cache.NewNamespacedKeySerializer("user")
//	u, err := cache.GetOrFetch(ctx, svc, keys.SerializeKey("GetUser", id), func(ctx context.Context) (user.User, error) {
//		return repo.GetUser(ctx, id)
//	})
//
// # Key Serialization
//
// Keys are the namespace, method and arguments joined by KeySeparator.
// Arguments use their fmt.Sprint form.
//
// # Errors
//
// Fetch errors are returned to the caller and never cached. A cached value of
// the wrong type surfaces as ErrInvalidResultType rather than a panic.
package cache
