// Package cache provides memoized, fault-isolated caching on top of the codec package.
//
// # Overview
//
// This package exports the pieces a read-through cache needs:
//
//   - KeyGenerator: derives a SHA-256 key from a call identity (owner, method, package, args)
//   - Cache: a named region that encodes values with a typed codec and stores them in a Backend
//   - ErrorHandler: the fault isolator that absorbs backend failures
//   - CacheService: the interface decorators program against, with the generic GetOrFetch helper
//
// # Basic Usage
//
//	gen, _ := cache.NewKeyGenerator(nil)
//	users, _ := cache.New(cache.DefaultConfig(), backend, nil)
//
//	user, err := cache.Cached(ctx, users, gen, cache.Call{
//		Owner:   "pkg.UserService",
//		Method:  "findById",
//		Package: "pkg",
//		Args:    []any{42},
//	}, func(ctx context.Context) (*User, error) {
//		return repo.FindByID(ctx, 42)
//	})
//
// # Keys
//
// The identity is encoded as the ordered document
//
//	{"class":"pkg.UserService","methodName":"findById","package":"pkg","0":42}
//
// by a structural codec and hashed. Arguments are encoded by value: map keys
// are sorted and struct fields follow declaration order, so equal arguments
// always produce equal keys. Functions and channels cannot be part of a key.
//
// # Failure Model
//
// Errors from the Backend are wrapped in CacheBackendError and handed to the
// ErrorHandler, then treated as a miss (get) or a no-op (put, evict, clear).
// The default handler logs each failure once. Encoding and decoding errors
// are returned, since they point at a programming or data problem.
//
// # Null Values
//
// With AllowNullValues a nil result is stored as codec.NullValue and read back
// as (nil, true), so it is not recomputed. An expired sentinel is a plain miss.
//
// # See Also
//
// For repository decorators built on this package, see the repositorycache package.
// For the Redis and in-process backends, see pkg/di.
package cache
