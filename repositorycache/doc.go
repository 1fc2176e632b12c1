// Package repositorycache provides cached repository decorators for go-repository-bun.
//
// # Overview
//
// CachedRepository wraps a repository.Repository[T] and memoises its read
// operations through a cache.CacheService. Keys come from a
// cache.KeyGenerator, so a read is identified by the entity type, the method,
// a namespace and its arguments, and the stored value is the entity itself
// encoded with the object codec.
//
// # Basic Usage
//
//	region, _ := cache.New(cache.DefaultConfig(), backend, objectCodec)
//	keys, _ := cache.NewKeyGenerator(nil)
//
//	users := repositorycache.New[*User](baseUsers, region, keys)
//	user, err := users.GetByID(ctx, "user-123")
//
// # Cached vs Pass-through Operations
//
// Cached: Get, GetByID, GetByIdentifier, List, Count.
//
// Pass-through: transactional reads (*Tx), Raw and RawTx, Handlers.
//
// Writes always reach the base repository and, on success, evict the cached
// reads they may have changed:
//
//   - Create, CreateMany, GetOrCreate: List, Count and Get results.
//   - Update, Upsert, Delete, ForceDelete (and their Many/Tx variants): the
//     above plus GetByID and GetByIdentifier entries for the record's ID and
//     identifier fields.
//   - DeleteMany, DeleteWhere: everything tracked, since the affected rows
//     are unknown.
//
// # Tags
//
// Reads made with a context from WithCacheTags are also registered under
// those tags; InvalidateTags evicts them:
//
//	ctx = repositorycache.WithCacheTags(ctx, "tenant:42")
//	_, _, _ = users.List(ctx, byTenant)
//	users.InvalidateTags(ctx, "tenant:42")
//
// # Key Namespace
//
// The package part of each key defaults to the pluralised snake_case entity
// name (User becomes "users"). Use WithNamespace to override it.
//
// Criteria are functions and are keyed by address, so only calls passing the
// same criteria values share an entry.
//
// # Error Handling
//
// Errors from the base repository are returned unchanged and never cached.
// Backend failures are absorbed by the cache region. When arguments cannot
// form a key the read is logged and served by the base repository.
package repositorycache
