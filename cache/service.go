package cache

import (
	"context"
	"fmt"
	"reflect"
)

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through caching operations used by memoized
// calls and repository decorators. Backend failures never surface through it.
type CacheService interface {
	// GetOrFetch returns the value cached under key decoded as target, or
	// runs fetchFn and caches its result. A nil target decodes polymorphically.
	GetOrFetch(ctx context.Context, key string, target reflect.Type, fetchFn FetchFn[any]) (any, error)
	Put(ctx context.Context, key string, value any) error
	Evict(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// GetOrFetch is a type-safe wrapper function that provides generic support for CacheService.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T
	target := reflect.TypeFor[T]()

	result, err := service.GetOrFetch(ctx, key, target, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %s", ErrInvalidResultType, result, target)
	}
	return typed, nil
}

// Call identifies a memoizable invocation.
type Call struct {
	Owner   string
	Method  string
	Package string
	Args    []any
}

// Cached memoizes fn under the key gen derives from call: a fault-isolated
// get, fn on a miss, then a fault-isolated put.
func Cached[T any](ctx context.Context, service CacheService, gen KeyGenerator, call Call, fn FetchFn[T]) (T, error) {
	key, err := gen.ComputeKey(call.Owner, call.Method, call.Package, call.Args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return GetOrFetch(ctx, service, key, fn)
}
