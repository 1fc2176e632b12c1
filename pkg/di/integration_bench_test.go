package di

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-cache-codec/cache"
	"github.com/goliatone/go-cache-codec/codec"
)

func BenchmarkKeyGeneration(b *testing.B) {
	keys, err := cache.NewKeyGenerator(nil)
	if err != nil {
		b.Fatal(err)
	}

	testCases := []struct {
		name string
		args []any
	}{
		{name: "simple_args", args: []any{"test-id", 123, true}},
		{name: "struct", args: []any{User{ID: "bench-user", Name: "Benchmark User", Email: "bench@example.com"}}},
		{name: "slices", args: []any{[]string{"a", "b", "c"}, []int{1, 2, 3, 4, 5}}},
		{name: "map", args: []any{map[string]any{"key1": "value1", "key2": 42, "key3": true}}},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := keys.ComputeKey("app.UserService", "GetByID", "users", tc.args...); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCodec(b *testing.B) {
	user := User{ID: "bench-user", Name: "Benchmark User", Email: "bench@example.com", CreateTs: 1700000000}

	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatMsgPack} {
		cfg := codec.DefaultConfig()
		cfg.Format = format
		c := codec.MustNew(cfg)

		data, err := c.Encode(user)
		if err != nil {
			b.Fatal(err)
		}

		b.Run(string(format)+"/encode", func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = c.Encode(user)
			}
		})
		b.Run(string(format)+"/decode", func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = codec.Decode[User](c, data)
			}
		})
	}
}

// BenchmarkCachedVsBaseRepository compares performance of cached vs base repository operations
func BenchmarkCachedVsBaseRepository(b *testing.B) {
	ctx := context.Background()
	container, err := NewContainerWithDefaults(WithLogger(cache.NoopLogger()))
	if err != nil {
		b.Fatalf("Failed to create DI container: %v", err)
	}

	mockRepo := newMockUserRepository()
	for i := 0; i < 100; i++ {
		_, _ = mockRepo.Create(ctx, User{ID: fmt.Sprintf("user-%d", i), Name: fmt.Sprintf("User %d", i)})
	}
	cachedRepo, err := NewCachedRepository[User](container, mockRepo)
	if err != nil {
		b.Fatal(err)
	}

	b.Run("base", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = mockRepo.GetByID(ctx, fmt.Sprintf("user-%d", i%100))
		}
	})
	b.Run("cached", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, _ = cachedRepo.GetByID(ctx, fmt.Sprintf("user-%d", i%100))
		}
	})
}

func BenchmarkConcurrentCacheAccess(b *testing.B) {
	ctx := context.Background()
	container, err := NewContainerWithDefaults(WithLogger(cache.NoopLogger()))
	if err != nil {
		b.Fatal(err)
	}
	region, err := container.Cache("bench")
	if err != nil {
		b.Fatal(err)
	}

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("k-%d", i%64)
			_, _ = cache.GetOrFetch(ctx, region, key, func(context.Context) (User, error) {
				return User{ID: key}, nil
			})
			i++
		}
	})
}
