package cacheinfra

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/goliatone/go-cache-codec/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}
	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}
	if cfg.TTL != 2*time.Hour {
		t.Errorf("expected TTL to be 2 hours, got %v", cfg.TTL)
	}
	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestLocalConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LocalConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*LocalConfig) {}},
		{name: "zero capacity", mutate: func(c *LocalConfig) { c.Capacity = 0 }, wantErr: true},
		{name: "negative capacity", mutate: func(c *LocalConfig) { c.Capacity = -1 }, wantErr: true},
		{name: "zero shards", mutate: func(c *LocalConfig) { c.NumShards = 0 }, wantErr: true},
		{name: "zero ttl", mutate: func(c *LocalConfig) { c.TTL = 0 }, wantErr: true},
		{name: "negative ttl", mutate: func(c *LocalConfig) { c.TTL = -time.Second }, wantErr: true},
		{name: "eviction over 100", mutate: func(c *LocalConfig) { c.EvictionPercentage = 101 }, wantErr: true},
		{name: "eviction zero", mutate: func(c *LocalConfig) { c.EvictionPercentage = 0 }, wantErr: true},
		{name: "negative interval", mutate: func(c *LocalConfig) { c.EvictionInterval = -time.Second }, wantErr: true},
		{name: "custom interval", mutate: func(c *LocalConfig) { c.EvictionInterval = time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLocalConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalConfig_ToSturdycOptions(t *testing.T) {
	cfg := DefaultLocalConfig()
	assert.Empty(t, cfg.ToSturdycOptions())

	cfg.EvictionInterval = time.Minute
	assert.Len(t, cfg.ToSturdycOptions(), 1)
}

func TestNewLocalBackend_InvalidConfig(t *testing.T) {
	cfg := DefaultLocalConfig()
	cfg.Capacity = 0

	backend, err := NewLocalBackend(cfg)
	assert.Error(t, err)
	assert.Nil(t, backend)
}

func newLocalBackend(t *testing.T) *LocalBackend {
	t.Helper()
	cfg := DefaultLocalConfig()
	cfg.Capacity = 100
	cfg.NumShards = 4
	b, err := NewLocalBackend(cfg)
	require.NoError(t, err)
	return b
}

func TestLocalBackend_PutGetEvict(t *testing.T) {
	ctx := context.Background()
	b := newLocalBackend(t)

	_, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	value := []byte(`{"name":"a"}`)
	require.NoError(t, b.Put(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"name":"a"}`, string(got))

	require.NoError(t, b.Evict(ctx, "k"))
	_, found, _ = b.Get(ctx, "k")
	assert.False(t, found)
}

func TestLocalBackend_EntryTTL(t *testing.T) {
	ctx := context.Background()
	b := newLocalBackend(t)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	require.NoError(t, b.Put(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, b.Put(ctx, "long", []byte("2"), 24*time.Hour))
	require.NoError(t, b.Put(ctx, "default", []byte("3"), 0))

	now = now.Add(2 * time.Minute)
	_, found, _ := b.Get(ctx, "short")
	assert.False(t, found, "entry TTL shorter than the client TTL")
	_, found, _ = b.Get(ctx, "long")
	assert.True(t, found)

	now = now.Add(2 * time.Hour)
	_, found, _ = b.Get(ctx, "long")
	assert.False(t, found, "entry TTL is bounded by the client TTL")
	_, found, _ = b.Get(ctx, "default")
	assert.False(t, found)
}

func TestLocalBackend_Clear(t *testing.T) {
	ctx := context.Background()
	b := newLocalBackend(t)

	for _, k := range []string{"users::1", "users::2", "roles::1"} {
		require.NoError(t, b.Put(ctx, k, []byte(k), time.Minute))
	}

	require.NoError(t, b.Clear(ctx, "users::"))

	keys := b.client.ScanKeys()
	sort.Strings(keys)
	assert.Equal(t, []string{"roles::1"}, keys)
}

func TestLocalBackend_BacksCacheRegion(t *testing.T) {
	ctx := context.Background()
	region, err := cache.New(cache.DefaultConfig(), newLocalBackend(t), nil)
	require.NoError(t, err)

	calls := 0
	for i := 0; i < 3; i++ {
		got, err := cache.GetOrFetch(ctx, region, "answer", func(context.Context) (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	}
	assert.Equal(t, 1, calls)
}
