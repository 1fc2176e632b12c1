package repositorycache

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/goliatone/go-cache-codec/cache"
	"github.com/goliatone/go-cache-codec/codec"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/jinzhu/inflection"
	"github.com/uptrace/bun"
)

// Interface assertion to ensure CachedRepository implements Repository[T]
var _ repository.Repository[any] = (*CachedRepository[any])(nil)

// listResult wraps the tuple result from List operations for caching
type listResult[T any] struct {
	Records []T `cache:"records"`
	Total   int `cache:"total"`
}

// CachedRepository decorates a base repository with caching functionality
type CachedRepository[T any] struct {
	base      repository.Repository[T]
	cache     cache.CacheService
	keys      cache.KeyGenerator
	owner     string
	namespace string
	registry  *keyRegistry
	logger    cache.Logger
}

// Option configures a CachedRepository.
type Option func(*options)

type options struct {
	namespace string
	logger    cache.Logger
}

// WithNamespace overrides the package part of every cache key. By default it
// is the pluralised snake_case name of the entity, e.g. "blog_posts".
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithLogger sets the logger used for key generation failures.
func WithLogger(l cache.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a new CachedRepository that wraps the base repository with caching
func New[T any](base repository.Repository[T], cacheService cache.CacheService, keys cache.KeyGenerator, opts ...Option) *CachedRepository[T] {
	entity := reflect.TypeFor[T]()
	for entity.Kind() == reflect.Pointer {
		entity = entity.Elem()
	}

	o := options{namespace: Namespace(entity)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &CachedRepository[T]{
		base:      base,
		cache:     cacheService,
		keys:      keys,
		owner:     codec.TypeName(entity),
		namespace: o.namespace,
		registry:  newKeyRegistry(),
		logger:    o.logger,
	}
}

// Namespace returns the cache namespace derived from an entity type:
// User becomes "users", BlogPost becomes "blog_posts".
func Namespace(entity reflect.Type) string {
	if entity == nil {
		return ""
	}
	name := toSnake(entity.Name())
	if name == "" {
		name = toSnake(entity.String())
	}
	return inflection.Plural(name)
}

// Namespace returns the package part used in this repository's cache keys.
func (c *CachedRepository[T]) Namespace() string {
	return c.namespace
}

// Get retrieves a single record using the provided criteria, with caching
func (c *CachedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	fetch := func(ctx context.Context) (T, error) {
		return c.base.Get(ctx, criteria...)
	}
	key, ok := c.readKey(ctx, "Get", nil, criteriaKeys(criteria))
	if !ok {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, c.cache, key, fetch)
}

// GetByID retrieves a record by ID with optional criteria, with caching
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	fetch := func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id, criteria...)
	}
	key, ok := c.readKey(ctx, "GetByID", []string{labelID + id}, id, criteriaKeys(criteria))
	if !ok {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, c.cache, key, fetch)
}

// List retrieves multiple records using the provided criteria, with caching
func (c *CachedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	fetch := func(ctx context.Context) (listResult[T], error) {
		records, total, err := c.base.List(ctx, criteria...)
		return listResult[T]{Records: records, Total: total}, err
	}
	key, ok := c.readKey(ctx, "List", nil, criteriaKeys(criteria))
	if !ok {
		res, err := fetch(ctx)
		return res.Records, res.Total, err
	}
	res, err := cache.GetOrFetch(ctx, c.cache, key, fetch)
	if err != nil {
		return nil, 0, err
	}
	return res.Records, res.Total, nil
}

// Count returns the number of records matching the criteria, with caching
func (c *CachedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	fetch := func(ctx context.Context) (int, error) {
		return c.base.Count(ctx, criteria...)
	}
	key, ok := c.readKey(ctx, "Count", nil, criteriaKeys(criteria))
	if !ok {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, c.cache, key, fetch)
}

// GetByIdentifier retrieves a record by identifier with optional criteria, with caching
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	fetch := func(ctx context.Context) (T, error) {
		return c.base.GetByIdentifier(ctx, identifier, criteria...)
	}
	key, ok := c.readKey(ctx, "GetByIdentifier", []string{labelIdentifier + identifier}, identifier, criteriaKeys(criteria))
	if !ok {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, c.cache, key, fetch)
}

// Create inserts record and drops cached List and Count results.
func (c *CachedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	created, err := c.base.Create(ctx, record, criteria...)
	if err != nil {
		return created, err
	}
	c.evictQueries(ctx)
	return created, nil
}

// CreateTx inserts record within tx and drops cached List and Count results.
func (c *CachedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	created, err := c.base.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		return created, err
	}
	c.evictQueries(ctx)
	return created, nil
}

// CreateMany inserts records and drops cached List and Count results.
func (c *CachedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	created, err := c.base.CreateMany(ctx, records, criteria...)
	if err != nil {
		return created, err
	}
	c.evictQueries(ctx)
	return created, nil
}

// CreateManyTx is CreateMany within tx.
func (c *CachedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	created, err := c.base.CreateManyTx(ctx, tx, records, criteria...)
	if err != nil {
		return created, err
	}
	c.evictQueries(ctx)
	return created, nil
}

// GetOrCreate may insert, so it drops cached List and Count results.
func (c *CachedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	result, err := c.base.GetOrCreate(ctx, record)
	if err != nil {
		return result, err
	}
	c.evictQueries(ctx)
	return result, nil
}

// GetOrCreateTx is GetOrCreate within tx.
func (c *CachedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	result, err := c.base.GetOrCreateTx(ctx, tx, record)
	if err != nil {
		return result, err
	}
	c.evictQueries(ctx)
	return result, nil
}

// Update writes record and evicts every cached read that may include it.
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	updated, err := c.base.Update(ctx, record, criteria...)
	if err != nil {
		return updated, err
	}
	c.evictRecords(ctx, record, updated)
	return updated, nil
}

// UpdateTx is Update within tx.
func (c *CachedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	updated, err := c.base.UpdateTx(ctx, tx, record, criteria...)
	if err != nil {
		return updated, err
	}
	c.evictRecords(ctx, record, updated)
	return updated, nil
}

// UpdateMany is Update for a batch.
func (c *CachedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	updated, err := c.base.UpdateMany(ctx, records, criteria...)
	if err != nil {
		return updated, err
	}
	c.evictRecords(ctx, slices.Concat(records, updated)...)
	return updated, nil
}

// UpdateManyTx is UpdateMany within tx.
func (c *CachedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	updated, err := c.base.UpdateManyTx(ctx, tx, records, criteria...)
	if err != nil {
		return updated, err
	}
	c.evictRecords(ctx, slices.Concat(records, updated)...)
	return updated, nil
}

// Upsert inserts or updates record; either way cached reads of it are evicted.
func (c *CachedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Upsert(ctx, record, criteria...)
	if err != nil {
		return result, err
	}
	c.evictRecords(ctx, record, result)
	return result, nil
}

// UpsertTx is Upsert within tx.
func (c *CachedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpsertTx(ctx, tx, record, criteria...)
	if err != nil {
		return result, err
	}
	c.evictRecords(ctx, record, result)
	return result, nil
}

// UpsertMany is Upsert for a batch.
func (c *CachedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertMany(ctx, records, criteria...)
	if err != nil {
		return result, err
	}
	c.evictRecords(ctx, slices.Concat(records, result)...)
	return result, nil
}

// UpsertManyTx is UpsertMany within tx.
func (c *CachedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertManyTx(ctx, tx, records, criteria...)
	if err != nil {
		return result, err
	}
	c.evictRecords(ctx, slices.Concat(records, result)...)
	return result, nil
}

// Delete removes record and evicts every cached read that may include it.
func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	if err := c.base.Delete(ctx, record); err != nil {
		return err
	}
	c.evictRecords(ctx, record)
	return nil
}

// DeleteTx is Delete within tx.
func (c *CachedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	if err := c.base.DeleteTx(ctx, tx, record); err != nil {
		return err
	}
	c.evictRecords(ctx, record)
	return nil
}

// DeleteMany removes the rows matched by criteria. The affected records are
// unknown, so every tracked key is evicted.
func (c *CachedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	if err := c.base.DeleteMany(ctx, criteria...); err != nil {
		return err
	}
	c.evictAll(ctx)
	return nil
}

// DeleteManyTx is DeleteMany within tx.
func (c *CachedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	if err := c.base.DeleteManyTx(ctx, tx, criteria...); err != nil {
		return err
	}
	c.evictAll(ctx)
	return nil
}

// DeleteWhere behaves like DeleteMany.
func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	if err := c.base.DeleteWhere(ctx, criteria...); err != nil {
		return err
	}
	c.evictAll(ctx)
	return nil
}

// DeleteWhereTx is DeleteWhere within tx.
func (c *CachedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	if err := c.base.DeleteWhereTx(ctx, tx, criteria...); err != nil {
		return err
	}
	c.evictAll(ctx)
	return nil
}

// ForceDelete bypasses soft delete in the base repository.
func (c *CachedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	if err := c.base.ForceDelete(ctx, record); err != nil {
		return err
	}
	c.evictRecords(ctx, record)
	return nil
}

// ForceDeleteTx is ForceDelete within tx.
func (c *CachedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	if err := c.base.ForceDeleteTx(ctx, tx, record); err != nil {
		return err
	}
	c.evictRecords(ctx, record)
	return nil
}

// Reads inside a transaction never touch the cache: they may observe
// uncommitted rows.

func (c *CachedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIDTx(ctx, tx, id, criteria...)
}

func (c *CachedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return c.base.ListTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.CountTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// Raw executes a raw SQL query. Results are not cached.
func (c *CachedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return c.base.Raw(ctx, sql, args...)
}

// RawTx executes a raw SQL query within tx. Results are not cached.
func (c *CachedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return c.base.RawTx(ctx, tx, sql, args...)
}

// Handlers returns the model handlers from the base repository
func (c *CachedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return c.base.Handlers()
}

// InvalidateTags evicts every cached read that was registered under one of
// tags through WithCacheTags.
func (c *CachedRepository[T]) InvalidateTags(ctx context.Context, tags ...string) {
	labels := make([]string, 0, len(tags))
	for _, tag := range dedupeStrings(tags) {
		labels = append(labels, labelTag+tag)
	}
	c.evict(ctx, c.registry.take(labels...))
}

// InvalidateAll evicts every cached read this repository has tracked.
func (c *CachedRepository[T]) InvalidateAll(ctx context.Context) {
	c.evictAll(ctx)
}

// readKey computes the cache key of a read and registers it under the
// method, the extra labels and the context tags. ok is false when the
// arguments cannot form a key; the read then goes straight to the base.
func (c *CachedRepository[T]) readKey(ctx context.Context, method string, labels []string, args ...any) (key string, ok bool) {
	key, err := c.keys.ComputeKey(c.owner, method, c.namespace, args...)
	if err != nil {
		c.logger.Warn("repository cache key failed", "owner", c.owner, "method", method, "error", err)
		return "", false
	}

	labels = append(labels, labelMethod+method)
	for _, tag := range cacheTagsFromContext(ctx) {
		labels = append(labels, labelTag+tag)
	}
	c.registry.track(key, labels...)
	return key, true
}

// evictQueries drops the reads whose result set depends on which rows exist.
func (c *CachedRepository[T]) evictQueries(ctx context.Context) {
	c.evict(ctx, c.registry.take(labelMethod+"List", labelMethod+"Count", labelMethod+"Get"))
}

// evictRecords drops the by-id and by-identifier reads of records together
// with every query result.
func (c *CachedRepository[T]) evictRecords(ctx context.Context, records ...T) {
	labels := []string{labelMethod + "List", labelMethod + "Count", labelMethod + "Get"}
	for _, record := range records {
		if id, ok := recordField(record, idFields); ok {
			labels = append(labels, labelID+id)
		}
		if identifier, ok := recordField(record, identifierFields); ok {
			labels = append(labels, labelIdentifier+identifier)
		}
	}
	c.evict(ctx, c.registry.take(labels...))
}

func (c *CachedRepository[T]) evictAll(ctx context.Context) {
	c.evict(ctx, c.registry.takeAll())
}

func (c *CachedRepository[T]) evict(ctx context.Context, keys []string) {
	for _, key := range keys {
		c.cache.Evict(ctx, key)
	}
}

var (
	idFields         = []string{"ID", "Id"}
	identifierFields = []string{"Identifier", "Slug", "Name", "Code"}
)

// recordField returns the first non-zero field of record named in names.
func recordField(record any, names []string) (string, bool) {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", false
	}
	for _, name := range names {
		f := v.FieldByName(name)
		if !f.IsValid() || !f.CanInterface() || f.IsZero() {
			continue
		}
		return fmt.Sprint(f.Interface()), true
	}
	return "", false
}

// criteriaKeys renders criteria functions by address. Two calls share a key
// only when they pass the same function values.
func criteriaKeys[C any](criteria []C) []string {
	out := make([]string, len(criteria))
	for i, c := range criteria {
		out[i] = fmt.Sprintf("%p", c)
	}
	return out
}
