package repositorycache

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry labels. A tracked key is indexed under the method that produced
// it and, when known, the record id or identifier it was read by, plus any
// tags found in the read context.
const (
	labelMethod     = "method:"
	labelID         = "id:"
	labelIdentifier = "identifier:"
	labelTag        = "tag:"
)

type keySet = xsync.MapOf[string, struct{}]

// keyRegistry indexes cache keys by label so writes can evict exactly the
// reads they affect.
type keyRegistry struct {
	labels *xsync.MapOf[string, *keySet]
}

func newKeyRegistry() *keyRegistry {
	return &keyRegistry{labels: xsync.NewMapOf[string, *keySet]()}
}

func (r *keyRegistry) track(key string, labels ...string) {
	for _, label := range labels {
		set, _ := r.labels.LoadOrCompute(label, func() *keySet {
			return xsync.NewMapOf[string, struct{}]()
		})
		set.Store(key, struct{}{})
	}
}

// take removes the given labels and returns the distinct keys they held.
func (r *keyRegistry) take(labels ...string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, label := range labels {
		set, ok := r.labels.LoadAndDelete(label)
		if !ok {
			continue
		}
		set.Range(func(key string, _ struct{}) bool {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
			return true
		})
	}
	return keys
}

// takeAll empties the registry.
func (r *keyRegistry) takeAll() []string {
	var labels []string
	r.labels.Range(func(label string, _ *keySet) bool {
		labels = append(labels, label)
		return true
	})
	return r.take(labels...)
}

// size returns the number of labels currently tracked.
func (r *keyRegistry) size() int {
	return r.labels.Size()
}
