package cache

import (
	"image"
	"sync"
	"time"
)

// Stats describes the content of one namespace.
type Stats struct {
	Name        string `json:"name"`
	Total       int    `json:"total"`
	Valid       int    `json:"valid"`
	Expired     int    `json:"expired"`
	ApproxBytes int64  `json:"approx_bytes"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
}

type entry[V any] struct {
	value   V
	expires time.Time
	size    int64
	seq     uint64
}

type slot struct {
	key string
	seq uint64
}

// Namespace is an in-memory TTL map with optional FIFO capacity.
// Expired entries are dropped lazily on read and by Sweep.
type Namespace[V any] struct {
	name       string
	now        func() time.Time
	maxEntries int

	mu      sync.Mutex
	entries map[string]*entry[V]
	// order records insertion order for FIFO eviction. Slots whose seq no
	// longer matches the live entry are stale and skipped.
	order []slot
	seq   uint64

	hits, misses, evictions uint64
}

// NamespaceOption configures a Namespace.
type NamespaceOption func(*nsConfig)

type nsConfig struct {
	now        func() time.Time
	maxEntries int
}

// WithNamespaceClock injects the time source.
func WithNamespaceClock(now func() time.Time) NamespaceOption {
	return func(c *nsConfig) { c.now = now }
}

// WithMaxEntries caps the namespace; the oldest insertion is evicted first.
func WithMaxEntries(n int) NamespaceOption {
	return func(c *nsConfig) { c.maxEntries = n }
}

// NewNamespace creates an empty namespace.
func NewNamespace[V any](name string, opts ...NamespaceOption) *Namespace[V] {
	cfg := nsConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Namespace[V]{
		name:       name,
		now:        cfg.now,
		maxEntries: cfg.maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

// Name returns the namespace name.
func (n *Namespace[V]) Name() string { return n.name }

// Get returns a live entry. A hit requires now < expiry.
func (n *Namespace[V]) Get(key string) (V, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	e, ok := n.entries[key]
	if !ok {
		n.misses++
		var zero V
		return zero, false
	}
	if !n.now().Before(e.expires) {
		delete(n.entries, key)
		n.misses++
		var zero V
		return zero, false
	}
	n.hits++
	return e.value, true
}

// Set stores v for ttl. Overwriting a key keeps its insertion position.
func (n *Namespace[V]) Set(key string, v V, ttl time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	expires := n.now().Add(ttl)
	if e, ok := n.entries[key]; ok {
		e.value, e.expires, e.size = v, expires, sizeOf(v)
		return
	}

	n.seq++
	n.entries[key] = &entry[V]{value: v, expires: expires, size: sizeOf(v), seq: n.seq}
	n.order = append(n.order, slot{key: key, seq: n.seq})
	n.evict()
	n.compact()
}

// evict drops the oldest insertions until the cap holds. Caller holds mu.
func (n *Namespace[V]) evict() {
	if n.maxEntries <= 0 {
		return
	}
	for len(n.entries) > n.maxEntries && len(n.order) > 0 {
		s := n.order[0]
		n.order = n.order[1:]
		if e, ok := n.entries[s.key]; ok && e.seq == s.seq {
			delete(n.entries, s.key)
			n.evictions++
		}
	}
}

// compact drops stale slots once they dominate the order log. Caller holds mu.
func (n *Namespace[V]) compact() {
	if len(n.order) <= 2*len(n.entries)+16 {
		return
	}
	live := n.order[:0]
	for _, s := range n.order {
		if e, ok := n.entries[s.key]; ok && e.seq == s.seq {
			live = append(live, s)
		}
	}
	n.order = live
}

// Invalidate removes one key and reports whether it was present.
func (n *Namespace[V]) Invalidate(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.entries[key]
	delete(n.entries, key)
	return ok
}

// InvalidateFunc removes every key matching pred and returns the count.
func (n *Namespace[V]) InvalidateFunc(pred func(key string) bool) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	removed := 0
	for k := range n.entries {
		if pred(k) {
			delete(n.entries, k)
			removed++
		}
	}
	return removed
}

// Clear empties the namespace and returns how many entries it held.
func (n *Namespace[V]) Clear() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := len(n.entries)
	n.entries = make(map[string]*entry[V])
	n.order = nil
	return count
}

// Sweep removes expired entries and returns the count.
func (n *Namespace[V]) Sweep() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	removed := 0
	for k, e := range n.entries {
		if !now.Before(e.expires) {
			delete(n.entries, k)
			removed++
		}
	}
	return removed
}

// Keys returns the live keys, in no particular order.
func (n *Namespace[V]) Keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	keys := make([]string, 0, len(n.entries))
	for k, e := range n.entries {
		if now.Before(e.expires) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Stats reports counts and an approximate memory footprint.
func (n *Namespace[V]) Stats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	st := Stats{
		Name:      n.name,
		Total:     len(n.entries),
		Hits:      n.hits,
		Misses:    n.misses,
		Evictions: n.evictions,
	}
	for k, e := range n.entries {
		if now.Before(e.expires) {
			st.Valid++
		} else {
			st.Expired++
		}
		st.ApproxBytes += int64(len(k)) + e.size
	}
	return st
}

func sizeOf(v any) int64 {
	switch x := v.(type) {
	case []byte:
		return int64(len(x))
	case string:
		return int64(len(x))
	case image.Image:
		b := x.Bounds()
		return int64(b.Dx()) * int64(b.Dy()) * 4
	}
	return 0
}
