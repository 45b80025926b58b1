package querycache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/querykey"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// ScopeFunc names the partition a request reads from. It fails when the
// request carries no usable credential.
type ScopeFunc func(ctx context.Context) (string, error)

// Registry holds one Cache per session scope so that entries fetched with one
// credential are never served to another. Invalidation fans out to every
// partition; reads and writes stay inside the caller's.
type Registry struct {
	mu     sync.Mutex
	caches map[string]*Cache
	scope  ScopeFunc
	opts   []Option
	logger *zap.Logger
}

// NewRegistry builds an empty registry. opts apply to every partition.
func NewRegistry(scope ScopeFunc, opts ...Option) *Registry {
	base := New(opts...)
	return &Registry{
		caches: make(map[string]*Cache),
		scope:  scope,
		opts:   opts,
		logger: base.logger,
	}
}

// For returns the caller's partition, creating it on first use.
func (r *Registry) For(ctx context.Context) (*Cache, error) {
	if r.scope == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "cache scope not configured")
	}
	scope, err := r.scope(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cache, ok := r.caches[scope]
	if !ok {
		cache = New(r.opts...)
		r.caches[scope] = cache
		r.logger.Debug("query cache partition created", zap.Int("partitions", len(r.caches)))
	}
	return cache, nil
}

// Invalidate marks key and its descendants stale in every partition.
func (r *Registry) Invalidate(key querykey.Key) int {
	count := 0
	for _, cache := range r.snapshot() {
		count += cache.Invalidate(key)
	}
	return count
}

// Sweep evicts unread entries from every partition and drops partitions
// left empty.
func (r *Registry) Sweep(olderThan time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for scope, cache := range r.caches {
		removed += cache.Sweep(olderThan)
		if cache.Len() == 0 {
			delete(r.caches, scope)
		}
	}
	return removed
}

// Partitions returns the number of live partitions.
func (r *Registry) Partitions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.caches)
}

func (r *Registry) snapshot() []*Cache {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Cache, 0, len(r.caches))
	for _, cache := range r.caches {
		out = append(out, cache)
	}
	return out
}
