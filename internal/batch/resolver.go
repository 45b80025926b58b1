// Package batch resolves the foreign keys of join records into full entities
// with bounded, chunked parallel fetches.
package batch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// DefaultBatchSize bounds the number of concurrent fetches per chunk.
const DefaultBatchSize = 20

// Recorder receives batch instrumentation.
type Recorder interface {
	ObserveBatchResolution(keys, chunks int)
}

// Config tunes a resolution.
type Config struct {
	BatchSize int
	Logger    *zap.Logger
	Recorder  Recorder
}

// Resolve extracts the keys of joins, deduplicates them in first-seen order,
// fetches them chunk by chunk and merges each entity with the first join
// record that referenced it. Chunk n+1 starts only after every fetch of chunk
// n has settled. Any failed fetch fails the whole resolution; no partial
// result is returned. Empty input returns an empty result without fetching.
func Resolve[J, E, R any](
	ctx context.Context,
	cfg Config,
	joins []J,
	key func(J) int64,
	fetch func(ctx context.Context, id int64) (E, error),
	merge func(entity E, join J) R,
) ([]R, error) {
	if len(joins) == 0 {
		return []R{}, nil
	}
	size := cfg.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ids, first := dedupe(joins, key)
	chunks := (len(ids) + size - 1) / size
	if cfg.Recorder != nil {
		cfg.Recorder.ObserveBatchResolution(len(ids), chunks)
	}

	resolved := make([]E, len(ids))
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				entity, err := fetch(gctx, ids[i])
				if err != nil {
					return memberFailure(ids[i], err)
				}
				resolved[i] = entity
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			logger.Warn("batch resolution failed",
				zap.Int("chunk", start/size+1),
				zap.Int("chunks", chunks),
				zap.Error(err),
			)
			return nil, err
		}
		logger.Debug("batch chunk resolved", zap.Int("chunk", start/size+1), zap.Int("size", end-start))
	}

	out := make([]R, len(ids))
	for i, id := range ids {
		out[i] = merge(resolved[i], first[id])
	}
	return out, nil
}

func dedupe[J any](joins []J, key func(J) int64) ([]int64, map[int64]J) {
	ids := make([]int64, 0, len(joins))
	first := make(map[int64]J, len(joins))
	for _, join := range joins {
		id := key(join)
		if _, seen := first[id]; seen {
			continue
		}
		first[id] = join
		ids = append(ids, id)
	}
	return ids, first
}

// memberFailure wraps a failed fetch. Unauthorized and context errors pass
// through untouched so callers can react to them directly.
func memberFailure(id int64, err error) error {
	if errors.Is(err, appErrors.ErrUnauthorized) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrBatchPartialFailure.Code, appErrors.ErrBatchPartialFailure.Status,
		fmt.Sprintf("resolve entity %d", id))
}
