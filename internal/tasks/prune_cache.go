package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/cache"
)

const QueuePruneCache = "prune_cache"

// PruneCacheTask removes cached passages and studies older than the cache TTL.
type PruneCacheTask struct{}

// Config returns the queue configuration for cache pruning.
func (t PruneCacheTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueuePruneCache,
		MaxAttempts: 2,
		Backoff:     5 * time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
		},
	}
}

type CachePruner interface {
	PruneOlderThan(cutoff time.Time) (cache.PruneResult, error)
}

// PruneCache deletes rows older than ttl. A ttl of zero or less keeps
// everything and returns an empty result.
func PruneCache(pruner CachePruner, ttl time.Duration, now time.Time) (cache.PruneResult, error) {
	if ttl <= 0 {
		return cache.PruneResult{}, nil
	}
	res, err := pruner.PruneOlderThan(now.Add(-ttl))
	if err != nil {
		return cache.PruneResult{}, fmt.Errorf("prune cache: %w", err)
	}
	return res, nil
}

// PruneCacheProcessor creates a processor function for PruneCacheTask.
func PruneCacheProcessor(pruner CachePruner, ttl time.Duration, log *zap.Logger) backlite.QueueProcessor[PruneCacheTask] {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, _ PruneCacheTask) error {
		if pruner == nil {
			return fmt.Errorf("cache pruner not configured")
		}
		if ttl <= 0 {
			log.Debug("cache ttl disabled, nothing to prune")
			return nil
		}

		res, err := PruneCache(pruner, ttl, time.Now().UTC())
		if err != nil {
			return err
		}
		log.Info("cache pruned",
			zap.Int64("passages", res.Passages),
			zap.Int64("studies", res.Studies),
			zap.Duration("ttl", ttl))
		return nil
	}
}

// NewPruneCacheQueue creates the backlite queue for cache pruning.
func NewPruneCacheQueue(pruner CachePruner, ttl time.Duration, log *zap.Logger) backlite.Queue {
	return backlite.NewQueue(PruneCacheProcessor(pruner, ttl, log))
}
