package job

import (
	"context"
	"time"

	"github.com/aprilhs/copyforge/internal/logger"
)

// generationCachePurger deletes expired generation-cache rows.
type generationCachePurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// embeddingCachePurger deletes embedding-cache rows older than a cutoff.
type embeddingCachePurger interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GenerationCacheCleanupJob purges generation-cache entries whose TTL has
// elapsed. Expired rows are already invisible to reads; this reclaims the
// storage.
type GenerationCacheCleanupJob struct {
	cache generationCachePurger
}

// NewGenerationCacheCleanupJob creates the generation-cache janitor.
func NewGenerationCacheCleanupJob(cache generationCachePurger) *GenerationCacheCleanupJob {
	return &GenerationCacheCleanupJob{cache: cache}
}

func (j *GenerationCacheCleanupJob) Name() string { return "generation_cache_cleanup" }

func (j *GenerationCacheCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.cache.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logger.CtxInfo(ctx, "Purged expired generation-cache entries: count=%d", deleted)
	}
	return nil
}

// EmbeddingCacheCleanupJob purges embedding-cache entries older than the
// configured max age. A zero or negative max age disables the job's work.
type EmbeddingCacheCleanupJob struct {
	cache  embeddingCachePurger
	maxAge time.Duration
}

// NewEmbeddingCacheCleanupJob creates the embedding-cache janitor.
func NewEmbeddingCacheCleanupJob(cache embeddingCachePurger, maxAge time.Duration) *EmbeddingCacheCleanupJob {
	return &EmbeddingCacheCleanupJob{cache: cache, maxAge: maxAge}
}

func (j *EmbeddingCacheCleanupJob) Name() string { return "embedding_cache_cleanup" }

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.maxAge <= 0 {
		return nil
	}
	deleted, err := j.cache.DeleteBefore(ctx, time.Now().Add(-j.maxAge))
	if err != nil {
		return err
	}
	if deleted > 0 {
		logger.CtxInfo(ctx, "Purged stale embedding-cache entries: count=%d", deleted)
	}
	return nil
}
