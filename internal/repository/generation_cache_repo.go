package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aprilhs/copyforge/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GenerationCacheRepository is the full-generation cache. Entries carry a
// TTL; an expired row is treated as a miss even before the janitor purges it.
type GenerationCacheRepository struct {
	db *gorm.DB
}

// NewGenerationCacheRepository creates a new GenerationCacheRepository.
func NewGenerationCacheRepository(db *gorm.DB) *GenerationCacheRepository {
	return &GenerationCacheRepository{db: db}
}

// Get returns the entry for a cache key, or (nil, nil) when the key is
// absent or the entry has expired.
func (r *GenerationCacheRepository) Get(ctx context.Context, cacheKey string) (*domain.GenerationCacheEntry, error) {
	var entry domain.GenerationCacheEntry
	err := r.db.WithContext(ctx).First(&entry, "cache_key = ?", cacheKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.Expired(time.Now()) {
		return nil, nil
	}
	return &entry, nil
}

// Put upserts an entry under the key with a fresh TTL. Writing an existing
// key overwrites the payload and resets expires_at.
func (r *GenerationCacheRepository) Put(ctx context.Context, cacheKey, payload string, ttl time.Duration) error {
	now := time.Now()
	entry := domain.GenerationCacheEntry{
		CacheKey:  cacheKey,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		HitCount:  0,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		UpdateAll: true,
	}).Create(&entry).Error
}

// IncrementHit bumps the hit counter for a key. Best-effort: callers treat
// a failure here as non-fatal and still serve the hit.
func (r *GenerationCacheRepository) IncrementHit(ctx context.Context, cacheKey string) error {
	return r.db.WithContext(ctx).
		Model(&domain.GenerationCacheEntry{}).
		Where("cache_key = ?", cacheKey).
		UpdateColumn("hit_count", gorm.Expr("hit_count + 1")).Error
}

// DeleteExpired removes entries whose TTL has elapsed.
func (r *GenerationCacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&domain.GenerationCacheEntry{})
	return res.RowsAffected, res.Error
}

// Count returns the number of cached generations, expired rows included.
func (r *GenerationCacheRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.GenerationCacheEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
