package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aprilhs/copyforge/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmbeddingCacheRepository is the persistent tier of the embedding cache,
// keyed by the content hash of the normalized source text.
type EmbeddingCacheRepository struct {
	db *gorm.DB
}

// NewEmbeddingCacheRepository creates a new EmbeddingCacheRepository.
func NewEmbeddingCacheRepository(db *gorm.DB) *EmbeddingCacheRepository {
	return &EmbeddingCacheRepository{db: db}
}

// Get returns the cached vector for a content hash, or (nil, nil) on miss.
func (r *EmbeddingCacheRepository) Get(ctx context.Context, contentHash string) ([]float32, error) {
	var entry domain.EmbeddingCacheEntry
	err := r.db.WithContext(ctx).First(&entry, "content_hash = ?", contentHash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry.Vector, nil
}

// Put stores a computed embedding. Writing an existing hash is a no-op:
// entries are immutable once created.
func (r *EmbeddingCacheRepository) Put(ctx context.Context, contentHash string, vector []float32) error {
	entry := domain.EmbeddingCacheEntry{
		ContentHash: contentHash,
		Vector:      domain.FloatVector(vector),
		CreatedAt:   time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_hash"}},
		DoNothing: true,
	}).Create(&entry).Error
}

// DeleteBefore removes entries created before the cutoff. Used by the
// scheduled janitor; serving-time reads never mutate the table.
func (r *EmbeddingCacheRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.EmbeddingCacheEntry{})
	return res.RowsAffected, res.Error
}

// Count returns the number of cached embeddings.
func (r *EmbeddingCacheRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.EmbeddingCacheEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
