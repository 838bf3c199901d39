package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// FloatVector is a custom type for storing embedding vectors as JSON in the database.
type FloatVector []float32

// Value implements the driver.Valuer interface for database serialization.
func (v FloatVector) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (v *FloatVector) Scan(value interface{}) error {
	if value == nil {
		*v = FloatVector{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan FloatVector")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, v)
}

// EmbeddingCacheEntry caches one computed embedding, keyed by the SHA-256
// of the lower-cased, trimmed source text. Entries are never mutated after
// creation; stale rows are removed by the scheduled janitor.
type EmbeddingCacheEntry struct {
	ContentHash string      `gorm:"type:text;primaryKey" json:"content_hash"`
	Vector      FloatVector `gorm:"type:text;not null" json:"vector"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TableName returns the database table name for EmbeddingCacheEntry.
func (EmbeddingCacheEntry) TableName() string {
	return "embedding_cache"
}

// GenerationCacheEntry caches one full generation result, keyed by the
// normalized request hash. An entry is logically invisible once expired
// even if it has not been physically purged yet.
type GenerationCacheEntry struct {
	CacheKey  string    `gorm:"type:text;primaryKey" json:"cache_key"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"index:idx_generation_cache_expires" json:"expires_at"`
	HitCount  int       `gorm:"default:0" json:"hit_count"`
}

// TableName returns the database table name for GenerationCacheEntry.
func (GenerationCacheEntry) TableName() string {
	return "generation_cache"
}

// Expired reports whether the entry is logically invisible at now.
func (e *GenerationCacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Content decodes the cached payload.
func (e *GenerationCacheEntry) Content() (*GeneratedContent, error) {
	var content GeneratedContent
	if err := json.Unmarshal([]byte(e.Payload), &content); err != nil {
		return nil, err
	}
	return &content, nil
}
