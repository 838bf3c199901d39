package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aprilhs/copyforge/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.ReferenceExample{},
		&domain.EmbeddingCacheEntry{},
		&domain.GenerationCacheEntry{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestGenerationCacheRoundTrip(t *testing.T) {
	repo := NewGenerationCacheRepository(testDB(t))
	ctx := context.Background()

	payload := `{"headline":"H","subheadline":"S","opportunity":"O"}`
	if err := repo.Put(ctx, "key-1", payload, time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, err := repo.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a cache hit")
	}
	if entry.Payload != payload {
		t.Errorf("payload = %q, want %q", entry.Payload, payload)
	}

	content, err := entry.Content()
	if err != nil {
		t.Fatalf("Content failed: %v", err)
	}
	if content.Headline != "H" {
		t.Errorf("decoded headline = %q", content.Headline)
	}
}

func TestGenerationCacheMissOnAbsentKey(t *testing.T) {
	repo := NewGenerationCacheRepository(testDB(t))

	entry, err := repo.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Error("absent key must read as a miss")
	}
}

func TestGenerationCacheExpiredEntryInvisible(t *testing.T) {
	repo := NewGenerationCacheRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, "key-exp", "{}", -time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, err := repo.Get(ctx, "key-exp")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Error("expired entry must read as a miss before being purged")
	}

	// The row physically exists until the janitor runs.
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 physical row, got %d", count)
	}

	deleted, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 purged row, got %d", deleted)
	}
}

func TestGenerationCacheUpsertResetsEntry(t *testing.T) {
	repo := NewGenerationCacheRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, "key-up", "first", time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := repo.IncrementHit(ctx, "key-up"); err != nil {
		t.Fatalf("IncrementHit failed: %v", err)
	}

	if err := repo.Put(ctx, "key-up", "second", time.Hour); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	entry, err := repo.Get(ctx, "key-up")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Payload != "second" {
		t.Errorf("payload = %q, want overwritten value", entry.Payload)
	}
	if entry.HitCount != 0 {
		t.Errorf("upsert should reset hit count, got %d", entry.HitCount)
	}
}

func TestGenerationCacheIncrementHit(t *testing.T) {
	repo := NewGenerationCacheRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, "key-hits", "{}", time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.IncrementHit(ctx, "key-hits"); err != nil {
			t.Fatalf("IncrementHit failed: %v", err)
		}
	}

	entry, err := repo.Get(ctx, "key-hits")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.HitCount != 3 {
		t.Errorf("hit count = %d, want 3", entry.HitCount)
	}
}

func TestEmbeddingCacheImmutable(t *testing.T) {
	repo := NewEmbeddingCacheRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, "hash-1", []float32{0.1, 0.2}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Second write under the same hash is a no-op.
	if err := repo.Put(ctx, "hash-1", []float32{0.9, 0.9}); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	vector, err := repo.Get(ctx, "hash-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(vector) != 2 || vector[0] != float32(0.1) {
		t.Errorf("vector = %v, want the original entry", vector)
	}
}

func TestEmbeddingCacheDeleteBefore(t *testing.T) {
	db := testDB(t)
	repo := NewEmbeddingCacheRepository(db)
	ctx := context.Background()

	if err := repo.Put(ctx, "hash-old", []float32{0.1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	db.Model(&domain.EmbeddingCacheEntry{}).
		Where("content_hash = ?", "hash-old").
		UpdateColumn("created_at", time.Now().Add(-48*time.Hour))

	if err := repo.Put(ctx, "hash-new", []float32{0.2}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	deleted, err := repo.DeleteBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted row, got %d", deleted)
	}

	vector, err := repo.Get(ctx, "hash-new")
	if err != nil || vector == nil {
		t.Errorf("recent entry must survive the purge: %v %v", vector, err)
	}
}
