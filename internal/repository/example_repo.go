package repository

import (
	"context"

	"github.com/aprilhs/copyforge/internal/domain"
	"gorm.io/gorm"
)

// ExampleRepository handles reference-example data operations. The library
// is seeded offline; serving-time access is read-only.
type ExampleRepository struct {
	db *gorm.DB
}

// NewExampleRepository creates a new ExampleRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ExampleRepository: repository instance bound to db.
func NewExampleRepository(db *gorm.DB) *ExampleRepository {
	return &ExampleRepository{db: db}
}

// GetByID retrieves a reference example by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: example ID.
// Returns:
//   - *domain.ReferenceExample: example record if found.
//   - error: non-nil if lookup fails.
func (r *ExampleRepository) GetByID(ctx context.Context, id string) (*domain.ReferenceExample, error) {
	var example domain.ReferenceExample
	if err := r.db.WithContext(ctx).First(&example, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &example, nil
}

// GetByIDs retrieves multiple reference examples by their IDs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: example IDs to fetch.
// Returns:
//   - []domain.ReferenceExample: matching records, unordered.
//   - error: non-nil if lookup fails.
func (r *ExampleRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.ReferenceExample, error) {
	var examples []domain.ReferenceExample
	if len(ids) == 0 {
		return examples, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&examples).Error; err != nil {
		return nil, err
	}
	return examples, nil
}

// ListByIndustry retrieves reference examples with an optional industry filter.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - industry: industry name to filter by; empty means all.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.ReferenceExample: matching records ordered by company name.
//   - error: non-nil if retrieval fails.
func (r *ExampleRepository) ListByIndustry(ctx context.Context, industry string, limit, offset int) ([]domain.ReferenceExample, error) {
	var examples []domain.ReferenceExample
	query := r.db.WithContext(ctx).Order("company ASC").Limit(limit).Offset(offset)
	if industry != "" {
		query = query.Where("industry = ?", industry)
	}
	if err := query.Find(&examples).Error; err != nil {
		return nil, err
	}
	return examples, nil
}

// GetIndustries returns all distinct industry names in the library.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []string: distinct industry names.
//   - error: non-nil if lookup fails.
func (r *ExampleRepository) GetIndustries(ctx context.Context) ([]string, error) {
	var industries []string
	err := r.db.WithContext(ctx).
		Model(&domain.ReferenceExample{}).
		Distinct("industry").
		Where("industry != ''").
		Order("industry ASC").
		Pluck("industry", &industries).Error
	if err != nil {
		return nil, err
	}
	return industries, nil
}

// Count returns the total number of reference examples.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int64: number of rows.
//   - error: non-nil if the count fails.
func (r *ExampleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ReferenceExample{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
