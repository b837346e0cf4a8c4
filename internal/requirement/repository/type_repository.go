package repository

import (
	"context"

	"github.com/bitfantasy/nimo-req/internal/requirement/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TypeRepository 需求类型仓库
type TypeRepository struct {
	db *gorm.DB
}

// NewTypeRepository 创建需求类型仓库
func NewTypeRepository(db *gorm.DB) *TypeRepository {
	return &TypeRepository{db: db}
}

// List returns every type ordered by name.
func (r *TypeRepository) List(ctx context.Context) ([]entity.RequirementType, error) {
	var types []entity.RequirementType
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

// FindByName looks a type up by exact name.
func (r *TypeRepository) FindByName(ctx context.Context, name string) (*entity.RequirementType, error) {
	var t entity.RequirementType
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// Create inserts a type. A name collision yields ErrDuplicate.
func (r *TypeRepository) Create(ctx context.Context, t *entity.RequirementType) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

// SeedDefaults inserts the given names, skipping any that already exist.
// It returns the number of rows actually inserted.
func (r *TypeRepository) SeedDefaults(ctx context.Context, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	types := make([]entity.RequirementType, 0, len(names))
	for _, name := range names {
		types = append(types, entity.RequirementType{Name: name})
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&types)
	return result.RowsAffected, result.Error
}
