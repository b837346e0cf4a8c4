package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-req/internal/requirement/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequirementRepository 需求仓库
type RequirementRepository struct {
	db *gorm.DB
}

// NewRequirementRepository 创建需求仓库
func NewRequirementRepository(db *gorm.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// List returns every requirement, newest first.
func (r *RequirementRepository) List(ctx context.Context) ([]entity.Requirement, error) {
	var items []entity.Requirement
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

// FindByID 根据ID查找需求
func (r *RequirementRepository) FindByID(ctx context.Context, id uint) (*entity.Requirement, error) {
	return findRequirement(r.db.WithContext(ctx), id)
}

// Create 创建需求
func (r *RequirementRepository) Create(ctx context.Context, req *entity.Requirement) error {
	req.Normalize()
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

// Update applies the given column values to one requirement and returns the
// stored row. A missing id yields ErrNotFound and changes nothing.
func (r *RequirementRepository) Update(ctx context.Context, id uint, values map[string]interface{}) (*entity.Requirement, error) {
	var updated *entity.Requirement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Requirement{}).
			Where("id = ?", id).
			Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		var err error
		updated, err = findRequirement(tx, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// Delete 删除需求（物理删除）
func (r *RequirementRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Requirement{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendComment pushes comment onto the end of the stored comment array and
// stamps last_comment_at and updated_at with at.
//
// On Postgres and SQLite the push is a single UPDATE evaluated by the database,
// so concurrent appends to one requirement cannot overwrite each other. Other
// dialects fall back to read-modify-write under a row lock.
func (r *RequirementRepository) AppendComment(ctx context.Context, id uint, comment entity.Comment, at time.Time) (*entity.Requirement, error) {
	var updated *entity.Requirement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		push, err := r.pushExpr(tx, id, comment)
		if err != nil {
			return err
		}
		result := tx.Model(&entity.Requirement{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"comments":        push,
				"last_comment_at": at,
				"updated_at":      at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		updated, err = findRequirement(tx, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

func (r *RequirementRepository) pushExpr(tx *gorm.DB, id uint, comment entity.Comment) (interface{}, error) {
	switch tx.Dialector.Name() {
	case "postgres":
		payload, err := json.Marshal([]entity.Comment{comment})
		if err != nil {
			return nil, fmt.Errorf("encode comment: %w", err)
		}
		return gorm.Expr("COALESCE(comments, '[]'::jsonb) || ?::jsonb", string(payload)), nil
	case "sqlite":
		payload, err := json.Marshal(comment)
		if err != nil {
			return nil, fmt.Errorf("encode comment: %w", err)
		}
		return gorm.Expr("json_insert(COALESCE(comments, '[]'), '$[#]', json(?))", string(payload)), nil
	}

	var current entity.Requirement
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "comments").
		Where("id = ?", id).
		First(&current).Error
	if err != nil {
		return nil, err
	}
	current.Normalize()
	return append(current.Comments, comment), nil
}

func findRequirement(db *gorm.DB, id uint) (*entity.Requirement, error) {
	var req entity.Requirement
	if err := db.Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	req.Normalize()
	return &req, nil
}
