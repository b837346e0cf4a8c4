package repository

import (
	"errors"

	"github.com/bitfantasy/nimo-req/internal/requirement/entity"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Repositories 仓库集合
type Repositories struct {
	Type        *TypeRepository
	Requirement *RequirementRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Type:        NewTypeRepository(db),
		Requirement: NewRequirementRepository(db),
	}
}

// AutoMigrate creates or updates the requirement tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.RequirementType{},
		&entity.Requirement{},
	)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
