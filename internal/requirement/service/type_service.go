package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/bitfantasy/nimo-req/internal/requirement/entity"
	"github.com/bitfantasy/nimo-req/internal/requirement/repository"
	"github.com/bitfantasy/nimo-req/internal/requirement/sse"
	"go.uber.org/zap"
)

// TypeService 需求类型服务
type TypeService struct {
	repo      *repository.TypeRepository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewTypeService 创建需求类型服务
func NewTypeService(repo *repository.TypeRepository, publisher EventPublisher, logger *zap.Logger) *TypeService {
	return &TypeService{repo: repo, publisher: publisher, logger: logger}
}

// CreateTypeRequest 创建需求类型请求
type CreateTypeRequest struct {
	Name string `json:"name"`
}

// List returns all types in byte-wise name order.
func (s *TypeService) List(ctx context.Context) ([]entity.RequirementType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list types", err)
	}
	// database collations differ; keep the order independent of them
	sort.SliceStable(types, func(i, j int) bool {
		return types[i].Name < types[j].Name
	})
	if types == nil {
		types = []entity.RequirementType{}
	}
	return types, nil
}

// Add registers a new type name.
func (s *TypeService) Add(ctx context.Context, req *CreateTypeRequest) (*entity.RequirementType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("Type name is required")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(s.logger, "find type", err)
	}

	t := &entity.RequirementType{Name: name, CreatedAt: now()}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, storeError(s.logger, "create type", err)
	}

	s.publisher.Publish(ctx, sse.TypeEvent(t.ID, sse.ActionCreated))
	return t, nil
}

// SeedDefaults makes sure the default type names exist. Existing names are left alone.
func (s *TypeService) SeedDefaults(ctx context.Context) error {
	inserted, err := s.repo.SeedDefaults(ctx, entity.DefaultTypeNames)
	if err != nil {
		return storeError(s.logger, "seed types", err)
	}
	s.logger.Info("Requirement types seeded", zap.Int64("inserted", inserted))
	return nil
}
