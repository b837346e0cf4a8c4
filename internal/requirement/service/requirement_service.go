package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-req/internal/config"
	"github.com/bitfantasy/nimo-req/internal/requirement/entity"
	"github.com/bitfantasy/nimo-req/internal/requirement/repository"
	"github.com/bitfantasy/nimo-req/internal/requirement/sse"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// RequirementService 需求服务
type RequirementService struct {
	repo      *repository.RequirementRepository
	typeRepo  *repository.TypeRepository
	publisher EventPublisher
	cfg       config.RequirementConfig
	logger    *zap.Logger
	clock     func() time.Time
}

// NewRequirementService 创建需求服务
func NewRequirementService(repo *repository.RequirementRepository, typeRepo *repository.TypeRepository, publisher EventPublisher, cfg config.RequirementConfig, logger *zap.Logger) *RequirementService {
	return &RequirementService{
		repo:      repo,
		typeRepo:  typeRepo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		clock:     now,
	}
}

// CreateRequirementRequest 创建需求请求
type CreateRequirementRequest struct {
	Customer string           `json:"customer"`
	Contact  string           `json:"contact"`
	Details  string           `json:"details"`
	Type     string           `json:"type"`
	Status   string           `json:"status"`
	Images   []string         `json:"images"`
	Videos   []string         `json:"videos"`
	Comments []entity.Comment `json:"comments"`
}

// UpdateRequirementRequest 更新需求请求
type UpdateRequirementRequest struct {
	Customer string `json:"customer"`
	Contact  string `json:"contact"`
	Details  string `json:"details"`
	Type     string `json:"type"`
}

// UpdateStatusRequest 更新状态请求
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AddCommentRequest 添加评论请求
type AddCommentRequest struct {
	Text   string   `json:"text"`
	Images []string `json:"images"`
	Videos []string `json:"videos"`
}

// List returns every requirement, newest first.
func (s *RequirementService) List(ctx context.Context) ([]entity.Requirement, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list requirements", err)
	}
	if items == nil {
		items = []entity.Requirement{}
	}
	return items, nil
}

// Get 获取需求详情
func (s *RequirementService) Get(ctx context.Context, id uint) (*entity.Requirement, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError("find requirement", err)
	}
	return req, nil
}

// Create 创建需求
func (s *RequirementService) Create(ctx context.Context, in *CreateRequirementRequest) (*entity.Requirement, error) {
	customer, details, typeName, err := s.validateFields(ctx, in.Customer, in.Details, in.Type)
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = entity.StatusPending
	}

	ts := s.clock()
	comments := make(datatypes.JSONSlice[entity.Comment], 0, len(in.Comments))
	for _, raw := range in.Comments {
		c, ok := buildComment(raw.Text, raw.Images, raw.Videos)
		if !ok {
			return nil, invalid("Comment text or media is required")
		}
		c.Timestamp = ts
		if !raw.Timestamp.IsZero() {
			c.Timestamp = raw.Timestamp.UTC().Truncate(time.Microsecond)
		}
		comments = append(comments, c)
	}

	req := &entity.Requirement{
		Customer:  customer,
		Contact:   strings.TrimSpace(in.Contact),
		Details:   details,
		Type:      typeName,
		Status:    status,
		Images:    cleanRefs(in.Images),
		Videos:    cleanRefs(in.Videos),
		Comments:  comments,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, storeError(s.logger, "create requirement", err)
	}

	s.publisher.Publish(ctx, sse.RequirementEvent(req.ID, sse.ActionCreated))
	return req, nil
}

// UpdateStatus changes the workflow status. Any non-empty value is accepted.
func (s *RequirementService) UpdateStatus(ctx context.Context, id uint, in *UpdateStatusRequest) (*entity.Requirement, error) {
	status := strings.TrimSpace(in.Status)
	if status == "" {
		return nil, invalid("Status is required")
	}

	req, err := s.repo.Update(ctx, id, map[string]interface{}{
		"status":     status,
		"updated_at": s.clock(),
	})
	if err != nil {
		return nil, s.mapError("update status", err)
	}

	s.publisher.Publish(ctx, sse.RequirementEvent(id, sse.ActionStatus))
	return req, nil
}

// Update overwrites customer, contact, details and type. Status, media and
// comments are left as they are.
func (s *RequirementService) Update(ctx context.Context, id uint, in *UpdateRequirementRequest) (*entity.Requirement, error) {
	customer, details, typeName, err := s.validateFields(ctx, in.Customer, in.Details, in.Type)
	if err != nil {
		return nil, err
	}

	req, err := s.repo.Update(ctx, id, map[string]interface{}{
		"customer":   customer,
		"contact":    strings.TrimSpace(in.Contact),
		"details":    details,
		"type":       typeName,
		"updated_at": s.clock(),
	})
	if err != nil {
		return nil, s.mapError("update requirement", err)
	}

	s.publisher.Publish(ctx, sse.RequirementEvent(id, sse.ActionUpdated))
	return req, nil
}

// Delete permanently removes a requirement and its comments.
func (s *RequirementService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError("delete requirement", err)
	}

	s.publisher.Publish(ctx, sse.RequirementEvent(id, sse.ActionDeleted))
	return nil
}

// AddComment appends a comment and returns the whole requirement including
// its full comment history.
func (s *RequirementService) AddComment(ctx context.Context, id uint, in *AddCommentRequest) (*entity.Requirement, error) {
	comment, ok := buildComment(in.Text, in.Images, in.Videos)
	if !ok {
		return nil, invalid("Comment text or media is required")
	}
	comment.Timestamp = s.clock()

	req, err := s.repo.AppendComment(ctx, id, comment, comment.Timestamp)
	if err != nil {
		return nil, s.mapError("append comment", err)
	}

	s.publisher.Publish(ctx, sse.RequirementEvent(id, sse.ActionCommented))
	return req, nil
}

func (s *RequirementService) validateFields(ctx context.Context, customer, details, typeName string) (string, string, string, error) {
	customer = strings.TrimSpace(customer)
	details = strings.TrimSpace(details)
	typeName = strings.TrimSpace(typeName)
	if customer == "" || details == "" || typeName == "" {
		return "", "", "", invalid("Customer, details, and type are required")
	}

	if s.cfg.StrictTypes {
		if _, err := s.typeRepo.FindByName(ctx, typeName); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", "", "", invalid("Unknown requirement type: " + typeName)
			}
			return "", "", "", storeError(s.logger, "find type", err)
		}
	}
	return customer, details, typeName, nil
}

func (s *RequirementService) mapError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return storeError(s.logger, op, err)
}

func buildComment(text string, images, videos []string) (entity.Comment, bool) {
	c := entity.Comment{
		Text:   strings.TrimSpace(text),
		Images: cleanRefs(images),
		Videos: cleanRefs(videos),
	}
	return c, c.HasContent()
}
