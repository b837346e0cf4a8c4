package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-req/internal/config"
	"github.com/bitfantasy/nimo-req/internal/requirement/repository"
	"github.com/bitfantasy/nimo-req/internal/requirement/sse"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the referenced requirement does not exist.
	ErrNotFound = errors.New("requirement not found")
	// ErrDuplicate is returned when a type name is already registered.
	ErrDuplicate = errors.New("this requirement type already exists")
)

// ValidationError reports a missing or empty required field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// StoreError wraps an unexpected persistence failure. Its detail is logged and
// must not be shown to API callers.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// EventPublisher is notified after every successful mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event sse.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, sse.Event) {}

// Services 服务集合
type Services struct {
	Type        *TypeService
	Requirement *RequirementService
	Export      *ExportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, publisher EventPublisher, cfg config.RequirementConfig, logger *zap.Logger) *Services {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Services{
		Type:        NewTypeService(repos.Type, publisher, logger),
		Requirement: NewRequirementService(repos.Requirement, repos.Type, publisher, cfg, logger),
		Export:      NewExportService(repos.Requirement, logger),
	}
}

// now returns the current time in the precision Postgres keeps, so a value
// written to a timestamp column and to a JSON document compares equal.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func storeError(logger *zap.Logger, op string, err error) error {
	logger.Error("store failure", zap.String("op", op), zap.Error(err))
	return &StoreError{Op: op, Err: err}
}

// cleanRefs trims media references and drops blank ones.
func cleanRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, ref)
		}
	}
	return out
}
