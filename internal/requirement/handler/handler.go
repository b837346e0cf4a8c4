package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bitfantasy/nimo-req/internal/requirement/service"
	"github.com/bitfantasy/nimo-req/internal/requirement/sse"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Type        *TypeHandler
	Requirement *RequirementHandler
	SSE         *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		Type:        NewTypeHandler(svc.Type),
		Requirement: NewRequirementHandler(svc.Requirement, svc.Export),
		SSE:         NewSSEHandler(hub),
	}
}

// Register mounts the API routes on api (normally the /api group).
func (h *Handlers) Register(api *gin.RouterGroup) {
	api.GET("/health", Health)
	api.GET("/events", h.SSE.Stream)

	types := api.Group("/types")
	{
		types.GET("", h.Type.List)
		types.POST("", h.Type.Create)
	}

	requirements := api.Group("/requirements")
	{
		requirements.GET("", h.Requirement.List)
		requirements.POST("", h.Requirement.Create)
		requirements.GET("/export", h.Requirement.Export)
		requirements.GET("/:id", h.Requirement.Get)
		requirements.PUT("/:id", h.Requirement.Update)
		requirements.PATCH("/:id/status", h.Requirement.UpdateStatus)
		requirements.DELETE("/:id", h.Requirement.Delete)
		requirements.POST("/:id/comments", h.Requirement.AddComment)
	}
}

// Health is the liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 资源冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// fail translates a service error into a response. Unexpected errors are
// recorded on the context for the logger and answered with fallback only.
func fail(c *gin.Context, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Message)
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "Requirement not found")
	case errors.Is(err, service.ErrDuplicate):
		Conflict(c, "This requirement type already exists")
	default:
		c.Error(err)
		InternalError(c, fallback)
	}
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "Invalid requirement ID")
		return 0, false
	}
	return uint(id), true
}
