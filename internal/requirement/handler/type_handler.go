package handler

import (
	"github.com/bitfantasy/nimo-req/internal/requirement/service"
	"github.com/gin-gonic/gin"
)

// TypeHandler 需求类型处理器
type TypeHandler struct {
	svc *service.TypeService
}

// NewTypeHandler 创建需求类型处理器
func NewTypeHandler(svc *service.TypeService) *TypeHandler {
	return &TypeHandler{svc: svc}
}

// List GET /api/types
func (h *TypeHandler) List(c *gin.Context) {
	types, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to fetch types")
		return
	}
	Success(c, types)
}

// Create POST /api/types
func (h *TypeHandler) Create(c *gin.Context) {
	var req service.CreateTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	t, err := h.svc.Add(c.Request.Context(), &req)
	if err != nil {
		fail(c, err, "Failed to add type")
		return
	}
	Created(c, t)
}
