package handler

import (
	"github.com/bitfantasy/nimo-req/internal/requirement/service"
	"github.com/gin-gonic/gin"
)

// RequirementHandler 需求处理器
type RequirementHandler struct {
	svc    *service.RequirementService
	export *service.ExportService
}

// NewRequirementHandler 创建需求处理器
func NewRequirementHandler(svc *service.RequirementService, export *service.ExportService) *RequirementHandler {
	return &RequirementHandler{svc: svc, export: export}
}

// List GET /api/requirements
func (h *RequirementHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to fetch requirements")
		return
	}
	Success(c, items)
}

// Get GET /api/requirements/:id
func (h *RequirementHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to fetch requirement")
		return
	}
	Success(c, req)
}

// Create POST /api/requirements
func (h *RequirementHandler) Create(c *gin.Context) {
	var in service.CreateRequirementRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	req, err := h.svc.Create(c.Request.Context(), &in)
	if err != nil {
		fail(c, err, "Failed to add requirement")
		return
	}
	Created(c, req)
}

// UpdateStatus PATCH /api/requirements/:id/status
func (h *RequirementHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	req, err := h.svc.UpdateStatus(c.Request.Context(), id, &in)
	if err != nil {
		fail(c, err, "Failed to update status")
		return
	}
	Success(c, req)
}

// Update PUT /api/requirements/:id
func (h *RequirementHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in service.UpdateRequirementRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	req, err := h.svc.Update(c.Request.Context(), id, &in)
	if err != nil {
		fail(c, err, "Failed to update requirement")
		return
	}
	Success(c, req)
}

// Delete DELETE /api/requirements/:id
func (h *RequirementHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, "Failed to delete requirement")
		return
	}
	Success(c, gin.H{"message": "Requirement deleted successfully"})
}

// AddComment POST /api/requirements/:id/comments
func (h *RequirementHandler) AddComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in service.AddCommentRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	req, err := h.svc.AddComment(c.Request.Context(), id, &in)
	if err != nil {
		fail(c, err, "Failed to add comment")
		return
	}
	Success(c, req)
}

// Export GET /api/requirements/export
func (h *RequirementHandler) Export(c *gin.Context) {
	f, filename, err := h.export.Export(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to export requirements")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}
