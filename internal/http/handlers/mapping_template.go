package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/scorebridge-backend/internal/http/response"
	"github.com/yungbote/scorebridge-backend/internal/services"
)

type MappingTemplateHandler struct {
	templates services.MappingTemplateService
}

func NewMappingTemplateHandler(templates services.MappingTemplateService) *MappingTemplateHandler {
	return &MappingTemplateHandler{templates: templates}
}

// GET /api/admin/mapping-templates?stage_id=
func (h *MappingTemplateHandler) List(c *gin.Context) {
	list, err := h.templates.List(c.Request.Context(), c.Query("stage_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": list})
}

// POST /api/admin/mapping-templates
func (h *MappingTemplateHandler) Create(c *gin.Context) {
	var in services.MappingTemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid_request", err)
		return
	}
	tmpl, err := h.templates.Create(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": tmpl})
}

// PUT /api/admin/mapping-templates/:id/use
func (h *MappingTemplateHandler) Use(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	tmpl, err := h.templates.Use(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": tmpl})
}

// DELETE /api/admin/mapping-templates/:id
func (h *MappingTemplateHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid_id", errors.New("id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
