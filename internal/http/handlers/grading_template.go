package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/scorebridge-backend/internal/http/response"
	"github.com/yungbote/scorebridge-backend/internal/services"
)

type GradingTemplateHandler struct {
	templates services.GradingTemplateService
}

func NewGradingTemplateHandler(templates services.GradingTemplateService) *GradingTemplateHandler {
	return &GradingTemplateHandler{templates: templates}
}

// GET /api/admin/grading-templates?stage_id=
func (h *GradingTemplateHandler) List(c *gin.Context) {
	list, err := h.templates.List(c.Request.Context(), c.Query("stage_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": list})
}
