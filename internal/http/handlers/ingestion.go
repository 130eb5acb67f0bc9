package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/http/response"
	"github.com/yungbote/scorebridge-backend/internal/services"
)

type IngestionHandler struct {
	ingestion services.IngestionService
}

func NewIngestionHandler(ingestion services.IngestionService) *IngestionHandler {
	return &IngestionHandler{ingestion: ingestion}
}

// runRequest is the body accepted by validate and process.
type runRequest struct {
	Mapping           types.ColumnMapping `json:"mapping"`
	GradingTemplateID *uuid.UUID          `json:"grading_template_id,omitempty"`
	StageID           string              `json:"stage_id,omitempty"`
	Region            string              `json:"region,omitempty"`
	Tags              map[string]string   `json:"tags,omitempty"`
}

// POST /api/admin/uploads
func (h *IngestionHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondErr(c, err)
			return
		}
		badRequest(c, "missing_file", errors.New("multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondErr(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondErr(c, err)
		return
	}

	analysis, err := h.ingestion.Analyze(c.Request.Context(), data, fh.Filename)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"analysis": analysis})
}

// POST /api/admin/uploads/:fingerprint/validate
func (h *IngestionHandler) Validate(c *gin.Context) {
	fp, req, ok := h.bindRun(c)
	if !ok {
		return
	}
	report, err := h.ingestion.Validate(c.Request.Context(), fp, services.ValidateOptions{
		Mapping:           req.Mapping,
		GradingTemplateID: req.GradingTemplateID,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

// POST /api/admin/uploads/:fingerprint/process
func (h *IngestionHandler) Process(c *gin.Context) {
	fp, req, ok := h.bindRun(c)
	if !ok {
		return
	}
	res, err := h.ingestion.Process(c.Request.Context(), fp, services.ProcessOptions{
		Mapping:           req.Mapping,
		GradingTemplateID: req.GradingTemplateID,
		StageID:           req.StageID,
		Region:            req.Region,
		Extra:             req.Tags,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

func (h *IngestionHandler) bindRun(c *gin.Context) (string, runRequest, bool) {
	var req runRequest
	fp := strings.TrimSpace(c.Param("fingerprint"))
	if fp == "" {
		badRequest(c, "invalid_fingerprint", errors.New("fingerprint is required"))
		return "", req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err)
		return "", req, false
	}
	return fp, req, true
}
