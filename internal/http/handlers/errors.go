package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
	"github.com/yungbote/scorebridge-backend/internal/http/response"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/chunkstore"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/mapping"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/transform"
	"github.com/yungbote/scorebridge-backend/internal/platform/apierr"
	"github.com/yungbote/scorebridge-backend/internal/services"
)

// toAPIError maps domain failures onto HTTP status codes and stable codes.
func toAPIError(err error) *apierr.Error {
	var (
		maxBytes  *http.MaxBytesError
		missing   *mapping.MissingColumnsError
		dups      *transform.DuplicateIdentifiersError
		integrity *chunkstore.IntegrityError
	)
	switch {
	case errors.Is(err, services.ErrFileTooLarge), errors.As(err, &maxBytes):
		return apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", err)
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return apierr.New(http.StatusBadRequest, "unsupported_format", err)
	case errors.Is(err, sheet.ErrUnreadable), errors.Is(err, sheet.ErrEmpty):
		return apierr.New(http.StatusBadRequest, "unreadable_file", err)
	case errors.As(err, &missing):
		return apierr.New(http.StatusBadRequest, "missing_columns", err)
	case errors.Is(err, results.ErrMappingNoStudentID),
		errors.Is(err, results.ErrMappingNoName),
		errors.Is(err, results.ErrMappingNoSubjects),
		errors.Is(err, services.ErrInvalidTemplate):
		return apierr.New(http.StatusBadRequest, "invalid_mapping", err)
	case errors.As(err, &dups):
		return apierr.New(http.StatusConflict, "duplicate_student_ids", err)
	case errors.Is(err, services.ErrFileNotFound):
		return apierr.New(http.StatusNotFound, "file_not_found", err)
	case errors.Is(err, services.ErrGradingTemplateNotFound):
		return apierr.New(http.StatusNotFound, "grading_template_not_found", err)
	case errors.Is(err, services.ErrMappingTemplateNotFound):
		return apierr.New(http.StatusNotFound, "mapping_template_not_found", err)
	case errors.Is(err, services.ErrStudentNotFound):
		return apierr.New(http.StatusNotFound, "student_not_found", err)
	case errors.As(err, &integrity):
		return apierr.New(http.StatusInternalServerError, "storage_integrity", err)
	}
	return apierr.From(err)
}

func respondErr(c *gin.Context, err error) {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		// surfaced to the request log through gin's error list
		_ = c.Error(err)
	}
	response.RespondAPIError(c, ae)
}

func badRequest(c *gin.Context, code string, err error) {
	response.RespondError(c, http.StatusBadRequest, code, err)
}
