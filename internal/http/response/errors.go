package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/scorebridge-backend/internal/platform/apierr"
)

// RespondAPIError writes ae using its own status and code.
func RespondAPIError(c *gin.Context, ae *apierr.Error) {
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal", nil)
		return
	}
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		// internals stay in the log
		c.JSON(status, ErrorEnvelope{Error: APIError{Message: http.StatusText(status), Code: ae.Code}})
		return
	}
	RespondError(c, status, ae.Code, ae.Err)
}
