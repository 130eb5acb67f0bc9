package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/scorebridge-backend/internal/platform/ctxutil"
)

// headerAdminUser is set by the authenticating proxy in front of the service.
const headerAdminUser = "X-Admin-User"

func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(headerAdminUser))
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{AdminUser: user})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdminUser rejects requests the proxy did not attribute to an administrator.
func RequireAdminUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ctxutil.AdminUser(c.Request.Context()) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing administrator identity", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

// MaxBodyBytes caps the request body; reads past the limit fail with
// *http.MaxBytesError.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
