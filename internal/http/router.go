package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/scorebridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/scorebridge-backend/internal/http/middleware"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	// MaxUploadBytes bounds the multipart body of the upload route.
	MaxUploadBytes int64

	IngestionHandler       *httpH.IngestionHandler
	MappingTemplateHandler *httpH.MappingTemplateHandler
	GradingTemplateHandler *httpH.GradingTemplateHandler
	StudentHandler         *httpH.StudentHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.APIMetrics())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Result lookup (public)
		if cfg.StudentHandler != nil {
			api.GET("/students/:student_id", cfg.StudentHandler.Get)
		}
	}

	admin := api.Group("/admin")
	admin.Use(httpMW.RequireAdminUser())
	{
		// Uploads
		if cfg.IngestionHandler != nil {
			upload := httpMW.MaxBodyBytes(multipartLimit(cfg.MaxUploadBytes))
			admin.POST("/uploads", upload, cfg.IngestionHandler.Upload)
			admin.POST("/uploads/:fingerprint/validate", cfg.IngestionHandler.Validate)
			admin.POST("/uploads/:fingerprint/process", cfg.IngestionHandler.Process)
		}

		// Mapping templates
		if cfg.MappingTemplateHandler != nil {
			admin.GET("/mapping-templates", cfg.MappingTemplateHandler.List)
			admin.POST("/mapping-templates", cfg.MappingTemplateHandler.Create)
			admin.PUT("/mapping-templates/:id/use", cfg.MappingTemplateHandler.Use)
			admin.DELETE("/mapping-templates/:id", cfg.MappingTemplateHandler.Delete)
		}

		// Grading templates
		if cfg.GradingTemplateHandler != nil {
			admin.GET("/grading-templates", cfg.GradingTemplateHandler.List)
		}
	}

	return r
}

// multipartLimit leaves headroom for multipart framing; the service enforces
// the exact file size.
func multipartLimit(maxUpload int64) int64 {
	if maxUpload <= 0 {
		return 0
	}
	return maxUpload + 1<<20
}
