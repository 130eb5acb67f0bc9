package app

import (
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"

	httpapi "github.com/yungbote/scorebridge-backend/internal/http"
	httpH "github.com/yungbote/scorebridge-backend/internal/http/handlers"
)

func wireServer(log *logger.Logger, cfg Config, svcs Services) *httpapi.Server {
	log.Info("Wiring HTTP server...")
	return httpapi.NewServer(httpapi.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		MaxUploadBytes: cfg.MaxUploadBytes(),

		IngestionHandler:       httpH.NewIngestionHandler(svcs.Ingestion),
		MappingTemplateHandler: httpH.NewMappingTemplateHandler(svcs.MappingTemplate),
		GradingTemplateHandler: httpH.NewGradingTemplateHandler(svcs.GradingTemplate),
		StudentHandler:         httpH.NewStudentHandler(svcs.Student),
		HealthHandler:          httpH.NewHealthHandler(),
	})
}
