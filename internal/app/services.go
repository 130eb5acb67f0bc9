package app

import (
	"context"
	"fmt"

	"github.com/yungbote/scorebridge-backend/internal/data/repos"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
	"github.com/yungbote/scorebridge-backend/internal/services"
)

type Services struct {
	Ingestion       services.IngestionService
	GradingTemplate services.GradingTemplateService
	MappingTemplate services.MappingTemplateService
	Student         services.StudentService
}

func wireServices(ctx context.Context, log *logger.Logger, cfg Config, r repos.Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	grading := services.NewGradingTemplateService(log, r.GradingTemplate)
	if cfg.SeedGradingTemplates {
		n, err := grading.SeedDefaults(ctx)
		if err != nil {
			return Services{}, fmt.Errorf("seed grading templates: %w", err)
		}
		if n > 0 {
			log.Info("Seeded grading templates", "count", n)
		}
	}

	ingestion := services.NewIngestionService(
		log,
		cfg.Ingestion(),
		r.RawFile,
		r.RawPayload,
		r.RawPayloadChunk,
		r.Student,
		grading,
		clients.AnalysisCache,
		clients.RawArchive,
	)

	return Services{
		Ingestion:       ingestion,
		GradingTemplate: grading,
		MappingTemplate: services.NewMappingTemplateService(log, r.MappingTemplate),
		Student:         services.NewStudentService(log, r.Student),
	}, nil
}
