package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/scorebridge-backend/internal/data/repos"
	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/grading"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type GradingTemplateService interface {
	// SeedDefaults installs the bundled templates when none exist yet.
	SeedDefaults(ctx context.Context) (int, error)
	List(ctx context.Context, stageID string) ([]*types.GradingTemplate, error)
	// Resolve returns the template for id, or nil when id is nil.
	Resolve(ctx context.Context, id *uuid.UUID) (*grading.Template, error)
}

type gradingTemplateService struct {
	log       *logger.Logger
	templates repos.GradingTemplateRepo
}

func NewGradingTemplateService(baseLog *logger.Logger, templates repos.GradingTemplateRepo) GradingTemplateService {
	return &gradingTemplateService{
		log:       baseLog.With("service", "GradingTemplateService"),
		templates: templates,
	}
}

func (s *gradingTemplateService) SeedDefaults(ctx context.Context) (int, error) {
	dbc := dbctx.Background(ctx)
	n, err := s.templates.Count(dbc)
	if err != nil {
		return 0, fmt.Errorf("count grading templates: %w", err)
	}
	if n > 0 {
		s.log.Debug("Grading templates present, skipping seed", "count", n)
		return 0, nil
	}
	seeds, err := grading.SeedTemplates()
	if err != nil {
		return 0, fmt.Errorf("load grading template seeds: %w", err)
	}
	rows := make([]*types.GradingTemplate, 0, len(seeds))
	for i := range seeds {
		rows = append(rows, &seeds[i])
	}
	if err := s.templates.CreateIgnoreExisting(dbc, rows); err != nil {
		return 0, fmt.Errorf("seed grading templates: %w", err)
	}
	s.log.Info("Seeded grading templates", "count", len(rows))
	return len(rows), nil
}

func (s *gradingTemplateService) List(ctx context.Context, stageID string) ([]*types.GradingTemplate, error) {
	out, err := s.templates.List(dbctx.Background(ctx), stageID)
	if err != nil {
		return nil, fmt.Errorf("list grading templates: %w", err)
	}
	return out, nil
}

func (s *gradingTemplateService) Resolve(ctx context.Context, id *uuid.UUID) (*grading.Template, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	row, err := s.templates.GetByID(dbctx.Background(ctx), *id)
	if err != nil {
		return nil, fmt.Errorf("get grading template: %w", err)
	}
	if row == nil {
		return nil, ErrGradingTemplateNotFound
	}
	return grading.FromModel(row), nil
}
