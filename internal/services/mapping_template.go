package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/scorebridge-backend/internal/data/repos"
	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sanitize"
	"github.com/yungbote/scorebridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type MappingTemplateInput struct {
	Name        string              `json:"name"`
	StageID     string              `json:"stage_id"`
	Description string              `json:"description"`
	Mapping     types.ColumnMapping `json:"mapping"`
	IsPublic    bool                `json:"is_public"`
}

type MappingTemplateService interface {
	List(ctx context.Context, stageID string) ([]*types.MappingTemplate, error)
	Create(ctx context.Context, in MappingTemplateInput) (*types.MappingTemplate, error)
	// Use bumps the usage counter and returns the template for pre-filling.
	Use(ctx context.Context, id uuid.UUID) (*types.MappingTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type mappingTemplateService struct {
	log       *logger.Logger
	templates repos.MappingTemplateRepo
}

func NewMappingTemplateService(baseLog *logger.Logger, templates repos.MappingTemplateRepo) MappingTemplateService {
	return &mappingTemplateService{
		log:       baseLog.With("service", "MappingTemplateService"),
		templates: templates,
	}
}

func (s *mappingTemplateService) List(ctx context.Context, stageID string) ([]*types.MappingTemplate, error) {
	out, err := s.templates.ListVisible(dbctx.Background(ctx), ctxutil.AdminUser(ctx), strings.TrimSpace(stageID))
	if err != nil {
		return nil, fmt.Errorf("list mapping templates: %w", err)
	}
	return out, nil
}

func (s *mappingTemplateService) Create(ctx context.Context, in MappingTemplateInput) (*types.MappingTemplate, error) {
	name := sanitize.Text(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if err := in.Mapping.Check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	row := &types.MappingTemplate{
		Name:        name,
		StageID:     sanitize.Text(in.StageID),
		Description: sanitize.Text(in.Description),
		Mapping:     in.Mapping,
		IsPublic:    in.IsPublic,
		CreatedBy:   ctxutil.AdminUser(ctx),
	}
	if err := s.templates.Create(dbctx.Background(ctx), row); err != nil {
		return nil, fmt.Errorf("create mapping template: %w", err)
	}
	s.log.Info("Mapping template created", "template_id", row.ID, "created_by", row.CreatedBy)
	return row, nil
}

func (s *mappingTemplateService) Use(ctx context.Context, id uuid.UUID) (*types.MappingTemplate, error) {
	dbc := dbctx.Background(ctx)
	row, err := s.templates.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("get mapping template: %w", err)
	}
	if row == nil || !visibleTo(row, ctxutil.AdminUser(ctx)) {
		return nil, ErrMappingTemplateNotFound
	}
	if err := s.templates.IncrementUsage(dbc, id, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("increment mapping template usage: %w", err)
	}
	return s.templates.GetByID(dbc, id)
}

func (s *mappingTemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.templates.SoftDeleteOwned(dbctx.Background(ctx), id, ctxutil.AdminUser(ctx))
	if err != nil {
		return fmt.Errorf("delete mapping template: %w", err)
	}
	if !ok {
		return ErrMappingTemplateNotFound
	}
	return nil
}

func visibleTo(row *types.MappingTemplate, user string) bool {
	return row.IsPublic || row.CreatedBy == user
}

