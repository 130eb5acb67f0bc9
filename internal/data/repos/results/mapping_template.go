package results

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type MappingTemplateRepo interface {
	Create(dbc dbctx.Context, row *types.MappingTemplate) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MappingTemplate, error)
	// ListVisible returns templates owned by createdBy plus public ones, most
	// used first. An empty stageID matches every stage.
	ListVisible(dbc dbctx.Context, createdBy string, stageID string) ([]*types.MappingTemplate, error)
	IncrementUsage(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	SoftDeleteOwned(dbc dbctx.Context, id uuid.UUID, createdBy string) (bool, error)
}

type mappingTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMappingTemplateRepo(db *gorm.DB, baseLog *logger.Logger) MappingTemplateRepo {
	return &mappingTemplateRepo{
		db:  db,
		log: baseLog.With("repo", "MappingTemplateRepo"),
	}
}

func (r *mappingTemplateRepo) Create(dbc dbctx.Context, row *types.MappingTemplate) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || strings.TrimSpace(row.Name) == "" {
		return errors.New("mapping template: name required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *mappingTemplateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MappingTemplate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.MappingTemplate
	err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *mappingTemplateRepo) ListVisible(dbc dbctx.Context, createdBy string, stageID string) ([]*types.MappingTemplate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.MappingTemplate
	q := t.WithContext(dbc.Ctx).
		Where("(created_by = ? OR is_public = ?)", createdBy, true)
	if stageID != "" {
		q = q.Where("stage_id = ?", stageID)
	}
	if err := q.
		Order("usage_count DESC").
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mappingTemplateRepo) IncrementUsage(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.MappingTemplate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + ?", 1),
			"last_used":   at,
			"updated_at":  at,
		}).Error
}

func (r *mappingTemplateRepo) SoftDeleteOwned(dbc dbctx.Context, id uuid.UUID, createdBy string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("id = ? AND created_by = ?", id, createdBy).
		Delete(&types.MappingTemplate{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
