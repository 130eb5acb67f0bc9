package results

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type GradingTemplateRepo interface {
	// CreateIgnoreExisting inserts templates whose name is not taken yet.
	CreateIgnoreExisting(dbc dbctx.Context, rows []*types.GradingTemplate) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.GradingTemplate, error)
	List(dbc dbctx.Context, stageID string) ([]*types.GradingTemplate, error)
	Count(dbc dbctx.Context) (int64, error)
}

type gradingTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGradingTemplateRepo(db *gorm.DB, baseLog *logger.Logger) GradingTemplateRepo {
	return &gradingTemplateRepo{
		db:  db,
		log: baseLog.With("repo", "GradingTemplateRepo"),
	}
}

func (r *gradingTemplateRepo) CreateIgnoreExisting(dbc dbctx.Context, rows []*types.GradingTemplate) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *gradingTemplateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.GradingTemplate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.GradingTemplate
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

func (r *gradingTemplateRepo) List(dbc dbctx.Context, stageID string) ([]*types.GradingTemplate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.GradingTemplate
	q := t.WithContext(dbc.Ctx)
	if stageID != "" {
		q = q.Where("stage_id = ?", stageID)
	}
	if err := q.
		Order("is_default DESC").
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gradingTemplateRepo) Count(dbc dbctx.Context) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).Model(&types.GradingTemplate{}).Count(&n).Error
	return n, err
}
