package results

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type RawFileRepo interface {
	// Create inserts the file unless its fingerprint is already known.
	// created is false when an existing row won.
	Create(dbc dbctx.Context, row *types.RawFile) (created bool, err error)
	GetByFingerprint(dbc dbctx.Context, fingerprint string) (*types.RawFile, error)
	UpdateFields(dbc dbctx.Context, fingerprint string, updates map[string]interface{}) error
}

type rawFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRawFileRepo(db *gorm.DB, baseLog *logger.Logger) RawFileRepo {
	return &rawFileRepo{
		db:  db,
		log: baseLog.With("repo", "RawFileRepo"),
	}
}

func (r *rawFileRepo) Create(dbc dbctx.Context, row *types.RawFile) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || strings.TrimSpace(row.Fingerprint) == "" {
		return false, errors.New("raw file: fingerprint required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.UploadedAt.IsZero() {
		row.UploadedAt = now
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *rawFileRepo) GetByFingerprint(dbc dbctx.Context, fingerprint string) (*types.RawFile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if fingerprint == "" {
		return nil, nil
	}
	var out types.RawFile
	err := t.WithContext(dbc.Ctx).
		Where("fingerprint = ?", fingerprint).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *rawFileRepo) UpdateFields(dbc dbctx.Context, fingerprint string, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if fingerprint == "" {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.RawFile{}).
		Where("fingerprint = ?", fingerprint).
		Updates(updates).Error
}
