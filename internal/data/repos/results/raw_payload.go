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

type RawPayloadRepo interface {
	Upsert(dbc dbctx.Context, row *types.RawPayload) error
	GetByFingerprint(dbc dbctx.Context, fingerprint string) (*types.RawPayload, error)
	DeleteByFingerprint(dbc dbctx.Context, fingerprint string) error
}

type rawPayloadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRawPayloadRepo(db *gorm.DB, baseLog *logger.Logger) RawPayloadRepo {
	return &rawPayloadRepo{
		db:  db,
		log: baseLog.With("repo", "RawPayloadRepo"),
	}
}

func (r *rawPayloadRepo) Upsert(dbc dbctx.Context, row *types.RawPayload) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.Fingerprint == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			DoUpdates: clause.AssignmentColumns([]string{"mode", "row_count", "chunk_count", "rows", "created_at"}),
		}).
		Create(row).Error
}

func (r *rawPayloadRepo) GetByFingerprint(dbc dbctx.Context, fingerprint string) (*types.RawPayload, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out types.RawPayload
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

func (r *rawPayloadRepo) DeleteByFingerprint(dbc dbctx.Context, fingerprint string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("fingerprint = ?", fingerprint).
		Delete(&types.RawPayload{}).Error
}

type RawPayloadChunkRepo interface {
	Upsert(dbc dbctx.Context, row *types.RawPayloadChunk) error
	// ListByFingerprint returns chunks ordered by ascending chunk_index.
	ListByFingerprint(dbc dbctx.Context, fingerprint string) ([]*types.RawPayloadChunk, error)
	DeleteByFingerprint(dbc dbctx.Context, fingerprint string) error
	DeleteOne(dbc dbctx.Context, fingerprint string, chunkIndex int) error
}

type rawPayloadChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRawPayloadChunkRepo(db *gorm.DB, baseLog *logger.Logger) RawPayloadChunkRepo {
	return &rawPayloadChunkRepo{
		db:  db,
		log: baseLog.With("repo", "RawPayloadChunkRepo"),
	}
}

func (r *rawPayloadChunkRepo) Upsert(dbc dbctx.Context, row *types.RawPayloadChunk) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.Fingerprint == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}, {Name: "chunk_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"row_count", "rows", "created_at"}),
		}).
		Create(row).Error
}

func (r *rawPayloadChunkRepo) ListByFingerprint(dbc dbctx.Context, fingerprint string) ([]*types.RawPayloadChunk, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.RawPayloadChunk
	if fingerprint == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("fingerprint = ?", fingerprint).
		Order("chunk_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rawPayloadChunkRepo) DeleteByFingerprint(dbc dbctx.Context, fingerprint string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("fingerprint = ?", fingerprint).
		Delete(&types.RawPayloadChunk{}).Error
}

func (r *rawPayloadChunkRepo) DeleteOne(dbc dbctx.Context, fingerprint string, chunkIndex int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("fingerprint = ? AND chunk_index = ?", fingerprint, chunkIndex).
		Delete(&types.RawPayloadChunk{}).Error
}
