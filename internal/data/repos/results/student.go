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

// studentUpsertColumns are replaced wholesale when a student_id is re-processed.
var studentUpsertColumns = []string{
	"name",
	"subjects",
	"total",
	"average",
	"grade",
	"class_name",
	"section",
	"school",
	"administration",
	"school_code",
	"stage_id",
	"region",
	"extra",
	"source_fingerprint",
	"processed_by",
	"processed_at",
	"updated_at",
}

type StudentRepo interface {
	// UpsertBatch writes rows keyed by student_id, batchSize rows per statement.
	UpsertBatch(dbc dbctx.Context, rows []*types.Student, batchSize int) (int, error)
	GetByStudentID(dbc dbctx.Context, studentID string) (*types.Student, error)
	GetByStudentIDs(dbc dbctx.Context, studentIDs []string) ([]*types.Student, error)
	CountBySourceFingerprint(dbc dbctx.Context, fingerprint string) (int64, error)
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return &studentRepo{
		db:  db,
		log: baseLog.With("repo", "StudentRepo"),
	}
}

func (r *studentRepo) UpsertBatch(dbc dbctx.Context, rows []*types.Student, batchSize int) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			return 0, errors.New("student upsert: nil row")
		}
		if row.StudentID == "" {
			return 0, errors.New("student upsert: student_id required")
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns(studentUpsertColumns),
		}).
		CreateInBatches(rows, batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return len(rows), nil
}

func (r *studentRepo) GetByStudentID(dbc dbctx.Context, studentID string) (*types.Student, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if studentID == "" {
		return nil, nil
	}
	var out types.Student
	err := t.WithContext(dbc.Ctx).
		Where("student_id = ?", studentID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *studentRepo) GetByStudentIDs(dbc dbctx.Context, studentIDs []string) ([]*types.Student, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Student
	if len(studentIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("student_id IN ?", studentIDs).
		Order("student_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepo) CountBySourceFingerprint(dbc dbctx.Context, fingerprint string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.Student{}).
		Where("source_fingerprint = ?", fingerprint).
		Count(&n).Error
	return n, err
}
