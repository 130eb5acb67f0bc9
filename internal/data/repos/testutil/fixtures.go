package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
)

func SeedRawFile(tb testing.TB, ctx context.Context, tx *gorm.DB, fingerprint string) *types.RawFile {
	tb.Helper()
	now := time.Now().UTC()
	f := &types.RawFile{
		ID:          uuid.New(),
		Fingerprint: fingerprint,
		Filename:    "results.csv",
		RowCount:    2,
		Columns:     datatypes.NewJSONType([]string{"id", "name", "math"}),
		SampleRows:  datatypes.JSON([]byte("[]")),
		UploadedBy:  "admin",
		UploadedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed raw file: %v", err)
	}
	return f
}

func SeedStudent(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, name string) *types.Student {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.Student{
		ID:          uuid.New(),
		StudentID:   studentID,
		Name:        name,
		Subjects:    datatypes.NewJSONType([]types.SubjectScore{{Name: "math", Score: 50, MaxScore: 100, Percentage: 50}}),
		Total:       PtrFloat(50),
		Average:     PtrFloat(50),
		Grade:       "مقبول",
		ProcessedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return s
}

func SeedMappingTemplate(tb testing.TB, ctx context.Context, tx *gorm.DB, name, createdBy string, public bool, usage int) *types.MappingTemplate {
	tb.Helper()
	now := time.Now().UTC()
	m := &types.MappingTemplate{
		ID:   uuid.New(),
		Name: name,
		Mapping: types.ColumnMapping{
			StudentIDColumn: "id",
			NameColumn:      "name",
			SubjectColumns:  []string{"math"},
		},
		UsageCount: usage,
		IsPublic:   public,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed mapping template: %v", err)
	}
	return m
}

func PtrFloat(v float64) *float64 { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
