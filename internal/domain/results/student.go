package results

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubjectScore is one graded subject on a student record.
type SubjectScore struct {
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Passed     *bool   `json:"passed,omitempty"`
}

// Student is the normalized result record. StudentID is the upsert key; a
// re-processed row replaces every other column.
type Student struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID string    `gorm:"column:student_id;not null;uniqueIndex" json:"student_id"`
	Name      string    `gorm:"column:name;not null;index" json:"name"`

	Subjects datatypes.JSONType[[]SubjectScore] `gorm:"column:subjects" json:"subjects"`
	Total    *float64                           `gorm:"column:total" json:"total"`
	Average  *float64                           `gorm:"column:average" json:"average"`
	Grade    string                             `gorm:"column:grade" json:"grade"`

	ClassName      string `gorm:"column:class_name;index" json:"class_name,omitempty"`
	Section        string `gorm:"column:section;index" json:"section,omitempty"`
	School         string `gorm:"column:school" json:"school,omitempty"`
	Administration string `gorm:"column:administration" json:"administration,omitempty"`
	SchoolCode     string `gorm:"column:school_code" json:"school_code,omitempty"`

	StageID string                                `gorm:"column:stage_id;index" json:"stage_id,omitempty"`
	Region  string                                `gorm:"column:region;index" json:"region,omitempty"`
	Extra   datatypes.JSONType[map[string]string] `gorm:"column:extra" json:"extra,omitempty"`

	SourceFingerprint string    `gorm:"column:source_fingerprint;index" json:"source_fingerprint"`
	ProcessedBy       string    `gorm:"column:processed_by" json:"processed_by,omitempty"`
	ProcessedAt       time.Time `gorm:"column:processed_at" json:"processed_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Student) TableName() string { return "student" }
