package results

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubjectRule struct {
	Name         string   `json:"name" yaml:"name"`
	MaxScore     float64  `json:"max_score" yaml:"max_score"`
	PassingScore *float64 `json:"passing_score,omitempty" yaml:"passing_score,omitempty"`
	DisplayOrder int      `json:"display_order" yaml:"display_order"`
}

type GradeBoundary struct {
	Label         string  `json:"label" yaml:"label"`
	MinPercentage float64 `json:"min_percentage" yaml:"min_percentage"`
}

// GradingTemplate is the stored form of a stage's scoring rules.
type GradingTemplate struct {
	ID            uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	StageID       string                              `gorm:"column:stage_id;not null;index" json:"stage_id"`
	Name          string                              `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Term          string                              `gorm:"column:term" json:"term"`
	Subjects      datatypes.JSONType[[]SubjectRule]   `gorm:"column:subjects" json:"subjects"`
	TotalMaxScore *float64                            `gorm:"column:total_max_score" json:"total_max_score,omitempty"`
	Boundaries    datatypes.JSONType[[]GradeBoundary] `gorm:"column:grade_boundaries" json:"grade_boundaries"`
	IsDefault     bool                                `gorm:"column:is_default;not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (GradingTemplate) TableName() string { return "grading_template" }
