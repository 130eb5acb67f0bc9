package results

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MappingTemplate is a saved, reusable ColumnMapping.
type MappingTemplate struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string        `gorm:"column:name;not null" json:"name"`
	StageID     string        `gorm:"column:stage_id;index" json:"stage_id,omitempty"`
	Description string        `gorm:"column:description" json:"description"`
	Mapping     ColumnMapping `gorm:"column:mapping;type:text" json:"mapping"`
	UsageCount  int           `gorm:"column:usage_count;not null;default:0;index" json:"usage_count"`
	IsPublic    bool          `gorm:"column:is_public;not null;default:false" json:"is_public"`
	CreatedBy   string        `gorm:"column:created_by;not null;index" json:"created_by"`
	LastUsed    *time.Time    `gorm:"column:last_used" json:"last_used,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MappingTemplate) TableName() string { return "mapping_template" }
