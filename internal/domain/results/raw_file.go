package results

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RawFile is the immutable record of one uploaded spreadsheet, keyed by the
// SHA-256 fingerprint of its bytes.
type RawFile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Fingerprint string    `gorm:"column:fingerprint;not null;uniqueIndex" json:"fingerprint"`
	Filename    string    `gorm:"column:filename;not null" json:"filename"`
	SizeBytes   int64     `gorm:"column:size_bytes" json:"size_bytes"`
	RowCount    int       `gorm:"column:row_count" json:"row_count"`

	Columns          datatypes.JSONType[[]string]          `gorm:"column:columns" json:"columns"`
	SampleRows       datatypes.JSON                        `gorm:"column:sample_rows" json:"sample_rows"`
	SuggestedMapping datatypes.JSONType[ColumnMapping]     `gorm:"column:suggested_mapping" json:"suggested_mapping"`
	SuggestedRoles   datatypes.JSONType[map[string]string] `gorm:"column:suggested_roles" json:"suggested_roles"`

	UploadedBy string    `gorm:"column:uploaded_by;index" json:"uploaded_by"`
	UploadedAt time.Time `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
	ArchiveKey string    `gorm:"column:archive_key" json:"archive_key,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (RawFile) TableName() string { return "raw_file" }
