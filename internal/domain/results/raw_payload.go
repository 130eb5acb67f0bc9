package results

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PayloadModeSingle  = "single"
	PayloadModeChunked = "chunked"
)

// RawPayload is the header of a stored tabular payload. Small payloads keep
// their rows inline; chunked payloads record how many chunks must exist.
type RawPayload struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Fingerprint string         `gorm:"column:fingerprint;not null;uniqueIndex" json:"fingerprint"`
	Mode        string         `gorm:"column:mode;not null" json:"mode"`
	RowCount    int            `gorm:"column:row_count;not null" json:"row_count"`
	ChunkCount  int            `gorm:"column:chunk_count;not null" json:"chunk_count"`
	Rows        datatypes.JSON `gorm:"column:rows" json:"rows,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (RawPayload) TableName() string { return "raw_payload" }

// RawPayloadChunk holds one bounded, ordered slice of a chunked payload.
type RawPayloadChunk struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Fingerprint string         `gorm:"column:fingerprint;not null;uniqueIndex:idx_raw_payload_chunk_fp_index,priority:1" json:"fingerprint"`
	ChunkIndex  int            `gorm:"column:chunk_index;not null;uniqueIndex:idx_raw_payload_chunk_fp_index,priority:2" json:"chunk_index"`
	RowCount    int            `gorm:"column:row_count;not null" json:"row_count"`
	Rows        datatypes.JSON `gorm:"column:rows" json:"rows"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (RawPayloadChunk) TableName() string { return "raw_payload_chunk" }
