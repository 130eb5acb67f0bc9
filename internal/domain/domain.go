package domain

import "github.com/yungbote/scorebridge-backend/internal/domain/results"

type (
	RawFile         = results.RawFile
	RawPayload      = results.RawPayload
	RawPayloadChunk = results.RawPayloadChunk
	Student         = results.Student
	SubjectScore    = results.SubjectScore
	MappingTemplate = results.MappingTemplate
	GradingTemplate = results.GradingTemplate
	SubjectRule     = results.SubjectRule
	GradeBoundary   = results.GradeBoundary
	ColumnMapping   = results.ColumnMapping
)

const (
	PayloadModeSingle  = results.PayloadModeSingle
	PayloadModeChunked = results.PayloadModeChunked
)
