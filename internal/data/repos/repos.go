package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/scorebridge-backend/internal/data/repos/results"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type RawFileRepo = results.RawFileRepo
type RawPayloadRepo = results.RawPayloadRepo
type RawPayloadChunkRepo = results.RawPayloadChunkRepo
type StudentRepo = results.StudentRepo
type MappingTemplateRepo = results.MappingTemplateRepo
type GradingTemplateRepo = results.GradingTemplateRepo

// Repos is every repository the services need, built over one gorm handle.
type Repos struct {
	RawFile         RawFileRepo
	RawPayload      RawPayloadRepo
	RawPayloadChunk RawPayloadChunkRepo
	Student         StudentRepo
	MappingTemplate MappingTemplateRepo
	GradingTemplate GradingTemplateRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		RawFile:         results.NewRawFileRepo(db, log),
		RawPayload:      results.NewRawPayloadRepo(db, log),
		RawPayloadChunk: results.NewRawPayloadChunkRepo(db, log),
		Student:         results.NewStudentRepo(db, log),
		MappingTemplate: results.NewMappingTemplateRepo(db, log),
		GradingTemplate: results.NewGradingTemplateRepo(db, log),
	}
}
