package db

import (
	"fmt"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Uploads
		// =========================
		&types.RawFile{},
		&types.RawPayload{},
		&types.RawPayloadChunk{},

		// =========================
		// Results
		// =========================
		&types.Student{},

		// =========================
		// Templates
		// =========================
		&types.MappingTemplate{},
		&types.GradingTemplate{},
	)
}

// EnsureResultIndexes adds the postgres-only composite indexes.
func EnsureResultIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_student_stage_region
		ON student (stage_id, region);
	`).Error; err != nil {
		return fmt.Errorf("create idx_student_stage_region: %w", err)
	}

	// Template listing: owner or public, most used first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_mapping_template_owner_usage
		ON mapping_template (created_by, usage_count DESC, created_at DESC)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_mapping_template_owner_usage: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_mapping_template_public
		ON mapping_template (usage_count DESC)
		WHERE deleted_at IS NULL AND is_public;
	`).Error; err != nil {
		return fmt.Errorf("create idx_mapping_template_public: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureResultIndexes(s.db); err != nil {
		s.log.Error("Result index migration failed", "error", err)
		return err
	}
	return nil
}
