package app

import (
	"github.com/yungbote/scorebridge-backend/internal/platform/envutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
	"github.com/yungbote/scorebridge-backend/internal/services"
	"github.com/yungbote/scorebridge-backend/internal/utils"
)

type Config struct {
	Port        string
	ServiceName string
	Environment string
	Version     string

	MaxUploadMB     int
	ChunkSize       int
	Workers         int
	UpsertBatchSize int

	SeedGradingTemplates bool
	MetricsAddr          string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:                 utils.GetEnv("PORT", "8080", log),
		ServiceName:          utils.GetEnv("OTEL_SERVICE_NAME", "scorebridge", log),
		Environment:          utils.GetEnv("APP_ENV", "development", log),
		Version:              utils.GetEnv("APP_VERSION", "dev", log),
		MaxUploadMB:          utils.GetEnvAsInt("MAX_UPLOAD_MB", 50, log),
		ChunkSize:            utils.GetEnvAsInt("PAYLOAD_CHUNK_SIZE", 1000, log),
		Workers:              utils.GetEnvAsInt("PROCESS_WORKERS", 4, log),
		UpsertBatchSize:      utils.GetEnvAsInt("UPSERT_BATCH_SIZE", 500, log),
		SeedGradingTemplates: envutil.Bool("GRADING_TEMPLATES_SEED", true),
		MetricsAddr:          utils.GetEnv("METRICS_ADDR", ":9090", log),
	}
}

func (c Config) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 0
	}
	return int64(c.MaxUploadMB) << 20
}

func (c Config) Ingestion() services.IngestionConfig {
	return services.IngestionConfig{
		MaxUploadBytes:  c.MaxUploadBytes(),
		ChunkSize:       c.ChunkSize,
		Workers:         c.Workers,
		UpsertBatchSize: c.UpsertBatchSize,
	}
}
