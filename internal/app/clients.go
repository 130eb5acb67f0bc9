package app

import (
	"context"
	"fmt"

	redisclient "github.com/yungbote/scorebridge-backend/internal/clients/redis"
	"github.com/yungbote/scorebridge-backend/internal/platform/gcp"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type Clients struct {
	AnalysisCache redisclient.AnalysisCache
	// RawArchive is nil when archiving is disabled.
	RawArchive gcp.RawArchive
}

func wireClients(ctx context.Context, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	cache, err := redisclient.NewAnalysisCache(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init analysis cache: %w", err)
	}

	// Gcs
	archive, err := resolveRawArchive(ctx, log)
	if err != nil {
		_ = cache.Close()
		return Clients{}, fmt.Errorf("init raw archive: %w", err)
	}

	return Clients{
		AnalysisCache: cache,
		RawArchive:    archive,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.AnalysisCache != nil {
		_ = c.AnalysisCache.Close()
	}
	if c.RawArchive != nil {
		_ = c.RawArchive.Close()
	}
}
