package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/scorebridge-backend/internal/platform/gcp"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

var (
	loadArchiveConfig = gcp.ArchiveConfigFromEnv
	newRawArchive     = gcp.NewRawArchive
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "raw archive bootstrap failed"
	}
	return fmt.Sprintf(
		"raw archive bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveRawArchive returns (nil, nil) when no archive bucket is configured.
func resolveRawArchive(ctx context.Context, log *logger.Logger) (gcp.RawArchive, error) {
	archiveCfg, err := loadArchiveConfig()
	if err != nil {
		classified := classifyStorageProviderBootstrapError(archiveCfg, err)
		log.Error(
			"Raw archive configuration rejected",
			"mode", archiveCfg.Mode,
			"emulator_host", archiveCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	if !archiveCfg.Enabled() {
		log.Info("Raw archive disabled (RAW_UPLOAD_GCS_BUCKET_NAME not set)")
		return nil, nil
	}

	log.Info(
		"Selecting raw archive provider",
		"mode", archiveCfg.Mode,
		"emulator_host", archiveCfg.EmulatorHost,
		"bucket", archiveCfg.Bucket,
	)
	archive, err := newRawArchive(ctx, log, archiveCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(archiveCfg, err)
		log.Error(
			"Raw archive bootstrap failed",
			"mode", archiveCfg.Mode,
			"emulator_host", archiveCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return archive, nil
}

func classifyStorageProviderBootstrapError(archiveCfg gcp.ArchiveConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	mode := string(archiveCfg.Mode)
	var cfgErr *gcp.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
		if cfgErr.Mode != "" {
			mode = cfgErr.Mode
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         mode,
		EmulatorHost: archiveCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
