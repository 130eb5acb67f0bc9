package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
)

type ConfigError struct {
	Code         ConfigErrorCode
	Mode         string
	EmulatorHost string
	Message      string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "object storage config error"
	}
	return e.Message
}

type ArchiveConfig struct {
	Mode         ObjectStorageMode
	EmulatorHost string
	Bucket       string
	Prefix       string
}

func (cfg ArchiveConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

// Enabled reports whether raw uploads should be archived at all.
func (cfg ArchiveConfig) Enabled() bool {
	return strings.TrimSpace(cfg.Bucket) != ""
}

// ArchiveConfigFromEnv resolves OBJECT_STORAGE_MODE, STORAGE_EMULATOR_HOST and
// RAW_UPLOAD_GCS_BUCKET_NAME. An empty mode falls back to the emulator when a
// host is set.
func ArchiveConfigFromEnv() (ArchiveConfig, error) {
	cfg := ArchiveConfig{
		EmulatorHost: strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")),
		Bucket:       strings.TrimSpace(os.Getenv("RAW_UPLOAD_GCS_BUCKET_NAME")),
		Prefix:       strings.Trim(strings.TrimSpace(os.Getenv("RAW_UPLOAD_GCS_PREFIX")), "/"),
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "raw"
	}

	raw := strings.TrimSpace(os.Getenv("OBJECT_STORAGE_MODE"))
	switch ObjectStorageMode(strings.ToLower(raw)) {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
		} else {
			cfg.Mode = ObjectStorageModeGCS
		}
	case ObjectStorageModeGCS:
		cfg.Mode = ObjectStorageModeGCS
	case ObjectStorageModeGCSEmulator:
		cfg.Mode = ObjectStorageModeGCSEmulator
	default:
		return cfg, &ConfigError{
			Code:         ConfigErrorInvalidMode,
			Mode:         raw,
			EmulatorHost: cfg.EmulatorHost,
			Message:      fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", raw, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator),
		}
	}
	return cfg, cfg.Validate()
}

func (cfg ArchiveConfig) Validate() error {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return nil
	case ObjectStorageModeGCSEmulator:
	default:
		return &ConfigError{
			Code:         ConfigErrorInvalidMode,
			Mode:         string(cfg.Mode),
			EmulatorHost: cfg.EmulatorHost,
			Message:      fmt.Sprintf("invalid object storage mode %q", cfg.Mode),
		}
	}
	if cfg.EmulatorHost == "" {
		return &ConfigError{
			Code:    ConfigErrorMissingEmulatorHost,
			Mode:    string(cfg.Mode),
			Message: fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ObjectStorageModeGCSEmulator),
		}
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return &ConfigError{
			Code:         ConfigErrorInvalidEmulatorHost,
			Mode:         string(cfg.Mode),
			EmulatorHost: cfg.EmulatorHost,
			Message:      fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", cfg.EmulatorHost),
		}
	}
	return nil
}
