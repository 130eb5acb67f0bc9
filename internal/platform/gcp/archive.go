package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

// RawArchive keeps a copy of every accepted upload, keyed by fingerprint.
type RawArchive interface {
	Put(ctx context.Context, fingerprint, filename string, data []byte) (string, error)
	Close() error
}

type rawArchive struct {
	log    *logger.Logger
	client *storage.Client
	cfg    ArchiveConfig
}

func NewRawArchive(ctx context.Context, log *logger.Logger, cfg ArchiveConfig) (RawArchive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing env var RAW_UPLOAD_GCS_BUCKET_NAME")
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "RawArchive")
	serviceLog.Info("Raw upload archive initialized", "mode", cfg.Mode, "bucket", cfg.Bucket, "prefix", cfg.Prefix)
	return &rawArchive{log: serviceLog, client: client, cfg: cfg}, nil
}

func newStorageClient(ctx context.Context, cfg ArchiveConfig) (*storage.Client, error) {
	if cfg.IsEmulatorMode() {
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (a *rawArchive) objectKey(fingerprint, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "upload"
	}
	return path.Join(a.cfg.Prefix, fingerprint, name)
}

func (a *rawArchive) Put(ctx context.Context, fingerprint, filename string, data []byte) (string, error) {
	key := a.objectKey(fingerprint, filename)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := a.client.Bucket(a.cfg.Bucket).Object(key).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentTypeFor(filename)
	w.Metadata = map[string]string{"fingerprint": fingerprint}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		// Same fingerprint already archived.
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return key, nil
		}
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return key, nil
}

func (a *rawArchive) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
