package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	redisclient "github.com/yungbote/scorebridge-backend/internal/clients/redis"
	"github.com/yungbote/scorebridge-backend/internal/data/repos"
	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/chunkstore"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/classify"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/fingerprint"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/mapping"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sanitize"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/transform"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/validate"
	"github.com/yungbote/scorebridge-backend/internal/observability"
	"github.com/yungbote/scorebridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
	"github.com/yungbote/scorebridge-backend/internal/platform/gcp"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

const (
	sampleRowCount    = 5
	classifySampleMax = 200
	sampleErrorCount  = 10
)

type IngestionConfig struct {
	MaxUploadBytes  int64
	ChunkSize       int
	Workers         int
	UpsertBatchSize int
}

// Analysis is what an administrator sees after uploading a file.
type Analysis struct {
	Fingerprint      string              `json:"fingerprint"`
	Filename         string              `json:"filename"`
	Columns          []string            `json:"columns"`
	SampleRows       []sheet.Row         `json:"sample_rows"`
	SuggestedMapping types.ColumnMapping `json:"suggested_mapping"`
	SuggestedRoles   map[string]string   `json:"suggested_roles"`
	TotalRows        int                 `json:"total_rows"`
	UploadedAt       time.Time           `json:"uploaded_at"`
	// Existing is set when the fingerprint had already been analyzed.
	Existing bool `json:"existing"`
}

type ValidateOptions struct {
	Mapping           types.ColumnMapping
	GradingTemplateID *uuid.UUID
}

type ProcessOptions struct {
	Mapping           types.ColumnMapping
	GradingTemplateID *uuid.UUID
	StageID           string
	Region            string
	Extra             map[string]string
}

type ProcessResult struct {
	ProcessedCount int                  `json:"processed_count"`
	ErrorCount     int                  `json:"error_count"`
	SampleErrors   []transform.RowError `json:"sample_errors"`
}

type IngestionService interface {
	Analyze(ctx context.Context, data []byte, filename string) (*Analysis, error)
	Validate(ctx context.Context, fingerprint string, opts ValidateOptions) (*validate.Report, error)
	Process(ctx context.Context, fingerprint string, opts ProcessOptions) (*ProcessResult, error)
}

type ingestionService struct {
	log       *logger.Logger
	cfg       IngestionConfig
	rawFiles  repos.RawFileRepo
	students  repos.StudentRepo
	store     *chunkstore.Store
	templates GradingTemplateService
	cache     redisclient.AnalysisCache
	archive   gcp.RawArchive
}

// NewIngestionService wires the pipeline. cache and archive may be nil.
func NewIngestionService(
	baseLog *logger.Logger,
	cfg IngestionConfig,
	rawFiles repos.RawFileRepo,
	payloads repos.RawPayloadRepo,
	chunks repos.RawPayloadChunkRepo,
	students repos.StudentRepo,
	templates GradingTemplateService,
	cache redisclient.AnalysisCache,
	archive gcp.RawArchive,
) IngestionService {
	if cache == nil {
		cache = redisclient.NoopAnalysisCache{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.UpsertBatchSize <= 0 {
		cfg.UpsertBatchSize = 500
	}
	return &ingestionService{
		log:       baseLog.With("service", "IngestionService"),
		cfg:       cfg,
		rawFiles:  rawFiles,
		students:  students,
		store:     NewPayloadStore(payloads, chunks, cfg.ChunkSize),
		templates: templates,
		cache:     cache,
		archive:   archive,
	}
}

// =====================================
// Analyze
// =====================================

func (s *ingestionService) Analyze(ctx context.Context, data []byte, filename string) (out *Analysis, err error) {
	ctx, span := observability.StartSpan(ctx, "ingestion.analyze",
		attribute.Int("upload.size_bytes", len(data)),
	)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		observability.Current().ObserveStage("analyze", err, time.Since(start))
		if err != nil {
			observability.Current().IncUpload("rejected", "", 0)
		}
	}()

	if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(data), s.cfg.MaxUploadBytes)
	}
	filename = sanitize.Text(filepath.Base(filename))
	if !sheet.SupportedExtension(filename) {
		return nil, fmt.Errorf("%w: %q", sheet.ErrUnsupportedFormat, filepath.Ext(filename))
	}

	fp := fingerprint.Of(data)
	span.SetAttributes(attribute.String("upload.fingerprint", fp))
	log := s.log.With("fingerprint", fp)

	if cached := s.cachedAnalysis(ctx, fp); cached != nil {
		if err := s.ensurePayload(ctx, fp, data, filename); err != nil {
			return nil, err
		}
		log.Debug("Analyze served from cache")
		observability.Current().IncUpload("cached", "", 0)
		return cached, nil
	}

	dbc := dbctx.Background(ctx)
	existing, err := s.rawFiles.GetByFingerprint(dbc, fp)
	if err != nil {
		return nil, fmt.Errorf("lookup raw file: %w", err)
	}
	if existing != nil {
		if err := s.ensurePayload(ctx, fp, data, filename); err != nil {
			return nil, err
		}
		out = analysisFromRecord(existing)
		s.cacheAnalysis(ctx, out)
		log.Info("Analyze short-circuited on known fingerprint")
		observability.Current().IncUpload("existing", "", 0)
		return out, nil
	}

	table, err := sheet.Parse(data, filename)
	if err != nil {
		return nil, err
	}

	sample := table.Rows
	if len(sample) > classifySampleMax {
		sample = sample[:classifySampleMax]
	}
	suggestion := classify.Suggest(table.Columns, sample)
	roles := make(map[string]string, len(suggestion.Roles))
	for col, role := range suggestion.Roles {
		roles[col] = string(role)
	}

	if err := s.store.Write(ctx, fp, table.Rows); err != nil {
		return nil, fmt.Errorf("store payload: %w", err)
	}

	now := time.Now().UTC()
	sampleRows := sanitizedSample(table.Rows, sampleRowCount)
	sampleJSON, err := json.Marshal(sampleRows)
	if err != nil {
		return nil, fmt.Errorf("encode sample rows: %w", err)
	}
	rec := &types.RawFile{
		Fingerprint:      fp,
		Filename:         filename,
		SizeBytes:        int64(len(data)),
		RowCount:         len(table.Rows),
		Columns:          datatypes.NewJSONType(table.Columns),
		SampleRows:       datatypes.JSON(sampleJSON),
		SuggestedMapping: datatypes.NewJSONType(suggestion.Mapping),
		SuggestedRoles:   datatypes.NewJSONType(roles),
		UploadedBy:       ctxutil.AdminUser(ctx),
		UploadedAt:       now,
	}
	if s.archive != nil {
		key, aerr := s.archive.Put(ctx, fp, filename, data)
		observability.Current().IncArchiveWrite(aerr)
		if aerr != nil {
			log.Warn("Raw upload archive failed (continuing)", "error", aerr)
		} else {
			rec.ArchiveKey = key
		}
	}

	created, err := s.rawFiles.Create(dbc, rec)
	if err != nil {
		return nil, fmt.Errorf("create raw file: %w", err)
	}
	if !created {
		// concurrent upload of the same bytes won the insert
		if winner, gerr := s.rawFiles.GetByFingerprint(dbc, fp); gerr == nil && winner != nil {
			rec = winner
		}
	}

	out = analysisFromRecord(rec)
	out.Existing = !created
	if created {
		observability.Current().IncUpload("new", filepath.Ext(filename), len(data))
		observability.Current().IncPayloadWrite(s.store.Chunked(len(table.Rows)))
	} else {
		observability.Current().IncUpload("existing", "", 0)
	}
	s.cacheAnalysis(ctx, out)
	log.Info("Analyze complete",
		"rows", rec.RowCount,
		"columns", len(table.Columns),
		"uploaded_by", rec.UploadedBy,
	)
	return out, nil
}

// ensurePayload rewrites the stored payload of a known upload from the
// re-uploaded bytes when it no longer reads back intact.
func (s *ingestionService) ensurePayload(ctx context.Context, fp string, data []byte, filename string) error {
	_, err := s.store.Read(ctx, fp)
	if err == nil {
		return nil
	}
	var integrity *chunkstore.IntegrityError
	if !errors.Is(err, chunkstore.ErrNotFound) && !errors.As(err, &integrity) {
		return fmt.Errorf("read payload: %w", err)
	}
	s.log.Warn("Stored payload unreadable, rewriting from upload", "fingerprint", fp, "error", err)
	table, err := sheet.Parse(data, filename)
	if err != nil {
		return err
	}
	if err := s.store.Write(ctx, fp, table.Rows); err != nil {
		return fmt.Errorf("store payload: %w", err)
	}
	observability.Current().IncPayloadWrite(s.store.Chunked(len(table.Rows)))
	return nil
}

func (s *ingestionService) cachedAnalysis(ctx context.Context, fp string) *Analysis {
	raw, ok, err := s.cache.Get(ctx, fp)
	observability.Current().IncCacheLookup(ok && err == nil)
	if err != nil {
		s.log.Warn("Analysis cache read failed", "fingerprint", fp, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		s.log.Warn("Analysis cache entry unreadable", "fingerprint", fp, "error", err)
		return nil
	}
	a.Existing = true
	return &a
}

func (s *ingestionService) cacheAnalysis(ctx context.Context, a *Analysis) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, a.Fingerprint, raw); err != nil {
		s.log.Warn("Analysis cache write failed", "fingerprint", a.Fingerprint, "error", err)
	}
}

func analysisFromRecord(rec *types.RawFile) *Analysis {
	var sample []sheet.Row
	if len(rec.SampleRows) > 0 {
		_ = json.Unmarshal(rec.SampleRows, &sample)
	}
	if sample == nil {
		sample = []sheet.Row{}
	}
	return &Analysis{
		Fingerprint:      rec.Fingerprint,
		Filename:         rec.Filename,
		Columns:          rec.Columns.Data(),
		SampleRows:       sample,
		SuggestedMapping: rec.SuggestedMapping.Data(),
		SuggestedRoles:   rec.SuggestedRoles.Data(),
		TotalRows:        rec.RowCount,
		UploadedAt:       rec.UploadedAt,
		Existing:         true,
	}
}

func sanitizedSample(rows []sheet.Row, n int) []sheet.Row {
	if len(rows) < n {
		n = len(rows)
	}
	out := make([]sheet.Row, 0, n)
	for _, r := range rows[:n] {
		clean := make(sheet.Row, len(r))
		for k, v := range r {
			if str, ok := v.(string); ok {
				clean[k] = sanitize.Text(str)
				continue
			}
			clean[k] = v
		}
		out = append(out, clean)
	}
	return out
}

// =====================================
// Validate / Process
// =====================================

// loadPayload returns the stored columns and rows of an analyzed upload.
func (s *ingestionService) loadPayload(ctx context.Context, fp string) ([]string, []sheet.Row, error) {
	rec, err := s.rawFiles.GetByFingerprint(dbctx.Background(ctx), fp)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup raw file: %w", err)
	}
	if rec == nil {
		return nil, nil, ErrFileNotFound
	}
	rows, err := s.store.Read(ctx, fp)
	if errors.Is(err, chunkstore.ErrNotFound) {
		return nil, nil, &chunkstore.IntegrityError{Fingerprint: fp, WantRows: rec.RowCount, HeaderLost: true}
	}
	if err != nil {
		return nil, nil, err
	}
	return rec.Columns.Data(), rows, nil
}

func (s *ingestionService) Validate(ctx context.Context, fp string, opts ValidateOptions) (report *validate.Report, err error) {
	ctx, span := observability.StartSpan(ctx, "ingestion.validate",
		attribute.String("upload.fingerprint", fp),
	)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		observability.Current().ObserveStage("validate", err, time.Since(start))
	}()

	columns, rows, err := s.loadPayload(ctx, fp)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templates.Resolve(ctx, opts.GradingTemplateID)
	if err != nil {
		return nil, err
	}
	m := opts.Mapping
	report = validate.Run(columns, rows, &m, tmpl)
	observability.Current().ObserveValidation(report.Valid, report.Statistics.QualityScore,
		findingTypes(report.Errors), findingTypes(report.Warnings))

	s.log.Info("Validate complete",
		"fingerprint", fp,
		"valid", report.Valid,
		"errors", len(report.Errors),
		"warnings", len(report.Warnings),
		"quality_score", report.Statistics.QualityScore,
	)
	return report, nil
}

func (s *ingestionService) Process(ctx context.Context, fp string, opts ProcessOptions) (res *ProcessResult, err error) {
	ctx, span := observability.StartSpan(ctx, "ingestion.process",
		attribute.String("upload.fingerprint", fp),
	)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		observability.Current().ObserveStage("process", err, time.Since(start))
	}()

	columns, rows, err := s.loadPayload(ctx, fp)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templates.Resolve(ctx, opts.GradingTemplateID)
	if err != nil {
		return nil, err
	}
	plan, err := mapping.Resolve(opts.Mapping, columns, tmpl)
	if err != nil {
		return nil, err
	}

	tags := transform.Tags{
		StageID:     sanitize.Text(opts.StageID),
		Region:      sanitize.Text(opts.Region),
		Extra:       sanitizedTags(opts.Extra),
		ProcessedBy: ctxutil.AdminUser(ctx),
		Fingerprint: fp,
		ProcessedAt: time.Now().UTC(),
	}
	summary, err := transform.Batch(ctx, plan, rows, tags, s.cfg.Workers)
	if err != nil {
		return nil, err
	}

	written, err := s.students.UpsertBatch(dbctx.Background(ctx), summary.Records, s.cfg.UpsertBatchSize)
	if err != nil {
		return nil, fmt.Errorf("upsert students: %w", err)
	}

	res = &ProcessResult{
		ProcessedCount: written,
		ErrorCount:     len(summary.Errors),
		SampleErrors:   summary.Errors,
	}
	if len(res.SampleErrors) > sampleErrorCount {
		res.SampleErrors = res.SampleErrors[:sampleErrorCount]
	}
	if res.SampleErrors == nil {
		res.SampleErrors = []transform.RowError{}
	}
	reasons := make([]string, 0, len(summary.Errors))
	for _, re := range summary.Errors {
		reasons = append(reasons, re.Reason)
	}
	observability.Current().ObserveProcess(tags.StageID, written, reasons)
	span.SetAttributes(
		attribute.Int("process.processed", res.ProcessedCount),
		attribute.Int("process.errors", res.ErrorCount),
	)
	s.log.Info("Process complete",
		"fingerprint", fp,
		"processed", res.ProcessedCount,
		"row_errors", res.ErrorCount,
		"processed_by", tags.ProcessedBy,
	)
	return res, nil
}

func findingTypes(fs []validate.Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Type)
	}
	return out
}

func sanitizedTags(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = sanitize.Text(k)
		if k == "" {
			continue
		}
		out[k] = sanitize.Text(v)
	}
	return out
}
