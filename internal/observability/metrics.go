package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/scorebridge-backend/internal/platform/envutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	uploads        *CounterVec
	uploadBytes    *CounterVec
	validations    *CounterVec
	findings       *CounterVec
	qualityScore   *HistogramVec
	processedRows  *CounterVec
	rowErrors      *CounterVec
	stageDuration  *HistogramVec
	payloadChunks  *CounterVec
	archiveWrites  *CounterVec
	cacheLookups   *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process registry, or nil when metrics are disabled.
// Every recording method is safe on a nil *Metrics.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	secs := envutil.Int("METRICS_SCRAPE_INTERVAL_SECONDS", 15)
	if secs <= 0 {
		secs = 15
	}
	return time.Duration(secs) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	durations := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		apiRequests: NewCounterVec("sb_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("sb_api_request_duration_seconds", "API request latency in seconds by method/route/status.", []string{"method", "route", "status"}, durations),
		apiInflight: NewGauge("sb_api_inflight_requests", "In-flight API requests."),

		uploads:       NewCounterVec("sb_uploads_total", "Analyzed uploads by outcome (new/existing/cached/rejected).", []string{"outcome"}),
		uploadBytes:   NewCounterVec("sb_upload_bytes_total", "Bytes of accepted uploads by format.", []string{"format"}),
		validations:   NewCounterVec("sb_validations_total", "Validation runs by verdict.", []string{"verdict"}),
		findings:      NewCounterVec("sb_validation_findings_total", "Validation findings by severity/type.", []string{"severity", "type"}),
		qualityScore:  NewHistogramVec("sb_validation_quality_score", "Quality score of validated uploads.", nil, []float64{10, 25, 50, 60, 70, 80, 90, 95, 100}),
		processedRows: NewCounterVec("sb_processed_rows_total", "Student records written by process runs.", []string{"stage_id"}),
		rowErrors:     NewCounterVec("sb_row_errors_total", "Rows rejected during process runs.", []string{"reason"}),
		stageDuration: NewHistogramVec("sb_ingestion_stage_duration_seconds", "Ingestion operation latency by stage/status.", []string{"stage", "status"}, durations),
		payloadChunks: NewCounterVec("sb_payload_writes_total", "Stored payloads by mode.", []string{"mode"}),
		archiveWrites: NewCounterVec("sb_archive_writes_total", "Raw upload archive writes by status.", []string{"status"}),
		cacheLookups:  NewCounterVec("sb_analysis_cache_lookups_total", "Analysis cache lookups by result.", []string{"result"}),

		pgStats:   NewGaugeVec("sb_postgres_pool", "Postgres connection pool stats.", []string{"stat"}),
		redisUp:   NewGauge("sb_redis_up", "Redis reachability (1=up)."),
		redisPing: NewGauge("sb_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.uploads, m.uploadBytes, m.validations, m.findings, m.qualityScore,
		m.processedRows, m.rowErrors, m.stageDuration, m.payloadChunks,
		m.archiveWrites, m.cacheLookups,
		m.pgStats, m.redisUp, m.redisPing,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveStage records one analyze/validate/process call.
func (m *Metrics) ObserveStage(stage string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.Observe(dur.Seconds(), stage, status)
}

func (m *Metrics) IncUpload(outcome, format string, size int) {
	if m == nil {
		return
	}
	m.uploads.Inc(outcome)
	if format != "" && size > 0 {
		m.uploadBytes.Add(float64(size), strings.ToLower(strings.TrimPrefix(format, ".")))
	}
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.Inc("hit")
		return
	}
	m.cacheLookups.Inc("miss")
}

func (m *Metrics) IncPayloadWrite(chunked bool) {
	if m == nil {
		return
	}
	if chunked {
		m.payloadChunks.Inc("chunked")
		return
	}
	m.payloadChunks.Inc("single")
}

func (m *Metrics) IncArchiveWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.archiveWrites.Inc("failed")
		return
	}
	m.archiveWrites.Inc("ok")
}

// ObserveValidation takes finding types already split by severity.
func (m *Metrics) ObserveValidation(valid bool, quality float64, errorTypes, warningTypes []string) {
	if m == nil {
		return
	}
	if valid {
		m.validations.Inc("valid")
	} else {
		m.validations.Inc("invalid")
	}
	m.qualityScore.Observe(quality)
	for _, t := range errorTypes {
		m.findings.Inc("error", t)
	}
	for _, t := range warningTypes {
		m.findings.Inc("warning", t)
	}
}

func (m *Metrics) ObserveProcess(stageID string, written int, rowErrorReasons []string) {
	if m == nil {
		return
	}
	if stageID == "" {
		stageID = "none"
	}
	m.processedRows.Add(float64(written), stageID)
	for _, r := range rowErrorReasons {
		m.rowErrors.Inc(r)
	}
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
