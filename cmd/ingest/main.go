// Command ingest runs analyze, validate and process for a local results file
// against the configured database, without going through HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/scorebridge-backend/internal/app"
	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/transform"
	"github.com/yungbote/scorebridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/scorebridge-backend/internal/services"
)

type tagList map[string]string

func (l tagList) String() string {
	parts := make([]string, 0, len(l))
	for k, v := range l {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (l tagList) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("tag must be key=value, got %q", v)
	}
	l[strings.TrimSpace(k)] = strings.TrimSpace(val)
	return nil
}

func main() {
	tags := tagList{}
	var (
		file        string
		mappingPath string
		templateID  string
		stageID     string
		region      string
		admin       string
		dryRun      bool
	)
	flag.StringVar(&file, "file", "", "path to a .csv or .xlsx results file")
	flag.StringVar(&mappingPath, "mapping", "", "JSON column mapping; defaults to the suggested mapping")
	flag.StringVar(&templateID, "grading-template", "", "grading template id")
	flag.StringVar(&stageID, "stage", "", "stage id tag")
	flag.StringVar(&region, "region", "", "region tag")
	flag.StringVar(&admin, "admin", "cli", "administrator recorded as uploader")
	flag.BoolVar(&dryRun, "dry-run", false, "validate only; write nothing")
	flag.Var(tags, "tag", "extra key=value tag (repeatable)")
	flag.Parse()

	if strings.TrimSpace(file) == "" {
		fmt.Println("-file is required")
		os.Exit(2)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("read %s: %v\n", file, err)
		os.Exit(1)
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{AdminUser: admin})
	ingestion := application.Services.Ingestion

	analysis, err := ingestion.Analyze(ctx, data, filepath.Base(file))
	if err != nil {
		fmt.Printf("analyze: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("fingerprint=%s rows=%d columns=%d existing=%v\n",
		analysis.Fingerprint, analysis.TotalRows, len(analysis.Columns), analysis.Existing)

	mapping := analysis.SuggestedMapping
	if mappingPath != "" {
		mapping, err = readMapping(mappingPath)
		if err != nil {
			fmt.Printf("mapping: %v\n", err)
			os.Exit(1)
		}
	}
	var tmplID *uuid.UUID
	if templateID != "" {
		id, err := uuid.Parse(templateID)
		if err != nil {
			fmt.Printf("grading-template: %v\n", err)
			os.Exit(2)
		}
		tmplID = &id
	}

	report, err := ingestion.Validate(ctx, analysis.Fingerprint, services.ValidateOptions{
		Mapping:           mapping,
		GradingTemplateID: tmplID,
	})
	if err != nil {
		fmt.Printf("validate: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("valid=%v quality=%.0f errors=%d warnings=%d\n",
		report.Valid, report.Statistics.QualityScore, len(report.Errors), len(report.Warnings))
	for _, f := range report.Errors {
		fmt.Printf("  error   %s: %s\n", f.Type, f.Message)
	}
	for _, f := range report.Warnings {
		fmt.Printf("  warning %s: %s\n", f.Type, f.Message)
	}
	if dryRun {
		return
	}

	res, err := ingestion.Process(ctx, analysis.Fingerprint, services.ProcessOptions{
		Mapping:           mapping,
		GradingTemplateID: tmplID,
		StageID:           stageID,
		Region:            region,
		Extra:             tags,
	})
	var dups *transform.DuplicateIdentifiersError
	if errors.As(err, &dups) {
		fmt.Printf("process refused: %v\n", dups)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("process: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("processed=%d row_errors=%d\n", res.ProcessedCount, res.ErrorCount)
	for _, re := range res.SampleErrors {
		fmt.Printf("  %s\n", re.String())
	}
}

func readMapping(path string) (types.ColumnMapping, error) {
	var m types.ColumnMapping
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}
