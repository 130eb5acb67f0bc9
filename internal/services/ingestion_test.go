package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/scorebridge-backend/internal/data/repos"
	"github.com/yungbote/scorebridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/chunkstore"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/mapping"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/transform"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/validate"
	"github.com/yungbote/scorebridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
)

type ingestionHarness struct {
	svc       IngestionService
	repos     repos.Repos
	templates GradingTemplateService
}

func newIngestionHarness(t *testing.T, cfg IngestionConfig) *ingestionHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	r := repos.New(db, log)
	gts := NewGradingTemplateService(log, r.GradingTemplate)
	svc := NewIngestionService(log, cfg, r.RawFile, r.RawPayload, r.RawPayloadChunk, r.Student, gts, nil, nil)
	return &ingestionHarness{svc: svc, repos: r, templates: gts}
}

func adminCtx() context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{AdminUser: "admin-1"})
}

const (
	colID      = "رقم الجلوس"
	colName    = "الاسم"
	colMath    = "الرياضيات"
	colScience = "العلوم"
	colArabic  = "اللغة العربية"
)

func resultsCSV(rows ...string) []byte {
	header := strings.Join([]string{colID, colName, colMath, colScience, colArabic}, ",")
	return []byte(header + "\n" + strings.Join(rows, "\n") + "\n")
}

func defaultMapping() types.ColumnMapping {
	return types.ColumnMapping{
		StudentIDColumn: colID,
		NameColumn:      colName,
		SubjectColumns:  []string{colMath, colScience, colArabic},
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{})
	ctx := adminCtx()
	data := resultsCSV(
		"2024001,أحمد علي,85,92,78",
		"2024002,منى حسن,70,65,88",
		"2024003,سارة محمود,95,90,99",
	)

	first, err := h.svc.Analyze(ctx, data, "results.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if first.Existing {
		t.Fatalf("Analyze: first upload must not be marked existing")
	}
	if first.TotalRows != 3 {
		t.Fatalf("TotalRows: want=3 got=%d", first.TotalRows)
	}
	if len(first.SampleRows) != 3 {
		t.Fatalf("SampleRows: want=3 got=%d", len(first.SampleRows))
	}
	if first.SuggestedMapping.StudentIDColumn != colID {
		t.Fatalf("suggested id column: want=%q got=%q", colID, first.SuggestedMapping.StudentIDColumn)
	}
	if first.SuggestedRoles[colMath] != "subject" {
		t.Fatalf("suggested role %s: want=subject got=%q", colMath, first.SuggestedRoles[colMath])
	}

	second, err := h.svc.Analyze(ctx, data, "renamed.csv")
	if err != nil {
		t.Fatalf("Analyze (again): %v", err)
	}
	if !second.Existing {
		t.Fatalf("Analyze (again): want existing")
	}
	if second.Fingerprint != first.Fingerprint || second.Filename != "results.csv" {
		t.Fatalf("Analyze (again): got fingerprint=%s filename=%s", second.Fingerprint, second.Filename)
	}

	rec, err := h.repos.RawFile.GetByFingerprint(dbctx.Background(ctx), first.Fingerprint)
	if err != nil || rec == nil {
		t.Fatalf("GetByFingerprint: rec=%v err=%v", rec, err)
	}
	if rec.UploadedBy != "admin-1" {
		t.Fatalf("UploadedBy: want=admin-1 got=%q", rec.UploadedBy)
	}
}

func TestAnalyzeRejectsOversizedAndUnsupported(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{MaxUploadBytes: 16})
	ctx := adminCtx()

	if _, err := h.svc.Analyze(ctx, resultsCSV("1,a,1,2,3"), "results.csv"); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Analyze(large): want=%v got=%v", ErrFileTooLarge, err)
	}
	if _, err := h.svc.Analyze(ctx, []byte("x"), "results.xls"); !errors.Is(err, sheet.ErrUnsupportedFormat) {
		t.Fatalf("Analyze(xls): want=%v got=%v", sheet.ErrUnsupportedFormat, err)
	}
	if _, err := h.svc.Analyze(ctx, []byte("id,name\n"), "empty.csv"); !errors.Is(err, sheet.ErrEmpty) {
		t.Fatalf("Analyze(empty): want=%v got=%v", sheet.ErrEmpty, err)
	}
}

func TestProcessGradesAndReportsRowErrors(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{})
	ctx := adminCtx()
	a, err := h.svc.Analyze(ctx, resultsCSV(
		"2024001,أحمد علي,85,92,78",
		"2024002,,70,65,88",
		"2024003,سارة محمود,abc,,60",
	), "results.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	res, err := h.svc.Process(ctx, a.Fingerprint, ProcessOptions{
		Mapping: defaultMapping(),
		StageID: "preparatory",
		Region:  "cairo",
		Extra:   map[string]string{"term": "first"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.ProcessedCount != 2 || res.ErrorCount != 1 {
		t.Fatalf("Process: want processed=2 errors=1 got=%d,%d", res.ProcessedCount, res.ErrorCount)
	}
	if res.SampleErrors[0].Row != 2 || res.SampleErrors[0].Reason != transform.ReasonMissingRequired {
		t.Fatalf("SampleErrors[0]: got=%+v", res.SampleErrors[0])
	}

	st, err := h.repos.Student.GetByStudentID(dbctx.Background(ctx), "2024001")
	if err != nil || st == nil {
		t.Fatalf("GetByStudentID: st=%v err=%v", st, err)
	}
	if st.Average == nil || *st.Average != 85 {
		t.Fatalf("Average: want=85 got=%v", st.Average)
	}
	if st.Grade != "جيد جداً" {
		t.Fatalf("Grade: want=%q got=%q", "جيد جداً", st.Grade)
	}
	if st.Total == nil || *st.Total != 255 {
		t.Fatalf("Total: want=255 got=%v", st.Total)
	}
	if st.StageID != "preparatory" || st.Region != "cairo" || st.ProcessedBy != "admin-1" {
		t.Fatalf("tags: got stage=%q region=%q by=%q", st.StageID, st.Region, st.ProcessedBy)
	}
	if st.Extra.Data()["term"] != "first" {
		t.Fatalf("Extra: got=%v", st.Extra.Data())
	}

	partial, _ := h.repos.Student.GetByStudentID(dbctx.Background(ctx), "2024003")
	if subs := partial.Subjects.Data(); len(subs) != 1 || subs[0].Name != colArabic {
		t.Fatalf("non-numeric scores must be omitted: got=%+v", subs)
	}
}

func TestProcessRejectsDuplicateIdentifiers(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{})
	ctx := adminCtx()
	a, err := h.svc.Analyze(ctx, resultsCSV(
		"2024001,أحمد علي,85,92,78",
		"2024001,أحمد آخر,70,65,88",
		"2024002,منى حسن,70,65,88",
	), "results.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	report, err := h.svc.Validate(ctx, a.Fingerprint, ValidateOptions{Mapping: defaultMapping()})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Valid {
		t.Fatalf("Validate: want invalid report")
	}
	var found bool
	for _, f := range report.Errors {
		if f.Type == validate.TypeDuplicateStudentIDs {
			found = true
			if f.Count != 2 {
				t.Fatalf("duplicate count: want=2 got=%d", f.Count)
			}
		}
	}
	if !found {
		t.Fatalf("Validate: want %s error, got=%+v", validate.TypeDuplicateStudentIDs, report.Errors)
	}

	_, err = h.svc.Process(ctx, a.Fingerprint, ProcessOptions{Mapping: defaultMapping()})
	var dup *transform.DuplicateIdentifiersError
	if !errors.As(err, &dup) {
		t.Fatalf("Process: want DuplicateIdentifiersError got=%v", err)
	}
	if dup.Count != 2 {
		t.Fatalf("DuplicateIdentifiersError.Count: want=2 got=%d", dup.Count)
	}
	st, err := h.repos.Student.GetByStudentID(dbctx.Background(ctx), "2024002")
	if err != nil || st != nil {
		t.Fatalf("no record may be written: got=%v err=%v", st, err)
	}
}

func TestProcessRejectsIdentifiersEqualAfterSanitizing(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{})
	ctx := adminCtx()
	a, err := h.svc.Analyze(ctx, resultsCSV(
		"2024001,أحمد علي,85,92,78",
		"2024001;,أحمد آخر,70,65,88",
		"'2024001,أحمد ثالث,60,61,62",
	), "results.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	report, err := h.svc.Validate(ctx, a.Fingerprint, ValidateOptions{Mapping: defaultMapping()})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Valid {
		t.Fatalf("Validate: want invalid report got=%+v", report.Errors)
	}

	_, err = h.svc.Process(ctx, a.Fingerprint, ProcessOptions{Mapping: defaultMapping()})
	var dup *transform.DuplicateIdentifiersError
	if !errors.As(err, &dup) {
		t.Fatalf("Process: want DuplicateIdentifiersError got=%v", err)
	}
	if dup.Count != 3 {
		t.Fatalf("DuplicateIdentifiersError.Count: want=3 got=%d", dup.Count)
	}
	st, err := h.repos.Student.GetByStudentID(dbctx.Background(ctx), "2024001")
	if err != nil || st != nil {
		t.Fatalf("no record may be written: got=%v err=%v", st, err)
	}
}

func TestLostPayloadHeaderIsIntegrityErrorAndReuploadRepairs(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{})
	ctx := adminCtx()
	data := resultsCSV("2024001,أحمد علي,85,92,78", "2024002,منى حسن,70,65,88")
	a, err := h.svc.Analyze(ctx, data, "results.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := h.repos.RawPayload.DeleteByFingerprint(dbctx.Background(ctx), a.Fingerprint); err != nil {
		t.Fatalf("DeleteByFingerprint: %v", err)
	}

	_, err = h.svc.Validate(ctx, a.Fingerprint, ValidateOptions{Mapping: defaultMapping()})
	var ie *chunkstore.IntegrityError
	if !errors.As(err, &ie) || !ie.HeaderLost {
		t.Fatalf("Validate: want IntegrityError with lost header got=%v", err)
	}
	if errors.Is(err, ErrFileNotFound) {
		t.Fatalf("Validate: lost payload must not read as an unknown file")
	}

	again, err := h.svc.Analyze(ctx, data, "results.csv")
	if err != nil {
		t.Fatalf("Analyze(reupload): %v", err)
	}
	if !again.Existing {
		t.Fatalf("Analyze(reupload): want existing")
	}
	res, err := h.svc.Process(ctx, a.Fingerprint, ProcessOptions{Mapping: defaultMapping()})
	if err != nil {
		t.Fatalf("Process after repair: %v", err)
	}
	if res.ProcessedCount != 2 {
		t.Fatalf("ProcessedCount: want=2 got=%d", res.ProcessedCount)
	}
}

func TestProcessMissingColumnsAndUnknownFile(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{})
	ctx := adminCtx()

	if _, err := h.svc.Process(ctx, "deadbeef", ProcessOptions{Mapping: defaultMapping()}); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("Process(unknown): want=%v got=%v", ErrFileNotFound, err)
	}

	a, err := h.svc.Analyze(ctx, resultsCSV("1,a,1,2,3"), "results.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	m := defaultMapping()
	m.SubjectColumns = append(m.SubjectColumns, "الفيزياء")
	_, err = h.svc.Process(ctx, a.Fingerprint, ProcessOptions{Mapping: m})
	var mc *mapping.MissingColumnsError
	if !errors.As(err, &mc) {
		t.Fatalf("Process: want MissingColumnsError got=%v", err)
	}
	if len(mc.Columns) != 1 || mc.Columns[0] != "الفيزياء" {
		t.Fatalf("MissingColumnsError.Columns: got=%v", mc.Columns)
	}
}

func TestValidateAppliesGradingTemplateRange(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{})
	ctx := adminCtx()

	tmpl := &types.GradingTemplate{
		Name:       "prep term 1",
		StageID:    "preparatory",
		Subjects:   datatypes.NewJSONType([]types.SubjectRule{{Name: colMath, MaxScore: 50}}),
		Boundaries: datatypes.NewJSONType([]types.GradeBoundary{{Label: "ممتاز", MinPercentage: 90}}),
	}
	if err := h.repos.GradingTemplate.CreateIgnoreExisting(dbctx.Background(ctx), []*types.GradingTemplate{tmpl}); err != nil {
		t.Fatalf("CreateIgnoreExisting: %v", err)
	}

	a, err := h.svc.Analyze(ctx, resultsCSV(
		"1,أحمد,75,90,90",
		"2,منى,40,80,80",
	), "results.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	report, err := h.svc.Validate(ctx, a.Fingerprint, ValidateOptions{Mapping: defaultMapping(), GradingTemplateID: &tmpl.ID})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Valid {
		t.Fatalf("Validate: want invalid")
	}
	var rng *validate.Finding
	for i := range report.Errors {
		if report.Errors[i].Type == validate.TypeInvalidScores {
			rng = &report.Errors[i]
		}
	}
	if rng == nil || rng.Count != 1 || len(rng.Values) != 1 || rng.Values[0] != 75 {
		t.Fatalf("range finding: got=%+v", rng)
	}

	missing := tmpl.ID
	missing[0] ^= 0xff
	if _, err := h.svc.Validate(ctx, a.Fingerprint, ValidateOptions{Mapping: defaultMapping(), GradingTemplateID: &missing}); !errors.Is(err, ErrGradingTemplateNotFound) {
		t.Fatalf("Validate(unknown template): want=%v got=%v", ErrGradingTemplateNotFound, err)
	}
}

func TestProcessEndToEndChunked(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{ChunkSize: 1000, Workers: 8, UpsertBatchSize: 300})
	ctx := adminCtx()

	const n = 2500
	rows := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, fmt.Sprintf("%d,طالب %d,%d,%d,%d", 3000000+i, i, 50+i%50, 60+i%40, 70+i%30))
	}
	a, err := h.svc.Analyze(ctx, resultsCSV(rows...), "big.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.TotalRows != n {
		t.Fatalf("TotalRows: want=%d got=%d", n, a.TotalRows)
	}
	if len(a.SampleRows) != 5 {
		t.Fatalf("SampleRows: want=5 got=%d", len(a.SampleRows))
	}

	dbc := dbctx.Background(ctx)
	chunks, err := h.repos.RawPayloadChunk.ListByFingerprint(dbc, a.Fingerprint)
	if err != nil {
		t.Fatalf("ListByFingerprint: %v", err)
	}
	if len(chunks) != 3 || chunks[2].RowCount != 500 {
		t.Fatalf("chunks: want 3 with last=500, got=%d", len(chunks))
	}

	res, err := h.svc.Process(ctx, a.Fingerprint, ProcessOptions{Mapping: defaultMapping()})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.ProcessedCount != n || res.ErrorCount != 0 {
		t.Fatalf("Process: want processed=%d errors=0 got=%d,%d", n, res.ProcessedCount, res.ErrorCount)
	}
	count, err := h.repos.Student.CountBySourceFingerprint(dbc, a.Fingerprint)
	if err != nil {
		t.Fatalf("CountBySourceFingerprint: %v", err)
	}
	if count != n {
		t.Fatalf("stored students: want=%d got=%d", n, count)
	}

	// re-processing replaces rather than duplicates
	if _, err := h.svc.Process(ctx, a.Fingerprint, ProcessOptions{Mapping: defaultMapping(), Region: "giza"}); err != nil {
		t.Fatalf("Process (again): %v", err)
	}
	count, _ = h.repos.Student.CountBySourceFingerprint(dbc, a.Fingerprint)
	if count != n {
		t.Fatalf("stored students after reprocess: want=%d got=%d", n, count)
	}
	last, _ := h.repos.Student.GetByStudentID(dbc, fmt.Sprint(3000000+n))
	if last == nil || last.Region != "giza" || last.Name != fmt.Sprintf("طالب %d", n) {
		t.Fatalf("last student: got=%+v", last)
	}
}

func TestProcessSurfacesMissingChunk(t *testing.T) {
	h := newIngestionHarness(t, IngestionConfig{ChunkSize: 2})
	ctx := adminCtx()
	a, err := h.svc.Analyze(ctx, resultsCSV(
		"1,a,1,2,3",
		"2,b,1,2,3",
		"3,c,1,2,3",
		"4,d,1,2,3",
		"5,e,1,2,3",
	), "results.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := h.repos.RawPayloadChunk.DeleteOne(dbctx.Background(ctx), a.Fingerprint, 1); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}

	_, err = h.svc.Process(ctx, a.Fingerprint, ProcessOptions{Mapping: defaultMapping()})
	var ie *chunkstore.IntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("Process: want IntegrityError got=%v", err)
	}
	if len(ie.Missing) != 1 || ie.Missing[0] != 1 {
		t.Fatalf("IntegrityError.Missing: want=[1] got=%v", ie.Missing)
	}
}
