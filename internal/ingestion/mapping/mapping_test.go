package mapping

import (
	"errors"
	"testing"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/grading"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
)

var cols = []string{"رقم الجلوس", "الاسم", "الرياضيات", "العلوم", "المجموع", "الفصل"}

func TestResolveReportsEveryMissingColumn(t *testing.T) {
	m := results.ColumnMapping{
		StudentIDColumn: "رقم الجلوس",
		NameColumn:      "الاسم",
		SubjectColumns:  []string{"الرياضيات", "الفيزياء"},
		SectionColumn:   "الشعبة",
	}
	_, err := Resolve(m, cols, nil)
	var mc *MissingColumnsError
	if !errors.As(err, &mc) {
		t.Fatalf("Resolve: want MissingColumnsError got=%v", err)
	}
	if len(mc.Columns) != 2 || mc.Columns[0] != "الفيزياء" || mc.Columns[1] != "الشعبة" {
		t.Fatalf("missing: got=%v", mc.Columns)
	}
}

func TestResolveRejectsMalformedMapping(t *testing.T) {
	_, err := Resolve(results.ColumnMapping{StudentIDColumn: "رقم الجلوس", NameColumn: "الاسم"}, cols, nil)
	if !errors.Is(err, results.ErrMappingNoSubjects) {
		t.Fatalf("Resolve: want=%v got=%v", results.ErrMappingNoSubjects, err)
	}
}

func TestResolveBindsTemplateLimits(t *testing.T) {
	pass := 25.0
	tmpl := &grading.Template{Subjects: []results.SubjectRule{{Name: "الرياضيات", MaxScore: 50, PassingScore: &pass}}}
	m := results.ColumnMapping{
		StudentIDColumn: " رقم الجلوس ",
		NameColumn:      "الاسم",
		SubjectColumns:  []string{"الرياضيات", "العلوم", "الرياضيات", ""},
		TotalColumn:     "المجموع",
	}
	p, err := Resolve(m, cols, tmpl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(p.Subjects) != 2 {
		t.Fatalf("subjects: want=2 got=%d", len(p.Subjects))
	}
	if p.Subjects[0].MaxScore != 50 || p.Subjects[0].PassingScore == nil {
		t.Fatalf("math: got=%+v", p.Subjects[0])
	}
	if p.Subjects[1].MaxScore != grading.DefaultMaxScore || p.Subjects[1].PassingScore != nil {
		t.Fatalf("science: got=%+v", p.Subjects[1])
	}

	acc := p.Row(sheet.Row{"رقم الجلوس": 2024001.0, "الاسم": "  أحمد ", "المجموع": "177", "الرياضيات": "غ"})
	if acc.StudentID() != "2024001" || acc.Name() != "أحمد" {
		t.Fatalf("accessor: id=%q name=%q", acc.StudentID(), acc.Name())
	}
	if v, ok := acc.Total(); !ok || v != 177 {
		t.Fatalf("Total: want=177 got=%v ok=%v", v, ok)
	}
	if _, ok := acc.Score("الرياضيات"); ok {
		t.Fatalf("Score: non-numeric value should not coerce")
	}
	if acc.Class() != "" {
		t.Fatalf("Class: unmapped column should be empty")
	}
}

func TestDuplicateIdentifiers(t *testing.T) {
	p := &Plan{Mapping: results.ColumnMapping{StudentIDColumn: "id"}}
	rows := []sheet.Row{
		{"id": "2024001"}, {"id": 2024001.0}, {"id": "2024002"}, {"id": nil}, {"id": " "}, {"id": "2024003"}, {"id": "2024003"}, {"id": "2024003"},
	}
	n, ids := p.DuplicateIdentifiers(rows)
	if n != 5 {
		t.Fatalf("count: want=5 got=%d", n)
	}
	if len(ids) != 2 || ids[0] != "2024001" || ids[1] != "2024003" {
		t.Fatalf("ids: got=%v", ids)
	}
}

func TestDuplicateIdentifiersCompareStoredKey(t *testing.T) {
	p := &Plan{Mapping: results.ColumnMapping{StudentIDColumn: "id"}}
	rows := []sheet.Row{{"id": "2024001"}, {"id": "2024001;"}, {"id": "'2024001"}, {"id": "2024002"}}
	n, ids := p.DuplicateIdentifiers(rows)
	if n != 3 || len(ids) != 1 || ids[0] != "2024001" {
		t.Fatalf("duplicates: want=3 [2024001] got=%d %v", n, ids)
	}
	if got := p.Row(rows[2]).StudentKey(); got != "2024001" {
		t.Fatalf("StudentKey: want=2024001 got=%q", got)
	}
}
