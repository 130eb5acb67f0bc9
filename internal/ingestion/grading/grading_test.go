package grading

import (
	"testing"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
	"gorm.io/datatypes"
)

func TestDefaultGradeLadder(t *testing.T) {
	tmpl := Default()
	cases := []struct {
		pct  float64
		want string
	}{
		{95, "ممتاز"},
		{90, "ممتاز"},
		{85, "جيد جداً"},
		{70, "جيد"},
		{60, "مقبول"},
		{59.99, "ضعيف"},
		{0, "ضعيف"},
	}
	for _, tc := range cases {
		if got := tmpl.Grade(tc.pct); got != tc.want {
			t.Fatalf("Grade(%v): want=%q got=%q", tc.pct, tc.want, got)
		}
	}
}

func TestGradeUnorderedBoundaries(t *testing.T) {
	tmpl := &Template{Boundaries: []results.GradeBoundary{
		{Label: "C", MinPercentage: 50},
		{Label: "A", MinPercentage: 85},
		{Label: "B", MinPercentage: 65},
	}}
	if got := tmpl.Grade(70); got != "B" {
		t.Fatalf("Grade(70): want=%q got=%q", "B", got)
	}
	if got := tmpl.Grade(10); got != "" {
		t.Fatalf("Grade(10): want empty got=%q", got)
	}
}

func TestRuleMatchesBySubstring(t *testing.T) {
	tmpl := &Template{Subjects: []results.SubjectRule{
		{Name: "الرياضيات", MaxScore: 50},
		{Name: "العلوم", MaxScore: 40},
	}}
	if got := tmpl.MaxScore("درجة الرياضيات"); got != 50 {
		t.Fatalf("MaxScore(column contains rule): want=50 got=%v", got)
	}
	if got := tmpl.MaxScore("علوم"); got != 40 {
		t.Fatalf("MaxScore(rule contains column): want=40 got=%v", got)
	}
	if got := tmpl.MaxScore("التاريخ"); got != DefaultMaxScore {
		t.Fatalf("MaxScore(no rule): want=%v got=%v", DefaultMaxScore, got)
	}
	var nilTmpl *Template
	if got := nilTmpl.MaxScore("x"); got != DefaultMaxScore {
		t.Fatalf("nil template MaxScore: want=%v got=%v", DefaultMaxScore, got)
	}
}

func TestFromModelFallsBackToDefaultBoundaries(t *testing.T) {
	m := &results.GradingTemplate{
		Name:     "t",
		Subjects: datatypes.NewJSONType([]results.SubjectRule{{Name: "math", MaxScore: 30}}),
	}
	tmpl := FromModel(m)
	if len(tmpl.Boundaries) != len(DefaultBoundaries) {
		t.Fatalf("boundaries: want default got=%v", tmpl.Boundaries)
	}
	if tmpl.MaxScore("math") != 30 {
		t.Fatalf("MaxScore: want=30 got=%v", tmpl.MaxScore("math"))
	}
}

func TestSeedTemplatesEmbedded(t *testing.T) {
	t.Setenv(seedTemplatesEnv, "")
	got, err := SeedTemplates()
	if err != nil {
		t.Fatalf("SeedTemplates: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("templates: want=4 got=%d", len(got))
	}
	arts := got[3]
	if len(arts.Boundaries.Data()) != 5 || arts.Boundaries.Data()[0].MinPercentage != 85 {
		t.Fatalf("arts boundaries: got=%v", arts.Boundaries.Data())
	}
	second := got[1]
	if p := second.Subjects.Data()[0].PassingScore; p == nil || *p != 40 {
		t.Fatalf("passing score: want=40 got=%v", p)
	}
}

func TestParseSeedTemplatesRejectsBadMax(t *testing.T) {
	data := []byte("templates:\n  - {stage_id: s, name: n, subjects: [{name: x, max_score: 0}]}\n")
	if _, err := ParseSeedTemplates(data); err == nil {
		t.Fatalf("expected error for zero max_score")
	}
}
