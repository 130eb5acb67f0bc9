// Package grading holds the scoring rules a stage applies to raw scores.
package grading

import (
	"sort"
	"strings"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
)

// DefaultMaxScore applies to subjects no template rule covers.
const DefaultMaxScore = 100.0

// DefaultBoundaries is the grade ladder used when no template is supplied.
var DefaultBoundaries = []results.GradeBoundary{
	{Label: "ممتاز", MinPercentage: 90},
	{Label: "جيد جداً", MinPercentage: 80},
	{Label: "جيد", MinPercentage: 70},
	{Label: "مقبول", MinPercentage: 60},
	{Label: "ضعيف", MinPercentage: 0},
}

// Template is the read-only view the transformer and validator need.
type Template struct {
	Name       string
	StageID    string
	Subjects   []results.SubjectRule
	Boundaries []results.GradeBoundary
}

// Default returns a template with no subject rules and the default ladder.
func Default() *Template {
	return &Template{Name: "default", Boundaries: DefaultBoundaries}
}

// FromModel converts a stored template. Empty boundaries fall back to the defaults.
func FromModel(m *results.GradingTemplate) *Template {
	if m == nil {
		return Default()
	}
	t := &Template{
		Name:       m.Name,
		StageID:    m.StageID,
		Subjects:   append([]results.SubjectRule(nil), m.Subjects.Data()...),
		Boundaries: append([]results.GradeBoundary(nil), m.Boundaries.Data()...),
	}
	if len(t.Boundaries) == 0 {
		t.Boundaries = DefaultBoundaries
	}
	return t
}

// Rule finds the subject rule for a column. Names match when either contains
// the other.
func (t *Template) Rule(column string) (results.SubjectRule, bool) {
	if t == nil {
		return results.SubjectRule{}, false
	}
	col := strings.TrimSpace(column)
	if col == "" {
		return results.SubjectRule{}, false
	}
	for _, r := range t.Subjects {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		if strings.Contains(col, name) || strings.Contains(name, col) {
			return r, true
		}
	}
	return results.SubjectRule{}, false
}

// MaxScore is the rule's max for the column, or DefaultMaxScore.
func (t *Template) MaxScore(column string) float64 {
	if r, ok := t.Rule(column); ok && r.MaxScore > 0 {
		return r.MaxScore
	}
	return DefaultMaxScore
}

// Grade returns the label of the highest boundary the percentage meets, or ""
// when it is below every boundary.
func (t *Template) Grade(percentage float64) string {
	bounds := DefaultBoundaries
	if t != nil && len(t.Boundaries) > 0 {
		bounds = t.Boundaries
	}
	sorted := append([]results.GradeBoundary(nil), bounds...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinPercentage > sorted[j].MinPercentage })
	for _, b := range sorted {
		if percentage >= b.MinPercentage {
			return b.Label
		}
	}
	return ""
}
