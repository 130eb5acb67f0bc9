// Package mapping checks a confirmed column mapping against a payload and
// turns it into a typed plan the transformer can apply row by row.
package mapping

import (
	"fmt"
	"strings"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/grading"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sanitize"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
)

// MissingColumnsError lists mapped columns the payload does not have.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("mapped columns not found in file: %s", strings.Join(e.Columns, ", "))
}

// SubjectColumn is one subject with its template-resolved limits.
type SubjectColumn struct {
	Column       string
	MaxScore     float64
	PassingScore *float64
}

// Plan is a validated mapping bound to a grading template.
type Plan struct {
	Mapping  results.ColumnMapping
	Subjects []SubjectColumn
	Template *grading.Template
}

// Resolve fails before touching any row when the mapping is malformed or
// references absent columns. A nil template selects grading.Default().
func Resolve(m results.ColumnMapping, columns []string, tmpl *grading.Template) (*Plan, error) {
	m = normalize(m)
	if err := m.Check(); err != nil {
		return nil, err
	}
	if tmpl == nil {
		tmpl = grading.Default()
	}

	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	var missing []string
	seen := map[string]bool{}
	for _, c := range m.Columns() {
		if !have[c] && !seen[c] {
			missing = append(missing, c)
			seen[c] = true
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	p := &Plan{Mapping: m, Template: tmpl}
	for _, col := range m.SubjectColumns {
		sc := SubjectColumn{Column: col, MaxScore: tmpl.MaxScore(col)}
		if r, ok := tmpl.Rule(col); ok && r.PassingScore != nil {
			v := *r.PassingScore
			sc.PassingScore = &v
		}
		p.Subjects = append(p.Subjects, sc)
	}
	return p, nil
}

// normalize trims every column reference and drops blank or repeated subjects.
func normalize(m results.ColumnMapping) results.ColumnMapping {
	trim := strings.TrimSpace
	out := results.ColumnMapping{
		StudentIDColumn:      trim(m.StudentIDColumn),
		NameColumn:           trim(m.NameColumn),
		TotalColumn:          trim(m.TotalColumn),
		ClassColumn:          trim(m.ClassColumn),
		SectionColumn:        trim(m.SectionColumn),
		SchoolColumn:         trim(m.SchoolColumn),
		AdministrationColumn: trim(m.AdministrationColumn),
		SchoolCodeColumn:     trim(m.SchoolCodeColumn),
	}
	seen := map[string]bool{}
	for _, c := range m.SubjectColumns {
		c = trim(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out.SubjectColumns = append(out.SubjectColumns, c)
	}
	return out
}

// Accessor reads mapped fields out of one raw row.
type Accessor struct {
	plan *Plan
	row  sheet.Row
}

func (p *Plan) Row(r sheet.Row) Accessor { return Accessor{plan: p, row: r} }

func (a Accessor) text(col string) string {
	if col == "" {
		return ""
	}
	return sheet.Text(a.row[col])
}

func (a Accessor) StudentID() string      { return a.text(a.plan.Mapping.StudentIDColumn) }
func (a Accessor) Name() string           { return a.text(a.plan.Mapping.NameColumn) }
func (a Accessor) Class() string          { return a.text(a.plan.Mapping.ClassColumn) }
func (a Accessor) Section() string        { return a.text(a.plan.Mapping.SectionColumn) }
func (a Accessor) School() string         { return a.text(a.plan.Mapping.SchoolColumn) }
func (a Accessor) Administration() string { return a.text(a.plan.Mapping.AdministrationColumn) }
func (a Accessor) SchoolCode() string     { return a.text(a.plan.Mapping.SchoolCodeColumn) }

// StudentKey is the identifier records are stored under.
func (a Accessor) StudentKey() string { return sanitize.Text(a.StudentID()) }

// Score returns the numeric value of a subject column, if it has one.
func (a Accessor) Score(col string) (float64, bool) {
	return sheet.Number(a.row[col])
}

// Total returns the mapped total column's value, if mapped and numeric.
func (a Accessor) Total() (float64, bool) {
	if a.plan.Mapping.TotalColumn == "" {
		return 0, false
	}
	return sheet.Number(a.row[a.plan.Mapping.TotalColumn])
}

// DuplicateIdentifiers counts rows whose non-empty student key also appears on
// another row, and lists the repeated keys in first-seen order. Keys are
// compared after sanitizing, so "2024001" and "'2024001" collide.
func (p *Plan) DuplicateIdentifiers(rows []sheet.Row) (int, []string) {
	return DuplicateValues(rows, p.Mapping.StudentIDColumn)
}

// DuplicateValues is DuplicateIdentifiers for an arbitrary column.
func DuplicateValues(rows []sheet.Row, column string) (int, []string) {
	counts := make(map[string]int, len(rows))
	var order []string
	for _, r := range rows {
		id := sanitize.Text(sheet.Text(r[column]))
		if id == "" {
			continue
		}
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}
	total := 0
	var ids []string
	for _, id := range order {
		if n := counts[id]; n > 1 {
			total += n
			ids = append(ids, id)
		}
	}
	return total, ids
}
