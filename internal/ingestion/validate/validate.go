// Package validate runs structural and statistical checks over a whole
// payload. Findings are data: nothing here fails the request.
package validate

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/grading"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/mapping"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
)

const (
	TypeMissingColumns      = "missing_columns"
	TypeInvalidScores       = "invalid_scores"
	TypeOutlierScores       = "outlier_scores"
	TypeDuplicateData       = "duplicate_data"
	TypeHighMissingData     = "high_missing_data"
	TypeDuplicateStudentIDs = "duplicate_student_ids"
	TypeEmptyNames          = "empty_names"

	ActionCapValues      = "cap_values"
	ActionDropDuplicates = "drop_duplicates"
)

const (
	maxSampleValues     = 5
	outlierSigma        = 2.0
	outlierMaxShare     = 0.05
	highMissingShare    = 0.30
	emptyPenaltyCeiling = 30.0
	errorPenalty        = 10.0
	warningPenalty      = 5.0
)

type Finding struct {
	Type       string    `json:"type"`
	Column     string    `json:"column,omitempty"`
	Message    string    `json:"message"`
	Count      int       `json:"count,omitempty"`
	Values     []float64 `json:"values,omitempty"`
	Columns    []string  `json:"columns,omitempty"`
	Mean       *float64  `json:"mean,omitempty"`
	Std        *float64  `json:"std,omitempty"`
	Percentage *float64  `json:"percentage,omitempty"`
}

type Suggestion struct {
	Type       string             `json:"type"`
	Column     string             `json:"column,omitempty"`
	Message    string             `json:"message"`
	Action     string             `json:"action"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

type Statistics struct {
	TotalRows     int     `json:"total_rows"`
	TotalColumns  int     `json:"total_columns"`
	EmptyCells    int     `json:"empty_cells"`
	DuplicateRows int     `json:"duplicate_rows"`
	QualityScore  float64 `json:"quality_score"`
}

type Report struct {
	Valid       bool         `json:"is_valid"`
	Errors      []Finding    `json:"errors"`
	Warnings    []Finding    `json:"warnings"`
	Statistics  Statistics   `json:"statistics"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Run checks rows against the optional mapping and template. Every check runs
// independently; the report accumulates all of them.
func Run(columns []string, rows []sheet.Row, m *results.ColumnMapping, tmpl *grading.Template) *Report {
	r := &Report{
		Errors:      []Finding{},
		Warnings:    []Finding{},
		Suggestions: []Suggestion{},
		Statistics: Statistics{
			TotalRows:    len(rows),
			TotalColumns: len(columns),
		},
	}

	missingPerColumn := make(map[string]int, len(columns))
	for _, row := range rows {
		for _, c := range columns {
			if sheet.IsBlank(row[c]) {
				r.Statistics.EmptyCells++
				missingPerColumn[c]++
			}
		}
	}
	r.Statistics.DuplicateRows = duplicateRows(columns, rows)

	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}

	if m != nil {
		if _, err := mapping.Resolve(*m, columns, tmpl); err != nil {
			var mc *mapping.MissingColumnsError
			if errors.As(err, &mc) {
				r.Errors = append(r.Errors, Finding{
					Type:    TypeMissingColumns,
					Message: mc.Error(),
					Count:   len(mc.Columns),
					Columns: mc.Columns,
				})
			}
		}
		for _, col := range m.SubjectColumns {
			col = strings.TrimSpace(col)
			if !have[col] {
				continue
			}
			r.checkSubject(col, numericValues(rows, col), tmpl)
		}
	}

	if n := r.Statistics.DuplicateRows; n > 0 {
		r.Warnings = append(r.Warnings, Finding{
			Type:    TypeDuplicateData,
			Message: fmt.Sprintf("found %d duplicate rows", n),
			Count:   n,
		})
		r.Suggestions = append(r.Suggestions, Suggestion{
			Type:    "remove_duplicates",
			Message: "remove the duplicate rows",
			Action:  ActionDropDuplicates,
		})
	}

	if len(rows) > 0 {
		for _, c := range columns {
			n := missingPerColumn[c]
			if float64(n) <= float64(len(rows))*highMissingShare {
				continue
			}
			pct := round(float64(n)/float64(len(rows))*100, 1)
			r.Warnings = append(r.Warnings, Finding{
				Type:       TypeHighMissingData,
				Column:     c,
				Message:    fmt.Sprintf("high missing data: %d of %d", n, len(rows)),
				Count:      n,
				Percentage: &pct,
			})
		}
	}

	if m != nil {
		if col := strings.TrimSpace(m.StudentIDColumn); col != "" && have[col] {
			if n, ids := mapping.DuplicateValues(rows, col); n > 0 {
				r.Errors = append(r.Errors, Finding{
					Type:    TypeDuplicateStudentIDs,
					Column:  col,
					Message: fmt.Sprintf("duplicate student identifiers: %d rows share %d identifiers", n, len(ids)),
					Count:   n,
				})
			}
		}
		if col := strings.TrimSpace(m.NameColumn); col != "" && have[col] {
			if n := missingPerColumn[col]; n > 0 {
				r.Warnings = append(r.Warnings, Finding{
					Type:    TypeEmptyNames,
					Column:  col,
					Message: fmt.Sprintf("empty names: %d", n),
					Count:   n,
				})
			}
		}
	}

	r.Valid = len(r.Errors) == 0
	r.Statistics.QualityScore = r.qualityScore()
	return r
}

func (r *Report) checkSubject(col string, values []float64, tmpl *grading.Template) {
	if rule, ok := tmpl.Rule(col); ok && rule.MaxScore > 0 {
		max := rule.MaxScore
		var bad []float64
		for _, v := range values {
			if v < 0 || v > max {
				bad = append(bad, v)
			}
		}
		if len(bad) > 0 {
			sample := bad
			if len(sample) > maxSampleValues {
				sample = sample[:maxSampleValues]
			}
			r.Errors = append(r.Errors, Finding{
				Type:    TypeInvalidScores,
				Column:  col,
				Message: fmt.Sprintf("scores outside the allowed range (0-%s)", formatNumber(max)),
				Count:   len(bad),
				Values:  append([]float64(nil), sample...),
			})
			r.Suggestions = append(r.Suggestions, Suggestion{
				Type:       "fix_invalid_scores",
				Column:     col,
				Message:    fmt.Sprintf("cap scores to the range 0-%s", formatNumber(max)),
				Action:     ActionCapValues,
				Parameters: map[string]float64{"min_value": 0, "max_value": max},
			})
		}
	}

	if len(values) < 2 {
		return
	}
	mean, std := meanStd(values)
	if std == 0 {
		return
	}
	outliers := 0
	for _, v := range values {
		if math.Abs(v-mean) > outlierSigma*std {
			outliers++
		}
	}
	if outliers > 0 && float64(outliers) < float64(r.Statistics.TotalRows)*outlierMaxShare {
		m, s := round(mean, 2), round(std, 2)
		r.Warnings = append(r.Warnings, Finding{
			Type:    TypeOutlierScores,
			Column:  col,
			Message: "outlier scores may need review",
			Count:   outliers,
			Mean:    &m,
			Std:     &s,
		})
	}
}

// qualityScore starts at 100, subtracts the empty-cell share (capped at 30)
// and a fixed penalty per distinct error and warning type.
func (r *Report) qualityScore() float64 {
	score := 100.0
	cells := r.Statistics.TotalRows * r.Statistics.TotalColumns
	if r.Statistics.EmptyCells > 0 && cells > 0 {
		score -= math.Min(emptyPenaltyCeiling, float64(r.Statistics.EmptyCells)/float64(cells)*100)
	}
	score -= errorPenalty * float64(distinctTypes(r.Errors))
	score -= warningPenalty * float64(distinctTypes(r.Warnings))
	if score < 0 {
		score = 0
	}
	return round(score, 1)
}

func distinctTypes(fs []Finding) int {
	seen := map[string]bool{}
	for _, f := range fs {
		seen[f.Type] = true
	}
	return len(seen)
}

func numericValues(rows []sheet.Row, col string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := sheet.Number(row[col]); ok {
			out = append(out, v)
		}
	}
	return out
}

// meanStd returns the mean and the sample standard deviation.
func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}

// duplicateRows counts rows identical to an earlier row across all columns.
func duplicateRows(columns []string, rows []sheet.Row) int {
	seen := make(map[string]struct{}, len(rows))
	dups := 0
	var b strings.Builder
	for _, row := range rows {
		b.Reset()
		for _, c := range columns {
			if sheet.IsBlank(row[c]) {
				b.WriteString("\x00")
			} else {
				b.WriteString(sheet.Text(row[c]))
			}
			b.WriteByte('\x1f')
		}
		k := b.String()
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func formatNumber(v float64) string {
	return sheet.Text(v)
}
