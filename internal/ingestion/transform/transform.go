// Package transform applies a resolved mapping plan to raw rows, producing
// normalized student records or per-row failures.
package transform

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/mapping"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sanitize"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
)

const ReasonMissingRequired = "missing required data"

// DuplicateIdentifiersError blocks a whole batch before any record is written.
type DuplicateIdentifiersError struct {
	Count int
	IDs   []string
}

func (e *DuplicateIdentifiersError) Error() string {
	ids := e.IDs
	if len(ids) > 5 {
		ids = ids[:5]
	}
	return fmt.Sprintf("duplicate student identifiers in batch: %d rows share %d identifiers (%s)", e.Count, len(e.IDs), strings.Join(ids, ", "))
}

// Tags are copied onto every record of a batch.
type Tags struct {
	StageID     string
	Region      string
	Extra       map[string]string
	ProcessedBy string
	Fingerprint string
	ProcessedAt time.Time
}

// RowError explains why one row produced no record. Row is the 1-based data
// row ordinal, header excluded.
type RowError struct {
	Row       int    `json:"row"`
	StudentID string `json:"student_id,omitempty"`
	Reason    string `json:"reason"`
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

type RowResult struct {
	Row    int
	Record *results.Student
	Err    *RowError
}

// Row transforms a single raw row. ordinal is the row's 0-based index.
func Row(p *mapping.Plan, ordinal int, r sheet.Row, tags Tags) RowResult {
	acc := p.Row(r)
	id := acc.StudentKey()
	name := sanitize.Text(acc.Name())
	if id == "" || name == "" {
		return RowResult{Row: ordinal + 1, Err: &RowError{Row: ordinal + 1, StudentID: id, Reason: ReasonMissingRequired}}
	}

	var (
		subjects []results.SubjectScore
		sum      float64
		pctSum   float64
	)
	for _, sc := range p.Subjects {
		v, ok := acc.Score(sc.Column)
		if !ok {
			continue
		}
		s := results.SubjectScore{
			Name:       sc.Column,
			Score:      v,
			MaxScore:   sc.MaxScore,
			Percentage: round2(v / sc.MaxScore * 100),
		}
		if sc.PassingScore != nil {
			passed := v >= *sc.PassingScore
			s.Passed = &passed
		}
		subjects = append(subjects, s)
		sum += v
		pctSum += s.Percentage
	}

	rec := &results.Student{
		StudentID:         id,
		Name:              name,
		Subjects:          datatypes.NewJSONType(subjects),
		ClassName:         sanitize.Text(acc.Class()),
		Section:           sanitize.Text(acc.Section()),
		School:            sanitize.Text(acc.School()),
		Administration:    sanitize.Text(acc.Administration()),
		SchoolCode:        sanitize.Text(acc.SchoolCode()),
		StageID:           tags.StageID,
		Region:            tags.Region,
		Extra:             datatypes.NewJSONType(tags.Extra),
		SourceFingerprint: tags.Fingerprint,
		ProcessedBy:       tags.ProcessedBy,
		ProcessedAt:       tags.ProcessedAt,
	}
	if t, ok := acc.Total(); ok {
		rec.Total = &t
	} else if len(subjects) > 0 {
		t := sum
		rec.Total = &t
	}
	if len(subjects) > 0 {
		avg := round2(pctSum / float64(len(subjects)))
		rec.Average = &avg
		rec.Grade = p.Template.Grade(avg)
	}
	return RowResult{Row: ordinal + 1, Record: rec}
}

// Summary is the ordered outcome of a batch.
type Summary struct {
	Records []*results.Student
	Errors  []RowError
}

// Batch refuses batches with repeated identifiers, then transforms rows on up
// to workers goroutines. Output order follows input order.
func Batch(ctx context.Context, p *mapping.Plan, rows []sheet.Row, tags Tags, workers int) (*Summary, error) {
	if n, ids := p.DuplicateIdentifiers(rows); n > 0 {
		return nil, &DuplicateIdentifiersError{Count: n, IDs: ids}
	}
	if workers <= 0 {
		workers = 1
	}

	out := make([]RowResult, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = Row(p, i, rows[i], tags)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Summary{Records: make([]*results.Student, 0, len(rows))}
	for _, r := range out {
		if r.Err != nil {
			s.Errors = append(s.Errors, *r.Err)
			continue
		}
		s.Records = append(s.Records, r.Record)
	}
	return s, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
