// Package sheet turns uploaded spreadsheet bytes into a column-keyed table of
// raw scalars. Cell values are nil, string or float64.
package sheet

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yungbote/scorebridge-backend/internal/ingestion/sanitize"
)

var (
	ErrUnreadable        = errors.New("sheet: file could not be read")
	ErrEmpty             = errors.New("sheet: file has no data rows")
	ErrUnsupportedFormat = errors.New("sheet: unsupported file format")
)

// Row maps a column name to its raw cell value.
type Row map[string]any

type Table struct {
	Columns []string
	Rows    []Row
}

// Parse dispatches on the filename extension.
func Parse(data []byte, filename string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ParseXLSX(data)
	case ".csv":
		return ParseCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q (expected .xlsx or .csv)", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// SupportedExtension reports whether Parse accepts the filename.
func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".csv":
		return true
	default:
		return false
	}
}

// headerNames sanitizes raw header cells and makes them unique and non-empty.
func headerNames(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := sanitize.Text(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		out[i] = name
	}
	return out
}

func blankRow(r Row) bool {
	for _, v := range r {
		if !IsBlank(v) {
			return false
		}
	}
	return true
}

// IsBlank reports nil, NaN and whitespace-only strings.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return math.IsNaN(t)
	default:
		return false
	}
}

// Number coerces a raw value to float64.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text renders a raw value as trimmed text; whole floats lose their ".0".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
