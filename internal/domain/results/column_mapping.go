package results

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// ColumnMapping is the administrator-confirmed binding of spreadsheet columns
// to student record fields.
type ColumnMapping struct {
	StudentIDColumn      string   `json:"student_id_column"`
	NameColumn           string   `json:"name_column"`
	SubjectColumns       []string `json:"subject_columns"`
	TotalColumn          string   `json:"total_column,omitempty"`
	ClassColumn          string   `json:"class_column,omitempty"`
	SectionColumn        string   `json:"section_column,omitempty"`
	SchoolColumn         string   `json:"school_column,omitempty"`
	AdministrationColumn string   `json:"administration_column,omitempty"`
	SchoolCodeColumn     string   `json:"school_code_column,omitempty"`
}

var (
	ErrMappingNoStudentID = errors.New("mapping: student_id_column is required")
	ErrMappingNoName      = errors.New("mapping: name_column is required")
	ErrMappingNoSubjects  = errors.New("mapping: at least one subject column is required")
)

// Check enforces the structural requirements of a mapping without looking at data.
func (m ColumnMapping) Check() error {
	if strings.TrimSpace(m.StudentIDColumn) == "" {
		return ErrMappingNoStudentID
	}
	if strings.TrimSpace(m.NameColumn) == "" {
		return ErrMappingNoName
	}
	n := 0
	for _, c := range m.SubjectColumns {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	if n == 0 {
		return ErrMappingNoSubjects
	}
	return nil
}

// Columns lists every referenced column in a stable order.
func (m ColumnMapping) Columns() []string {
	out := []string{m.StudentIDColumn, m.NameColumn}
	out = append(out, m.SubjectColumns...)
	for _, c := range []string{m.TotalColumn, m.ClassColumn, m.SectionColumn, m.SchoolColumn, m.AdministrationColumn, m.SchoolCodeColumn} {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

func (m ColumnMapping) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *ColumnMapping) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = ColumnMapping{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("column mapping: unsupported scan type")
	}
	if len(raw) == 0 {
		*m = ColumnMapping{}
		return nil
	}
	return json.Unmarshal(raw, m)
}
