// Package classify guesses the role of each spreadsheet column so the mapping
// form can be pre-filled. The result is advisory; administrators confirm it.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
)

type Role string

const (
	RoleIdentifier Role = "student_id"
	RoleName       Role = "name"
	RoleSubject    Role = "subject"
	RoleTotal      Role = "total"
	RoleClass      Role = "class"
	RoleSection    Role = "section"
)

// Keyword rules are checked in order; the first role with a matching keyword wins.
var keywordRules = []struct {
	role     Role
	keywords []string
}{
	{RoleIdentifier, []string{"id", "رقم", "number", "seat"}},
	{RoleName, []string{"name", "اسم", "student"}},
	{RoleTotal, []string{"total", "مجموع", "sum"}},
	{RoleClass, []string{"class", "فصل", "grade"}},
	{RoleSection, []string{"section", "شعبة"}},
}

const (
	subjectMaxCeiling = 100
	nameMinAvgLength  = 10
)

// Classify assigns a role from the column name, then from its values.
func Classify(column string, values []any) Role {
	lower := strings.ToLower(column)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.role
			}
		}
	}

	var (
		numeric  int
		max      float64
		textN    int
		textRune int
	)
	for _, v := range values {
		if sheet.IsBlank(v) {
			continue
		}
		if f, ok := sheet.Number(v); ok {
			if numeric == 0 || f > max {
				max = f
			}
			numeric++
			continue
		}
		textN++
		textRune += utf8.RuneCountInString(sheet.Text(v))
	}

	if numeric > 0 {
		switch {
		case max >= 0 && max <= subjectMaxCeiling:
			return RoleSubject
		case max > subjectMaxCeiling:
			return RoleTotal
		}
	}
	if textN > 0 && float64(textRune)/float64(textN) > nameMinAvgLength {
		return RoleName
	}
	return RoleSubject
}

// Suggestion is the pre-filled mapping offered after analysis.
type Suggestion struct {
	Roles   map[string]Role
	Mapping results.ColumnMapping
}

// Suggest classifies every column. Non-subject roles go to the first column
// that claims them; every subject column is kept in sheet order.
func Suggest(columns []string, rows []sheet.Row) Suggestion {
	out := Suggestion{Roles: make(map[string]Role, len(columns))}
	taken := map[Role]bool{}
	for _, col := range columns {
		values := make([]any, 0, len(rows))
		for _, r := range rows {
			values = append(values, r[col])
		}
		role := Classify(col, values)
		if role != RoleSubject && taken[role] {
			continue
		}
		taken[role] = true
		out.Roles[col] = role

		switch role {
		case RoleIdentifier:
			out.Mapping.StudentIDColumn = col
		case RoleName:
			out.Mapping.NameColumn = col
		case RoleTotal:
			out.Mapping.TotalColumn = col
		case RoleClass:
			out.Mapping.ClassColumn = col
		case RoleSection:
			out.Mapping.SectionColumn = col
		case RoleSubject:
			out.Mapping.SubjectColumns = append(out.Mapping.SubjectColumns, col)
		}
	}
	return out
}
