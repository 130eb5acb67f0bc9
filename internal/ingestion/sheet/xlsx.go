package sheet

import (
	"fmt"
	"strings"

	"github.com/tealeg/xlsx/v3"
)

// ParseXLSX reads the first worksheet; its first row is the header.
func ParseXLSX(data []byte) (*Table, error) {
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(wb.Sheets) == 0 {
		return nil, ErrEmpty
	}
	sh := wb.Sheets[0]

	var (
		columns []string
		rows    []Row
		width   int
		first   = true
	)
	err = sh.ForEachRow(func(r *xlsx.Row) error {
		if first {
			first = false
			raw := make([]string, 0, sh.MaxCol)
			for i := 0; i < sh.MaxCol; i++ {
				raw = append(raw, r.GetCell(i).String())
			}
			// Trailing empty header cells are layout noise.
			for len(raw) > 0 && strings.TrimSpace(raw[len(raw)-1]) == "" {
				raw = raw[:len(raw)-1]
			}
			columns = headerNames(raw)
			width = len(columns)
			return nil
		}
		row := make(Row, width)
		for i := 0; i < width; i++ {
			row[columns[i]] = cellValue(r.GetCell(i))
		}
		if !blankRow(row) {
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(columns) == 0 || len(rows) == 0 {
		return nil, ErrEmpty
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

func cellValue(c *xlsx.Cell) any {
	if c == nil {
		return nil
	}
	if c.Type() == xlsx.CellTypeNumeric {
		if f, err := c.Float(); err == nil {
			return f
		}
	}
	s := strings.TrimSpace(c.String())
	if s == "" {
		return nil
	}
	return s
}
