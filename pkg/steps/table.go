package steps

import (
	"iter"
	"strings"

	"github.com/denizgursoy/tursu/pkg/model"
)

// Row is a single row of a step's data table.
type Row struct {
	cells   []string
	headers []string
}

// Get returns the cell under the named column (case-insensitive header
// lookup against the table's first row). Missing columns yield "".
func (r Row) Get(col string) string {
	for i, h := range r.headers {
		if strings.EqualFold(h, col) {
			if i < len(r.cells) {
				return r.cells[i]
			}
			return ""
		}
	}
	return ""
}

// Cell returns the cell at the given index, or "" when out of range.
func (r Row) Cell(index int) string {
	if index < 0 || index >= len(r.cells) {
		return ""
	}
	return r.cells[index]
}

// Values returns a copy of all cells in order.
func (r Row) Values() []string {
	cp := make([]string, len(r.cells))
	copy(cp, r.cells)
	return cp
}

// Len returns the number of cells in the row.
func (r Row) Len() int {
	return len(r.cells)
}

// Table is the handler-facing view of a step's data table. The first row
// doubles as the header for name-based lookups.
type Table struct {
	headers []string
	rows    []Row
}

// NewTable builds a Table from raw cell data.
func NewTable(data [][]string) Table {
	if len(data) == 0 {
		return Table{}
	}
	headers := make([]string, len(data[0]))
	copy(headers, data[0])

	rows := make([]Row, len(data))
	for i, cells := range data {
		cp := make([]string, len(cells))
		copy(cp, cells)
		rows[i] = Row{cells: cp, headers: headers}
	}
	return Table{headers: headers, rows: rows}
}

// NewTableFromModel builds a Table from a parsed data table.
func NewTableFromModel(dt *model.DataTable) Table {
	if dt == nil {
		return Table{}
	}
	return NewTable(dt.Cells())
}

// Headers returns a copy of the first row's cells.
func (t Table) Headers() []string {
	cp := make([]string, len(t.headers))
	copy(cp, t.headers)
	return cp
}

// Len returns the total number of rows, header included.
func (t Table) Len() int {
	return len(t.rows)
}

// All iterates over every row, header included, with 0-based indexes.
func (t Table) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, row := range t.rows {
			if !yield(i, row) {
				return
			}
		}
	}
}

// SkipHeader iterates over data rows only. The index restarts at 0 for the
// first data row; Get still resolves names against the skipped header.
func (t Table) SkipHeader() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i := 1; i < len(t.rows); i++ {
			if !yield(i-1, t.rows[i]) {
				return
			}
		}
	}
}

// Maps renders the data rows as header-keyed maps, one per row.
func (t Table) Maps() []map[string]string {
	if len(t.rows) <= 1 {
		return nil
	}
	out := make([]map[string]string, 0, len(t.rows)-1)
	for _, row := range t.rows[1:] {
		m := make(map[string]string, len(t.headers))
		for i, h := range t.headers {
			m[h] = row.Cell(i)
		}
		out = append(out, m)
	}
	return out
}
