package model

// Clone returns a deep copy of the step. Expansion substitutes placeholders
// on clones so the parsed model stays immutable.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	cp := *s
	cp.DataTable = s.DataTable.Clone()
	cp.DocString = s.DocString.Clone()
	return &cp
}

// Clone returns a deep copy of the table.
func (t *DataTable) Clone() *DataTable {
	if t == nil {
		return nil
	}
	cp := DataTable{Location: t.Location, Rows: make([]*TableRow, len(t.Rows))}
	for i, r := range t.Rows {
		cells := make([]string, len(r.Cells))
		copy(cells, r.Cells)
		cp.Rows[i] = &TableRow{Cells: cells, Location: r.Location}
	}
	return &cp
}

// Clone returns a copy of the doc string.
func (d *DocString) Clone() *DocString {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

// CloneSteps deep-copies a step slice.
func CloneSteps(steps []*Step) []*Step {
	if steps == nil {
		return nil
	}
	out := make([]*Step, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}
