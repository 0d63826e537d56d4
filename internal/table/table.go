// Package table defines named string tables and the registry that owns them.
package table

import "slices"

// Table is an ordered list of column names and rows of string cells.
// Every row holds len(Columns) cells between operations.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New returns an empty table with no columns and no rows.
func New() Table {
	return Table{Columns: []string{}, Rows: [][]string{}}
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([][]string, len(t.Rows)),
	}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
		if out.Rows[i] == nil {
			out.Rows[i] = []string{}
		}
	}
	return out
}

// Normalize replaces nil slices with empty ones.
// Backends that drop empty arrays (the remote KV store does) rely on this.
func (t *Table) Normalize() {
	if t.Columns == nil {
		t.Columns = []string{}
	}
	if t.Rows == nil {
		t.Rows = [][]string{}
	}
	for i := range t.Rows {
		if t.Rows[i] == nil {
			t.Rows[i] = []string{}
		}
	}
}

// Equal reports whether two tables have the same columns and rows.
func (t Table) Equal(other Table) bool {
	if !slices.Equal(t.Columns, other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], other.Rows[i]) {
			return false
		}
	}
	return true
}

// ColumnIndex returns the index of the first column called name, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// AddColumn appends a column and an empty cell to every row.
// Duplicate names are permitted.
func (t *Table) AddColumn(name string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
}

// RemoveColumn drops the first column called name along with its cell in
// every row long enough to have one. Shorter rows are left alone.
func (t *Table) RemoveColumn(name string) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return &ColumnError{Column: name}
	}
	t.Columns = slices.Delete(t.Columns, idx, idx+1)
	for i, row := range t.Rows {
		if len(row) > idx {
			t.Rows[i] = slices.Delete(row, idx, idx+1)
		}
	}
	return nil
}

// AddRow appends a row. values must have one entry per column.
func (t *Table) AddRow(values []string) error {
	if len(values) != len(t.Columns) {
		return &ArityError{Want: len(t.Columns), Got: len(values)}
	}
	t.Rows = append(t.Rows, slices.Clone(values))
	return nil
}

// EditRow replaces row index (1-indexed).
func (t *Table) EditRow(index int, values []string) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	if len(values) != len(t.Columns) {
		return &ArityError{Want: len(t.Columns), Got: len(values)}
	}
	t.Rows[index-1] = slices.Clone(values)
	return nil
}

// EditCell sets one cell. The column is checked before the row index.
func (t *Table) EditCell(index int, column, value string) error {
	col := t.ColumnIndex(column)
	if col < 0 {
		return &ColumnError{Column: column}
	}
	if err := t.checkIndex(index); err != nil {
		return err
	}
	row := t.Rows[index-1]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	t.Rows[index-1] = row
	return nil
}

// RemoveRow deletes row index (1-indexed) and returns its cells.
func (t *Table) RemoveRow(index int) ([]string, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	removed := t.Rows[index-1]
	t.Rows = slices.Delete(t.Rows, index-1, index)
	return removed, nil
}

// RenameColumn relabels the first column called oldName. Row data is untouched.
func (t *Table) RenameColumn(oldName, newName string) error {
	idx := t.ColumnIndex(oldName)
	if idx < 0 {
		return &ColumnError{Column: oldName}
	}
	t.Columns[idx] = newName
	return nil
}

// Clear removes every row and keeps the columns.
func (t *Table) Clear() {
	t.Rows = [][]string{}
}

func (t *Table) checkIndex(index int) error {
	if index < 1 || index > len(t.Rows) {
		return &RangeError{Index: index, Rows: len(t.Rows)}
	}
	return nil
}
