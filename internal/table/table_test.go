package table

import (
	"errors"
	"slices"
	"testing"
)

func sampleTable() Table {
	return Table{
		Columns: []string{"name", "age"},
		Rows: [][]string{
			{"Alice", "20"},
			{"Bob", "31"},
			{"Carol", "47"},
		},
	}
}

func checkWidths(t *testing.T, tbl Table) {
	t.Helper()
	for i, row := range tbl.Rows {
		if len(row) != len(tbl.Columns) {
			t.Errorf("row %d has %d cells, want %d", i+1, len(row), len(tbl.Columns))
		}
	}
}

func TestAddColumn(t *testing.T) {
	tbl := sampleTable()
	tbl.AddColumn("city")

	if got := tbl.Columns[len(tbl.Columns)-1]; got != "city" {
		t.Errorf("last column = %q, want %q", got, "city")
	}
	checkWidths(t, tbl)
	for i, row := range tbl.Rows {
		if row[2] != "" {
			t.Errorf("row %d new cell = %q, want empty", i+1, row[2])
		}
	}

	// Duplicate names are allowed.
	tbl.AddColumn("city")
	if len(tbl.Columns) != 4 {
		t.Errorf("got %d columns, want 4", len(tbl.Columns))
	}
	checkWidths(t, tbl)
}

func TestAddColumn_EmptyTable(t *testing.T) {
	tbl := New()
	tbl.AddColumn("a")
	tbl.AddColumn("b")
	if !slices.Equal(tbl.Columns, []string{"a", "b"}) {
		t.Errorf("columns = %v", tbl.Columns)
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("rows = %v, want none", tbl.Rows)
	}
}

func TestRemoveColumn(t *testing.T) {
	tbl := sampleTable()
	if err := tbl.RemoveColumn("name"); err != nil {
		t.Fatalf("RemoveColumn: %v", err)
	}
	if !slices.Equal(tbl.Columns, []string{"age"}) {
		t.Errorf("columns = %v, want [age]", tbl.Columns)
	}
	want := [][]string{{"20"}, {"31"}, {"47"}}
	for i := range want {
		if !slices.Equal(tbl.Rows[i], want[i]) {
			t.Errorf("row %d = %v, want %v", i+1, tbl.Rows[i], want[i])
		}
	}
}

func TestRemoveColumn_FirstDuplicate(t *testing.T) {
	tbl := Table{
		Columns: []string{"x", "y", "x"},
		Rows:    [][]string{{"1", "2", "3"}},
	}
	if err := tbl.RemoveColumn("x"); err != nil {
		t.Fatalf("RemoveColumn: %v", err)
	}
	if !slices.Equal(tbl.Columns, []string{"y", "x"}) {
		t.Errorf("columns = %v", tbl.Columns)
	}
	if !slices.Equal(tbl.Rows[0], []string{"2", "3"}) {
		t.Errorf("row = %v", tbl.Rows[0])
	}
}

func TestRemoveColumn_ShortRowsUntouched(t *testing.T) {
	tbl := Table{
		Columns: []string{"a", "b", "c"},
		Rows: [][]string{
			{"1", "2", "3"},
			{"4"},
		},
	}
	if err := tbl.RemoveColumn("c"); err != nil {
		t.Fatalf("RemoveColumn: %v", err)
	}
	if !slices.Equal(tbl.Rows[0], []string{"1", "2"}) {
		t.Errorf("row 1 = %v", tbl.Rows[0])
	}
	if !slices.Equal(tbl.Rows[1], []string{"4"}) {
		t.Errorf("short row changed: %v", tbl.Rows[1])
	}
}

func TestRemoveColumn_NotFound(t *testing.T) {
	tbl := sampleTable()
	before := tbl.Clone()

	err := tbl.RemoveColumn("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !IsColumnNotFound(err) {
		t.Error("IsColumnNotFound() = false")
	}
	if !tbl.Equal(before) {
		t.Error("table changed after failed RemoveColumn")
	}
}

func TestAddRow(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		wantErr error
	}{
		{name: "exact arity", values: []string{"Dave", "52"}},
		{name: "too few", values: []string{"Dave"}, wantErr: ErrArityMismatch},
		{name: "too many", values: []string{"Dave", "52", "x"}, wantErr: ErrArityMismatch},
		{name: "none", values: nil, wantErr: ErrArityMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := sampleTable()
			before := tbl.Clone()

			err := tbl.AddRow(tt.values)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if !tbl.Equal(before) {
					t.Error("table changed after failed AddRow")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tbl.Rows) != 3+1 {
				t.Fatalf("got %d rows, want 4", len(tbl.Rows))
			}
			if !slices.Equal(tbl.Rows[3], tt.values) {
				t.Errorf("appended row = %v, want %v", tbl.Rows[3], tt.values)
			}
		})
	}
}

func TestAddRow_ArityDetail(t *testing.T) {
	tbl := sampleTable()
	err := tbl.AddRow([]string{"only"})

	var arity *ArityError
	if !errors.As(err, &arity) {
		t.Fatalf("err = %T, want *ArityError", err)
	}
	if arity.Want != 2 || arity.Got != 1 {
		t.Errorf("ArityError = %+v, want Want=2 Got=1", arity)
	}
}

func TestAddRow_CopiesValues(t *testing.T) {
	tbl := sampleTable()
	values := []string{"Eve", "9"}
	if err := tbl.AddRow(values); err != nil {
		t.Fatal(err)
	}
	values[0] = "mutated"
	if tbl.Rows[3][0] != "Eve" {
		t.Error("table shares storage with caller slice")
	}
}

func TestIndexBounds(t *testing.T) {
	for _, index := range []int{-1, 0, 4, 100} {
		tbl := sampleTable()
		before := tbl.Clone()

		if err := tbl.EditRow(index, []string{"x", "y"}); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("EditRow(%d) err = %v, want ErrOutOfRange", index, err)
		}
		if err := tbl.EditCell(index, "age", "1"); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("EditCell(%d) err = %v, want ErrOutOfRange", index, err)
		}
		if _, err := tbl.RemoveRow(index); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("RemoveRow(%d) err = %v, want ErrOutOfRange", index, err)
		}
		if !tbl.Equal(before) {
			t.Errorf("table changed after out-of-range index %d", index)
		}
	}
}

func TestEditRow(t *testing.T) {
	tbl := sampleTable()
	if err := tbl.EditRow(2, []string{"Robert", "32"}); err != nil {
		t.Fatalf("EditRow: %v", err)
	}
	if !slices.Equal(tbl.Rows[1], []string{"Robert", "32"}) {
		t.Errorf("row 2 = %v", tbl.Rows[1])
	}

	before := tbl.Clone()
	if err := tbl.EditRow(1, []string{"x"}); !errors.Is(err, ErrArityMismatch) {
		t.Errorf("err = %v, want ErrArityMismatch", err)
	}
	if !tbl.Equal(before) {
		t.Error("table changed after failed EditRow")
	}
}

func TestEditCell(t *testing.T) {
	tbl := sampleTable()
	if err := tbl.EditCell(3, "age", "48"); err != nil {
		t.Fatalf("EditCell: %v", err)
	}
	if tbl.Rows[2][1] != "48" {
		t.Errorf("cell = %q, want 48", tbl.Rows[2][1])
	}
	if tbl.Rows[2][0] != "Carol" {
		t.Errorf("neighbouring cell changed: %q", tbl.Rows[2][0])
	}
}

func TestEditCell_ColumnCheckedFirst(t *testing.T) {
	tbl := sampleTable()
	err := tbl.EditCell(99, "missing", "x")
	if !IsColumnNotFound(err) {
		t.Errorf("err = %v, want column not found", err)
	}
}

func TestRemoveRow(t *testing.T) {
	tbl := sampleTable()
	removed, err := tbl.RemoveRow(1)
	if err != nil {
		t.Fatalf("RemoveRow: %v", err)
	}
	if !slices.Equal(removed, []string{"Alice", "20"}) {
		t.Errorf("removed = %v", removed)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0][0] != "Bob" {
		t.Errorf("rows after removal = %v", tbl.Rows)
	}
}

func TestRenameColumn(t *testing.T) {
	tbl := sampleTable()
	before := tbl.Clone()

	if err := tbl.RenameColumn("age", "years"); err != nil {
		t.Fatalf("RenameColumn: %v", err)
	}
	if tbl.ColumnIndex("years") != 1 {
		t.Errorf("years at index %d, want 1", tbl.ColumnIndex("years"))
	}
	for i := range tbl.Rows {
		if !slices.Equal(tbl.Rows[i], before.Rows[i]) {
			t.Errorf("row %d changed: %v", i+1, tbl.Rows[i])
		}
	}

	if err := tbl.RenameColumn("age", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClear(t *testing.T) {
	tbl := sampleTable()
	tbl.Clear()
	if len(tbl.Rows) != 0 {
		t.Errorf("rows = %v, want none", tbl.Rows)
	}
	if !slices.Equal(tbl.Columns, []string{"name", "age"}) {
		t.Errorf("columns = %v", tbl.Columns)
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := sampleTable()
	cp := tbl.Clone()
	cp.Rows[0][0] = "changed"
	cp.Columns[0] = "changed"
	if tbl.Rows[0][0] != "Alice" || tbl.Columns[0] != "name" {
		t.Error("Clone shares storage with original")
	}
}

func TestNormalize(t *testing.T) {
	tbl := Table{Rows: [][]string{nil}}
	tbl.Normalize()
	if tbl.Columns == nil || tbl.Rows[0] == nil {
		t.Errorf("Normalize left nil slices: %#v", tbl)
	}
}
