// Package testutil provides testing helpers shared across loomdb
// packages: fixture table construction and structural assertions.
package testutil

import (
	"sort"
	"strings"
	"testing"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/row"
	"github.com/loomdb/loomdb/internal/engine/store"
	"github.com/loomdb/loomdb/internal/engine/table"
)

// MustTable builds a table from a schema and literal rows, failing the
// test on any construction or insert error. Each row's first value is
// also used as its id when the first column is an INT named id;
// otherwise ids follow fixture order.
func MustTable(t *testing.T, name string, columns []string, types []cell.Tag, rows [][]any) *table.Table {
	t.Helper()
	tbl, err := table.New(name, columns, types)
	if err != nil {
		t.Fatalf("table %q: %v", name, err)
	}

	idFromFirst := len(columns) > 0 && strings.EqualFold(columns[0], "id") && types[0] == cell.Integer
	for i, values := range rows {
		if len(values) != len(columns) {
			t.Fatalf("table %q fixture row %d has %d values, schema has %d columns",
				name, i, len(values), len(columns))
		}
		id := int64(i + 1)
		if idFromFirst {
			id = asInt64(t, values[0])
		}
		r := row.New(id)
		for j, v := range values {
			r.Append(asCell(t, v, types[j]))
		}
		if err := tbl.Insert(r); err != nil {
			t.Fatalf("table %q fixture row %d: %v", name, i, err)
		}
	}
	return tbl
}

// MustStore builds a store holding the given tables.
func MustStore(t *testing.T, tables ...*table.Table) *store.Store {
	t.Helper()
	s := store.New()
	for _, tbl := range tables {
		if err := s.Add(tbl); err != nil {
			t.Fatalf("add %q: %v", tbl.Name(), err)
		}
	}
	return s
}

func asInt64(t *testing.T, v any) int64 {
	t.Helper()
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	default:
		t.Fatalf("fixture value %v (%T) is not an integer", v, v)
		return 0
	}
}

func asCell(t *testing.T, v any, tag cell.Tag) cell.Cell {
	t.Helper()
	switch tag {
	case cell.Integer:
		return cell.NewInt(asInt64(t, v))
	case cell.Float:
		switch n := v.(type) {
		case float64:
			return cell.NewFloat(n)
		case int:
			return cell.NewFloat(float64(n))
		default:
			t.Fatalf("fixture value %v (%T) is not a float", v, v)
		}
	case cell.Text:
		if s, ok := v.(string); ok {
			return cell.NewText(s)
		}
		t.Fatalf("fixture value %v (%T) is not a string", v, v)
	}
	return cell.Zero()
}

// RowKey flattens a row to a display string for order-insensitive
// comparison.
func RowKey(r *row.Row) string {
	var b strings.Builder
	for _, c := range r.Cells() {
		b.WriteString(c.Display())
		b.WriteByte('|')
	}
	return b.String()
}

// AssertTablesEqual fails unless both tables have the same schema and
// the same rows in the same order.
func AssertTablesEqual(t *testing.T, want, got *table.Table) {
	t.Helper()
	if got == nil {
		t.Fatal("got nil table")
	}
	if want.Name() != got.Name() {
		t.Fatalf("table name %q, want %q", got.Name(), want.Name())
	}
	if len(want.Columns()) != len(got.Columns()) {
		t.Fatalf("columns %v, want %v", got.Columns(), want.Columns())
	}
	for i := range want.Columns() {
		if want.Columns()[i] != got.Columns()[i] || want.Types()[i] != got.Types()[i] {
			t.Fatalf("schema differs at %d: (%s %s) vs (%s %s)",
				i, got.Columns()[i], got.Types()[i], want.Columns()[i], want.Types()[i])
		}
	}
	if want.RowCount() != got.RowCount() {
		t.Fatalf("row count %d, want %d", got.RowCount(), want.RowCount())
	}
	for i := range want.Rows() {
		w, g := want.Rows()[i], got.Rows()[i]
		if w.ID() != g.ID() || RowKey(w) != RowKey(g) {
			t.Fatalf("row %d: (%d %s) vs (%d %s)", i, g.ID(), RowKey(g), w.ID(), RowKey(w))
		}
	}
}

// AssertRowMultiset fails unless the table's rows, compared by RowKey
// and ignoring order, equal the expected keys.
func AssertRowMultiset(t *testing.T, tbl *table.Table, want []string) {
	t.Helper()
	var got []string
	for _, r := range tbl.Rows() {
		got = append(got, RowKey(r))
	}
	sort.Strings(got)
	wantSorted := append([]string(nil), want...)
	sort.Strings(wantSorted)

	if len(got) != len(wantSorted) {
		t.Fatalf("rows %v, want %v", got, wantSorted)
	}
	for i := range wantSorted {
		if got[i] != wantSorted[i] {
			t.Fatalf("rows %v, want %v", got, wantSorted)
		}
	}
}
