package table

import (
	"errors"
	"testing"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/row"
)

func newUsers(t *testing.T) *Table {
	t.Helper()
	tbl, err := New("users",
		[]string{"id", "name", "age"},
		[]cell.Tag{cell.Integer, cell.Text, cell.Integer})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func insertUser(t *testing.T, tbl *Table, id int64, name string, age int64) {
	t.Helper()
	r := row.New(id)
	r.AppendInt(id)
	r.AppendText(name)
	r.AppendInt(age)
	if err := tbl.Insert(r); err != nil {
		t.Fatalf("Insert(%d): %v", id, err)
	}
}

// checkAgreement asserts the table invariant: row count equals
// both index cardinalities, and every stored row is reachable through
// both indexes.
func checkAgreement(t *testing.T, tbl *Table) {
	t.Helper()
	if tbl.RowCount() != tbl.HashIndex().Size() || tbl.RowCount() != tbl.BTree().Size() {
		t.Fatalf("cardinality disagreement: rows=%d hash=%d btree=%d",
			tbl.RowCount(), tbl.HashIndex().Size(), tbl.BTree().Size())
	}
	for _, r := range tbl.Rows() {
		if got := tbl.GetByID(r.ID()); got != r {
			t.Fatalf("GetByID(%d) = %v, want stored row", r.ID(), got)
		}
		if loc := tbl.Locate(r.ID()); loc.Row != r {
			t.Fatalf("Locate(%d).Row = %v, want stored row", r.ID(), loc.Row)
		}
	}
}

func TestInsertAndLookup(t *testing.T) {
	tbl := newUsers(t)
	insertUser(t, tbl, 1, "Ali Veli", 25)
	insertUser(t, tbl, 2, "Zeynep Kaya", 30)
	checkAgreement(t, tbl)

	if tbl.GetByID(3) != nil {
		t.Fatal("GetByID(3) should be nil for absent id")
	}
	if loc := tbl.Locate(3); loc.Valid() {
		t.Fatalf("Locate(3) = %+v, want invalid", loc)
	}
}

func TestInsertDuplicateKey(t *testing.T) {
	tbl := newUsers(t)
	insertUser(t, tbl, 1, "Ali Veli", 25)

	r := row.New(1)
	r.AppendInt(1)
	r.AppendText("Impostor")
	r.AppendInt(99)
	err := tbl.Insert(r)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("Insert dup = %v, want ErrDuplicateKey", err)
	}
	// Failed insert must not have touched anything.
	checkAgreement(t, tbl)
	if tbl.RowCount() != 1 {
		t.Fatalf("RowCount = %d after rejected insert, want 1", tbl.RowCount())
	}
}

func TestInsertSchemaMismatch(t *testing.T) {
	tbl := newUsers(t)
	r := row.New(1)
	r.AppendInt(1)
	// only one of three cells
	err := tbl.Insert(r)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Insert narrow row = %v, want ErrSchemaMismatch", err)
	}
	if tbl.RowCount() != 0 {
		t.Fatalf("RowCount = %d after rejected insert, want 0", tbl.RowCount())
	}
}

func TestRemove(t *testing.T) {
	tbl := newUsers(t)
	for i := int64(1); i <= 10; i++ {
		insertUser(t, tbl, i, "row", 20+i)
	}

	tbl.Remove(5)
	checkAgreement(t, tbl)
	if tbl.RowCount() != 9 {
		t.Fatalf("RowCount = %d, want 9", tbl.RowCount())
	}
	if tbl.GetByID(5) != nil {
		t.Fatal("GetByID(5) should be nil after Remove")
	}

	// Removing an absent id is a no-op.
	tbl.Remove(5)
	tbl.Remove(999)
	checkAgreement(t, tbl)
	if tbl.RowCount() != 9 {
		t.Fatalf("RowCount = %d after no-op removes, want 9", tbl.RowCount())
	}
}

func TestInsertRemoveChurn(t *testing.T) {
	tbl := newUsers(t)
	for i := int64(0); i < 200; i++ {
		insertUser(t, tbl, i, "row", i)
	}
	for i := int64(0); i < 200; i += 3 {
		tbl.Remove(i)
	}
	checkAgreement(t, tbl)
	for i := int64(0); i < 200; i++ {
		got := tbl.GetByID(i)
		if i%3 == 0 && got != nil {
			t.Fatalf("id %d should be removed", i)
		}
		if i%3 != 0 && got == nil {
			t.Fatalf("id %d should be present", i)
		}
	}
}

func TestDuplicateColumnRejected(t *testing.T) {
	_, err := New("bad", []string{"a", "a"}, []cell.Tag{cell.Integer, cell.Integer})
	if err == nil {
		t.Fatal("New with duplicate column names should fail")
	}
}

func TestColumnIndex(t *testing.T) {
	tbl := newUsers(t)
	if got := tbl.ColumnIndex("name"); got != 1 {
		t.Fatalf("ColumnIndex(name) = %d, want 1", got)
	}
	if got := tbl.ColumnIndex("missing"); got != -1 {
		t.Fatalf("ColumnIndex(missing) = %d, want -1", got)
	}
}

func TestRowIterationOrder(t *testing.T) {
	tbl := newUsers(t)
	insertUser(t, tbl, 3, "c", 1)
	insertUser(t, tbl, 1, "a", 2)
	insertUser(t, tbl, 2, "b", 3)

	want := []int64{3, 1, 2}
	for i, r := range tbl.Rows() {
		if r.ID() != want[i] {
			t.Fatalf("Rows()[%d].ID = %d, want %d (insertion order)", i, r.ID(), want[i])
		}
	}
}
