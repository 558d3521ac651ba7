package testutil

import (
	"testing"

	"github.com/loomdb/loomdb/internal/engine/cell"
)

func TestMustTableUsesIDColumn(t *testing.T) {
	tbl := MustTable(t, "users",
		[]string{"id", "name"},
		[]cell.Tag{cell.Integer, cell.Text},
		[][]any{{5, "a"}, {9, "b"}})

	if tbl.GetByID(5) == nil || tbl.GetByID(9) == nil {
		t.Fatal("ids should come from the id column")
	}
	if tbl.RowCount() != 2 {
		t.Fatalf("RowCount = %d", tbl.RowCount())
	}
}

func TestMustTableSequentialIDs(t *testing.T) {
	tbl := MustTable(t, "t",
		[]string{"v"},
		[]cell.Tag{cell.Text},
		[][]any{{"a"}, {"b"}, {"c"}})

	for id := int64(1); id <= 3; id++ {
		if tbl.GetByID(id) == nil {
			t.Fatalf("GetByID(%d) nil", id)
		}
	}
}

func TestAssertRowMultiset(t *testing.T) {
	tbl := MustTable(t, "t",
		[]string{"id", "v"},
		[]cell.Tag{cell.Integer, cell.Text},
		[][]any{{1, "x"}, {2, "y"}})

	AssertRowMultiset(t, tbl, []string{"2|y|", "1|x|"})
}

func TestMustStore(t *testing.T) {
	a := MustTable(t, "a", []string{"id"}, []cell.Tag{cell.Integer}, nil)
	b := MustTable(t, "b", []string{"id"}, []cell.Tag{cell.Integer}, nil)
	s := MustStore(t, a, b)
	if s.Get("a") != a || s.Get("b") != b {
		t.Fatal("store lookup failed")
	}
}
