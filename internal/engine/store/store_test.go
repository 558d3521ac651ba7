package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/table"
)

func newTable(t *testing.T, name string) *table.Table {
	t.Helper()
	tbl, err := table.New(name, []string{"id"}, []cell.Tag{cell.Integer})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestAddGet(t *testing.T) {
	s := New()
	users := newTable(t, "users")
	if err := s.Add(users); err != nil {
		t.Fatal(err)
	}
	if s.Get("users") != users {
		t.Fatal("Get(users) did not return the added table")
	}
	if s.Get("missing") != nil {
		t.Fatal("Get(missing) should be nil")
	}
}

func TestAddNil(t *testing.T) {
	s := New()
	if err := s.Add(nil); !errors.Is(err, ErrNilTable) {
		t.Fatalf("Add(nil) = %v, want ErrNilTable", err)
	}
}

func TestOverwriteReplacesMapping(t *testing.T) {
	s := New()
	first := newTable(t, "users")
	second := newTable(t, "users")
	if err := s.Add(first); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(second); err != nil {
		t.Fatal(err)
	}
	if s.Get("users") != second {
		t.Fatal("overwrite should replace the mapping")
	}
}

func TestNamesSorted(t *testing.T) {
	s := New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Add(newTable(t, name)); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"alpha", "mid", "zeta"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}
