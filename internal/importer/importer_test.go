package importer

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/loomdb/loomdb/internal/engine/cell"
)

func newFixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`
		CREATE TABLE products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			price REAL
		)
	`); err != nil {
		t.Fatal(err)
	}
	for _, p := range []struct {
		id    int64
		name  string
		price any
	}{{10, "widget", 9.5}, {20, "gadget", 3.0}, {30, "nothing", nil}} {
		if _, err := db.Exec(
			"INSERT INTO products (id, name, price) VALUES (?, ?, ?)",
			p.id, p.name, p.price); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestImportTable(t *testing.T) {
	path := newFixtureDB(t)

	tbl, err := ImportTable(path, "products")
	if err != nil {
		t.Fatal(err)
	}

	wantCols := []string{"id", "name", "price"}
	for i, c := range wantCols {
		if tbl.Columns()[i] != c {
			t.Fatalf("columns = %v, want %v", tbl.Columns(), wantCols)
		}
	}
	wantTypes := []cell.Tag{cell.Integer, cell.Text, cell.Float}
	for i, tag := range wantTypes {
		if tbl.Types()[i] != tag {
			t.Fatalf("types = %v, want %v", tbl.Types(), wantTypes)
		}
	}

	if tbl.RowCount() != 3 {
		t.Fatalf("RowCount = %d, want 3", tbl.RowCount())
	}
	// Row ids come from the id column, and both indexes are built.
	r := tbl.GetByID(20)
	if r == nil {
		t.Fatal("GetByID(20) nil")
	}
	c, _ := r.At(1)
	if c.Display() != "gadget" {
		t.Fatalf("name = %q, want gadget", c.Display())
	}
	if loc := tbl.Locate(30); !loc.Valid() {
		t.Fatal("Locate(30) invalid; btree not built")
	}

	// NULL price lands as the tag's zero value.
	nullRow := tbl.GetByID(30)
	pc, _ := nullRow.At(2)
	if pc.Tag() != cell.Float {
		t.Fatalf("null price tag = %v, want Float", pc.Tag())
	}
}

func TestImportUnknownTable(t *testing.T) {
	path := newFixtureDB(t)
	if _, err := ImportTable(path, "ghosts"); err == nil {
		t.Fatal("import of unknown table should fail")
	}
}
