package persistence

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/row"
	"github.com/loomdb/loomdb/internal/engine/store"
	"github.com/loomdb/loomdb/internal/engine/table"
	"github.com/loomdb/loomdb/internal/testutil"
)

func newUsers(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New("users",
		[]string{"id", "name", "score"},
		[]cell.Tag{cell.Integer, cell.Text, cell.Float})
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []struct {
		id    int64
		name  string
		score float64
	}{{1, "Ali Veli", 12.5}, {2, "Zeynep Kaya", 99.0}} {
		r := row.New(u.id)
		r.AppendInt(u.id)
		r.AppendText(u.name)
		r.AppendFloat(u.score)
		if err := tbl.Insert(r); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

func TestSaveDocumentShape(t *testing.T) {
	data, err := Save(newUsers(t))
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["table_name"] != "users" {
		t.Fatalf("table_name = %v", doc["table_name"])
	}
	types, ok := doc["column_types"].([]any)
	if !ok || len(types) != 3 {
		t.Fatalf("column_types = %v", doc["column_types"])
	}
	if types[0] != "INT" || types[1] != "STRING" || types[2] != "DOUBLE" {
		t.Fatalf("column_types = %v", types)
	}
	rows, ok := doc["rows"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("rows = %v", doc["rows"])
	}
	first := rows[0].([]any)
	if first[0] != float64(1) || first[1] != "Ali Veli" || first[2] != 12.5 {
		t.Fatalf("first row = %v", first)
	}
}

func TestRoundTripRebuildsIndexes(t *testing.T) {
	original := newUsers(t)
	data, err := Save(original)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertTablesEqual(t, original, loaded)
	// Both indexes must be rebuilt by the document-order inserts.
	if loaded.HashIndex().Size() != 2 || loaded.BTree().Size() != 2 {
		t.Fatalf("index sizes hash=%d btree=%d, want 2",
			loaded.HashIndex().Size(), loaded.BTree().Size())
	}
	if r := loaded.GetByID(2); r == nil {
		t.Fatal("GetByID(2) nil after load")
	}
}

func TestLoadUsesIDColumn(t *testing.T) {
	loaded, err := Load([]byte(`{
		"table_name": "t",
		"columns": ["id", "v"],
		"column_types": ["INT", "STRING"],
		"rows": [[7, "a"], [3, "b"]]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.GetByID(7) == nil || loaded.GetByID(3) == nil {
		t.Fatal("row ids should come from the id column")
	}
}

func TestLoadSequentialIDsWithoutIDColumn(t *testing.T) {
	loaded, err := Load([]byte(`{
		"table_name": "t",
		"columns": ["v"],
		"column_types": ["STRING"],
		"rows": [["a"], ["b"]]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.GetByID(1) == nil || loaded.GetByID(2) == nil {
		t.Fatal("row ids should follow document order")
	}
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	cases := []string{
		`not json`,
		`{"columns": ["a"], "column_types": ["INT"], "rows": []}`,
		`{"table_name": "t", "columns": ["a", "b"], "column_types": ["INT"], "rows": []}`,
		`{"table_name": "t", "columns": ["a"], "column_types": ["BLOB"], "rows": []}`,
		`{"table_name": "t", "columns": ["a"], "column_types": ["INT"], "rows": [["text"]]}`,
		`{"table_name": "t", "columns": ["id"], "column_types": ["INT"], "rows": [[1], [1]]}`,
	}
	for _, data := range cases {
		if _, err := Load([]byte(data)); !errors.Is(err, ErrBadDocument) {
			t.Errorf("Load(%s) = %v, want ErrBadDocument", data, err)
		}
	}
}

func TestLoadYAMLFixture(t *testing.T) {
	loaded, err := LoadYAML([]byte(`
table_name: items
columns: [id, price]
column_types: [INT, DOUBLE]
rows:
  - [1, 9.0]
  - [2, 3.5]
`))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.RowCount() != 2 {
		t.Fatalf("RowCount = %d, want 2", loaded.RowCount())
	}
	r := loaded.GetByID(2)
	if r == nil {
		t.Fatal("GetByID(2) nil")
	}
	c, _ := r.At(1)
	if c.Tag() != cell.Float {
		t.Fatalf("price tag = %v, want Float", c.Tag())
	}
}

func TestStoreRoundTripFile(t *testing.T) {
	s := store.New()
	if err := s.Add(newUsers(t)); err != nil {
		t.Fatal(err)
	}
	other, err := table.New("empty", []string{"k"}, []cell.Tag{cell.Integer})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(other); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "db.json")
	if err := SaveStoreFile(s, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadStoreFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(loaded.Names()) != 2 {
		t.Fatalf("Names = %v", loaded.Names())
	}
	testutil.AssertTablesEqual(t, s.Get("users"), loaded.Get("users"))
}
