package table

import (
	"errors"
	"fmt"

	"github.com/loomdb/loomdb/internal/engine/btree"
	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/hashindex"
	"github.com/loomdb/loomdb/internal/engine/row"
	"github.com/loomdb/loomdb/internal/logging"
)

var log = logging.GetLogger("table")

var (
	// ErrSchemaMismatch is returned by Insert when the row's cell count
	// does not equal the table's column count.
	ErrSchemaMismatch = errors.New("table: row width does not match schema")

	// ErrDuplicateKey is returned by Insert when the row's id is already
	// indexed.
	ErrDuplicateKey = errors.New("table: duplicate row id")
)

// btreeDegree is the degree used for every primary B+ tree index.
const btreeDegree = 4

// RecordLocator identifies a row's storage position. PageID and SlotID
// are placeholder zeros in this in-memory engine; Row is a non-owning
// handle whose lifetime is the owning table.
type RecordLocator struct {
	PageID int64
	SlotID int64
	Row    *row.Row
}

// InvalidLocator is the sentinel returned by index lookups that find
// nothing: all position fields negative, no row handle.
var InvalidLocator = RecordLocator{PageID: -1, SlotID: -1}

// Valid reports whether the locator points at a row.
func (l RecordLocator) Valid() bool {
	return l.Row != nil
}

// Table is a named schema plus rows and the two primary indexes. The
// schema (parallel column name and type sequences) is immutable after
// construction.
type Table struct {
	name    string
	columns []string
	types   []cell.Tag

	rows  []*row.Row
	hash  *hashindex.HashIndex[*row.Row]
	btree *btree.BPlusTree[RecordLocator]
}

// New constructs an empty table. Column names and types must be parallel
// sequences of equal length; names must be unique within the table.
func New(name string, columns []string, types []cell.Tag) (*Table, error) {
	if len(columns) != len(types) {
		return nil, fmt.Errorf("table %q: %d columns but %d types", name, len(columns), len(types))
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("table %q: duplicate column %q", name, c)
		}
		seen[c] = true
	}

	bt, err := btree.New[RecordLocator](btreeDegree)
	if err != nil {
		return nil, err
	}

	t := &Table{
		name:    name,
		columns: append([]string(nil), columns...),
		types:   append([]cell.Tag(nil), types...),
		hash:    hashindex.New[*row.Row](),
		btree:   bt,
	}
	return t, nil
}

// NewMerged constructs an empty table whose schema allows duplicate
// column names, as produced by a join of two inputs that share names.
// Everything else behaves like New.
func NewMerged(name string, columns []string, types []cell.Tag) (*Table, error) {
	if len(columns) != len(types) {
		return nil, fmt.Errorf("table %q: %d columns but %d types", name, len(columns), len(types))
	}
	bt, err := btree.New[RecordLocator](btreeDegree)
	if err != nil {
		return nil, err
	}
	return &Table{
		name:    name,
		columns: append([]string(nil), columns...),
		types:   append([]cell.Tag(nil), types...),
		hash:    hashindex.New[*row.Row](),
		btree:   bt,
	}, nil
}

// Name returns the table's name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns the schema's column names in declaration order.
func (t *Table) Columns() []string {
	return t.columns
}

// Types returns the schema's column type tags in declaration order.
func (t *Table) Types() []cell.Tag {
	return t.types
}

// ColumnIndex resolves a column name to its zero-based position, or -1
// if the name is not in the schema. Duplicate names (merged join
// schemas) resolve to the first match.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RowCount returns the number of rows stored.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// Rows returns the stored rows in insertion order. The returned slice
// is shared with the table; callers must not mutate it.
func (t *Table) Rows() []*row.Row {
	return t.rows
}

// Insert appends a row and updates both primary indexes. It fails with
// ErrSchemaMismatch if the row's width differs from the column count
// and ErrDuplicateKey if the id is already present; on failure nothing
// is modified.
func (t *Table) Insert(r *row.Row) error {
	if r == nil {
		return fmt.Errorf("table %q: insert of nil row", t.name)
	}
	if r.Width() != len(t.columns) {
		return fmt.Errorf("%w: table %q has %d columns, row %d has %d cells",
			ErrSchemaMismatch, t.name, len(t.columns), r.ID(), r.Width())
	}
	if _, exists := t.hash.Search(r.ID()); exists {
		return fmt.Errorf("%w: table %q already holds id %d", ErrDuplicateKey, t.name, r.ID())
	}

	t.rows = append(t.rows, r)
	t.hash.Insert(r.ID(), r)
	t.btree.Insert(r.ID(), RecordLocator{Row: r})

	t.checkConsistency()
	return nil
}

// GetByID returns the row with the given id via the hash index, or nil
// if absent.
func (t *Table) GetByID(id int64) *row.Row {
	r, ok := t.hash.Search(id)
	if !ok {
		return nil
	}
	return r
}

// Locate returns the B+ tree locator for id, or InvalidLocator if the
// id is not indexed.
func (t *Table) Locate(id int64) RecordLocator {
	loc, ok := t.btree.Search(id)
	if !ok {
		return InvalidLocator
	}
	return loc
}

// Remove deletes the row with the given id from both indexes and the
// row sequence. Removing an absent id is a logged no-op.
func (t *Table) Remove(id int64) {
	if _, exists := t.hash.Search(id); !exists {
		log.Debug("remove of absent id", "table", t.name, "id", id)
		return
	}

	t.hash.Remove(id)
	t.btree.Delete(id)
	for i, r := range t.rows {
		if r.ID() == id {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			break
		}
	}

	t.checkConsistency()
}

// HashIndex exposes the primary hash index to the query planner.
func (t *Table) HashIndex() *hashindex.HashIndex[*row.Row] {
	return t.hash
}

// BTree exposes the primary B+ tree index to the query planner.
func (t *Table) BTree() *btree.BPlusTree[RecordLocator] {
	return t.btree
}

// checkConsistency asserts that both indexes agree with the row
// sequence. Disagreement indicates a bug, not a recoverable condition.
func (t *Table) checkConsistency() {
	if len(t.rows) != t.hash.Size() || len(t.rows) != t.btree.Size() {
		log.Error("index disagreement",
			"table", t.name,
			"rows", len(t.rows),
			"hash", t.hash.Size(),
			"btree", t.btree.Size())
		panic(fmt.Sprintf("table %q: index disagreement: rows=%d hash=%d btree=%d",
			t.name, len(t.rows), t.hash.Size(), t.btree.Size()))
	}
}
