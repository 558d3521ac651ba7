package row

import (
	"errors"
	"fmt"

	"github.com/loomdb/loomdb/internal/engine/cell"
)

// ErrIndexOutOfRange is returned by At when the requested position is
// beyond the row's cell count.
var ErrIndexOutOfRange = errors.New("row: index out of range")

// Row is an identifier plus an ordered sequence of cells. The id is
// immutable once the row is constructed; cells are appended in order and
// never reordered or removed individually.
type Row struct {
	id    int64
	cells []cell.Cell
}

// New constructs an empty row with the given externally supplied id.
func New(id int64) *Row {
	return &Row{id: id}
}

// NewWithCells constructs a row already populated with cells, in the
// order given.
func NewWithCells(id int64, cells []cell.Cell) *Row {
	r := &Row{id: id, cells: make([]cell.Cell, len(cells))}
	copy(r.cells, cells)
	return r
}

// ID returns the row's identifier.
func (r *Row) ID() int64 {
	return r.id
}

// Append adds a cell to the end of the row.
func (r *Row) Append(c cell.Cell) {
	r.cells = append(r.cells, c)
}

// AppendInt is a convenience wrapper around Append(cell.NewInt(v)).
func (r *Row) AppendInt(v int64) {
	r.Append(cell.NewInt(v))
}

// AppendFloat is a convenience wrapper around Append(cell.NewFloat(v)).
func (r *Row) AppendFloat(v float64) {
	r.Append(cell.NewFloat(v))
}

// AppendText is a convenience wrapper around Append(cell.NewText(v)).
func (r *Row) AppendText(v string) {
	r.Append(cell.NewText(v))
}

// At returns the cell at the given zero-based index, or
// ErrIndexOutOfRange if index is beyond the row's width.
func (r *Row) At(index int) (cell.Cell, error) {
	if index < 0 || index >= len(r.cells) {
		return cell.Cell{}, fmt.Errorf("%w: index %d, width %d", ErrIndexOutOfRange, index, len(r.cells))
	}
	return r.cells[index], nil
}

// Width returns the number of cells currently held by the row. A row
// appended-to past its table's schema length keeps the extra cells; the
// schema-violation is flagged at query time, not here.
func (r *Row) Width() int {
	return len(r.cells)
}

// Cells returns the row's cells in insertion order. The slice is a copy;
// mutating it does not affect the row.
func (r *Row) Cells() []cell.Cell {
	out := make([]cell.Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// Clone performs a cell-by-cell deep copy, used by join and projection
// stages that must not share storage with their source row.
func (r *Row) Clone() *Row {
	return NewWithCells(r.id, r.cells)
}
