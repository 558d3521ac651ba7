package join

import (
	"errors"
	"fmt"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/query"
	"github.com/loomdb/loomdb/internal/engine/row"
	"github.com/loomdb/loomdb/internal/engine/table"
	"github.com/loomdb/loomdb/internal/logging"
)

var log = logging.GetLogger("join")

// ErrUnknownColumn is returned when a join column name resolves in
// neither input schema.
var ErrUnknownColumn = errors.New("join: unknown column")

// nestedLoopThreshold is the row count at or above which either input
// switches the dispatch to the hash operator. A tuning knob, not
// semantics: both operators produce the same multiset for INNER.
const nestedLoopThreshold = 100

// nullText pads the missing side of an outer-join row.
const nullText = "NULL"

// Execute resolves the spec's column names against both schemas and
// dispatches to nested-loop or hash join by input size. The result
// schema is the left columns followed by the right columns; result rows
// are cell-by-cell copies owned by the result table.
func Execute(left, right *table.Table, spec query.JoinSpec) (*table.Table, error) {
	leftIdx := left.ColumnIndex(spec.LeftColumn)
	if leftIdx < 0 {
		return nil, fmt.Errorf("%w: %q not in table %q", ErrUnknownColumn, spec.LeftColumn, left.Name())
	}
	rightIdx := right.ColumnIndex(spec.RightColumn)
	if rightIdx < 0 {
		return nil, fmt.Errorf("%w: %q not in table %q", ErrUnknownColumn, spec.RightColumn, right.Name())
	}

	result, err := mergedResult(left, right)
	if err != nil {
		return nil, err
	}

	if left.RowCount() < nestedLoopThreshold && right.RowCount() < nestedLoopThreshold {
		log.Debug("nested-loop join",
			"left", left.Name(), "right", right.Name(),
			"left_rows", left.RowCount(), "right_rows", right.RowCount())
		nestedLoop(result, left, right, leftIdx, rightIdx, spec.Kind)
	} else {
		log.Debug("hash join",
			"left", left.Name(), "right", right.Name(),
			"left_rows", left.RowCount(), "right_rows", right.RowCount())
		hashJoin(result, left, right, leftIdx, rightIdx, spec.Kind)
	}
	return result, nil
}

// mergedResult builds an empty result table whose schema concatenates
// left and right columns. Name collisions across the inputs are kept.
func mergedResult(left, right *table.Table) (*table.Table, error) {
	columns := append(append([]string(nil), left.Columns()...), right.Columns()...)
	types := append(append([]cell.Tag(nil), left.Types()...), right.Types()...)
	return table.NewMerged(left.Name()+"_"+right.Name(), columns, types)
}

// canonicalKey converts a join cell to its textual form so that values
// of different tags compare on a common domain. The ok result is false
// for an unsupported tag, which skips the row.
func canonicalKey(c cell.Cell) (string, bool) {
	switch c.Tag() {
	case cell.Integer, cell.Float, cell.Text:
		return c.Display(), true
	default:
		return "", false
	}
}

// emitter assigns sequential ids to result rows as they are produced.
type emitter struct {
	result *table.Table
	nextID int64
}

func (e *emitter) combined(left, right *row.Row) {
	out := row.New(e.nextID)
	e.nextID++
	for _, c := range left.Cells() {
		out.Append(c)
	}
	for _, c := range right.Cells() {
		out.Append(c)
	}
	if err := e.result.Insert(out); err != nil {
		panic(fmt.Sprintf("join: result insert failed: %v", err))
	}
}

func (e *emitter) leftOnly(left *row.Row, rightWidth int) {
	out := row.New(e.nextID)
	e.nextID++
	for _, c := range left.Cells() {
		out.Append(c)
	}
	for i := 0; i < rightWidth; i++ {
		out.AppendText(nullText)
	}
	if err := e.result.Insert(out); err != nil {
		panic(fmt.Sprintf("join: result insert failed: %v", err))
	}
}

func (e *emitter) rightOnly(right *row.Row, leftWidth int) {
	out := row.New(e.nextID)
	e.nextID++
	for i := 0; i < leftWidth; i++ {
		out.AppendText(nullText)
	}
	for _, c := range right.Cells() {
		out.Append(c)
	}
	if err := e.result.Insert(out); err != nil {
		panic(fmt.Sprintf("join: result insert failed: %v", err))
	}
}

// nestedLoop scans all right rows for each left row, emitting a
// combined row on key equality. Output order is (left outer, right
// inner). LEFT and FULL pad unmatched left rows; RIGHT and FULL pad
// unmatched right rows after the scan.
func nestedLoop(result, left, right *table.Table, leftIdx, rightIdx int, kind query.JoinKind) {
	e := &emitter{result: result}
	leftWidth := len(left.Columns())
	rightWidth := len(right.Columns())
	rightMatched := make([]bool, right.RowCount())

	for _, lr := range left.Rows() {
		lc, err := lr.At(leftIdx)
		if err != nil {
			continue
		}
		lk, ok := canonicalKey(lc)
		if !ok {
			continue
		}

		matched := false
		for ri, rr := range right.Rows() {
			rc, err := rr.At(rightIdx)
			if err != nil {
				continue
			}
			rk, ok := canonicalKey(rc)
			if !ok {
				continue
			}
			if lk == rk {
				e.combined(lr, rr)
				matched = true
				rightMatched[ri] = true
			}
		}

		if !matched && (kind == query.Left || kind == query.Full) {
			e.leftOnly(lr, rightWidth)
		}
	}

	if kind == query.Right || kind == query.Full {
		for ri, rr := range right.Rows() {
			if !rightMatched[ri] {
				e.rightOnly(rr, leftWidth)
			}
		}
	}
}

// hashJoin builds a chained hash table over the left rows, then probes
// it with each right row, emitting one combined row per chain match.
// Output order is (right outer, chain order of matching left rows).
func hashJoin(result, left, right *table.Table, leftIdx, rightIdx int, kind query.JoinKind) {
	e := &emitter{result: result}
	leftWidth := len(left.Columns())
	rightWidth := len(right.Columns())

	// Build phase: key every left row by its canonicalized join cell.
	build := make(map[string][]*row.Row, left.RowCount())
	for _, lr := range left.Rows() {
		lc, err := lr.At(leftIdx)
		if err != nil {
			continue
		}
		lk, ok := canonicalKey(lc)
		if !ok {
			continue
		}
		build[lk] = append(build[lk], lr)
	}

	leftMatched := make(map[*row.Row]bool)

	// Probe phase.
	for _, rr := range right.Rows() {
		rc, err := rr.At(rightIdx)
		if err != nil {
			continue
		}
		rk, ok := canonicalKey(rc)
		if !ok {
			continue
		}
		chain := build[rk]
		for _, lr := range chain {
			e.combined(lr, rr)
			leftMatched[lr] = true
		}
		if len(chain) == 0 && (kind == query.Right || kind == query.Full) {
			e.rightOnly(rr, leftWidth)
		}
	}

	if kind == query.Left || kind == query.Full {
		for _, lr := range left.Rows() {
			lc, err := lr.At(leftIdx)
			if err != nil {
				continue
			}
			if _, ok := canonicalKey(lc); !ok {
				continue
			}
			if !leftMatched[lr] {
				e.leftOnly(lr, rightWidth)
			}
		}
	}
}
