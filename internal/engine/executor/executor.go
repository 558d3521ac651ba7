package executor

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/loomdb/loomdb/internal/engine/cell"
	"github.com/loomdb/loomdb/internal/engine/join"
	"github.com/loomdb/loomdb/internal/engine/parser"
	"github.com/loomdb/loomdb/internal/engine/query"
	"github.com/loomdb/loomdb/internal/engine/row"
	"github.com/loomdb/loomdb/internal/engine/store"
	"github.com/loomdb/loomdb/internal/engine/table"
	"github.com/loomdb/loomdb/internal/logging"
)

var log = logging.GetLogger("executor")

// ErrUnknownTable is returned when FROM or JOIN names a table absent
// from the store.
var ErrUnknownTable = errors.New("executor: unknown table")

// Stats records what the pipeline did, for instrumentation and tests.
type Stats struct {
	// RowsExamined counts rows evaluated by the WHERE stage.
	RowsExamined int
	// IndexPushdown reports whether a primary-key equality predicate
	// was served by the hash index instead of a full scan.
	IndexPushdown bool
}

// Run parses a statement and executes it against the store.
func Run(s *store.Store, text string) (*table.Table, error) {
	q, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	return Execute(s, q)
}

// Execute drives the staged pipeline over a parsed query.
func Execute(s *store.Store, q *query.Query) (*table.Table, error) {
	result, _, err := ExecuteWithStats(s, q)
	return result, err
}

// ExecuteWithStats is Execute plus pipeline instrumentation.
func ExecuteWithStats(s *store.Store, q *query.Query) (*table.Table, *Stats, error) {
	stats := &Stats{}

	if len(q.FromTables) == 0 {
		return nil, stats, fmt.Errorf("%w: no FROM table", ErrUnknownTable)
	}
	current := s.Get(q.FromTables[0])
	if current == nil {
		return nil, stats, fmt.Errorf("%w: %q", ErrUnknownTable, q.FromTables[0])
	}

	joined := false
	for _, spec := range q.Joins {
		right := s.Get(spec.RightTable)
		if right == nil {
			return nil, stats, fmt.Errorf("%w: %q", ErrUnknownTable, spec.RightTable)
		}
		next, err := join.Execute(current, right, spec)
		if err != nil {
			return nil, stats, err
		}
		current = next
		joined = true
	}

	// Index push-down applies only while the pipeline is still on the
	// base table: a join result no longer shares the base primary key.
	if !joined {
		if pushed, ok := pushDown(current, q.Conditions); ok {
			log.Debug("index push-down", "table", current.Name())
			stats.IndexPushdown = true
			current = pushed
		}
	}

	current, err := applyWhere(current, q.Conditions, stats)
	if err != nil {
		return nil, stats, err
	}

	current, err = project(current, q.SelectColumns)
	if err != nil {
		return nil, stats, err
	}

	current = orderBy(current, q.OrderBy, q.Ascending)
	current = limitOffset(current, q.Limit, q.Offset)

	return current, stats, nil
}

// pushDown looks for a primary-key equality predicate (ID = integer
// literal) and serves it through the hash index, producing a singleton
// or empty table. The remaining predicates still run in the WHERE
// stage over that result.
func pushDown(tbl *table.Table, preds []query.Predicate) (*table.Table, bool) {
	for _, p := range preds {
		if p.Op != query.Equal || !isKeyColumn(p.Column) {
			continue
		}
		if tbl.ColumnIndex(p.Column) < 0 {
			continue
		}
		id, err := strconv.ParseInt(p.Literal, 10, 64)
		if err != nil {
			continue
		}

		result, err := emptyLike(tbl)
		if err != nil {
			return nil, false
		}
		if r := tbl.GetByID(id); r != nil {
			if err := result.Insert(r.Clone()); err != nil {
				panic(fmt.Sprintf("executor: push-down insert failed: %v", err))
			}
		}
		return result, true
	}
	return nil, false
}

func isKeyColumn(name string) bool {
	return strings.EqualFold(name, "id")
}

// applyWhere filters rows by left-folding each predicate into the
// running match: AND tightens, OR loosens, NOT tightens with the
// negation. There is no operator precedence.
func applyWhere(tbl *table.Table, preds []query.Predicate, stats *Stats) (*table.Table, error) {
	if len(preds) == 0 {
		return tbl, nil
	}

	result, err := emptyLike(tbl)
	if err != nil {
		return nil, err
	}
	for _, r := range tbl.Rows() {
		stats.RowsExamined++
		matched := true
		for _, p := range preds {
			v := evalPredicate(tbl, r, p)
			switch p.Connective {
			case query.Or:
				matched = matched || v
			case query.Not:
				matched = matched && !v
			default:
				matched = matched && v
			}
		}
		if matched {
			if err := result.Insert(r.Clone()); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// evalPredicate compares the named column's cell against the literal.
// An unknown column or unreadable cell makes the predicate false for
// that row; the error stays local and execution continues.
func evalPredicate(tbl *table.Table, r *row.Row, p query.Predicate) bool {
	idx := tbl.ColumnIndex(p.Column)
	if idx < 0 {
		log.Debug("unknown column in WHERE", "table", tbl.Name(), "column", p.Column)
		return false
	}
	c, err := r.At(idx)
	if err != nil {
		return false
	}
	cellText := c.Display()

	if p.Op == query.Like {
		return strings.Contains(cellText, p.Literal)
	}

	// If both sides parse as numbers, compare numerically; otherwise
	// compare as text.
	var cmp int
	cellNum, cellErr := strconv.ParseFloat(cellText, 64)
	litNum, litErr := strconv.ParseFloat(p.Literal, 64)
	if cellErr == nil && litErr == nil {
		switch {
		case cellNum < litNum:
			cmp = -1
		case cellNum > litNum:
			cmp = 1
		}
	} else {
		switch {
		case cellText < p.Literal:
			cmp = -1
		case cellText > p.Literal:
			cmp = 1
		}
	}

	switch p.Op {
	case query.Equal:
		return cmp == 0
	case query.NotEqual:
		return cmp != 0
	case query.Less:
		return cmp < 0
	case query.LessOrEqual:
		return cmp <= 0
	case query.Greater:
		return cmp > 0
	case query.GreaterOrEqual:
		return cmp >= 0
	default:
		return false
	}
}

// project builds a new table holding the requested columns in request
// order. An empty select list means all columns: the input passes
// through unchanged. Unknown column names are skipped.
func project(tbl *table.Table, selectColumns []string) (*table.Table, error) {
	if len(selectColumns) == 0 {
		return tbl, nil
	}

	var indices []int
	var columns []string
	var types []cell.Tag
	for _, name := range selectColumns {
		idx := tbl.ColumnIndex(name)
		if idx < 0 {
			log.Debug("unknown column in SELECT", "table", tbl.Name(), "column", name)
			continue
		}
		indices = append(indices, idx)
		columns = append(columns, tbl.Columns()[idx])
		types = append(types, tbl.Types()[idx])
	}

	result, err := table.NewMerged(tbl.Name(), columns, types)
	if err != nil {
		return nil, err
	}
	for _, r := range tbl.Rows() {
		out := row.New(r.ID())
		for _, idx := range indices {
			c, err := r.At(idx)
			if err != nil {
				continue
			}
			out.Append(c)
		}
		if err := result.Insert(out); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// orderBy sorts by the first ordering column using the cell total
// order. The sort is stable, so equal keys keep their input order. An
// unknown column leaves the input order untouched.
func orderBy(tbl *table.Table, columns []string, ascending bool) *table.Table {
	if len(columns) == 0 {
		return tbl
	}
	// Multi-column ordering is declared in the AST but only the first
	// column is honored.
	idx := tbl.ColumnIndex(columns[0])
	if idx < 0 {
		log.Debug("unknown column in ORDER BY", "table", tbl.Name(), "column", columns[0])
		return tbl
	}

	rows := append([]*row.Row(nil), tbl.Rows()...)
	sort.SliceStable(rows, func(i, j int) bool {
		ci, erri := rows[i].At(idx)
		cj, errj := rows[j].At(idx)
		if erri != nil || errj != nil {
			return false
		}
		if ascending {
			return ci.Compare(cj) < 0
		}
		return ci.Compare(cj) > 0
	})

	result, err := emptyLike(tbl)
	if err != nil {
		return tbl
	}
	for _, r := range rows {
		if err := result.Insert(r.Clone()); err != nil {
			return tbl
		}
	}
	return result
}

// limitOffset skips offset rows then emits up to limit rows; limit -1
// means unbounded. With nothing to do the input passes through.
func limitOffset(tbl *table.Table, limit, offset int) *table.Table {
	if limit < 0 && offset == 0 {
		return tbl
	}

	result, err := emptyLike(tbl)
	if err != nil {
		return tbl
	}
	emitted := 0
	for i, r := range tbl.Rows() {
		if i < offset {
			continue
		}
		if limit >= 0 && emitted >= limit {
			break
		}
		if err := result.Insert(r.Clone()); err != nil {
			return tbl
		}
		emitted++
	}
	return result
}

// emptyLike builds an empty table with the same schema as tbl,
// tolerating the duplicate column names a join result may carry.
func emptyLike(tbl *table.Table) (*table.Table, error) {
	return table.NewMerged(tbl.Name(), tbl.Columns(), tbl.Types())
}
