package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/loomdb/loomdb/internal/engine/query"
)

// ErrParseFailure is returned for any malformed statement. The wrapped
// message carries the detail; callers branch only on the sentinel.
var ErrParseFailure = errors.New("parser: parse failure")

// Parse converts a single SELECT statement into a query AST. Keywords
// are ASCII case-insensitive. Malformed clauses, unknown keywords and a
// missing FROM all fail with ErrParseFailure.
func Parse(input string) (*query.Query, error) {
	tokens := tokenize(strings.TrimSuffix(strings.TrimSpace(input), ";"))
	p := &parser{tokens: tokens}

	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: unexpected token %q", ErrParseFailure, p.tokens[p.pos])
	}
	return q, nil
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() string {
	tok := p.peek()
	if tok != "" {
		p.pos++
	}
	return tok
}

func (p *parser) expectKeyword(keyword string) error {
	if !isKeyword(p.peek(), keyword) {
		return fmt.Errorf("%w: expected %s, got %q", ErrParseFailure, keyword, p.peek())
	}
	p.pos++
	return nil
}

func (p *parser) parseQuery() (*query.Query, error) {
	q := query.New()

	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	if err := p.parseSelectList(q); err != nil {
		return nil, err
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	if err := p.parseTableList(q); err != nil {
		return nil, err
	}

	for p.joinAhead() {
		if err := p.parseJoin(q); err != nil {
			return nil, err
		}
	}

	if isKeyword(p.peek(), "WHERE") {
		p.pos++
		if err := p.parseConditions(q); err != nil {
			return nil, err
		}
	}

	if isKeyword(p.peek(), "ORDER") {
		p.pos++
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if err := p.parseOrderBy(q); err != nil {
			return nil, err
		}
	}

	if isKeyword(p.peek(), "LIMIT") {
		p.pos++
		if err := p.parseLimitOffset(q); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// parseSelectList handles "*" (empty select list: all columns) or a
// comma-separated list of column names.
func (p *parser) parseSelectList(q *query.Query) error {
	if p.peek() == "*" {
		p.pos++
		return nil
	}
	for {
		col := p.next()
		if col == "" || col == "," {
			return fmt.Errorf("%w: missing column in select list", ErrParseFailure)
		}
		q.SelectColumns = append(q.SelectColumns, col)
		if p.peek() != "," {
			return nil
		}
		p.pos++
	}
}

func (p *parser) parseTableList(q *query.Query) error {
	for {
		name := p.next()
		if name == "" || name == "," {
			return fmt.Errorf("%w: missing table name after FROM", ErrParseFailure)
		}
		q.FromTables = append(q.FromTables, name)
		if p.peek() != "," {
			return nil
		}
		p.pos++
	}
}

// joinAhead reports whether the next tokens start a join clause: JOIN
// itself or one of the kind prefixes (INNER, LEFT, RIGHT, FULL).
func (p *parser) joinAhead() bool {
	tok := p.peek()
	return isKeyword(tok, "JOIN") || isKeyword(tok, "INNER") ||
		isKeyword(tok, "LEFT") || isKeyword(tok, "RIGHT") || isKeyword(tok, "FULL")
}

func (p *parser) parseJoin(q *query.Query) error {
	kind := query.Inner
	switch {
	case isKeyword(p.peek(), "INNER"):
		p.pos++
	case isKeyword(p.peek(), "LEFT"):
		kind = query.Left
		p.pos++
	case isKeyword(p.peek(), "RIGHT"):
		kind = query.Right
		p.pos++
	case isKeyword(p.peek(), "FULL"):
		kind = query.Full
		p.pos++
	}
	if isKeyword(p.peek(), "OUTER") {
		p.pos++
	}
	if err := p.expectKeyword("JOIN"); err != nil {
		return err
	}

	rightTable := p.next()
	if rightTable == "" {
		return fmt.Errorf("%w: missing table name after JOIN", ErrParseFailure)
	}
	if err := p.expectKeyword("ON"); err != nil {
		return err
	}

	leftCol := p.next()
	if leftCol == "" {
		return fmt.Errorf("%w: missing left column in ON clause", ErrParseFailure)
	}
	if p.next() != "=" {
		return fmt.Errorf("%w: ON clause requires =", ErrParseFailure)
	}
	rightCol := p.next()
	if rightCol == "" {
		return fmt.Errorf("%w: missing right column in ON clause", ErrParseFailure)
	}

	// The left side of the first join is the first FROM table; later
	// joins apply to the accumulated result, identified by the previous
	// join's right table.
	leftTable := ""
	if len(q.Joins) > 0 {
		leftTable = q.Joins[len(q.Joins)-1].RightTable
	} else if len(q.FromTables) > 0 {
		leftTable = q.FromTables[0]
	}

	q.Joins = append(q.Joins, query.JoinSpec{
		LeftTable:   leftTable,
		LeftColumn:  stripQualifier(leftCol),
		RightTable:  rightTable,
		RightColumn: stripQualifier(rightCol),
		Kind:        kind,
	})
	return nil
}

// stripQualifier drops an optional table. prefix from a column name.
func stripQualifier(col string) string {
	if i := strings.LastIndexByte(col, '.'); i >= 0 {
		return col[i+1:]
	}
	return col
}

var compareOps = []struct {
	token string
	op    query.CompareOp
}{
	// Two-character operators first: the lexer already splits them, but
	// keeping the order here mirrors the recognition rule.
	{">=", query.GreaterOrEqual},
	{"<=", query.LessOrEqual},
	{"!=", query.NotEqual},
	{"=", query.Equal},
	{">", query.Greater},
	{"<", query.Less},
	{"LIKE", query.Like},
}

func lookupOp(tok string) (query.CompareOp, bool) {
	for _, c := range compareOps {
		if isKeyword(tok, c.token) {
			return c.op, true
		}
	}
	return 0, false
}

func (p *parser) parseConditions(q *query.Query) error {
	connective := query.And
	for {
		col := p.next()
		if col == "" {
			return fmt.Errorf("%w: missing column in WHERE clause", ErrParseFailure)
		}
		op, ok := lookupOp(p.next())
		if !ok {
			return fmt.Errorf("%w: bad comparison operator in WHERE clause", ErrParseFailure)
		}
		lit := p.next()
		if lit == "" {
			return fmt.Errorf("%w: missing literal in WHERE clause", ErrParseFailure)
		}

		q.Conditions = append(q.Conditions, query.Predicate{
			Column:     stripQualifier(col),
			Op:         op,
			Literal:    lit,
			Connective: connective,
		})

		switch {
		case isKeyword(p.peek(), "AND"):
			connective = query.And
			p.pos++
		case isKeyword(p.peek(), "OR"):
			connective = query.Or
			p.pos++
		default:
			return nil
		}
	}
}

func (p *parser) parseOrderBy(q *query.Query) error {
	for {
		col := p.next()
		if col == "" {
			return fmt.Errorf("%w: missing column after ORDER BY", ErrParseFailure)
		}
		q.OrderBy = append(q.OrderBy, stripQualifier(col))
		if p.peek() != "," {
			break
		}
		p.pos++
	}

	switch {
	case isKeyword(p.peek(), "ASC"):
		q.Ascending = true
		p.pos++
	case isKeyword(p.peek(), "DESC"):
		q.Ascending = false
		p.pos++
	}
	return nil
}

func (p *parser) parseLimitOffset(q *query.Query) error {
	n, err := strconv.Atoi(p.next())
	if err != nil {
		return fmt.Errorf("%w: LIMIT requires an integer", ErrParseFailure)
	}
	q.Limit = n

	if isKeyword(p.peek(), "OFFSET") {
		p.pos++
		off, err := strconv.Atoi(p.next())
		if err != nil || off < 0 {
			return fmt.Errorf("%w: OFFSET requires a non-negative integer", ErrParseFailure)
		}
		q.Offset = off
	}
	return nil
}
