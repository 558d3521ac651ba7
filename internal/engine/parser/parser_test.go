package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/loomdb/loomdb/internal/engine/query"
)

func mustParse(t *testing.T, input string) *query.Query {
	t.Helper()
	q, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	return q
}

func TestSelectStar(t *testing.T) {
	q := mustParse(t, "SELECT * FROM users")
	if len(q.SelectColumns) != 0 {
		t.Fatalf("SelectColumns = %v, want empty for *", q.SelectColumns)
	}
	if !reflect.DeepEqual(q.FromTables, []string{"users"}) {
		t.Fatalf("FromTables = %v", q.FromTables)
	}
	if !q.Ascending || q.Limit != -1 || q.Offset != 0 {
		t.Fatalf("defaults wrong: asc=%v limit=%d offset=%d", q.Ascending, q.Limit, q.Offset)
	}
}

func TestCaseInsensitiveKeywords(t *testing.T) {
	q := mustParse(t, "select name, age from users where age >= 30 order by name desc limit 5 offset 2")
	if !reflect.DeepEqual(q.SelectColumns, []string{"name", "age"}) {
		t.Fatalf("SelectColumns = %v", q.SelectColumns)
	}
	if len(q.Conditions) != 1 || q.Conditions[0].Op != query.GreaterOrEqual || q.Conditions[0].Literal != "30" {
		t.Fatalf("Conditions = %+v", q.Conditions)
	}
	if !reflect.DeepEqual(q.OrderBy, []string{"name"}) || q.Ascending {
		t.Fatalf("OrderBy = %v asc=%v", q.OrderBy, q.Ascending)
	}
	if q.Limit != 5 || q.Offset != 2 {
		t.Fatalf("limit=%d offset=%d", q.Limit, q.Offset)
	}
}

func TestJoinClause(t *testing.T) {
	q := mustParse(t, "SELECT * FROM departments JOIN employees ON dept_id = dept")
	if len(q.Joins) != 1 {
		t.Fatalf("Joins = %+v", q.Joins)
	}
	j := q.Joins[0]
	want := query.JoinSpec{
		LeftTable: "departments", LeftColumn: "dept_id",
		RightTable: "employees", RightColumn: "dept",
		Kind: query.Inner,
	}
	if j != want {
		t.Fatalf("JoinSpec = %+v, want %+v", j, want)
	}
}

func TestJoinKinds(t *testing.T) {
	cases := []struct {
		input string
		kind  query.JoinKind
	}{
		{"SELECT * FROM a JOIN b ON x = y", query.Inner},
		{"SELECT * FROM a INNER JOIN b ON x = y", query.Inner},
		{"SELECT * FROM a LEFT JOIN b ON x = y", query.Left},
		{"SELECT * FROM a LEFT OUTER JOIN b ON x = y", query.Left},
		{"SELECT * FROM a RIGHT JOIN b ON x = y", query.Right},
		{"SELECT * FROM a FULL JOIN b ON x = y", query.Full},
	}
	for _, tc := range cases {
		q := mustParse(t, tc.input)
		if q.Joins[0].Kind != tc.kind {
			t.Errorf("%q: kind = %v, want %v", tc.input, q.Joins[0].Kind, tc.kind)
		}
	}
}

func TestChainedJoinsTrackLeftTable(t *testing.T) {
	q := mustParse(t, "SELECT * FROM a JOIN b ON x = y JOIN c ON y = z")
	if len(q.Joins) != 2 {
		t.Fatalf("Joins = %+v", q.Joins)
	}
	if q.Joins[1].LeftTable != "b" {
		t.Fatalf("second join LeftTable = %q, want b", q.Joins[1].LeftTable)
	}
}

func TestTwoCharOperatorsBeforeOneChar(t *testing.T) {
	cases := []struct {
		input string
		op    query.CompareOp
		lit   string
	}{
		{"SELECT * FROM t WHERE a >= 10", query.GreaterOrEqual, "10"},
		{"SELECT * FROM t WHERE a <= 10", query.LessOrEqual, "10"},
		{"SELECT * FROM t WHERE a != 10", query.NotEqual, "10"},
		{"SELECT * FROM t WHERE a > 10", query.Greater, "10"},
		{"SELECT * FROM t WHERE a < 10", query.Less, "10"},
		{"SELECT * FROM t WHERE a = 10", query.Equal, "10"},
		{"SELECT * FROM t WHERE a LIKE foo", query.Like, "foo"},
		// Glued operands must still split on the operator.
		{"SELECT * FROM t WHERE a>=10", query.GreaterOrEqual, "10"},
		{"SELECT * FROM t WHERE a=10", query.Equal, "10"},
	}
	for _, tc := range cases {
		q := mustParse(t, tc.input)
		p := q.Conditions[0]
		if p.Op != tc.op || p.Literal != tc.lit {
			t.Errorf("%q: got op=%v lit=%q", tc.input, p.Op, p.Literal)
		}
	}
}

func TestQuotedLiteralKeepsSpaces(t *testing.T) {
	q := mustParse(t, "SELECT * FROM users WHERE name = 'Ali Veli'")
	if q.Conditions[0].Literal != "Ali Veli" {
		t.Fatalf("Literal = %q", q.Conditions[0].Literal)
	}
}

func TestConnectives(t *testing.T) {
	q := mustParse(t, "SELECT * FROM t WHERE a = 1 OR b = 2 AND c = 3")
	if len(q.Conditions) != 3 {
		t.Fatalf("Conditions = %+v", q.Conditions)
	}
	// The connective on a predicate ties it to the accumulated result
	// of the predicates before it.
	if q.Conditions[1].Connective != query.Or {
		t.Fatalf("second connective = %v, want Or", q.Conditions[1].Connective)
	}
	if q.Conditions[2].Connective != query.And {
		t.Fatalf("third connective = %v, want And", q.Conditions[2].Connective)
	}
}

func TestParseFailures(t *testing.T) {
	cases := []string{
		"",
		"SELECT",
		"SELECT *",
		"SELECT * FROM",
		"UPDATE users SET x = 1",
		"SELECT * FROM users WHERE",
		"SELECT * FROM users WHERE age ~ 3",
		"SELECT * FROM a JOIN b ON x y",
		"SELECT * FROM users LIMIT ten",
		"SELECT * FROM users trailing garbage",
	}
	for _, input := range cases {
		q, err := Parse(input)
		if err == nil {
			t.Errorf("Parse(%q) succeeded: %+v", input, q)
			continue
		}
		if !errors.Is(err, ErrParseFailure) {
			t.Errorf("Parse(%q) error %v is not ErrParseFailure", input, err)
		}
	}
}

func TestTrailingSemicolon(t *testing.T) {
	q := mustParse(t, "SELECT * FROM users;")
	if !reflect.DeepEqual(q.FromTables, []string{"users"}) {
		t.Fatalf("FromTables = %v", q.FromTables)
	}
}
