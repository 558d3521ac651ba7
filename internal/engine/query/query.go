package query

// JoinKind selects which rows survive a join when one side has no match.
type JoinKind int

const (
	Inner JoinKind = iota
	Left
	Right
	Full
)

func (k JoinKind) String() string {
	switch k {
	case Inner:
		return "INNER"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	case Full:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// CompareOp is a predicate's comparison operator. Like is sub-string
// containment, not SQL wildcard matching.
type CompareOp int

const (
	Equal CompareOp = iota
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
	Like
)

func (op CompareOp) String() string {
	switch op {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case Less:
		return "<"
	case LessOrEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterOrEqual:
		return ">="
	case Like:
		return "LIKE"
	default:
		return "?"
	}
}

// Connective combines a predicate with the running match accumulated
// from the predicates before it. There is no operator precedence: the
// executor left-folds, so A OR B AND C evaluates as (A OR B) AND C.
type Connective int

const (
	And Connective = iota
	Or
	Not
)

// JoinSpec names the two tables and columns of one join clause.
type JoinSpec struct {
	LeftTable   string
	LeftColumn  string
	RightTable  string
	RightColumn string
	Kind        JoinKind
}

// Predicate is one WHERE comparison: a column against a literal, with
// the connective tying it to the predicates before it.
type Predicate struct {
	Column     string
	Op         CompareOp
	Literal    string
	Connective Connective
}

// Query is a parsed statement. An empty SelectColumns means all
// columns; Limit -1 means unbounded.
type Query struct {
	SelectColumns []string
	FromTables    []string
	Joins         []JoinSpec
	Conditions    []Predicate
	OrderBy       []string
	Ascending     bool
	Limit         int
	Offset        int
}

// New returns a Query with the documented defaults: ascending order, no
// limit, zero offset, all sequences empty.
func New() *Query {
	return &Query{
		Ascending: true,
		Limit:     -1,
	}
}
