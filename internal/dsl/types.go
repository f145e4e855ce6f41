package dsl

// Clause is one node of the query tree.
//
// This is a sealed interface: only types in this package implement it.
type Clause interface {
	clauseNode()
}

// Term matches rows whose field equals Value.
type Term struct {
	Field string
	Value any
}

func (Term) clauseNode() {}

// Terms matches rows whose field is one of Values.
// An empty Values matches nothing.
type Terms struct {
	Field  string
	Values []any
}

func (Terms) clauseNode() {}

// Match splits Text on whitespace and requires every token to appear in Field.
type Match struct {
	Field string
	Text  string
}

func (Match) clauseNode() {}

// MatchPhrase requires Text to appear verbatim in Field.
type MatchPhrase struct {
	Field string
	Text  string
}

func (MatchPhrase) clauseNode() {}

// MultiMatch runs a Match of Text against each of Fields and ORs the results.
type MultiMatch struct {
	Text   string
	Fields []string
}

func (MultiMatch) clauseNode() {}

// Range operator keys recognized by the compiler, in emission order.
var RangeOps = []string{"gt", "gte", "lt", "lte"}

// Range compares Field against the bounds in Ops.
// Keys outside RangeOps are kept for linting and ignored when compiling.
type Range struct {
	Field string
	Ops   map[string]any
}

func (Range) clauseNode() {}

// Exists matches rows where Field is not NULL.
type Exists struct {
	Field string
}

func (Exists) clauseNode() {}

// Bool combines child clauses.
//
// Must and Filter are merged into one AND group. Should only applies when
// that group is empty. MustNot children are negated and ANDed in.
type Bool struct {
	Must    []Clause
	Filter  []Clause
	Should  []Clause
	MustNot []Clause
}

func (Bool) clauseNode() {}

// MatchAll matches every row.
type MatchAll struct{}

func (MatchAll) clauseNode() {}

// Unknown is a clause whose tag is not recognized. It matches every row.
type Unknown struct {
	Tag string
}

func (Unknown) clauseNode() {}

// Join types accepted in Join.Type.
const (
	JoinLeft  = "LEFT"
	JoinInner = "INNER"
	JoinRight = "RIGHT"
	JoinFull  = "FULL"
)

// Join describes one JOIN clause. Type defaults to LEFT.
type Join struct {
	Type   string
	Target string
	On     *JoinOn
}

// JoinOn is the join condition. Op defaults to "=".
type JoinOn struct {
	Left  string
	Right string
	Op    string
}

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortField orders by one field reference. Order is kept as written; the
// compiler treats anything other than "desc" as ascending.
type SortField struct {
	Field string
	Order string
}

// Metric operators.
var MetricOps = []string{"sum", "avg", "count", "min", "max"}

// Metric is one named aggregate. Field is "*" or a field reference.
type Metric struct {
	Alias string
	Op    string
	Field string
}

// Aggs is a group-by plus metrics descriptor.
type Aggs struct {
	GroupBy []string
	Metrics []Metric
}

// Request is the search / aggregate envelope.
//
// A nil Query means match everything. Size and From are nil when the caller
// did not supply them; defaults are applied by the statement builder.
type Request struct {
	Source []string
	Query  Clause
	Join   []Join
	Sort   []SortField
	Aggs   *Aggs
	Size   *int `validate:"omitempty,min=0"`
	From   *int `validate:"omitempty,min=0"`
}

// IntPtr is a convenience for building Size and From.
func IntPtr(n int) *int {
	return &n
}
