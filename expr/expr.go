// Package expr provides the lazily-evaluated expression trees consumed by
// the engine package. Constructing and composing expressions is pure:
// every method returns a new node and never mutates its operands, so one
// expression can be replayed against many frames. Column names are
// resolved at evaluation time, not at construction.
package expr

import (
	"fmt"
	"strings"

	"github.com/zundertj/lazyframe/frame"
)

// Node is a node in an immutable expression tree.
type Node interface {
	node()
}

// Expr wraps a node and carries the fluent builder API.
type Expr struct {
	n Node
}

// Node returns the underlying tree node.
func (e Expr) Node() Node {
	return e.n
}

func wrap(n Node) Expr {
	return Expr{n: n}
}

// ColumnNode references columns by exact name, anchored regex ("^...$"),
// a list of exact names, or a wildcard with optional exclusions.
type ColumnNode struct {
	Name     string
	Names    []string
	Wildcard bool
	Exclude  []string
}

// LiteralNode holds a typed scalar.
type LiteralNode struct {
	Value frame.Value
}

// RangeNode generates the integer sequence [Start, Stop).
type RangeNode struct {
	Start, Stop int64
}

// UnaryNode applies a unary operation: "-", "not" or "reverse".
type UnaryNode struct {
	Op      string
	Operand Node
}

// BinaryNode applies a binary operation elementwise.
// Ops: + - * / % ** == != < <= > >= and or.
type BinaryNode struct {
	Op    string
	Left  Node
	Right Node
}

// AggNode reduces its child: sum, mean, min, max, first, last, count, list.
type AggNode struct {
	Op    string
	Child Node
}

// FilterNode narrows the child's row domain to rows where the predicate
// holds. It changes only this expression's output length, never the
// frame's row count.
type FilterNode struct {
	Child     Node
	Predicate Node
}

// WhenNode selects elementwise between Then and Otherwise.
type WhenNode struct {
	Predicate Node
	Then      Node
	Otherwise Node
}

// Combiner folds an accumulator with the next element.
type Combiner func(acc, v frame.Value) (frame.Value, error)

// FoldNode reduces across expressions strictly left to right:
// acc = Init; for each child: acc = Combine(acc, child). The order is a
// contract, the combiner need not be associative or commutative. A
// string-concatenating combiner over k columns copies each element k
// times; prefer ConcatStr for that.
type FoldNode struct {
	Init    Node
	Combine Combiner
	Exprs   []Node
}

// ConcatStrNode concatenates the string forms of its children row by row
// with a separator, in a single pass.
type ConcatStrNode struct {
	Sep   string
	Exprs []Node
}

// OverNode evaluates Child once per group of PartitionBy. Scalar group
// results broadcast over member rows. Sequence results are returned as
// one list per group, or scattered back to original row positions when
// Flatten is set.
type OverNode struct {
	Child       Node
	PartitionBy []string
	Flatten     bool
}

// AliasNode renames the result column. Exactly one of Name, Suffix or
// KeepName is in effect.
type AliasNode struct {
	Child    Node
	Name     string
	Suffix   string
	KeepName bool
}

// NamespacedNode dispatches to domain-specific operations (str, dt,
// series namespaces). Args hold scalar operation parameters.
type NamespacedNode struct {
	Child     Node
	Namespace string
	Op        string
	Args      []Node
}

func (*ColumnNode) node()     {}
func (*LiteralNode) node()    {}
func (*RangeNode) node()      {}
func (*UnaryNode) node()      {}
func (*BinaryNode) node()     {}
func (*AggNode) node()        {}
func (*FilterNode) node()     {}
func (*WhenNode) node()       {}
func (*FoldNode) node()       {}
func (*ConcatStrNode) node()  {}
func (*OverNode) node()       {}
func (*AliasNode) node()      {}
func (*NamespacedNode) node() {}

// --- Constructors ---

// Col references a single column by exact name, or by anchored regex when
// the name starts with '^' and ends with '$'.
func Col(name string) Expr {
	return wrap(&ColumnNode{Name: name})
}

// ColRegex references every column whose name matches the regular
// expression. The pattern is anchored if it is not already.
func ColRegex(pattern string) Expr {
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^" + pattern
	}
	if !strings.HasSuffix(pattern, "$") {
		pattern = pattern + "$"
	}
	return wrap(&ColumnNode{Name: pattern})
}

// Cols references multiple columns by exact name. An empty list is
// rejected at evaluation time.
func Cols(names ...string) Expr {
	if names == nil {
		names = []string{}
	}
	return wrap(&ColumnNode{Names: names})
}

// All references every column in the bound context's natural order.
func All() Expr {
	return wrap(&ColumnNode{Wildcard: true})
}

// Lit creates a literal scalar from a Go value: int, int64, float64,
// string, bool, frame.Value or nil.
func Lit(v any) Expr {
	return wrap(&LiteralNode{Value: litValue(v)})
}

func litValue(v any) frame.Value {
	switch x := v.(type) {
	case nil:
		return frame.Null()
	case frame.Value:
		return x
	case int:
		return frame.Int64(int64(x))
	case int64:
		return frame.Int64(x)
	case float64:
		return frame.Float64(x)
	case string:
		return frame.Str(x)
	case bool:
		return frame.Boolean(x)
	default:
		return frame.Str(fmt.Sprintf("%v", x))
	}
}

// Arange generates the integer sequence [start, stop).
func Arange(start, stop int64) Expr {
	return wrap(&RangeNode{Start: start, Stop: stop})
}

// Fold reduces the expressions left to right starting from init.
func Fold(init Expr, combine Combiner, exprs ...Expr) Expr {
	return wrap(&FoldNode{Init: init.n, Combine: combine, Exprs: nodes(exprs)})
}

// ConcatStr concatenates the string forms of the expressions row by row.
func ConcatStr(sep string, exprs ...Expr) Expr {
	return wrap(&ConcatStrNode{Sep: sep, Exprs: nodes(exprs)})
}

// Sum is shorthand for Col(name).Sum().
func Sum(name string) Expr {
	return Col(name).Sum()
}

// First is shorthand for Col(name).First().
func First(name string) Expr {
	return Col(name).First()
}

// Count is shorthand for Col(name).Count().
func Count(name string) Expr {
	return Col(name).Count()
}

func nodes(exprs []Expr) []Node {
	ns := make([]Node, len(exprs))
	for i, e := range exprs {
		ns[i] = e.n
	}
	return ns
}

// --- When / Then / Otherwise ---

// WhenClause is an in-progress conditional expression.
type WhenClause struct {
	pred Node
}

// ThenClause is a conditional expression awaiting its otherwise branch.
type ThenClause struct {
	pred, then Node
}

// When starts a conditional: When(pred).Then(a).Otherwise(b).
func When(pred Expr) WhenClause {
	return WhenClause{pred: pred.n}
}

// Then sets the value used where the predicate holds.
func (w WhenClause) Then(v Expr) ThenClause {
	return ThenClause{pred: w.pred, then: v.n}
}

// Otherwise completes the conditional with the fallback value.
func (t ThenClause) Otherwise(v Expr) Expr {
	return wrap(&WhenNode{Predicate: t.pred, Then: t.then, Otherwise: v.n})
}

// --- Fluent combinators ---

// Exclude removes columns from a wildcard reference.
func (e Expr) Exclude(names ...string) Expr {
	if c, ok := e.n.(*ColumnNode); ok && c.Wildcard {
		out := *c
		out.Exclude = append(append([]string{}, c.Exclude...), names...)
		return wrap(&out)
	}
	return e
}

func (e Expr) binary(op string, other Expr) Expr {
	return wrap(&BinaryNode{Op: op, Left: e.n, Right: other.n})
}

// Add returns e + other.
func (e Expr) Add(other Expr) Expr { return e.binary("+", other) }

// Sub returns e - other.
func (e Expr) Sub(other Expr) Expr { return e.binary("-", other) }

// Mul returns e * other.
func (e Expr) Mul(other Expr) Expr { return e.binary("*", other) }

// Div returns e / other. Division by zero yields null.
func (e Expr) Div(other Expr) Expr { return e.binary("/", other) }

// Mod returns e % other.
func (e Expr) Mod(other Expr) Expr { return e.binary("%", other) }

// Pow returns e ** other.
func (e Expr) Pow(other Expr) Expr { return e.binary("**", other) }

// Eq returns e == other.
func (e Expr) Eq(other Expr) Expr { return e.binary("==", other) }

// Neq returns e != other.
func (e Expr) Neq(other Expr) Expr { return e.binary("!=", other) }

// Lt returns e < other.
func (e Expr) Lt(other Expr) Expr { return e.binary("<", other) }

// Lte returns e <= other.
func (e Expr) Lte(other Expr) Expr { return e.binary("<=", other) }

// Gt returns e > other.
func (e Expr) Gt(other Expr) Expr { return e.binary(">", other) }

// Gte returns e >= other.
func (e Expr) Gte(other Expr) Expr { return e.binary(">=", other) }

// And returns e and other. Both operands must be boolean.
func (e Expr) And(other Expr) Expr { return e.binary("and", other) }

// Or returns e or other. Both operands must be boolean.
func (e Expr) Or(other Expr) Expr { return e.binary("or", other) }

// Neg returns -e.
func (e Expr) Neg() Expr { return wrap(&UnaryNode{Op: "-", Operand: e.n}) }

// Not returns not e.
func (e Expr) Not() Expr { return wrap(&UnaryNode{Op: "not", Operand: e.n}) }

// Reverse reverses the order of the result within its row domain.
func (e Expr) Reverse() Expr { return wrap(&UnaryNode{Op: "reverse", Operand: e.n}) }

func (e Expr) agg(op string) Expr {
	return wrap(&AggNode{Op: op, Child: e.n})
}

// Sum reduces to the sum of non-null values; null if none.
func (e Expr) Sum() Expr { return e.agg("sum") }

// Mean reduces to the mean of non-null values; null if none.
func (e Expr) Mean() Expr { return e.agg("mean") }

// Min reduces to the minimum non-null value; null if none.
func (e Expr) Min() Expr { return e.agg("min") }

// Max reduces to the maximum non-null value; null if none.
func (e Expr) Max() Expr { return e.agg("max") }

// First reduces to the first value; null when empty.
func (e Expr) First() Expr { return e.agg("first") }

// Last reduces to the last value; null when empty.
func (e Expr) Last() Expr { return e.agg("last") }

// Count reduces to the number of non-null values. Empty is 0.
func (e Expr) Count() Expr { return e.agg("count") }

// List collects the values into a single list value.
func (e Expr) List() Expr { return e.agg("list") }

// Filter narrows this expression's row domain to rows where the
// predicate is true. Downstream reductions see the shorter sequence.
func (e Expr) Filter(pred Expr) Expr {
	return wrap(&FilterNode{Child: e.n, Predicate: pred.n})
}

// Over turns the expression into a window: it is evaluated once per
// group of the partition keys and reassembled against the full frame.
func (e Expr) Over(partitionBy ...string) Expr {
	return wrap(&OverNode{Child: e.n, PartitionBy: partitionBy})
}

// Flatten scatters a windowed sequence result back onto the original row
// positions instead of returning one list per group.
func (e Expr) Flatten() Expr {
	if o, ok := e.n.(*OverNode); ok {
		out := *o
		out.Flatten = true
		return wrap(&out)
	}
	return e
}

// Alias names the result column. An explicit alias wins over inference.
func (e Expr) Alias(name string) Expr {
	return wrap(&AliasNode{Child: e.n, Name: name})
}

// Suffix appends to the inferred name, e.g. All().Suffix("_sum").
func (e Expr) Suffix(suffix string) Expr {
	return wrap(&AliasNode{Child: e.n, Suffix: suffix})
}

// KeepName restores the source column's own name, undoing renames the
// operations above it would imply.
func (e Expr) KeepName() Expr {
	return wrap(&AliasNode{Child: e.n, KeepName: true})
}

// Shift moves values down by n rows (up when negative), filling the gap
// with nulls.
func (e Expr) Shift(n int) Expr {
	return wrap(&NamespacedNode{
		Child: e.n, Namespace: "series", Op: "shift",
		Args: []Node{Lit(int64(n)).n},
	})
}

// ShiftAndFill is Shift with an explicit fill value instead of null.
func (e Expr) ShiftAndFill(n int, fill Expr) Expr {
	return wrap(&NamespacedNode{
		Child: e.n, Namespace: "series", Op: "shift",
		Args: []Node{Lit(int64(n)).n, fill.n},
	})
}

// FillNull replaces nulls with the given value.
func (e Expr) FillNull(fill Expr) Expr {
	return wrap(&NamespacedNode{
		Child: e.n, Namespace: "series", Op: "fill_null",
		Args: []Node{fill.n},
	})
}

// --- Namespaces ---

// StrNamespace groups string-specific operations.
type StrNamespace struct {
	n Node
}

// Str enters the string namespace.
func (e Expr) Str() StrNamespace {
	return StrNamespace{n: e.n}
}

// Contains matches each value against a regular expression. Null values
// yield null, non-matching values yield false.
func (s StrNamespace) Contains(pattern string) Expr {
	return wrap(&NamespacedNode{
		Child: s.n, Namespace: "str", Op: "contains",
		Args: []Node{Lit(pattern).n},
	})
}

// Upper converts values to upper case.
func (s StrNamespace) Upper() Expr {
	return wrap(&NamespacedNode{Child: s.n, Namespace: "str", Op: "upper"})
}

// Lower converts values to lower case.
func (s StrNamespace) Lower() Expr {
	return wrap(&NamespacedNode{Child: s.n, Namespace: "str", Op: "lower"})
}

// Len returns the length of each value's string form in characters.
func (s StrNamespace) Len() Expr {
	return wrap(&NamespacedNode{Child: s.n, Namespace: "str", Op: "len"})
}

// DtNamespace groups date-specific operations over date strings.
type DtNamespace struct {
	n Node
}

// Dt enters the date namespace.
func (e Expr) Dt() DtNamespace {
	return DtNamespace{n: e.n}
}

// Year extracts the year from a parseable date value.
func (d DtNamespace) Year() Expr {
	return wrap(&NamespacedNode{Child: d.n, Namespace: "dt", Op: "year"})
}

// Month extracts the month from a parseable date value.
func (d DtNamespace) Month() Expr {
	return wrap(&NamespacedNode{Child: d.n, Namespace: "dt", Op: "month"})
}

// Day extracts the day of month from a parseable date value.
func (d DtNamespace) Day() Expr {
	return wrap(&NamespacedNode{Child: d.n, Namespace: "dt", Op: "day"})
}

// String returns a compact representation of the expression tree.
func (e Expr) String() string {
	return nodeString(e.n)
}

func nodeString(n Node) string {
	switch x := n.(type) {
	case *ColumnNode:
		switch {
		case x.Wildcard && len(x.Exclude) > 0:
			return fmt.Sprintf("all().exclude(%s)", strings.Join(x.Exclude, ", "))
		case x.Wildcard:
			return "all()"
		case len(x.Names) > 0:
			return fmt.Sprintf("cols(%s)", strings.Join(x.Names, ", "))
		default:
			return fmt.Sprintf("col(%s)", x.Name)
		}
	case *LiteralNode:
		return fmt.Sprintf("lit(%s)", x.Value.AsString())
	case *RangeNode:
		return fmt.Sprintf("arange(%d, %d)", x.Start, x.Stop)
	case *UnaryNode:
		return fmt.Sprintf("%s(%s)", x.Op, nodeString(x.Operand))
	case *BinaryNode:
		return fmt.Sprintf("(%s %s %s)", nodeString(x.Left), x.Op, nodeString(x.Right))
	case *AggNode:
		return fmt.Sprintf("%s.%s()", nodeString(x.Child), x.Op)
	case *FilterNode:
		return fmt.Sprintf("%s.filter(%s)", nodeString(x.Child), nodeString(x.Predicate))
	case *WhenNode:
		return fmt.Sprintf("when(%s).then(%s).otherwise(%s)",
			nodeString(x.Predicate), nodeString(x.Then), nodeString(x.Otherwise))
	case *FoldNode:
		parts := make([]string, len(x.Exprs))
		for i, c := range x.Exprs {
			parts[i] = nodeString(c)
		}
		return fmt.Sprintf("fold(%s, [%s])", nodeString(x.Init), strings.Join(parts, ", "))
	case *ConcatStrNode:
		parts := make([]string, len(x.Exprs))
		for i, c := range x.Exprs {
			parts[i] = nodeString(c)
		}
		return fmt.Sprintf("concat_str(%q, [%s])", x.Sep, strings.Join(parts, ", "))
	case *OverNode:
		return fmt.Sprintf("%s.over(%s)", nodeString(x.Child), strings.Join(x.PartitionBy, ", "))
	case *AliasNode:
		switch {
		case x.KeepName:
			return fmt.Sprintf("%s.keep_name()", nodeString(x.Child))
		case x.Suffix != "":
			return fmt.Sprintf("%s.suffix(%q)", nodeString(x.Child), x.Suffix)
		default:
			return fmt.Sprintf("%s.alias(%q)", nodeString(x.Child), x.Name)
		}
	case *NamespacedNode:
		return fmt.Sprintf("%s.%s.%s()", nodeString(x.Child), x.Namespace, x.Op)
	default:
		return fmt.Sprintf("<%T>", n)
	}
}
