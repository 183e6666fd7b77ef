package ast

import "fmt"

// AggKind enumerates the nine aggregate forms.
type AggKind int

const (
	AggMin AggKind = iota
	AggMax
	AggSum
	AggSumDistinct
	AggAvg
	AggAvgDistinct
	AggCount
	AggCountDistinct
	AggAny
)

func (k AggKind) String() string {
	switch k {
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	case AggSum:
		return "SUM"
	case AggSumDistinct:
		return "SUM DISTINCT"
	case AggAvg:
		return "AVG"
	case AggAvgDistinct:
		return "AVG DISTINCT"
	case AggCount:
		return "COUNT"
	case AggCountDistinct:
		return "COUNT DISTINCT"
	case AggAny:
		return "ANY"
	default:
		return "?"
	}
}

// Aggregate wraps an inner identifier/expression with an aggregate
// function and an optional inline WHERE scoped only to this aggregate.
//
// Ranges holds the data sources the aggregate iterates over — e.g. the
// `o` in `COUNT(o.id) WHERE o.status = 'paid'` — owned by the aggregate
// the same way a Subquery owns its nested Retrieve's ranges, rather than
// appearing in the enclosing retrieve's own Ranges. This is what lets the
// aggregate optimizer compute a minimal range set and lower straight to
// a scalar subquery without first having to invent a join for a range
// nobody else in the query refers to.
type Aggregate struct {
	base
	AggKind    AggKind
	Inner      Node
	Conditions Node
	Ranges     []Range
}

func NewAggregate(kind AggKind, inner, conditions Node, ranges ...Range) *Aggregate {
	n := &Aggregate{AggKind: kind, Inner: inner, Conditions: conditions, Ranges: ranges}
	setParentOf(n, inner)
	setParentOf(n, conditions)
	for _, r := range ranges {
		setParentOf(n, r)
	}
	return n
}

func (n *Aggregate) Kind() Kind { return KindAggregate }
func (n *Aggregate) Children() []Node {
	var children []Node
	for _, r := range n.Ranges {
		children = append(children, r)
	}
	if n.Inner != nil {
		children = append(children, n.Inner)
	}
	if n.Conditions != nil {
		children = append(children, n.Conditions)
	}
	return children
}
func (n *Aggregate) Accept(v Visitor) error { return Accept(n, v) }
func (n *Aggregate) Clone() Node {
	c := &Aggregate{AggKind: n.AggKind}
	for _, r := range n.Ranges {
		cr := r.Clone().(Range)
		setParentOf(c, cr)
		c.Ranges = append(c.Ranges, cr)
	}
	if n.Inner != nil {
		c.Inner = n.Inner.Clone()
		setParentOf(c, c.Inner)
	}
	if n.Conditions != nil {
		c.Conditions = n.Conditions.Clone()
		setParentOf(c, c.Conditions)
	}
	return c
}
func (n *Aggregate) String() string {
	if n.Conditions != nil {
		return fmt.Sprintf("%s(%s) WHERE %s", n.AggKind, stringOrNil(n.Inner), n.Conditions)
	}
	return fmt.Sprintf("%s(%s)", n.AggKind, stringOrNil(n.Inner))
}

// ClearConditions drops the embedded WHERE after it has been lowered
// into a subquery's own WHERE.
func (n *Aggregate) ClearConditions() { n.Conditions = nil }
