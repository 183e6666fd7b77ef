package ast

import "fmt"

// BinOp enumerates the binary operators the grammar accepts: boolean
// connectives, arithmetic and comparisons.
type BinOp int

const (
	OpAnd BinOp = iota
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

func (o BinOp) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return "?"
	}
}

// IsLogical reports whether the operator is AND/OR (as opposed to
// arithmetic or comparison).
func (o BinOp) IsLogical() bool { return o == OpAnd || o == OpOr }

type BinaryOp struct {
	base
	Op          BinOp
	Left, Right Node
}

func NewBinaryOp(op BinOp, left, right Node) *BinaryOp {
	n := &BinaryOp{Op: op, Left: left, Right: right}
	setParentOf(n, left)
	setParentOf(n, right)
	return n
}

func (n *BinaryOp) Kind() Kind       { return KindBinaryOp }
func (n *BinaryOp) Children() []Node { return []Node{n.Left, n.Right} }
func (n *BinaryOp) Accept(v Visitor) error { return Accept(n, v) }
func (n *BinaryOp) Clone() Node {
	c := &BinaryOp{Op: n.Op}
	if n.Left != nil {
		c.Left = n.Left.Clone()
		setParentOf(c, c.Left)
	}
	if n.Right != nil {
		c.Right = n.Right.Clone()
		setParentOf(c, c.Right)
	}
	return c
}
func (n *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", stringOrNil(n.Left), n.Op, stringOrNil(n.Right))
}

type UnaryNot struct {
	base
	Expr Node
}

func NewUnaryNot(expr Node) *UnaryNot {
	n := &UnaryNot{Expr: expr}
	setParentOf(n, expr)
	return n
}

func (n *UnaryNot) Kind() Kind       { return KindUnaryNot }
func (n *UnaryNot) Children() []Node { return []Node{n.Expr} }
func (n *UnaryNot) Accept(v Visitor) error { return Accept(n, v) }
func (n *UnaryNot) Clone() Node {
	c := &UnaryNot{}
	if n.Expr != nil {
		c.Expr = n.Expr.Clone()
		setParentOf(c, c.Expr)
	}
	return c
}
func (n *UnaryNot) String() string { return fmt.Sprintf("NOT %s", stringOrNil(n.Expr)) }

type Ternary struct {
	base
	Cond, Then, Else Node
}

func NewTernary(cond, then, els Node) *Ternary {
	n := &Ternary{Cond: cond, Then: then, Else: els}
	setParentOf(n, cond)
	setParentOf(n, then)
	setParentOf(n, els)
	return n
}

func (n *Ternary) Kind() Kind       { return KindTernary }
func (n *Ternary) Children() []Node { return []Node{n.Cond, n.Then, n.Else} }
func (n *Ternary) Accept(v Visitor) error { return Accept(n, v) }
func (n *Ternary) Clone() Node {
	c := &Ternary{}
	if n.Cond != nil {
		c.Cond = n.Cond.Clone()
		setParentOf(c, c.Cond)
	}
	if n.Then != nil {
		c.Then = n.Then.Clone()
		setParentOf(c, c.Then)
	}
	if n.Else != nil {
		c.Else = n.Else.Clone()
		setParentOf(c, c.Else)
	}
	return c
}
func (n *Ternary) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", stringOrNil(n.Cond), stringOrNil(n.Then), stringOrNil(n.Else))
}

// WhenClause is one WHEN/THEN arm of a Case.
type WhenClause struct {
	Cond, Result Node
}

type Case struct {
	base
	Whens []WhenClause
	Else  Node
}

func NewCase(whens []WhenClause, els Node) *Case {
	n := &Case{Whens: whens, Else: els}
	for _, w := range n.Whens {
		setParentOf(n, w.Cond)
		setParentOf(n, w.Result)
	}
	setParentOf(n, els)
	return n
}

func (n *Case) Kind() Kind { return KindCase }
func (n *Case) Children() []Node {
	children := make([]Node, 0, len(n.Whens)*2+1)
	for _, w := range n.Whens {
		children = append(children, w.Cond, w.Result)
	}
	if n.Else != nil {
		children = append(children, n.Else)
	}
	return children
}
func (n *Case) Accept(v Visitor) error { return Accept(n, v) }
func (n *Case) Clone() Node {
	c := &Case{Whens: make([]WhenClause, len(n.Whens))}
	for i, w := range n.Whens {
		nw := WhenClause{}
		if w.Cond != nil {
			nw.Cond = w.Cond.Clone()
			setParentOf(c, nw.Cond)
		}
		if w.Result != nil {
			nw.Result = w.Result.Clone()
			setParentOf(c, nw.Result)
		}
		c.Whens[i] = nw
	}
	if n.Else != nil {
		c.Else = n.Else.Clone()
		setParentOf(c, c.Else)
	}
	return c
}
func (n *Case) String() string {
	s := "CASE"
	for _, w := range n.Whens {
		s += fmt.Sprintf(" WHEN %s THEN %s", stringOrNil(w.Cond), stringOrNil(w.Result))
	}
	if n.Else != nil {
		s += fmt.Sprintf(" ELSE %s", n.Else)
	}
	return s + " END"
}

// IsNull represents both "IS NULL" (Not == false) and "IS NOT NULL"
// (Not == true).
type IsNull struct {
	base
	Expr Node
	Not  bool
}

func NewIsNull(expr Node, not bool) *IsNull {
	n := &IsNull{Expr: expr, Not: not}
	setParentOf(n, expr)
	return n
}

func (n *IsNull) Kind() Kind       { return KindIsNull }
func (n *IsNull) Children() []Node { return []Node{n.Expr} }
func (n *IsNull) Accept(v Visitor) error { return Accept(n, v) }
func (n *IsNull) Clone() Node {
	c := &IsNull{Not: n.Not}
	if n.Expr != nil {
		c.Expr = n.Expr.Clone()
		setParentOf(c, c.Expr)
	}
	return c
}
func (n *IsNull) String() string {
	if n.Not {
		return fmt.Sprintf("%s IS NOT NULL", stringOrNil(n.Expr))
	}
	return fmt.Sprintf("%s IS NULL", stringOrNil(n.Expr))
}

// In represents `identifier IN (list...)`.
type In struct {
	base
	Ident *Identifier
	List  []Node
}

func NewIn(ident *Identifier, list []Node) *In {
	n := &In{Ident: ident, List: list}
	setParentOf(n, ident)
	for _, e := range list {
		setParentOf(n, e)
	}
	return n
}

func (n *In) Kind() Kind { return KindIn }
func (n *In) Children() []Node {
	children := make([]Node, 0, len(n.List)+1)
	if n.Ident != nil {
		children = append(children, n.Ident)
	}
	children = append(children, n.List...)
	return children
}
func (n *In) Accept(v Visitor) error { return Accept(n, v) }
func (n *In) Clone() Node {
	c := &In{List: make([]Node, len(n.List))}
	if n.Ident != nil {
		c.Ident = n.Ident.Clone().(*Identifier)
		setParentOf(c, c.Ident)
	}
	for i, e := range n.List {
		c.List[i] = e.Clone()
		setParentOf(c, c.List[i])
	}
	return c
}
func (n *In) String() string {
	s := fmt.Sprintf("%s IN (", stringOrNil(n.Ident))
	for i, e := range n.List {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}

// SearchPredicate is a free-text match across one or more identifiers.
type SearchPredicate struct {
	base
	Identifiers []*Identifier
	Term        string
}

func NewSearchPredicate(idents []*Identifier, term string) *SearchPredicate {
	n := &SearchPredicate{Identifiers: idents, Term: term}
	for _, id := range idents {
		setParentOf(n, id)
	}
	return n
}

func (n *SearchPredicate) Kind() Kind { return KindSearchPredicate }
func (n *SearchPredicate) Children() []Node {
	children := make([]Node, len(n.Identifiers))
	for i, id := range n.Identifiers {
		children[i] = id
	}
	return children
}
func (n *SearchPredicate) Accept(v Visitor) error { return Accept(n, v) }
func (n *SearchPredicate) Clone() Node {
	c := &SearchPredicate{Term: n.Term, Identifiers: make([]*Identifier, len(n.Identifiers))}
	for i, id := range n.Identifiers {
		c.Identifiers[i] = id.Clone().(*Identifier)
		setParentOf(c, c.Identifiers[i])
	}
	return c
}
func (n *SearchPredicate) String() string {
	return fmt.Sprintf("SEARCH(%v, %q)", n.Identifiers, n.Term)
}

// IfNull represents IFNULL(expr, alt).
type IfNull struct {
	base
	Expr, Alt Node
}

func NewIfNull(expr, alt Node) *IfNull {
	n := &IfNull{Expr: expr, Alt: alt}
	setParentOf(n, expr)
	setParentOf(n, alt)
	return n
}

func (n *IfNull) Kind() Kind       { return KindIfNull }
func (n *IfNull) Children() []Node { return []Node{n.Expr, n.Alt} }
func (n *IfNull) Accept(v Visitor) error { return Accept(n, v) }
func (n *IfNull) Clone() Node {
	c := &IfNull{}
	if n.Expr != nil {
		c.Expr = n.Expr.Clone()
		setParentOf(c, c.Expr)
	}
	if n.Alt != nil {
		c.Alt = n.Alt.Clone()
		setParentOf(c, c.Alt)
	}
	return c
}
func (n *IfNull) String() string {
	return fmt.Sprintf("IFNULL(%s, %s)", stringOrNil(n.Expr), stringOrNil(n.Alt))
}

func stringOrNil(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
