package ast

// Range is a data source declared in a retrieve block's FROM list. A
// range whose JoinPredicate is nil is an anchor.
type Range interface {
	Node
	RangeName() string
	JoinPredicate() Node
	SetJoinPredicate(Node)
	IsAnchor() bool
}

// DatabaseRange is a range backed by an entity table, optionally joined
// via an explicit predicate and optionally a derived table (a nested
// Retrieve) instead of a plain entity.
type DatabaseRange struct {
	base
	Name     string
	Entity   string
	Join     Node
	Required bool // false = LEFT join, true = INNER join
	Derived  *Retrieve
}

func NewDatabaseRange(name, entity string, join Node, required bool) *DatabaseRange {
	r := &DatabaseRange{Name: name, Entity: entity, Join: join, Required: required}
	setParentOf(r, join)
	return r
}

func (r *DatabaseRange) Kind() Kind       { return KindDatabaseRange }
func (r *DatabaseRange) RangeName() string { return r.Name }
func (r *DatabaseRange) JoinPredicate() Node { return r.Join }
func (r *DatabaseRange) SetJoinPredicate(n Node) {
	r.Join = n
	setParentOf(r, n)
}
func (r *DatabaseRange) IsAnchor() bool { return r.Join == nil }
func (r *DatabaseRange) Children() []Node {
	var children []Node
	if r.Join != nil {
		children = append(children, r.Join)
	}
	if r.Derived != nil {
		children = append(children, r.Derived)
	}
	return children
}
func (r *DatabaseRange) Accept(v Visitor) error { return Accept(r, v) }
func (r *DatabaseRange) Clone() Node {
	c := &DatabaseRange{Name: r.Name, Entity: r.Entity, Required: r.Required}
	if r.Join != nil {
		c.Join = r.Join.Clone()
		setParentOf(c, c.Join)
	}
	if r.Derived != nil {
		c.Derived = r.Derived.Clone().(*Retrieve)
		setParentOf(c, c.Derived)
	}
	return c
}
func (r *DatabaseRange) String() string {
	kind := "LEFT"
	if r.Required {
		kind = "INNER"
	}
	if r.IsAnchor() {
		return r.Entity + " " + r.Name
	}
	return kind + " JOIN " + r.Entity + " " + r.Name + " ON " + stringOrNil(r.Join)
}

// JSONSourceRange is a range over a JSON path rather than a relational
// entity. It is always opaque to the optimizer: never an anchor, never
// pruned, never rewritten.
type JSONSourceRange struct {
	base
	Name string
	Path string
	Expr Node
}

func NewJSONSourceRange(name, path string, expr Node) *JSONSourceRange {
	r := &JSONSourceRange{Name: name, Path: path, Expr: expr}
	setParentOf(r, expr)
	return r
}

func (r *JSONSourceRange) Kind() Kind         { return KindJSONSourceRange }
func (r *JSONSourceRange) RangeName() string  { return r.Name }
func (r *JSONSourceRange) JoinPredicate() Node { return nil }
func (r *JSONSourceRange) SetJoinPredicate(Node) {
	// JSON source ranges never carry a join predicate; intentionally a no-op.
}
func (r *JSONSourceRange) IsAnchor() bool { return false }
func (r *JSONSourceRange) Children() []Node {
	if r.Expr == nil {
		return nil
	}
	return []Node{r.Expr}
}
func (r *JSONSourceRange) Accept(v Visitor) error { return Accept(r, v) }
func (r *JSONSourceRange) Clone() Node {
	c := &JSONSourceRange{Name: r.Name, Path: r.Path}
	if r.Expr != nil {
		c.Expr = r.Expr.Clone()
		setParentOf(c, c.Expr)
	}
	return c
}
func (r *JSONSourceRange) String() string {
	return "JSON " + r.Name + " AT " + r.Path
}
