package ast

// Node is implemented by every AST variant. Children are reported in the
// fixed, documented order Accept dispatches in; Parent is non-nil for
// every node except the root of a tree (normally a *Retrieve).
//
// Parent back-links are maintained as plain pointers rather than the
// arena/owner-index scheme sketched as an option in the design notes:
// Go's tracing garbage collector already reclaims reference cycles, so
// the only reason for an index-based scheme (avoiding cycle leaks under
// refcounting or arena-free allocators) does not apply here. Pointers
// keep Parent()/isAncestorOf O(1)/O(depth) without an indirection layer.
type Node interface {
	Kind() Kind
	Parent() Node
	SetParent(Node)
	Children() []Node
	Clone() Node
	Accept(v Visitor) error
	String() string
}

// base is embedded by every concrete node and supplies the Parent/SetParent
// plumbing so individual node types only implement what varies.
type base struct {
	parent Node
}

func (b *base) Parent() Node       { return b.parent }
func (b *base) SetParent(p Node)   { b.parent = p }

// setParentOf attaches child to parent if child is non-nil. Concrete
// constructors and Clone implementations call this after wiring up
// children so back-links are never forgotten.
func setParentOf(parent Node, child Node) {
	if child == nil {
		return
	}
	child.SetParent(parent)
}

