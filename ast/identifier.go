package ast

import "strings"

// Identifier is one segment of a chained name (e.g. `u`, `address`,
// `city` in `u.address.city`). Next links to the following segment;
// Range is a non-owning binding to the data source this identifier was
// resolved against, set by the parser (external) and possibly retargeted
// by RebindPredicateToClone during subquery lowering.
type Identifier struct {
	base
	Segment string
	Next    *Identifier
	Range   Range
}

func NewIdentifier(segments ...string) *Identifier {
	if len(segments) == 0 {
		return nil
	}
	head := &Identifier{Segment: segments[0]}
	cur := head
	for _, seg := range segments[1:] {
		next := &Identifier{Segment: seg}
		cur.Next = next
		setParentOf(cur, next)
		cur = next
	}
	return head
}

func (n *Identifier) Kind() Kind { return KindIdentifier }
func (n *Identifier) Children() []Node {
	if n.Next == nil {
		return nil
	}
	return []Node{n.Next}
}
func (n *Identifier) Accept(v Visitor) error { return Accept(n, v) }

// Clone copies the whole chain starting at this segment. The Range
// binding is copied by reference (non-owning); callers that need to
// retarget it use astutil.RebindPredicateToClone.
func (n *Identifier) Clone() Node {
	c := &Identifier{Segment: n.Segment, Range: n.Range}
	if n.Next != nil {
		c.Next = n.Next.Clone().(*Identifier)
		setParentOf(c, c.Next)
	}
	return c
}

func (n *Identifier) String() string { return n.GetCompleteName() }

// GetBaseIdentifier walks up the parent chain while the parent is itself
// an Identifier segment, returning the head of the chain this segment
// belongs to.
func (n *Identifier) GetBaseIdentifier() *Identifier {
	cur := n
	for {
		p, ok := cur.Parent().(*Identifier)
		if !ok || p == nil {
			return cur
		}
		cur = p
	}
}

// GetCompleteName joins every segment from this node's head to its tail
// with dots, e.g. "u.address.city".
func (n *Identifier) GetCompleteName() string {
	head := n.GetBaseIdentifier()
	var segs []string
	for cur := head; cur != nil; cur = cur.Next {
		segs = append(segs, cur.Segment)
	}
	return strings.Join(segs, ".")
}
