package ast

import "errors"

// ErrStopWalk is the sentinel a Visitor returns to short-circuit a walk
// without treating it as a failure: Accept stops descending but reports
// no error to its own caller.
var ErrStopWalk = errors.New("ast: stop walk")

// Visitor is invoked once per node during Accept, before that node's
// children are visited.
type Visitor interface {
	Visit(n Node) error
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc func(n Node) error

func (f VisitorFunc) Visit(n Node) error { return f(n) }

// Accept visits n, then — unless the visitor asked to stop — each of its
// children in their declared order, depth-first.
func Accept(n Node, v Visitor) error {
	if n == nil {
		return nil
	}
	if err := v.Visit(n); err != nil {
		if errors.Is(err, ErrStopWalk) {
			return nil
		}
		return err
	}
	for _, c := range n.Children() {
		if err := Accept(c, v); err != nil {
			return err
		}
	}
	return nil
}
