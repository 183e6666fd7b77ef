// Package astutil implements traversal, collection and rewrite
// primitives shared by every optimizer rule: visitor dispatch, predicate
// combinators, collectors, child replacement and identifier rebinding
// during subquery lowering.
package astutil

import "github.com/relq/optimizer/ast"

// IsAncestorOf reports whether self appears anywhere in n's chain of
// parents, i.e. whether self is an ancestor of n. Used to find which
// clause (SELECT / WHERE / ORDER BY) a node lives in.
func IsAncestorOf(self, n ast.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == self {
			return true
		}
	}
	return false
}

// ParentPath returns the root-to-parent sequence of n, not including n
// itself.
func ParentPath(n ast.Node) []ast.Node {
	var rev []ast.Node
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		rev = append(rev, cur)
	}
	path := make([]ast.Node, len(rev))
	for i, node := range rev {
		path[len(rev)-1-i] = node
	}
	return path
}

// EnclosingRetrieve walks up from n to find the nearest *ast.Retrieve
// ancestor (the retrieve block that owns the clause n lives in).
func EnclosingRetrieve(n ast.Node) *ast.Retrieve {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if r, ok := cur.(*ast.Retrieve); ok {
			return r
		}
	}
	return nil
}
