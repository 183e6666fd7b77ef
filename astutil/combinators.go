package astutil

import "github.com/relq/optimizer/ast"

// FlattenAnd iteratively decomposes a left- or right-deep AND tree into
// a flat list of conjuncts. A nil node yields an empty list; a
// non-BinaryOp(AND) node yields a single-element list containing itself.
func FlattenAnd(n ast.Node) []ast.Node { return flatten(n, ast.OpAnd) }

// FlattenOr is FlattenAnd's OR counterpart.
func FlattenOr(n ast.Node) []ast.Node { return flatten(n, ast.OpOr) }

func flatten(n ast.Node, op ast.BinOp) []ast.Node {
	if n == nil {
		return nil
	}
	bin, ok := n.(*ast.BinaryOp)
	if !ok || bin.Op != op {
		return []ast.Node{n}
	}
	var out []ast.Node
	out = append(out, flatten(bin.Left, op)...)
	out = append(out, flatten(bin.Right, op)...)
	return out
}

// CombineAnd rebuilds a left-deep AND tree from parts, dropping nils.
// An empty result is nil; a singleton returns that element unwrapped.
func CombineAnd(parts []ast.Node) ast.Node { return combine(parts, ast.OpAnd) }

// CombineOr is CombineAnd's OR counterpart.
func CombineOr(parts []ast.Node) ast.Node { return combine(parts, ast.OpOr) }

func combine(parts []ast.Node, op ast.BinOp) ast.Node {
	var filtered []ast.Node
	for _, p := range parts {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	result := filtered[0]
	for _, p := range filtered[1:] {
		result = ast.NewBinaryOp(op, result, p)
	}
	return result
}
