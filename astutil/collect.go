package astutil

import "github.com/relq/optimizer/ast"

// CollectIdentifiers returns every Identifier segment that is the head of
// its chain (i.e. every distinct identifier reference), in the order
// Accept visits them.
func CollectIdentifiers(n ast.Node) []*ast.Identifier {
	var out []*ast.Identifier
	_ = ast.Accept(n, ast.VisitorFunc(func(node ast.Node) error {
		if id, ok := node.(*ast.Identifier); ok {
			if _, isIdentParent := id.Parent().(*ast.Identifier); !isIdentParent {
				out = append(out, id)
			}
		}
		return nil
	}))
	return out
}

// CollectRanges returns every range declared directly on retrieve's own
// Ranges list (it does not descend into derived tables or subqueries —
// callers recurse explicitly when they need that, matching the
// orchestrator's own depth-first recursion model).
func CollectRanges(retrieve *ast.Retrieve) []ast.Range {
	return append([]ast.Range(nil), retrieve.Ranges...)
}

// CollectAggregates returns every Aggregate node reachable from n, in
// visita­tion order.
func CollectAggregates(n ast.Node) []*ast.Aggregate {
	var out []*ast.Aggregate
	_ = ast.Accept(n, ast.VisitorFunc(func(node ast.Node) error {
		if agg, ok := node.(*ast.Aggregate); ok {
			out = append(out, agg)
		}
		return nil
	}))
	return out
}

// FindAllAny returns every Aggregate of kind ANY reachable from the
// retrieve block through any of its children, nested subqueries included.
func FindAllAny(retrieve *ast.Retrieve) []*ast.Aggregate {
	var out []*ast.Aggregate
	for _, agg := range CollectAggregates(retrieve) {
		if agg.AggKind == ast.AggAny {
			out = append(out, agg)
		}
	}
	return out
}

// RangesUsedBy returns the set of ranges (by object identity) that any
// identifier reachable from n is bound to.
func RangesUsedBy(n ast.Node) map[ast.Range]bool {
	used := make(map[ast.Range]bool)
	for _, id := range CollectIdentifiers(n) {
		if id.Range != nil {
			used[id.Range] = true
		}
	}
	return used
}
