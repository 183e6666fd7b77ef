package rules

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
)

// ExciseFilterOnlyJoins implements the EXISTS rewriter: when a
// retrieve's projection is purely aggregate-valued, any joined range
// that neither feeds an aggregate nor appears in the outer WHERE is
// there only to filter rows, never to supply data. Such a range is
// excised: the original is deep-cloned, its join predicate is rebound
// onto the clone, wrapped as an EXISTS subquery, and AND-combined into
// the outer WHERE in place of the join.
func ExciseFilterOnlyJoins(q *ast.Retrieve) error {
	if !isProjectionPurelyAggregate(q) {
		return nil
	}

	aggUsed := make(map[ast.Range]bool)
	for _, agg := range astutil.CollectAggregates(q) {
		for r := range astutil.RangesUsedBy(agg.Inner) {
			aggUsed[r] = true
		}
		for r := range astutil.RangesUsedBy(agg.Conditions) {
			aggUsed[r] = true
		}
	}
	whereUsed := astutil.RangesUsedBy(q.Where)

	for _, r := range append([]ast.Range(nil), q.Ranges...) {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok || dr.IsAnchor() || dr.Join == nil {
			continue
		}
		if aggUsed[r] || whereUsed[r] {
			continue
		}

		clone := dr.Clone().(*ast.DatabaseRange)
		clone.Join = nil
		rebound := astutil.RebindPredicateToClone(dr.Join, ast.Range(dr), ast.Range(clone))

		inner := ast.NewRetrieve()
		inner.Ranges = []ast.Range{clone}
		clone.SetParent(inner)
		inner.Where = rebound
		rebound.SetParent(inner)

		correlated := correlatedOuterRanges(rebound, q)
		existsNode := ast.NewSubquery(ast.SubqueryExists, inner, correlated)

		q.Where = astutil.CombineAnd([]ast.Node{q.Where, existsNode})
		existsNode.SetParent(q)

		q.RemoveRange(dr)
		dr.Join = nil
	}
	return nil
}

// isProjectionPurelyAggregate reports whether every visible projection
// item's expression is rooted at an Aggregate node.
func isProjectionPurelyAggregate(q *ast.Retrieve) bool {
	if len(q.Projection) == 0 {
		return false
	}
	for _, p := range q.Projection {
		if _, ok := p.Expr.(*ast.Aggregate); !ok {
			return false
		}
	}
	return true
}

// correlatedOuterRanges returns the outer ranges of q that pred
// references, for populating a newly built Subquery's CorrelatedRanges.
func correlatedOuterRanges(pred ast.Node, q *ast.Retrieve) []ast.Range {
	outer := make(map[ast.Range]bool, len(q.Ranges))
	for _, r := range q.Ranges {
		outer[r] = true
	}
	var out []ast.Range
	for r := range astutil.RangesUsedBy(pred) {
		if outer[r] {
			out = append(out, r)
		}
	}
	return out
}
