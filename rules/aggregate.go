package rules

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
	"github.com/relq/optimizer/internal/surgery"
	"github.com/relq/optimizer/metadata"
)

// LowerAggregates implements the aggregate optimizer: for every
// aggregate reachable from q's own projection, WHERE, sort and group-by
// (not ones already owned by a nested retrieve), decide between leaving
// it attached for window-function emission and lowering it to a
// correlated scalar subquery. ANY gets its own three-way handling.
func LowerAggregates(q *ast.Retrieve, md metadata.Port) error {
	for _, agg := range localAggregates(q) {
		if agg.AggKind == ast.AggAny {
			if err := lowerAny(q, agg, md); err != nil {
				return err
			}
			continue
		}
		if choosesWindow(agg) {
			continue // stays attached; the emitter renders it as a window function
		}
		if err := lowerToScalarSubquery(q, agg); err != nil {
			return err
		}
	}
	return nil
}

// choosesWindow reports whether agg can remain attached to the outer
// query's own grouping semantics rather than being extracted: it has no
// embedded WHERE and no ranges of its own needing independent
// correlation.
func choosesWindow(agg *ast.Aggregate) bool {
	return agg.Conditions == nil && len(agg.Ranges) == 0
}

// lowerToScalarSubquery replaces agg (wherever it sits in q's projection,
// WHERE, sort or group-by) with a SCALAR subquery over a clone of agg's
// minimal range set, moving its embedded conditions into the subquery's
// WHERE.
func lowerToScalarSubquery(q *ast.Retrieve, agg *ast.Aggregate) error {
	seed := append([]ast.Range(nil), agg.Ranges...)
	all := append(append([]ast.Range(nil), q.Ranges...), agg.Ranges...)
	closure := surgery.MinimalRangeSet(seed, all)

	mapping := make(map[ast.Range]ast.Range, len(closure))
	var clonedRanges []ast.Range
	for _, r := range closure {
		if isOuterOwned(r, q) {
			continue // the outer query's own range; stays as a correlation, not cloned
		}
		clone := r.Clone().(ast.Range)
		mapping[r] = clone
		clonedRanges = append(clonedRanges, clone)
	}

	innerExpr := agg.Inner.Clone()
	astutil.RebindMany(innerExpr, mapping)

	var innerWhereParts []ast.Node
	if agg.Conditions != nil {
		cond := agg.Conditions.Clone()
		astutil.RebindMany(cond, mapping)
		innerWhereParts = append(innerWhereParts, cond)
	}
	for _, r := range closure {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok || dr.Join == nil {
			continue
		}
		joinCond := dr.Join.Clone()
		astutil.RebindMany(joinCond, mapping)
		innerWhereParts = append(innerWhereParts, joinCond)
	}

	inner := ast.NewRetrieve()
	inner.Ranges = clonedRanges
	for _, r := range clonedRanges {
		r.SetParent(inner)
	}
	inner.Where = astutil.CombineAnd(innerWhereParts)
	if inner.Where != nil {
		inner.Where.SetParent(inner)
	}
	innerAgg := ast.NewAggregate(agg.AggKind, innerExpr, nil)
	inner.Projection = []ast.ProjectionItem{{Expr: innerAgg, Visible: true}}
	innerAgg.SetParent(inner)

	correlated := correlatedOuterRanges(inner.Where, q)
	subq := ast.NewSubquery(ast.SubqueryScalar, inner, correlated)

	agg.ClearConditions()

	var replacement ast.Node = subq
	if agg.AggKind == ast.AggSum || agg.AggKind == ast.AggSumDistinct {
		// A SUM over an empty correlated set yields NULL from the
		// database; coalesce it to 0 so the lowering doesn't change
		// what an attached SUM would have returned. Other aggregates
		// keep NULL-on-empty semantics.
		replacement = ast.NewIfNull(subq, ast.NewNumber("0"))
	}
	return astutil.ReplaceChild(agg.Parent(), ast.Node(agg), replacement)
}

// isOuterOwned reports whether r belongs to q's own declared Ranges
// (as opposed to an aggregate-private range pulled in by the closure).
func isOuterOwned(r ast.Range, q *ast.Retrieve) bool {
	for _, outer := range q.Ranges {
		if outer == r {
			return true
		}
	}
	return false
}

// lowerAny implements ANY(expr)'s three-way contract: a WHERE-context
// ANY becomes an EXISTS subquery, a SELECT-context ANY becomes
// CASE WHEN EXISTS(...) THEN 1 ELSE 0 END, and either degenerates to the
// literal 1 when the target range is already an INNER-joined,
// non-nullable, condition-free range (the self-join fast path restated
// for ANY).
func lowerAny(q *ast.Retrieve, agg *ast.Aggregate, md metadata.Port) error {
	if agg.Conditions == nil && len(agg.Ranges) == 0 {
		if target := anyTargetRange(agg, q); target != nil && target.Required {
			nullable, err := md.IsColumnNullable(target.Entity, astutil.PropertyName(innerIdentifier(agg.Inner)))
			if err == nil && !nullable {
				return astutil.ReplaceChild(agg.Parent(), ast.Node(agg), ast.Node(ast.NewNumber("1")))
			}
		}
	}

	existsRetrieve, correlated, err := buildAnyExistsRetrieve(q, agg)
	if err != nil {
		return err
	}
	existsNode := ast.NewSubquery(ast.SubqueryExists, existsRetrieve, correlated)

	if isWhereContext(agg, q) {
		return astutil.ReplaceChild(agg.Parent(), ast.Node(agg), ast.Node(existsNode))
	}
	caseNode := ast.NewCase(
		[]ast.WhenClause{{Cond: existsNode, Result: ast.NewNumber("1")}},
		ast.NewNumber("0"),
	)
	return astutil.ReplaceChild(agg.Parent(), ast.Node(agg), ast.Node(caseNode))
}

// anyTargetRange returns the range agg.Inner is bound against, if any.
func anyTargetRange(agg *ast.Aggregate, q *ast.Retrieve) *ast.DatabaseRange {
	id := innerIdentifier(agg.Inner)
	if id == nil || id.Range == nil {
		return nil
	}
	dr, _ := id.Range.(*ast.DatabaseRange)
	return dr
}

func innerIdentifier(n ast.Node) *ast.Identifier {
	id, _ := n.(*ast.Identifier)
	return id
}

// isWhereContext reports whether agg sits somewhere under q's WHERE tree
// rather than in its projection/sort/group-by.
func isWhereContext(agg *ast.Aggregate, q *ast.Retrieve) bool {
	for cur := ast.Node(agg); cur != nil; cur = cur.Parent() {
		if cur == q.Where {
			return true
		}
		if cur == ast.Node(q) {
			return false
		}
	}
	return false
}

// buildAnyExistsRetrieve constructs the EXISTS wrapper retrieve for ANY,
// reusing agg's own ranges (if any) or, for a plain field reference,
// the single range agg.Inner is bound to.
func buildAnyExistsRetrieve(q *ast.Retrieve, agg *ast.Aggregate) (*ast.Retrieve, []ast.Range, error) {
	inner := ast.NewRetrieve()

	var ranges []ast.Range
	if len(agg.Ranges) > 0 {
		for _, r := range agg.Ranges {
			ranges = append(ranges, r.Clone().(ast.Range))
		}
	} else if dr := anyTargetRange(agg, q); dr != nil {
		ranges = append(ranges, dr.Clone().(ast.Range))
	}
	inner.Ranges = ranges
	for _, r := range ranges {
		r.SetParent(inner)
	}

	mapping := make(map[ast.Range]ast.Range, len(ranges))
	if len(agg.Ranges) > 0 {
		for i, r := range agg.Ranges {
			mapping[r] = ranges[i]
		}
	} else if dr := anyTargetRange(agg, q); dr != nil && len(ranges) == 1 {
		mapping[ast.Range(dr)] = ranges[0]
	}

	var whereParts []ast.Node
	if agg.Conditions != nil {
		cond := agg.Conditions.Clone()
		astutil.RebindMany(cond, mapping)
		whereParts = append(whereParts, cond)
	}
	for _, r := range ranges {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok || dr.Join == nil {
			continue
		}
		joinCond := dr.Join.Clone()
		astutil.RebindMany(joinCond, mapping)
		whereParts = append(whereParts, joinCond)
		dr.Join = nil
	}
	inner.Where = astutil.CombineAnd(whereParts)
	if inner.Where != nil {
		inner.Where.SetParent(inner)
	}

	correlated := correlatedOuterRanges(inner.Where, q)
	return inner, correlated, nil
}

// localAggregates collects every Aggregate reachable from q's own
// projection, WHERE, sort and group-by, stopping at any nested Retrieve
// boundary (a Subquery's Query or a DatabaseRange's Derived table) since
// those are optimized independently at their own nesting level.
func localAggregates(q *ast.Retrieve) []*ast.Aggregate {
	var out []*ast.Aggregate
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		if agg, ok := n.(*ast.Aggregate); ok {
			out = append(out, agg)
			return
		}
		switch n.(type) {
		case *ast.Subquery, *ast.DatabaseRange, *ast.JSONSourceRange:
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	for _, p := range q.Projection {
		walk(p.Expr)
	}
	walk(q.Where)
	for _, s := range q.Sort {
		walk(s.Expr)
	}
	for _, g := range q.GroupBy {
		walk(g)
	}
	return out
}
