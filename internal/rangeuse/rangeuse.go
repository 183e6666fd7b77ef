// Package rangeuse implements the range-usage analyzer: a single visitor
// pass over a retrieve block's projection and WHERE tree producing, per
// declared range, whether it is used in an expression, used in a
// predicate, has an explicit IS NULL check against it, and whether any
// of its uses are through a non-nullable column.
package rangeuse

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
	"github.com/relq/optimizer/metadata"
)

// Usage is the set of per-range facts the optimizer's rules consume.
type Usage struct {
	UsedInExpr     bool
	UsedInCond     bool
	HasIsNullCheck bool
	NonNullableUse bool
}

// Analyze computes Usage for every range declared directly on retrieve
// (it does not descend into derived tables or subqueries; callers
// analyze those separately as the orchestrator recurses into them).
func Analyze(retrieve *ast.Retrieve, md metadata.Port) map[ast.Range]Usage {
	result := make(map[ast.Range]Usage, len(retrieve.Ranges))
	for _, r := range retrieve.Ranges {
		result[r] = Usage{}
	}

	markExprUse(retrieve, result)
	markCondUse(retrieve, result)
	markIsNullChecks(retrieve.Where, result)
	markNonNullableUse(retrieve, result, md)

	return result
}

// AnalyzeNode is Analyze's counterpart for an arbitrary node (e.g. an
// ANY aggregate's inner expression plus conditions) rather than a whole
// retrieve block, used when a rule needs usage facts scoped to a
// sub-tree instead of the whole query.
func AnalyzeNode(exprPart, condPart ast.Node, ranges []ast.Range, md metadata.Port) map[ast.Range]Usage {
	result := make(map[ast.Range]Usage, len(ranges))
	for _, r := range ranges {
		result[r] = Usage{}
	}
	for _, id := range astutil.CollectIdentifiers(exprPart) {
		if id.Range != nil {
			if u, ok := result[id.Range]; ok {
				u.UsedInExpr = true
				result[id.Range] = u
			}
		}
	}
	for _, id := range astutil.CollectIdentifiers(condPart) {
		if id.Range != nil {
			if u, ok := result[id.Range]; ok {
				u.UsedInCond = true
				result[id.Range] = u
			}
		}
	}
	markIsNullChecks(condPart, result)
	for r, u := range result {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok {
			continue
		}
		if nonNullableUseInRange(exprPart, dr, md) || nonNullableUseInRange(condPart, dr, md) {
			u.NonNullableUse = true
			result[r] = u
		}
	}
	return result
}

func markExprUse(retrieve *ast.Retrieve, result map[ast.Range]Usage) {
	for _, p := range retrieve.Projection {
		for _, id := range astutil.CollectIdentifiers(p.Expr) {
			if id.Range == nil {
				continue
			}
			if u, ok := result[id.Range]; ok {
				u.UsedInExpr = true
				result[id.Range] = u
			}
		}
	}
	for _, s := range retrieve.Sort {
		for _, id := range astutil.CollectIdentifiers(s.Expr) {
			if id.Range == nil {
				continue
			}
			if u, ok := result[id.Range]; ok {
				u.UsedInExpr = true
				result[id.Range] = u
			}
		}
	}
	for _, g := range retrieve.GroupBy {
		for _, id := range astutil.CollectIdentifiers(g) {
			if id.Range == nil {
				continue
			}
			if u, ok := result[id.Range]; ok {
				u.UsedInExpr = true
				result[id.Range] = u
			}
		}
	}
}

func markCondUse(retrieve *ast.Retrieve, result map[ast.Range]Usage) {
	if retrieve.Where == nil {
		return
	}
	for _, id := range astutil.CollectIdentifiers(retrieve.Where) {
		if id.Range == nil {
			continue
		}
		if u, ok := result[id.Range]; ok {
			u.UsedInCond = true
			result[id.Range] = u
		}
	}
}

// markIsNullChecks walks cond and flags any range referenced by an
// IsNull node's operand (either IS NULL or IS NOT NULL — both count as
// an explicit null check).
func markIsNullChecks(cond ast.Node, result map[ast.Range]Usage) {
	if cond == nil {
		return
	}
	_ = ast.Accept(cond, ast.VisitorFunc(func(n ast.Node) error {
		isNull, ok := n.(*ast.IsNull)
		if !ok {
			return nil
		}
		for _, id := range astutil.CollectIdentifiers(isNull.Expr) {
			if id.Range == nil {
				continue
			}
			if u, ok := result[id.Range]; ok {
				u.HasIsNullCheck = true
				result[id.Range] = u
			}
		}
		return nil
	}))
}

func markNonNullableUse(retrieve *ast.Retrieve, result map[ast.Range]Usage, md metadata.Port) {
	for r := range result {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok {
			continue
		}
		if nonNullableUseInRange(retrieve, dr, md) {
			u := result[r]
			u.NonNullableUse = true
			result[r] = u
		}
	}
}

// nonNullableUseInRange reports whether any identifier bound to dr
// within subtree references a column the metadata port declares NOT
// NULL. Unknown fields are conservatively treated as nullable.
func nonNullableUseInRange(subtree ast.Node, dr *ast.DatabaseRange, md metadata.Port) bool {
	if subtree == nil || md == nil {
		return false
	}
	for _, id := range astutil.CollectIdentifiers(subtree) {
		if id.Range != ast.Range(dr) {
			continue
		}
		property := propertyOf(id)
		nullable, err := md.IsColumnNullable(dr.Entity, property)
		if err == nil && !nullable {
			return true
		}
	}
	return false
}

// propertyOf returns the property name an identifier denotes relative to
// its own range: the segment following the base, e.g. "name" in "u.name".
func propertyOf(id *ast.Identifier) string {
	head := id.GetBaseIdentifier()
	if head.Next != nil {
		return head.Next.Segment
	}
	return head.Segment
}
