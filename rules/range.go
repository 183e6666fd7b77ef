// Package rules implements the individual optimizer rules: one file per
// rule, each mutating the AST in place and returning an error for any
// precondition violation.
package rules

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
	"github.com/relq/optimizer/internal/surgery"
)

// PruneUnusedLeftJoins implements the range optimizer: collect every
// range directly used from SELECT, WHERE, and every
// surviving join predicate, expand by join-dependency closure, then
// remove any optional (LEFT-joined) range that falls outside that
// closure. The anchor and any required (INNER) range are never removed
// here — dropping a referentially-significant INNER join could change
// row cardinality, which this rule must not do.
//
// When exactly one range remains afterward and its own join predicate
// references only itself, that predicate is folded into WHERE and the
// range becomes the anchor.
func PruneUnusedLeftJoins(q *ast.Retrieve) error {
	seed := directlyUsedRanges(q)
	closure := surgery.ExpandWithJoinDependencies(toSlice(seed), q.Ranges)
	inClosure := make(map[ast.Range]bool, len(closure))
	for _, r := range closure {
		inClosure[r] = true
	}

	var keep []ast.Range
	for _, r := range q.Ranges {
		dr, isDB := r.(*ast.DatabaseRange)
		if isDB && !dr.Required && !dr.IsAnchor() && !inClosure[r] {
			continue // unused optional join: drop it
		}
		keep = append(keep, r)
	}
	surgery.RemoveRangesNotIn(q, keep)

	foldSoleRangeIntoAnchor(q)
	return nil
}

// foldSoleRangeIntoAnchor handles the single-range degenerate case: a
// lone remaining range whose join predicate only references itself can
// have that predicate folded into WHERE, making it the anchor.
func foldSoleRangeIntoAnchor(q *ast.Retrieve) {
	if len(q.Ranges) != 1 {
		return
	}
	dr, ok := q.Ranges[0].(*ast.DatabaseRange)
	if !ok || dr.Join == nil {
		return
	}
	referencesOnlyItself := true
	for r := range astutil.RangesUsedBy(dr.Join) {
		if r != ast.Range(dr) {
			referencesOnlyItself = false
			break
		}
	}
	if !referencesOnlyItself {
		return
	}
	join := dr.Join
	dr.Join = nil
	join.SetParent(q)
	q.Where = astutil.CombineAnd([]ast.Node{q.Where, join})
}

func directlyUsedRanges(q *ast.Retrieve) map[ast.Range]bool {
	used := make(map[ast.Range]bool)
	for _, p := range q.Projection {
		for r := range astutil.RangesUsedBy(p.Expr) {
			used[r] = true
		}
	}
	for _, s := range q.Sort {
		for r := range astutil.RangesUsedBy(s.Expr) {
			used[r] = true
		}
	}
	for _, g := range q.GroupBy {
		for r := range astutil.RangesUsedBy(g) {
			used[r] = true
		}
	}
	for r := range astutil.RangesUsedBy(q.Where) {
		used[r] = true
	}
	for _, r := range q.Ranges {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok || dr.Join == nil {
			continue
		}
		for ref := range astutil.RangesUsedBy(dr.Join) {
			used[ref] = true
		}
	}
	return used
}

func toSlice(set map[ast.Range]bool) []ast.Range {
	out := make([]ast.Range, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	return out
}
