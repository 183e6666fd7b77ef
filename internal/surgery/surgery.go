// Package surgery implements the range/predicate surgery primitives:
// transitive join-dependency closure, minimal range sets for subquery
// lowering, live/correlation-only classification, and join-predicate
// splitting.
package surgery

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
)

// ExpandWithJoinDependencies returns seed plus every range transitively
// referenced (by any identifier) in the join predicate of an
// already-accumulated range. The DFS is cycle-safe: each range is
// visited at most once per call.
func ExpandWithJoinDependencies(seed []ast.Range, all []ast.Range) []ast.Range {
	processed := make(map[ast.Range]bool, len(all))
	var order []ast.Range

	var visit func(r ast.Range)
	visit = func(r ast.Range) {
		if processed[r] {
			return
		}
		processed[r] = true
		order = append(order, r)

		dr, ok := r.(*ast.DatabaseRange)
		if !ok || dr.Join == nil {
			return
		}
		for depRange := range astutil.RangesUsedBy(dr.Join) {
			if depRange != r {
				visit(depRange)
			}
		}
	}

	for _, r := range seed {
		visit(r)
	}
	return order
}

// MinimalRangeSet computes the closure of seedRanges (the ranges an
// aggregate or subquery directly uses) against allRanges (typically the
// outer retrieve's full range list), preserving referential integrity
// when lowering to a correlated subquery.
func MinimalRangeSet(seedRanges, allRanges []ast.Range) []ast.Range {
	return ExpandWithJoinDependencies(seedRanges, allRanges)
}

// RemoveRangesNotIn deletes from retrieve every range whose object
// identity is not present in keep.
func RemoveRangesNotIn(retrieve *ast.Retrieve, keep []ast.Range) {
	keepSet := make(map[ast.Range]bool, len(keep))
	for _, r := range keep {
		keepSet[r] = true
	}
	out := retrieve.Ranges[:0]
	for _, r := range retrieve.Ranges {
		if keepSet[r] {
			out = append(out, r)
		}
	}
	retrieve.Ranges = out
}

// JoinReferences reports, for every ordered pair (k, r) with k != r,
// whether k's join predicate mentions r.
func JoinReferences(ranges []ast.Range) map[ast.Range]map[ast.Range]bool {
	refs := make(map[ast.Range]map[ast.Range]bool, len(ranges))
	for _, k := range ranges {
		refs[k] = make(map[ast.Range]bool)
		dr, ok := k.(*ast.DatabaseRange)
		if !ok || dr.Join == nil {
			continue
		}
		for used := range astutil.RangesUsedBy(dr.Join) {
			if used != k {
				refs[k][used] = true
			}
		}
	}
	return refs
}

// Liveness classifies every range in ranges as live (used in projection
// or a predicate) or correlation-only (not live, referenced only from
// another range's join predicate).
type Liveness struct {
	Live             map[ast.Range]bool
	CorrelationOnly  map[ast.Range]bool
}

// ClassifyLiveness computes Liveness for ranges given the set of ranges
// directly used by exprAndCond (typically the subquery's own projection
// expression plus its WHERE).
func ClassifyLiveness(ranges []ast.Range, directlyUsed map[ast.Range]bool) Liveness {
	refs := JoinReferences(ranges)
	referencedByAnyJoin := make(map[ast.Range]bool)
	for _, targets := range refs {
		for r := range targets {
			referencedByAnyJoin[r] = true
		}
	}

	live := make(map[ast.Range]bool)
	corrOnly := make(map[ast.Range]bool)
	for _, r := range ranges {
		if directlyUsed[r] {
			live[r] = true
			continue
		}
		if referencedByAnyJoin[r] {
			corrOnly[r] = true
		}
	}
	return Liveness{Live: live, CorrelationOnly: corrOnly}
}

// SplitResult is the outcome of partitioning a join predicate.
type SplitResult struct {
	Inner      ast.Node // references only live ranges
	Correlation ast.Node // references at least one correlation-only range
}

// SplitJoinPredicate partitions pred into an inner part (safe to keep
// inside a lowered subquery) and a correlation part (must stay as the
// subquery's correlation condition against the outer query): AND splits
// conjunct-wise, OR splits each disjunct and recombines, and a leaf
// referencing both live and correlation-only ranges (MIXED) is
// conservatively routed entirely to Inner.
//
// No rule in this module calls it: the EXISTS rewriter and the aggregate
// optimizer's scalar-subquery lowering move whole join predicates into
// the subquery's WHERE without partitioning them.
func SplitJoinPredicate(pred ast.Node, live Liveness) SplitResult {
	if pred == nil {
		return SplitResult{}
	}

	if bin, ok := pred.(*ast.BinaryOp); ok && bin.Op == ast.OpAnd {
		left := SplitJoinPredicate(bin.Left, live)
		right := SplitJoinPredicate(bin.Right, live)
		return SplitResult{
			Inner:       astutil.CombineAnd([]ast.Node{left.Inner, right.Inner}),
			Correlation: astutil.CombineAnd([]ast.Node{left.Correlation, right.Correlation}),
		}
	}

	if bin, ok := pred.(*ast.BinaryOp); ok && bin.Op == ast.OpOr {
		left := SplitJoinPredicate(bin.Left, live)
		right := SplitJoinPredicate(bin.Right, live)
		// An OR's inner part only holds if both disjuncts classify as
		// inner; otherwise the whole disjunction must be conservatively
		// treated as a single leaf (classified below).
		if left.Correlation == nil && right.Correlation == nil {
			return SplitResult{Inner: pred}
		}
		if left.Inner == nil && right.Inner == nil {
			return SplitResult{Correlation: pred}
		}
		return classifyLeaf(pred, live)
	}

	return classifyLeaf(pred, live)
}

// classifyLeaf decides INNER / CORR / MIXED for a single predicate leaf
// by inspecting which ranges its identifiers reference. MIXED (both live
// and correlation-only ranges referenced) routes to Inner: conservative
// for the subquery, and correct because the correlation identifier is
// still bound to an outer range visible from the subquery's scope.
func classifyLeaf(leaf ast.Node, live Liveness) SplitResult {
	referencesLive := false
	referencesCorr := false
	for r := range astutil.RangesUsedBy(leaf) {
		if live.Live[r] {
			referencesLive = true
		}
		if live.CorrelationOnly[r] {
			referencesCorr = true
		}
	}
	switch {
	case referencesCorr && !referencesLive:
		return SplitResult{Correlation: leaf}
	default:
		// Pure-inner and MIXED (both) both resolve to Inner.
		return SplitResult{Inner: leaf}
	}
}
