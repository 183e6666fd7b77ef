// Package anchor implements the anchor manager: ensure a retrieve block
// ends the pipeline with exactly one anchor range (a range with no join
// predicate), scoring every candidate and applying the strategy the
// winning candidate's join-state calls for.
package anchor

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
	"github.com/relq/optimizer/internal/rangeuse"
	"github.com/relq/optimizer/metadata"
	"github.com/relq/optimizer/relqerr"
	"github.com/relq/optimizer/rules"
)

// Options controls which anchor strategy is applied once a candidate is
// chosen. PreserveJoins selects the *_preserve family (for callers whose
// downstream consumer needs joins to stay joined, e.g. an emitter that
// renders explicit JOIN clauses); the default, optimize-eagerly behavior
// selects the *_with_optimization family.
type Options struct {
	PreserveJoins bool
}

const (
	scoreSelectReferenced = 1000
	scoreAlreadyInner     = 100
	scoreLeftJoined       = 50
	scoreCanCollapse      = 10
)

// EnsureAnchor guarantees q has exactly one anchor range. If one already
// exists, or q has no ranges at all, it is a no-op. Otherwise every range is scored, the
// highest-scoring viable candidate is chosen (ties break to whichever
// comes first in q.Ranges), and the configured strategy is applied. If no
// candidate is viable, it returns a relqerr.NoValidAnchor error.
func EnsureAnchor(q *ast.Retrieve, md metadata.Port, opts Options) error {
	if len(q.Ranges) == 0 || q.AnchorRange() != nil {
		return nil
	}

	usage := rangeuse.Analyze(q, md)
	selectRefs := selectReferencedRanges(q)

	var best *ast.DatabaseRange
	bestScore := -1
	for _, r := range q.Ranges {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok {
			continue
		}
		score, viable := scoreCandidate(dr, usage[r], selectRefs[r])
		if !viable {
			continue
		}
		if score > bestScore {
			best = dr
			bestScore = score
		}
	}

	if best == nil {
		return relqerr.New("anchor.EnsureAnchor", relqerr.NoValidAnchor)
	}

	if opts.PreserveJoins {
		return applyPreserve(q, best)
	}
	return applyWithOptimization(q, best)
}

// scoreCandidate implements the anchor manager's additive priority table
// and viability gate.
func scoreCandidate(dr *ast.DatabaseRange, u rangeuse.Usage, selectReferenced bool) (score int, viable bool) {
	canCollapse := rules.CanSafelyCollapseToInner(u)

	if selectReferenced {
		score += scoreSelectReferenced
	}
	if dr.Required {
		score += scoreAlreadyInner
	} else {
		score += scoreLeftJoined
	}
	if canCollapse {
		score += scoreCanCollapse
	}

	viable = dr.Required || (!dr.Required && canCollapse)
	return score, viable
}

// selectReferencedRanges reports, per range, whether it is referenced by
// any visible projection expression.
func selectReferencedRanges(q *ast.Retrieve) map[ast.Range]bool {
	refs := make(map[ast.Range]bool, len(q.Ranges))
	for _, p := range q.Projection {
		for r := range astutil.RangesUsedBy(p.Expr) {
			refs[r] = true
		}
	}
	return refs
}

// applyWithOptimization implements the expression_with_optimization /
// inner_with_optimization / left_optimize_to_inner strategy: fold every
// range's join predicate into WHERE, leaving only the anchor in Ranges.
func applyWithOptimization(q *ast.Retrieve, anchor *ast.DatabaseRange) error {
	var parts []ast.Node
	if q.Where != nil {
		parts = append(parts, q.Where)
	}
	if anchor.Join != nil {
		parts = append(parts, anchor.Join)
		anchor.Join = nil
	}
	kept := []ast.Range{anchor}
	for _, r := range q.Ranges {
		switch dr := r.(type) {
		case *ast.DatabaseRange:
			if dr == anchor || dr.Join == nil {
				continue
			}
			parts = append(parts, dr.Join)
			dr.Join = nil
		case *ast.JSONSourceRange:
			kept = append(kept, dr) // opaque leaf: never folded, never pruned
		}
	}
	q.Where = astutil.CombineAnd(parts)
	if q.Where != nil {
		q.Where.SetParent(q)
	}
	q.Ranges = kept
	return nil
}

// applyPreserve implements the expression_preserve / inner_preserve
// strategy: move only the chosen range's own join predicate to WHERE (the
// minimum required to make it IsAnchor()), leaving every other range's
// join intact.
func applyPreserve(q *ast.Retrieve, anchor *ast.DatabaseRange) error {
	if anchor.Join == nil {
		return nil
	}
	q.Where = astutil.CombineAnd([]ast.Node{q.Where, anchor.Join})
	if q.Where != nil {
		q.Where.SetParent(q)
	}
	anchor.Join = nil
	return nil
}
