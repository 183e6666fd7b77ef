package rules

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/internal/rangeuse"
	"github.com/relq/optimizer/metadata"
)

// CollapseLeftJoinsToInner implements the join-type optimizer: promote a
// LEFT-joined range to INNER wherever doing so cannot change the result,
// so later rules (the EXISTS rewriter, the anchor manager) see as many
// INNER ranges as safely possible. When any precondition is uncertain,
// the rewrite is skipped rather than risked.
func CollapseLeftJoinsToInner(q *ast.Retrieve, md metadata.Port) error {
	usage := rangeuse.Analyze(q, md)
	for _, r := range q.Ranges {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok || dr.Required || dr.IsAnchor() {
			continue
		}
		if CanSafelyCollapseToInner(usage[r]) {
			dr.Required = true
		}
	}
	return nil
}

// CanSafelyCollapseToInner reports whether a LEFT-joined range with the
// given usage facts may be promoted to INNER without changing the
// query's result. It is also the signal the anchor manager's scoring
// table consults for its "can safely collapse" criterion, so it is
// exported rather than kept package-private.
func CanSafelyCollapseToInner(u rangeuse.Usage) bool {
	if u.HasIsNullCheck {
		return false
	}
	return u.NonNullableUse || !u.UsedInCond
}
