package rules

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
	"github.com/relq/optimizer/relqerr"
)

// SimplifySelfJoins looks for an EXISTS subquery whose range is the same
// entity as one of its correlated outer ranges and whose WHERE is nothing
// but a conjunction of equalities pairing each outer column with the
// matching inner column — the classic "does a row with my own key values
// exist" self-join, which is always true (a row is equal to itself)
// modulo NULLs.
//
// When IncludeNulls is true the EXISTS collapses to the literal tautology
// `1 = 1`. When false, NULL-valued columns break the self-equality, so it
// collapses instead to an IS NOT NULL check per compared outer column,
// ANDed together.
func SimplifySelfJoins(q *ast.Retrieve) error {
	for _, sq := range collectExistsSubqueries(q.Where) {
		replacement, ok := trySimplifySelfJoin(sq)
		if !ok {
			continue
		}
		if err := replaceInWhere(q, sq, replacement); err != nil {
			return err
		}
	}
	return nil
}

// collectExistsSubqueries returns every EXISTS Subquery node reachable from
// n, in visitation order.
func collectExistsSubqueries(n ast.Node) []*ast.Subquery {
	var out []*ast.Subquery
	if n == nil {
		return out
	}
	_ = ast.Accept(n, ast.VisitorFunc(func(node ast.Node) error {
		if sq, ok := node.(*ast.Subquery); ok && sq.SubKind == ast.SubqueryExists {
			out = append(out, sq)
		}
		return nil
	}))
	return out
}

// trySimplifySelfJoin reports whether sq matches the self-join shape and,
// if so, returns its replacement expression.
func trySimplifySelfJoin(sq *ast.Subquery) (ast.Node, bool) {
	if sq.Query == nil || len(sq.Query.Ranges) != 1 || len(sq.CorrelatedRanges) != 1 {
		return nil, false
	}
	inner, ok := sq.Query.Ranges[0].(*ast.DatabaseRange)
	if !ok {
		return nil, false
	}
	outer, ok := sq.CorrelatedRanges[0].(*ast.DatabaseRange)
	if !ok || outer.Entity != inner.Entity {
		return nil, false
	}

	conjuncts := astutil.FlattenAnd(sq.Query.Where)
	if len(conjuncts) == 0 {
		return nil, false
	}

	var outerIdents []*ast.Identifier
	for _, c := range conjuncts {
		bin, ok := c.(*ast.BinaryOp)
		if !ok || bin.Op != ast.OpEq {
			return nil, false
		}
		leftID, leftOK := bin.Left.(*ast.Identifier)
		rightID, rightOK := bin.Right.(*ast.Identifier)
		if !leftOK || !rightOK {
			return nil, false
		}

		var outerID, innerID *ast.Identifier
		switch {
		case leftID.Range == ast.Range(outer) && rightID.Range == ast.Range(inner):
			outerID, innerID = leftID, rightID
		case rightID.Range == ast.Range(outer) && leftID.Range == ast.Range(inner):
			outerID, innerID = rightID, leftID
		default:
			return nil, false
		}
		if astutil.PropertyName(outerID) != astutil.PropertyName(innerID) {
			return nil, false
		}
		outerIdents = append(outerIdents, outerID)
	}

	if sq.IncludeNulls {
		return tautology(), true
	}

	checks := make([]ast.Node, 0, len(outerIdents))
	for _, id := range outerIdents {
		checks = append(checks, ast.NewIsNull(id, true))
	}
	return astutil.CombineAnd(checks), true
}

// tautology builds the literal `1 = 1` node the rewrite collapses to when
// NULLs are immaterial.
func tautology() ast.Node {
	return ast.NewBinaryOp(ast.OpEq, ast.NewNumber("1"), ast.NewNumber("1"))
}

// replaceInWhere swaps target for replacement wherever it sits in q's
// WHERE tree, whether that is the whole WHERE clause or one conjunct
// nested inside it.
func replaceInWhere(q *ast.Retrieve, target, replacement ast.Node) error {
	if q.Where == target {
		replacement.SetParent(q)
		q.Where = replacement
		return nil
	}
	if err := astutil.ReplaceChild(target.Parent(), target, replacement); err != nil {
		return relqerr.Wrap("SimplifySelfJoins", relqerr.InvariantViolation, err)
	}
	return nil
}
