package rules

import "github.com/relq/optimizer/ast"

// NormalizeValueReferences is a final, stateless, idempotent pass that
// rewrites a handful of syntactically equivalent shapes into one
// canonical form, so later stages (and any caller comparing two
// optimizer runs for semantic equality) don't have to reason about
// cosmetic variation left behind by earlier rewrites.
func NormalizeValueReferences(q *ast.Retrieve) error {
	q.Where = canonicalize(q.Where)
	if q.Where != nil {
		q.Where.SetParent(q)
	}
	for i, p := range q.Projection {
		q.Projection[i].Expr = canonicalize(p.Expr)
		if q.Projection[i].Expr != nil {
			q.Projection[i].Expr.SetParent(q)
		}
	}
	for i, s := range q.Sort {
		q.Sort[i].Expr = canonicalize(s.Expr)
		if q.Sort[i].Expr != nil {
			q.Sort[i].Expr.SetParent(q)
		}
	}
	for i, g := range q.GroupBy {
		q.GroupBy[i] = canonicalize(g)
		if q.GroupBy[i] != nil {
			q.GroupBy[i].SetParent(q)
		}
	}
	return nil
}

// canonicalize rewrites n and its descendants into canonical form,
// stopping at a nested Retrieve boundary (Subquery.Query, a
// DatabaseRange's Derived table) since those normalize independently at
// their own nesting level.
func canonicalize(n ast.Node) ast.Node {
	if n == nil {
		return nil
	}

	switch v := n.(type) {
	case *ast.Subquery, *ast.DatabaseRange, *ast.JSONSourceRange:
		return n

	case *ast.UnaryNot:
		v.Expr = canonicalize(v.Expr)
		if v.Expr != nil {
			v.Expr.SetParent(v)
		}
		if inner, ok := v.Expr.(*ast.UnaryNot); ok {
			return inner.Expr // NOT NOT x -> x
		}
		if isNull, ok := v.Expr.(*ast.IsNull); ok {
			isNull.Not = !isNull.Not // NOT (x IS [NOT] NULL) -> x IS [NOT] NULL, flipped
			return isNull
		}
		return v

	case *ast.BinaryOp:
		v.Left = canonicalize(v.Left)
		if v.Left != nil {
			v.Left.SetParent(v)
		}
		v.Right = canonicalize(v.Right)
		if v.Right != nil {
			v.Right.SetParent(v)
		}
		return v

	case *ast.IsNull:
		v.Expr = canonicalize(v.Expr)
		if v.Expr != nil {
			v.Expr.SetParent(v)
		}
		return v

	case *ast.Ternary:
		v.Cond = canonicalize(v.Cond)
		v.Then = canonicalize(v.Then)
		v.Else = canonicalize(v.Else)
		for _, c := range []ast.Node{v.Cond, v.Then, v.Else} {
			if c != nil {
				c.SetParent(v)
			}
		}
		return v

	case *ast.IfNull:
		v.Expr = canonicalize(v.Expr)
		v.Alt = canonicalize(v.Alt)
		if v.Expr != nil {
			v.Expr.SetParent(v)
		}
		if v.Alt != nil {
			v.Alt.SetParent(v)
		}
		return v

	case *ast.Aggregate:
		v.Inner = canonicalize(v.Inner)
		if v.Inner != nil {
			v.Inner.SetParent(v)
		}
		if v.Conditions != nil {
			v.Conditions = canonicalize(v.Conditions)
			v.Conditions.SetParent(v)
		}
		return v

	case *ast.Case:
		for i, w := range v.Whens {
			v.Whens[i].Cond = canonicalize(w.Cond)
			v.Whens[i].Result = canonicalize(w.Result)
			if v.Whens[i].Cond != nil {
				v.Whens[i].Cond.SetParent(v)
			}
			if v.Whens[i].Result != nil {
				v.Whens[i].Result.SetParent(v)
			}
		}
		if v.Else != nil {
			v.Else = canonicalize(v.Else)
			v.Else.SetParent(v)
		}
		return v

	case *ast.In:
		if len(v.List) == 1 {
			return ast.NewBinaryOp(ast.OpEq, v.Ident, v.List[0]) // IN (x) -> = x
		}
		return v

	default:
		return n
	}
}
