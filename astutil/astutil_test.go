package astutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
)

func ident(r ast.Range, segments ...string) *ast.Identifier {
	id := ast.NewIdentifier(segments...)
	id.Range = r
	return id
}

func TestCollectIdentifiersReturnsChainHeadsOnly(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	expr := ast.NewBinaryOp(ast.OpEq, ident(u, "u", "name"), ast.NewString("ann"))

	ids := astutil.CollectIdentifiers(expr)
	require.Len(t, ids, 1)
	require.Equal(t, "u.name", ids[0].GetCompleteName())
}

func TestRangesUsedByDeduplicatesByRange(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	expr := ast.NewBinaryOp(ast.OpAnd,
		ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ast.NewNumber("1")),
		ast.NewBinaryOp(ast.OpEq, ident(u, "u", "name"), ast.NewString("ann")),
	)

	used := astutil.RangesUsedBy(expr)
	require.Len(t, used, 1)
	require.True(t, used[u])
}

func TestPropertyNameTakesSegmentAfterBase(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	id := ident(u, "u", "amount")
	require.Equal(t, "amount", astutil.PropertyName(id))

	bare := ident(u, "u")
	require.Equal(t, "u", astutil.PropertyName(bare))
}

func TestFlattenAndCombineAndRoundTrip(t *testing.T) {
	a := ast.NewBoolean(true)
	b := ast.NewBoolean(false)
	c := ast.NewNumber("1")
	tree := ast.NewBinaryOp(ast.OpAnd, ast.NewBinaryOp(ast.OpAnd, a, b), c)

	parts := astutil.FlattenAnd(tree)
	require.Equal(t, []ast.Node{a, b, c}, parts)

	recombined := astutil.CombineAnd(parts)
	require.Equal(t, tree.String(), recombined.String())
}

func TestCombineAndDropsNilsAndUnwrapsSingleton(t *testing.T) {
	only := ast.NewBoolean(true)
	require.Nil(t, astutil.CombineAnd([]ast.Node{nil, nil}))
	require.Same(t, only, astutil.CombineAnd([]ast.Node{nil, only}))
}

func TestFlattenAndOfNonAndNodeIsSingleton(t *testing.T) {
	leaf := ast.NewBoolean(true)
	require.Equal(t, []ast.Node{leaf}, astutil.FlattenAnd(leaf))
	require.Empty(t, astutil.FlattenAnd(nil))
}

func TestRebindPredicateToCloneRetargetsAndCopies(t *testing.T) {
	oldRange := ast.NewDatabaseRange("a", "Audit", nil, false)
	newRange := ast.NewDatabaseRange("a2", "Audit", nil, false)
	pred := ast.NewBinaryOp(ast.OpEq, ident(oldRange, "a", "userId"), ast.NewNumber("1"))

	rebound := astutil.RebindPredicateToClone(pred, oldRange, newRange)

	require.NotSame(t, pred, rebound)
	reboundIDs := astutil.CollectIdentifiers(rebound)
	require.Len(t, reboundIDs, 1)
	require.Same(t, newRange, reboundIDs[0].Range)

	// The original is untouched.
	origIDs := astutil.CollectIdentifiers(pred)
	require.Same(t, oldRange, origIDs[0].Range)
}

func TestRebindManyAppliesEveryMapping(t *testing.T) {
	o1 := ast.NewDatabaseRange("o", "Order", nil, false)
	o2 := ast.NewDatabaseRange("o2", "Order", nil, false)
	expr := ast.NewBinaryOp(ast.OpEq, ident(o1, "o", "id"), ident(o1, "o", "total"))

	astutil.RebindMany(expr, map[ast.Range]ast.Range{o1: o2})

	for _, id := range astutil.CollectIdentifiers(expr) {
		require.Same(t, o2, id.Range)
	}
}

func TestReplaceChildOnBinaryOp(t *testing.T) {
	left := ast.NewNumber("1")
	right := ast.NewNumber("2")
	bin := ast.NewBinaryOp(ast.OpEq, left, right)

	replacement := ast.NewNumber("3")
	require.NoError(t, astutil.ReplaceChild(bin, right, replacement))
	require.Same(t, replacement, bin.Right)
	require.Equal(t, ast.Node(bin), replacement.Parent())
}

func TestReplaceChildOnRetrieveCoversAllSlots(t *testing.T) {
	q := ast.NewRetrieve()
	sortExpr := ast.NewNumber("1")
	groupExpr := ast.NewNumber("2")
	q.Sort = []ast.SortEntry{{Expr: sortExpr}}
	q.GroupBy = []ast.Node{groupExpr}

	newSort := ast.NewNumber("10")
	require.NoError(t, astutil.ReplaceChild(q, sortExpr, newSort))
	require.Same(t, newSort, q.Sort[0].Expr)

	newGroup := ast.NewNumber("20")
	require.NoError(t, astutil.ReplaceChild(q, groupExpr, newGroup))
	require.Same(t, newGroup, q.GroupBy[0])
}

func TestReplaceChildOnCaseCoversWhensAndElse(t *testing.T) {
	cond := ast.NewBoolean(true)
	result := ast.NewNumber("1")
	els := ast.NewNumber("0")
	c := ast.NewCase([]ast.WhenClause{{Cond: cond, Result: result}}, els)

	newResult := ast.NewNumber("2")
	require.NoError(t, astutil.ReplaceChild(c, result, newResult))
	require.Same(t, newResult, c.Whens[0].Result)

	newElse := ast.NewNumber("3")
	require.NoError(t, astutil.ReplaceChild(c, els, newElse))
	require.Same(t, newElse, c.Else)
}

func TestReplaceChildRejectsNonChild(t *testing.T) {
	bin := ast.NewBinaryOp(ast.OpEq, ast.NewNumber("1"), ast.NewNumber("2"))
	stray := ast.NewNumber("3")
	err := astutil.ReplaceChild(bin, stray, ast.NewNumber("4"))
	require.Error(t, err)
}

func TestEnclosingRetrieveWalksUpToNearestRetrieve(t *testing.T) {
	q := ast.NewRetrieve()
	expr := ast.NewBoolean(true)
	q.Where = expr
	expr.SetParent(q)

	require.Same(t, q, astutil.EnclosingRetrieve(expr))
}

func TestIsAncestorOf(t *testing.T) {
	q := ast.NewRetrieve()
	expr := ast.NewBoolean(true)
	expr.SetParent(q)

	require.True(t, astutil.IsAncestorOf(q, expr))
	require.False(t, astutil.IsAncestorOf(expr, q))
}
