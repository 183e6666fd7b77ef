package surgery_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/internal/surgery"
)

func ident(r ast.Range, segments ...string) *ast.Identifier {
	id := ast.NewIdentifier(segments...)
	id.Range = r
	return id
}

// u <- a <- b: a joins on u, b joins on a. Seeding with b alone should
// pull in a and u transitively.
func threeRangeChain() (u, a, b *ast.DatabaseRange) {
	u = ast.NewDatabaseRange("u", "User", nil, false)
	a = ast.NewDatabaseRange("a", "Audit", nil, false)
	a.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ident(a, "a", "userId")))
	b = ast.NewDatabaseRange("b", "Bonus", nil, false)
	b.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(a, "a", "id"), ident(b, "b", "auditId")))
	return
}

func TestExpandWithJoinDependenciesFollowsTransitiveChain(t *testing.T) {
	u, a, b := threeRangeChain()
	all := []ast.Range{u, a, b}

	closure := surgery.ExpandWithJoinDependencies([]ast.Range{b}, all)
	require.ElementsMatch(t, []ast.Range{b, a, u}, closure)
}

func TestExpandWithJoinDependenciesIsCycleSafe(t *testing.T) {
	x := ast.NewDatabaseRange("x", "X", nil, false)
	y := ast.NewDatabaseRange("y", "Y", nil, false)
	x.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(x, "x", "id"), ident(y, "y", "xId")))
	y.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(y, "y", "id"), ident(x, "x", "yId")))

	closure := surgery.ExpandWithJoinDependencies([]ast.Range{x}, []ast.Range{x, y})
	require.ElementsMatch(t, []ast.Range{x, y}, closure)
}

func TestRemoveRangesNotInKeepsOnlyListed(t *testing.T) {
	u, a, b := threeRangeChain()
	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u, a, b}

	surgery.RemoveRangesNotIn(q, []ast.Range{u, b})
	require.ElementsMatch(t, []ast.Range{u, b}, q.Ranges)
}

func TestJoinReferencesMapsEachRangeToItsDependencies(t *testing.T) {
	u, a, b := threeRangeChain()
	refs := surgery.JoinReferences([]ast.Range{u, a, b})

	require.True(t, refs[a][u])
	require.True(t, refs[b][a])
	require.False(t, refs[u][a])
}

func TestClassifyLivenessSeparatesLiveFromCorrelationOnly(t *testing.T) {
	u, a, b := threeRangeChain()
	ranges := []ast.Range{u, a, b}
	directlyUsed := map[ast.Range]bool{b: true}

	live := surgery.ClassifyLiveness(ranges, directlyUsed)
	require.True(t, live.Live[b])
	require.True(t, live.CorrelationOnly[a])
	require.False(t, live.Live[a])
}

func TestSplitJoinPredicateSplitsAndConjunction(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	a := ast.NewDatabaseRange("a", "Audit", nil, false)

	live := surgery.Liveness{
		Live:            map[ast.Range]bool{a: true},
		CorrelationOnly: map[ast.Range]bool{u: true},
	}
	innerLeaf := ast.NewBinaryOp(ast.OpEq, ident(a, "a", "status"), ast.NewString("ok"))
	corrLeaf := ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ast.NewNumber("1"))
	pred := ast.NewBinaryOp(ast.OpAnd, innerLeaf, corrLeaf)

	result := surgery.SplitJoinPredicate(pred, live)
	require.Equal(t, innerLeaf.String(), result.Inner.String())
	require.Equal(t, corrLeaf.String(), result.Correlation.String())
}

func TestSplitJoinPredicateRoutesMixedLeafToInner(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	a := ast.NewDatabaseRange("a", "Audit", nil, false)

	live := surgery.Liveness{
		Live:            map[ast.Range]bool{a: true},
		CorrelationOnly: map[ast.Range]bool{u: true},
	}
	mixed := ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ident(a, "a", "userId"))

	result := surgery.SplitJoinPredicate(mixed, live)
	require.Equal(t, mixed.String(), result.Inner.String())
	require.Nil(t, result.Correlation)
}

func TestSplitJoinPredicateOfNilIsEmpty(t *testing.T) {
	result := surgery.SplitJoinPredicate(nil, surgery.Liveness{})
	require.Nil(t, result.Inner)
	require.Nil(t, result.Correlation)
}
