package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relq/optimizer/ast"
)

func TestDatabaseRangeAnchorVsJoined(t *testing.T) {
	anchor := ast.NewDatabaseRange("u", "User", nil, false)
	require.True(t, anchor.IsAnchor())

	join := ast.NewBinaryOp(ast.OpEq, ast.NewNumber("1"), ast.NewNumber("1"))
	joined := ast.NewDatabaseRange("a", "Audit", join, false)
	require.False(t, joined.IsAnchor())
	require.Equal(t, ast.Node(joined), join.Parent())
}

func TestDatabaseRangeCloneIsDeep(t *testing.T) {
	join := ast.NewBinaryOp(ast.OpEq, ast.NewNumber("1"), ast.NewNumber("2"))
	dr := ast.NewDatabaseRange("a", "Audit", join, true)

	clone := dr.Clone().(*ast.DatabaseRange)
	require.NotSame(t, dr.Join, clone.Join)
	require.Equal(t, dr.Join.String(), clone.Join.String())
	require.True(t, clone.Required)
}

func TestIdentifierChainAndPropertyNavigation(t *testing.T) {
	id := ast.NewIdentifier("u", "address", "city")
	require.Equal(t, "u.address.city", id.GetCompleteName())
	require.Equal(t, id, id.Next.GetBaseIdentifier())
}

func TestIdentifierCloneCopiesRangeByReference(t *testing.T) {
	r := ast.NewDatabaseRange("u", "User", nil, false)
	id := ast.NewIdentifier("u", "name")
	id.Range = r

	clone := id.Clone().(*ast.Identifier)
	require.Same(t, r, clone.Range)
}

func TestAggregateOwnsItsPrivateRanges(t *testing.T) {
	r := ast.NewDatabaseRange("o", "Order", nil, false)
	inner := ast.NewIdentifier("o", "id")
	inner.Range = r
	cond := ast.NewBinaryOp(ast.OpEq, ast.NewIdentifier("o", "status"), ast.NewString("paid"))

	agg := ast.NewAggregate(ast.AggCount, inner, cond, r)
	require.Len(t, agg.Ranges, 1)
	require.Contains(t, agg.Children(), ast.Node(r))

	clone := agg.Clone().(*ast.Aggregate)
	require.Len(t, clone.Ranges, 1)
	require.NotSame(t, agg.Ranges[0], clone.Ranges[0])
}

func TestAggregateClearConditionsDropsEmbeddedWhere(t *testing.T) {
	agg := ast.NewAggregate(ast.AggSum, ast.NewNumber("1"), ast.NewBoolean(true))
	require.NotNil(t, agg.Conditions)
	agg.ClearConditions()
	require.Nil(t, agg.Conditions)
}

func TestSubqueryIncludeNullsDefaultsFalse(t *testing.T) {
	inner := ast.NewRetrieve()
	sq := ast.NewSubquery(ast.SubqueryExists, inner, nil)
	require.False(t, sq.IncludeNulls)

	sq.IncludeNulls = true
	require.True(t, sq.IncludeNulls)
}

func TestRetrieveChildrenOrder(t *testing.T) {
	r := ast.NewDatabaseRange("u", "User", nil, false)
	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{r}
	proj := ast.NewIdentifier("u", "name")
	proj.Range = r
	q.Projection = []ast.ProjectionItem{{Expr: proj, Visible: true}}
	q.Where = ast.NewBoolean(true)

	children := q.Children()
	require.Equal(t, ast.Node(r), children[0])
	require.Equal(t, ast.Node(proj), children[1])
	require.Equal(t, q.Where, children[2])
}

func TestRetrieveCloneDeepCopiesEverything(t *testing.T) {
	r := ast.NewDatabaseRange("u", "User", nil, false)
	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{r}
	q.Where = ast.NewBoolean(true)

	clone := q.Clone().(*ast.Retrieve)
	require.NotSame(t, q.Ranges[0], clone.Ranges[0])
	require.NotSame(t, q.Where, clone.Where)
	require.Equal(t, q.String(), clone.String())
}

func TestAnchorRangeFindsTheUnjoinedRange(t *testing.T) {
	anchor := ast.NewDatabaseRange("u", "User", nil, false)
	join := ast.NewBinaryOp(ast.OpEq, ast.NewNumber("1"), ast.NewNumber("1"))
	joined := ast.NewDatabaseRange("a", "Audit", join, false)

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{joined, anchor}

	require.Same(t, anchor, q.AnchorRange())
}

func TestRemoveRangeDropsByIdentity(t *testing.T) {
	a := ast.NewDatabaseRange("a", "A", nil, false)
	b := ast.NewDatabaseRange("b", "B", nil, false)
	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{a, b}

	q.RemoveRange(a)
	require.Len(t, q.Ranges, 1)
	require.Same(t, b, q.Ranges[0])
}
