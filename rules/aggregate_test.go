package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/metadata"
	"github.com/relq/optimizer/rules"
)

func orderMetadata() metadata.Port {
	return metadata.NewStatic(map[string]metadata.EntityDef{
		"User": {
			Table:      "users",
			Columns:    map[string]string{"id": "id"},
			PrimaryKey: []string{"id"},
			Nullable:   map[string]bool{"id": false},
		},
		"Order": {
			Table:      "orders",
			Columns:    map[string]string{"id": "id", "userId": "user_id", "total": "total", "status": "status"},
			PrimaryKey: []string{"id"},
			Nullable:   map[string]bool{"id": false, "userId": false, "total": false, "status": true},
		},
	})
}

func TestLowerAggregatesLeavesPlainAggregateAttachedAsWindow(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u}
	agg := ast.NewAggregate(ast.AggSum, ident(u, "u", "id"), nil)
	q.Projection = []ast.ProjectionItem{{Expr: agg, Visible: true}}

	require.NoError(t, rules.LowerAggregates(q, orderMetadata()))
	require.Same(t, ast.Node(agg), q.Projection[0].Expr)
}

func TestLowerAggregatesLowersPrivateRangeAggregateToScalarSubquery(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	o := ast.NewDatabaseRange("o", "Order", nil, false)
	o.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(o, "o", "userId"), ident(u, "u", "id")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u}
	cond := ast.NewBinaryOp(ast.OpEq, ident(o, "o", "status"), ast.NewString("paid"))
	agg := ast.NewAggregate(ast.AggCount, ident(o, "o", "id"), cond, o)
	q.Projection = []ast.ProjectionItem{{Expr: agg, Visible: true}}
	agg.SetParent(q)

	require.NoError(t, rules.LowerAggregates(q, orderMetadata()))

	sq, ok := q.Projection[0].Expr.(*ast.Subquery)
	require.True(t, ok)
	require.Equal(t, ast.SubqueryScalar, sq.SubKind)
	require.Len(t, sq.Query.Projection, 1)
	require.NotEmpty(t, sq.CorrelatedRanges)

	innerAgg, ok := sq.Query.Projection[0].Expr.(*ast.Aggregate)
	require.True(t, ok)
	require.Equal(t, ast.AggCount, innerAgg.AggKind)
}

func TestLowerAggregatesANYDegeneratesToLiteralOneWhenAlreadyRequiredAndNonNullable(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	o := ast.NewDatabaseRange("o", "Order", nil, true)
	o.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(o, "o", "userId"), ident(u, "u", "id")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u, o}
	agg := ast.NewAggregate(ast.AggAny, ident(o, "o", "id"), nil)
	q.Where = agg
	agg.SetParent(q)

	require.NoError(t, rules.LowerAggregates(q, orderMetadata()))

	num, ok := q.Where.(*ast.Number)
	require.True(t, ok)
	require.Equal(t, "1", num.Text)
}

func TestLowerAggregatesANYInWhereBecomesExists(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	o := ast.NewDatabaseRange("o", "Order", nil, false)
	o.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(o, "o", "userId"), ident(u, "u", "id")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u, o}
	agg := ast.NewAggregate(ast.AggAny, ident(o, "o", "id"), nil)
	q.Where = agg
	agg.SetParent(q)

	require.NoError(t, rules.LowerAggregates(q, orderMetadata()))

	sq, ok := q.Where.(*ast.Subquery)
	require.True(t, ok)
	require.Equal(t, ast.SubqueryExists, sq.SubKind)
}

func TestLowerAggregatesANYInSelectBecomesCaseWhenExists(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	o := ast.NewDatabaseRange("o", "Order", nil, false)
	o.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(o, "o", "userId"), ident(u, "u", "id")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u, o}
	agg := ast.NewAggregate(ast.AggAny, ident(o, "o", "id"), nil)
	q.Projection = []ast.ProjectionItem{{Expr: agg, Visible: true}}
	agg.SetParent(q)

	require.NoError(t, rules.LowerAggregates(q, orderMetadata()))

	caseNode, ok := q.Projection[0].Expr.(*ast.Case)
	require.True(t, ok)
	require.Len(t, caseNode.Whens, 1)
	_, ok = caseNode.Whens[0].Cond.(*ast.Subquery)
	require.True(t, ok)
}
