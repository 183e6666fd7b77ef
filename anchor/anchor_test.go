package anchor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relq/optimizer/anchor"
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/metadata"
	"github.com/relq/optimizer/relqerr"
)

func ident(r ast.Range, segments ...string) *ast.Identifier {
	id := ast.NewIdentifier(segments...)
	id.Range = r
	return id
}

func testMetadata() metadata.Port {
	return metadata.NewStatic(map[string]metadata.EntityDef{
		"User": {
			Table:      "users",
			Columns:    map[string]string{"id": "id", "name": "name"},
			PrimaryKey: []string{"id"},
			Nullable:   map[string]bool{"id": false, "name": true},
		},
		"Address": {
			Table:      "addresses",
			Columns:    map[string]string{"id": "id", "userId": "user_id"},
			PrimaryKey: []string{"id"},
			Nullable:   map[string]bool{"id": false, "userId": false},
		},
	})
}

func TestEnsureAnchorIsNoOpWhenAnchorAlreadyExists(t *testing.T) {
	anchorRange := ast.NewDatabaseRange("u", "User", nil, false)
	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{anchorRange}

	require.NoError(t, anchor.EnsureAnchor(q, testMetadata(), anchor.Options{}))
	require.Same(t, ast.Range(anchorRange), q.Ranges[0])
}

func TestEnsureAnchorPrefersSelectReferencedInnerRange(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, true)
	addr := ast.NewDatabaseRange("addr", "Address", nil, true)
	addr.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(addr, "addr", "userId"), ident(u, "u", "id")))
	u.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ident(addr, "addr", "userId")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u, addr}
	q.Projection = []ast.ProjectionItem{{Expr: ident(u, "u", "name"), Visible: true}}

	require.NoError(t, anchor.EnsureAnchor(q, testMetadata(), anchor.Options{}))
	require.Len(t, q.Ranges, 1)
	require.Same(t, ast.Range(u), q.Ranges[0])
	require.NotNil(t, q.Where)
}

func TestEnsureAnchorWithOptimizationFoldsEveryJoinIntoWhere(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	addr := ast.NewDatabaseRange("addr", "Address", nil, true)
	addr.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(addr, "addr", "userId"), ident(u, "u", "id")))
	u.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ident(addr, "addr", "userId")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{addr, u}
	q.Projection = []ast.ProjectionItem{{Expr: ident(addr, "addr", "id"), Visible: true}}

	require.NoError(t, anchor.EnsureAnchor(q, testMetadata(), anchor.Options{PreserveJoins: false}))
	require.Len(t, q.Ranges, 1)
	require.Nil(t, addr.Join)
}

func TestEnsureAnchorWithOptimizationKeepsJSONSourceRangesOutOfTheFold(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, true)
	addr := ast.NewDatabaseRange("addr", "Address", nil, true)
	addr.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(addr, "addr", "userId"), ident(u, "u", "id")))
	u.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ident(addr, "addr", "userId")))
	tags := ast.NewJSONSourceRange("tags", "$.tags", ident(u, "u", "name"))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u, addr, tags}
	q.Projection = []ast.ProjectionItem{{Expr: ident(u, "u", "name"), Visible: true}}

	require.NoError(t, anchor.EnsureAnchor(q, testMetadata(), anchor.Options{PreserveJoins: false}))
	require.Len(t, q.Ranges, 2)
	require.Same(t, ast.Range(u), q.Ranges[0])
	require.Contains(t, q.Ranges, ast.Range(tags))
	require.Nil(t, addr.Join)
}

func TestEnsureAnchorPreserveJoinsOnlyFoldsChosenAnchorsJoin(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	addr := ast.NewDatabaseRange("addr", "Address", nil, true)
	addr.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(addr, "addr", "userId"), ident(u, "u", "id")))
	u.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ident(addr, "addr", "userId")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{addr, u}
	q.Projection = []ast.ProjectionItem{{Expr: ident(addr, "addr", "id"), Visible: true}}

	require.NoError(t, anchor.EnsureAnchor(q, testMetadata(), anchor.Options{PreserveJoins: true}))
	require.Len(t, q.Ranges, 2)
	require.Nil(t, addr.Join)
}

func TestEnsureAnchorFailsWhenNoRangeIsViable(t *testing.T) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	u.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, ident(u, "u", "id"), ast.NewNumber("1")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u}
	q.Where = ast.NewIsNull(ident(u, "u", "name"), false)
	q.Projection = []ast.ProjectionItem{{Expr: ident(u, "u", "name"), Visible: true}}

	err := anchor.EnsureAnchor(q, testMetadata(), anchor.Options{})
	require.True(t, relqerr.Is(err, relqerr.NoValidAnchor))
}
