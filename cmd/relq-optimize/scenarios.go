package main

import (
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/metadata"
)

// scenario bundles a demo retrieve tree with the metadata port it needs,
// built directly via ast constructors since this command has no parser
// of its own.
type scenario struct {
	name        string
	description string
	build       func() (*ast.Retrieve, metadata.Port)
}

var scenarios = []scenario{
	{
		name:        "filter-only-join",
		description: "aggregate-only projection drops a join used purely to filter",
		build:       buildFilterOnlyJoinScenario,
	},
	{
		name:        "left-to-inner",
		description: "a LEFT join on a non-nullable FK with no IS NULL check collapses to INNER",
		build:       buildLeftToInnerScenario,
	},
	{
		name:        "self-join",
		description: "a self-referential EXISTS collapses to a null-check chain",
		build:       buildSelfJoinScenario,
	},
}

func findScenario(name string) *scenario {
	for i := range scenarios {
		if scenarios[i].name == name {
			return &scenarios[i]
		}
	}
	return nil
}

func identOn(r ast.Range, segments ...string) *ast.Identifier {
	id := ast.NewIdentifier(segments...)
	id.Range = r
	return id
}

func demoMetadata() metadata.Port {
	return metadata.NewStatic(map[string]metadata.EntityDef{
		"User": {
			Table:      "users",
			Columns:    map[string]string{"id": "id", "amount": "amount", "name": "name"},
			PrimaryKey: []string{"id"},
			Nullable:   map[string]bool{"id": false, "amount": false, "name": true},
		},
		"Audit": {
			Table:      "audits",
			Columns:    map[string]string{"id": "id", "userId": "user_id"},
			PrimaryKey: []string{"id"},
			Nullable:   map[string]bool{"id": false, "userId": false},
		},
		"Address": {
			Table:      "addresses",
			Columns:    map[string]string{"id": "id", "userId": "user_id", "city": "city"},
			PrimaryKey: []string{"id"},
			Nullable:   map[string]bool{"id": false, "userId": false, "city": true},
		},
	})
}

// buildFilterOnlyJoinScenario: SUM(u.amount) with an Audit range joined
// only to filter, never read or referenced in WHERE.
func buildFilterOnlyJoinScenario() (*ast.Retrieve, metadata.Port) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	a := ast.NewDatabaseRange("a", "Audit", nil, false)
	a.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, identOn(a, "a", "userId"), identOn(u, "u", "id")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u, a}
	u.SetParent(q)
	a.SetParent(q)

	agg := ast.NewAggregate(ast.AggSum, identOn(u, "u", "amount"), nil)
	q.Projection = []ast.ProjectionItem{{Expr: agg, Visible: true}}
	agg.SetParent(q)

	return q, demoMetadata()
}

// buildLeftToInnerScenario: Address is LEFT-joined on a non-nullable FK,
// read in the projection, with no IS NULL check anywhere.
func buildLeftToInnerScenario() (*ast.Retrieve, metadata.Port) {
	u := ast.NewDatabaseRange("u", "User", nil, false)
	addr := ast.NewDatabaseRange("addr", "Address", nil, false)
	addr.SetJoinPredicate(ast.NewBinaryOp(ast.OpEq, identOn(addr, "addr", "userId"), identOn(u, "u", "id")))

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u, addr}
	u.SetParent(q)
	addr.SetParent(q)

	q.Projection = []ast.ProjectionItem{
		{Expr: identOn(u, "u", "name"), Visible: true},
		{Expr: identOn(addr, "addr", "city"), Visible: true},
	}
	for _, p := range q.Projection {
		p.Expr.SetParent(q)
	}

	return q, demoMetadata()
}

// buildSelfJoinScenario: EXISTS(SELECT 1 FROM User u2 WHERE u.id = u2.id),
// a tautological self-join under includeNulls = false.
func buildSelfJoinScenario() (*ast.Retrieve, metadata.Port) {
	u := ast.NewDatabaseRange("u", "User", nil, false)

	u2 := ast.NewDatabaseRange("u2", "User", nil, false)
	inner := ast.NewRetrieve()
	inner.Ranges = []ast.Range{u2}
	u2.SetParent(inner)
	inner.Where = ast.NewBinaryOp(ast.OpEq, identOn(u, "u", "id"), identOn(u2, "u2", "id"))
	inner.Where.SetParent(inner)

	existsNode := ast.NewSubquery(ast.SubqueryExists, inner, []ast.Range{u})
	existsNode.IncludeNulls = false

	q := ast.NewRetrieve()
	q.Ranges = []ast.Range{u}
	u.SetParent(q)
	q.Where = existsNode
	existsNode.SetParent(q)
	q.Projection = []ast.ProjectionItem{{Expr: identOn(u, "u", "name"), Visible: true}}
	q.Projection[0].Expr.SetParent(q)

	return q, demoMetadata()
}
