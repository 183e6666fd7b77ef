// Package refeval is a small reference interpreter used only from
// _test.go files to check semantic preservation: eval(optimize(q), D)
// must equal eval(q, D) for the same fixture D. It is not part of the
// optimizer's public surface and is never imported from cmd/.
//
// It evaluates a retrieve block as a nested-loop join over a tiny
// in-memory fixture keyed by range name, which is all a query-plan
// optimizer's test fixtures need.
package refeval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/astutil"
)

// Row is one entity instance: property name to value. A nil Row
// represents the unmatched side of a LEFT join.
type Row map[string]any

// Fixture supplies the candidate rows for every range name a query
// touches, e.g. Fixture{"u": {{"id": 1, "name": "ann"}}}.
type Fixture map[string][]Row

// Result is one output tuple, keyed by projection alias (or a
// positional "col<N>" name when no alias was given).
type Result map[string]any

type binding map[string]Row

func (b binding) clone() binding {
	nb := make(binding, len(b))
	for k, v := range b {
		nb[k] = v
	}
	return nb
}

type env struct {
	b       binding
	fixture Fixture
}

// Eval runs q against data and returns its output rows. It supports the
// subset of the AST the optimizer rewrites actually produce: database
// ranges with equality-shaped joins, WHERE, GROUP BY, aggregates
// (including an aggregate's own private Ranges), and Scalar/Exists
// subqueries.
func Eval(q *ast.Retrieve, data Fixture) ([]Result, error) {
	return evalRetrieve(q, data, binding{})
}

func evalRetrieve(q *ast.Retrieve, data Fixture, outer binding) ([]Result, error) {
	bindings, err := expandRanges(q.Ranges, data, outer)
	if err != nil {
		return nil, err
	}

	var matched []binding
	for _, b := range bindings {
		if q.Where != nil {
			ok, err := evalBool(q.Where, env{b: b, fixture: data})
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, b)
	}

	groups := groupBindings(q, matched)

	var results []Result
	for _, g := range groups {
		row := make(Result, len(q.Projection))
		rep := binding{}
		if len(g) > 0 {
			rep = g[0]
		}
		for i, p := range q.Projection {
			v, err := evalProjectionItem(p.Expr, g, rep, data)
			if err != nil {
				return nil, err
			}
			key := p.Alias
			if key == "" {
				key = "col" + strconv.Itoa(i)
			}
			row[key] = v
		}
		results = append(results, row)
	}

	if len(q.Sort) > 0 {
		sortResults(results, q.Sort, groups)
	}

	return results, nil
}

type sortPair struct {
	result Result
	rep    binding
}

// expandRanges builds the cross product of every range's candidate rows,
// seeded by an optional outer binding so a correlated subquery's ranges
// can reference the enclosing query's rows by name.
func expandRanges(ranges []ast.Range, data Fixture, outer binding) ([]binding, error) {
	current := []binding{outer.clone()}
	for _, r := range ranges {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok {
			return nil, fmt.Errorf("refeval: unsupported range kind for %q", r.RangeName())
		}
		rows := data[dr.Name]
		var next []binding
		for _, b := range current {
			matchedAny := false
			for _, row := range rows {
				nb := b.clone()
				nb[dr.Name] = row
				if dr.Join == nil {
					next = append(next, nb)
					matchedAny = true
					continue
				}
				ok, err := evalBool(dr.Join, env{b: nb, fixture: data})
				if err != nil {
					return nil, err
				}
				if ok {
					next = append(next, nb)
					matchedAny = true
				}
			}
			if !matchedAny && !dr.Required {
				nb := b.clone()
				nb[dr.Name] = nil
				next = append(next, nb)
			}
		}
		current = next
	}
	return current, nil
}

func groupBindings(q *ast.Retrieve, matched []binding) []([]binding) {
	if len(q.GroupBy) == 0 && !anyAggregate(q.Projection) {
		groups := make([][]binding, len(matched))
		for i, b := range matched {
			groups[i] = []binding{b}
		}
		return groups
	}
	if len(q.GroupBy) == 0 {
		return [][]binding{matched}
	}
	order := []string{}
	buckets := map[string][]binding{}
	for _, b := range matched {
		var keyParts []string
		for _, g := range q.GroupBy {
			v, _ := evalExpr(g, env{b: b})
			keyParts = append(keyParts, fmt.Sprintf("%v", v))
		}
		key := strings.Join(keyParts, "\x1f")
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], b)
	}
	groups := make([][]binding, 0, len(order))
	for _, k := range order {
		groups = append(groups, buckets[k])
	}
	return groups
}

func anyAggregate(items []ast.ProjectionItem) bool {
	for _, p := range items {
		if containsAggregate(p.Expr) {
			return true
		}
	}
	return false
}

func containsAggregate(n ast.Node) bool {
	if n == nil {
		return false
	}
	if _, ok := n.(*ast.Aggregate); ok {
		return true
	}
	switch n.(type) {
	case *ast.Subquery, *ast.DatabaseRange, *ast.JSONSourceRange:
		return false
	}
	for _, c := range n.Children() {
		if containsAggregate(c) {
			return true
		}
	}
	return false
}

func evalProjectionItem(expr ast.Node, group []binding, rep binding, data Fixture) (any, error) {
	if agg, ok := expr.(*ast.Aggregate); ok {
		return evalAggregate(agg, group, rep, data)
	}
	return evalExpr(expr, env{b: rep, fixture: data})
}

func evalAggregate(agg *ast.Aggregate, group []binding, rep binding, data Fixture) (any, error) {
	var rows []binding
	var err error
	if len(agg.Ranges) > 0 {
		rows, err = expandRanges(agg.Ranges, data, rep)
		if err != nil {
			return nil, err
		}
	} else {
		rows = group
	}

	var matchedCount int
	var values []any
	seen := map[string]bool{}
	for _, b := range rows {
		if agg.Conditions != nil {
			ok, err := evalBool(agg.Conditions, env{b: b, fixture: data})
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		matchedCount++
		v, err := evalExpr(agg.Inner, env{b: b, fixture: data})
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		key := fmt.Sprintf("%v", v)
		if agg.AggKind == ast.AggSumDistinct || agg.AggKind == ast.AggAvgDistinct || agg.AggKind == ast.AggCountDistinct {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		values = append(values, v)
	}

	switch agg.AggKind {
	case ast.AggAny:
		return matchedCount > 0, nil
	case ast.AggCount, ast.AggCountDistinct:
		return len(values), nil
	case ast.AggSum, ast.AggSumDistinct:
		return sumNumbers(values), nil
	case ast.AggAvg, ast.AggAvgDistinct:
		if len(values) == 0 {
			return nil, nil
		}
		return sumNumbers(values) / float64(len(values)), nil
	case ast.AggMin:
		return minMax(values, true)
	case ast.AggMax:
		return minMax(values, false)
	default:
		return nil, fmt.Errorf("refeval: unsupported aggregate kind %v", agg.AggKind)
	}
}

func sumNumbers(values []any) float64 {
	var total float64
	for _, v := range values {
		f, ok := toFloat(v)
		if ok {
			total += f
		}
	}
	return total
}

func minMax(values []any, wantMin bool) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	best := values[0]
	for _, v := range values[1:] {
		c, ok := compare(v, best)
		if !ok {
			continue
		}
		if (wantMin && c < 0) || (!wantMin && c > 0) {
			best = v
		}
	}
	return best, nil
}

func evalBool(n ast.Node, e env) (bool, error) {
	v, err := evalExpr(n, e)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	default:
		f, ok := toFloat(v)
		return ok && f != 0
	}
}

func evalExpr(n ast.Node, e env) (any, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil
	case *ast.Number:
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("refeval: bad number %q: %w", v.Text, err)
		}
		return f, nil
	case *ast.String:
		return v.Value, nil
	case *ast.Boolean:
		return v.Value, nil
	case *ast.Null:
		return nil, nil
	case *ast.Identifier:
		return evalIdentifier(v, e)
	case *ast.BinaryOp:
		return evalBinaryOp(v, e)
	case *ast.UnaryNot:
		ok, err := evalBool(v.Expr, e)
		if err != nil {
			return nil, err
		}
		return !ok, nil
	case *ast.IsNull:
		val, err := evalExpr(v.Expr, e)
		if err != nil {
			return nil, err
		}
		isNull := val == nil
		if v.Not {
			return !isNull, nil
		}
		return isNull, nil
	case *ast.In:
		ident, err := evalExpr(v.Ident, e)
		if err != nil {
			return nil, err
		}
		for _, item := range v.List {
			iv, err := evalExpr(item, e)
			if err != nil {
				return nil, err
			}
			if c, ok := compare(ident, iv); ok && c == 0 {
				return true, nil
			}
		}
		return false, nil
	case *ast.Ternary:
		ok, err := evalBool(v.Cond, e)
		if err != nil {
			return nil, err
		}
		if ok {
			return evalExpr(v.Then, e)
		}
		return evalExpr(v.Else, e)
	case *ast.Case:
		for _, w := range v.Whens {
			ok, err := evalBool(w.Cond, e)
			if err != nil {
				return nil, err
			}
			if ok {
				return evalExpr(w.Result, e)
			}
		}
		return evalExpr(v.Else, e)
	case *ast.IfNull:
		val, err := evalExpr(v.Expr, e)
		if err != nil {
			return nil, err
		}
		if val != nil {
			return val, nil
		}
		return evalExpr(v.Alt, e)
	case *ast.Aggregate:
		return evalAggregate(v, []binding{e.b}, e.b, e.fixture)
	case *ast.Subquery:
		return evalSubquery(v, e)
	default:
		return nil, fmt.Errorf("refeval: unsupported expression %T", n)
	}
}

func evalIdentifier(id *ast.Identifier, e env) (any, error) {
	if id.Range == nil {
		return nil, fmt.Errorf("refeval: identifier %q has no range binding", id.String())
	}
	row, ok := e.b[id.Range.RangeName()]
	if !ok || row == nil {
		return nil, nil
	}
	prop := astutil.PropertyName(id)
	return row[prop], nil
}

func evalBinaryOp(n *ast.BinaryOp, e env) (any, error) {
	if n.Op == ast.OpAnd {
		l, err := evalBool(n.Left, e)
		if err != nil {
			return nil, err
		}
		if !l {
			return false, nil
		}
		return evalBool(n.Right, e)
	}
	if n.Op == ast.OpOr {
		l, err := evalBool(n.Left, e)
		if err != nil {
			return nil, err
		}
		if l {
			return true, nil
		}
		return evalBool(n.Right, e)
	}

	left, err := evalExpr(n.Left, e)
	if err != nil {
		return nil, err
	}
	right, err := evalExpr(n.Right, e)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		lf, lok := toFloat(left)
		rf, rok := toFloat(right)
		if !lok || !rok {
			return nil, nil
		}
		switch n.Op {
		case ast.OpAdd:
			return lf + rf, nil
		case ast.OpSub:
			return lf - rf, nil
		case ast.OpMul:
			return lf * rf, nil
		case ast.OpDiv:
			if rf == 0 {
				return nil, nil
			}
			return lf / rf, nil
		}
	}

	if left == nil || right == nil {
		// SQL-style: any comparison against NULL is unknown, which this
		// interpreter treats as false rather than tri-valued.
		return false, nil
	}
	c, ok := compare(left, right)
	if !ok {
		return false, nil
	}
	switch n.Op {
	case ast.OpEq:
		return c == 0, nil
	case ast.OpNeq:
		return c != 0, nil
	case ast.OpLt:
		return c < 0, nil
	case ast.OpLte:
		return c <= 0, nil
	case ast.OpGt:
		return c > 0, nil
	case ast.OpGte:
		return c >= 0, nil
	}
	return nil, fmt.Errorf("refeval: unsupported operator %v", n.Op)
}

func evalSubquery(sq *ast.Subquery, e env) (any, error) {
	switch sq.SubKind {
	case ast.SubqueryExists:
		rows, err := evalRetrieve(sq.Query, e.fixture, e.b)
		if err != nil {
			return nil, err
		}
		return len(rows) > 0, nil
	case ast.SubqueryScalar, ast.SubqueryCaseWhen, ast.SubqueryWindow:
		rows, err := evalRetrieve(sq.Query, e.fixture, e.b)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		for _, v := range rows[0] {
			return v, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("refeval: unsupported subquery kind %v", sq.SubKind)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// compare orders two values, numerically when both look numeric and
// lexically otherwise. ok is false when the values are incomparable.
func compare(a, b any) (int, bool) {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

// sortResults reorders results (and their representative bindings, kept
// in lockstep via sortPair) by the query's ORDER BY terms, evaluated
// against each group's first binding.
func sortResults(results []Result, entries []ast.SortEntry, groups [][]binding) {
	pairs := make([]sortPair, len(results))
	for i, r := range results {
		rep := binding{}
		if len(groups[i]) > 0 {
			rep = groups[i][0]
		}
		pairs[i] = sortPair{result: r, rep: rep}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		for _, s := range entries {
			vi, _ := evalExpr(s.Expr, env{b: pairs[i].rep})
			vj, _ := evalExpr(s.Expr, env{b: pairs[j].rep})
			c, ok := compare(vi, vj)
			if !ok || c == 0 {
				continue
			}
			if s.Direction == ast.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	for i, p := range pairs {
		results[i] = p.result
	}
}
