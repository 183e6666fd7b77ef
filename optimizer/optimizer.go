// Package optimizer implements the orchestrator: the fixed, depth-first,
// phased pipeline that runs every individual rule in package rules plus
// the anchor manager once through a fixed sequence.
//
// A single struct is constructed once against a metadata/catalog
// dependency and exposes one public method that runs a fixed phase
// sequence; the join optimizer and the left-join trim both run twice
// because later phases can unlock more work for them (new INNER joins
// after EXISTS/aggregate rewriting, newly-unused ranges after join
// collapsing).
package optimizer

import (
	"github.com/relq/optimizer/anchor"
	"github.com/relq/optimizer/ast"
	"github.com/relq/optimizer/metadata"
	"github.com/relq/optimizer/relqobserve"
	"github.com/relq/optimizer/rules"
)

// Options configures a single Optimizer instance. The zero value runs the
// eager, fully-collapsing anchor strategy and emits no trace events.
type Options struct {
	// PreserveJoins selects the anchor manager's *_preserve strategy
	// family instead of *_with_optimization.
	PreserveJoins bool
	// Tracer receives a rule-fired event after every phase, if set.
	// Wiring it to relqobserve.NewColorTracer(os.Stderr) produces a
	// colorized CLI trace of which rule changed what.
	Tracer relqobserve.Tracer
}

// Optimizer runs the fixed phase pipeline against a fixed metadata port.
// A single instance may optimize any number of disjoint AST roots
// sequentially; it holds no per-call mutable state.
type Optimizer struct {
	md   metadata.Port
	opts Options
}

// New constructs an Optimizer bound to md for its lifetime.
func New(md metadata.Port, opts Options) *Optimizer {
	return &Optimizer{md: md, opts: opts}
}

// Optimize mutates q in place according to the fixed phase pipeline and
// returns it. On failure it returns a tagged error (see package relqerr)
// and q is left partially rewritten: there is no rollback, so a caller
// that gets an error must discard q rather than keep using it.
func (o *Optimizer) Optimize(q *ast.Retrieve) (*ast.Retrieve, error) {
	if err := o.recurseIntoDerived(q); err != nil {
		return q, err
	}

	if err := rules.PruneUnusedLeftJoins(q); err != nil {
		return q, err
	}
	o.trace("range-pruning", q)

	if err := rules.PruneUnusedLeftJoins(q); err != nil {
		return q, err
	}
	o.trace("left-join-trim", q)

	if err := rules.CollapseLeftJoinsToInner(q, o.md); err != nil {
		return q, err
	}
	o.trace("join-optimizer", q)

	if err := rules.SimplifySelfJoins(q); err != nil {
		return q, err
	}
	if err := rules.ExciseFilterOnlyJoins(q); err != nil {
		return q, err
	}
	if err := rules.LowerAggregates(q, o.md); err != nil {
		return q, err
	}
	o.trace("subquery-aggregate-rewrites", q)

	if err := rules.CollapseLeftJoinsToInner(q, o.md); err != nil {
		return q, err
	}
	if err := rules.PruneUnusedLeftJoins(q); err != nil {
		return q, err
	}
	if err := rules.NormalizeValueReferences(q); err != nil {
		return q, err
	}
	o.trace("final-cleanup", q)

	if err := anchor.EnsureAnchor(q, o.md, anchor.Options{PreserveJoins: o.opts.PreserveJoins}); err != nil {
		return q, err
	}
	o.trace("anchor-finalization", q)

	return q, nil
}

// recurseIntoDerived runs the whole pipeline on every database range's
// embedded derived-table retrieve before this level is touched at all.
// Subquery bodies built by other rules (EXISTS, scalar lowering, ANY)
// are not recursed into here — they are already constructed in
// near-final form by the rule that built them.
func (o *Optimizer) recurseIntoDerived(q *ast.Retrieve) error {
	for _, r := range q.Ranges {
		dr, ok := r.(*ast.DatabaseRange)
		if !ok || dr.Derived == nil {
			continue
		}
		if _, err := o.Optimize(dr.Derived); err != nil {
			return err
		}
	}
	return nil
}

func (o *Optimizer) trace(phase string, q *ast.Retrieve) {
	if o.opts.Tracer == nil {
		return
	}
	o.opts.Tracer.Emit(relqobserve.Event{Phase: phase, Summary: q.String()})
}
