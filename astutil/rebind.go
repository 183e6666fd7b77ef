package astutil

import "github.com/relq/optimizer/ast"

// RebindPredicateToClone deep-clones pred, then walks the clone and
// retargets every identifier bound to oldRange so it is bound to
// newRange instead. The returned node has no parent; the caller attaches
// it wherever it belongs.
func RebindPredicateToClone(pred ast.Node, oldRange, newRange ast.Range) ast.Node {
	if pred == nil {
		return nil
	}
	clone := pred.Clone()
	clone.SetParent(nil)
	RebindIdentifiers(clone, oldRange, newRange)
	return clone
}

// RebindIdentifiers retargets, in place, every identifier under n whose
// Range is oldRange to newRange instead. Used both by
// RebindPredicateToClone and directly when a join predicate is moved
// without needing a fresh clone.
func RebindIdentifiers(n ast.Node, oldRange, newRange ast.Range) {
	for _, id := range CollectIdentifiers(n) {
		if id.Range == oldRange {
			id.Range = newRange
		}
	}
}

// RebindMany applies RebindIdentifiers for every (old, new) pair in
// mapping — the common case when a whole closure of ranges is cloned at
// once during minimal range set computation or aggregate lowering.
func RebindMany(n ast.Node, mapping map[ast.Range]ast.Range) {
	for _, id := range CollectIdentifiers(n) {
		if newRange, ok := mapping[id.Range]; ok {
			id.Range = newRange
		}
	}
}
