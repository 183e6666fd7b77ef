package ast

import "strings"

// Pretty renders a deterministic, fully parenthesized textual form of a
// retrieve block, used by tests as the golden-AST comparison medium
// instead of marshal/unmarshal round-trips.
func (n *Retrieve) Pretty() string {
	var b strings.Builder
	n.writePretty(&b, 0)
	return b.String()
}

func (n *Retrieve) writePretty(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteString(n.String())
	b.WriteString("\n")
	for _, r := range n.Ranges {
		dr, ok := r.(*DatabaseRange)
		if !ok || dr.Derived == nil {
			continue
		}
		b.WriteString(indent)
		b.WriteString("  -- derived table for " + dr.Name + ":\n")
		dr.Derived.writePretty(b, depth+2)
	}
}
