package astutil

import "github.com/relq/optimizer/ast"

// PropertyName returns the property an identifier denotes relative to its
// own range: the segment following the base, e.g. "name" in "u.name".
func PropertyName(id *ast.Identifier) string {
	head := id.GetBaseIdentifier()
	if head.Next != nil {
		return head.Next.Segment
	}
	return head.Segment
}
