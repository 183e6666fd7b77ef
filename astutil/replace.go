package astutil

import (
	"fmt"

	"github.com/relq/optimizer/ast"
)

// ReplaceChild swaps old for newNode in parent's child slot and fixes up
// parent links. It fails (returning an error the caller should surface as
// relqerr.InvariantViolation) if old is not actually a structural child
// of parent.
func ReplaceChild(parent, old, newNode ast.Node) error {
	switch p := parent.(type) {
	case *ast.BinaryOp:
		switch {
		case p.Left == old:
			p.Left = newNode
		case p.Right == old:
			p.Right = newNode
		default:
			return notAChild(parent, old)
		}
	case *ast.UnaryNot:
		if p.Expr != old {
			return notAChild(parent, old)
		}
		p.Expr = newNode
	case *ast.Ternary:
		switch {
		case p.Cond == old:
			p.Cond = newNode
		case p.Then == old:
			p.Then = newNode
		case p.Else == old:
			p.Else = newNode
		default:
			return notAChild(parent, old)
		}
	case *ast.IsNull:
		if p.Expr != old {
			return notAChild(parent, old)
		}
		p.Expr = newNode
	case *ast.IfNull:
		switch {
		case p.Expr == old:
			p.Expr = newNode
		case p.Alt == old:
			p.Alt = newNode
		default:
			return notAChild(parent, old)
		}
	case *ast.Aggregate:
		switch {
		case p.Inner == old:
			p.Inner = newNode
		case p.Conditions == old:
			p.Conditions = newNode
		default:
			return notAChild(parent, old)
		}
	case *ast.Case:
		found := false
		for i, w := range p.Whens {
			if w.Cond == old {
				p.Whens[i].Cond = newNode
				found = true
				break
			}
			if w.Result == old {
				p.Whens[i].Result = newNode
				found = true
				break
			}
		}
		if !found && p.Else == old {
			p.Else = newNode
			found = true
		}
		if !found {
			return notAChild(parent, old)
		}
	case *ast.DatabaseRange:
		if p.Join != old {
			return notAChild(parent, old)
		}
		p.Join = newNode
	case *ast.Retrieve:
		switch {
		case p.Where == old:
			p.Where = newNode
		default:
			found := false
			for i, item := range p.Projection {
				if item.Expr == old {
					p.Projection[i].Expr = newNode
					found = true
					break
				}
			}
			if !found {
				for i, s := range p.Sort {
					if s.Expr == old {
						p.Sort[i].Expr = newNode
						found = true
						break
					}
				}
			}
			if !found {
				for i, g := range p.GroupBy {
					if g == old {
						p.GroupBy[i] = newNode
						found = true
						break
					}
				}
			}
			if !found {
				return notAChild(parent, old)
			}
		}
	default:
		return notAChild(parent, old)
	}
	if newNode != nil {
		newNode.SetParent(parent)
	}
	return nil
}

func notAChild(parent, old ast.Node) error {
	return fmt.Errorf("astutil: ReplaceChild: %s is not a child of %s", kindOf(old), kindOf(parent))
}

func kindOf(n ast.Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Kind().String()
}
