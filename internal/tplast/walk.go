package tplast

// Visitor receives nodes during a depth-first, document-order walk.
type Visitor interface {
	VisitTemplate(*Template)
	VisitElement(*Element)
	VisitText(*Text)
	VisitInterpolation(*Interpolation)
}

// Walk dispatches node to the visitor, then walks its children in document
// order. The dispatch is exhaustive over the node kinds; an unknown kind
// panics during development rather than being silently skipped.
func Walk(v Visitor, node Node) {
	switch n := node.(type) {
	case *Template:
		v.VisitTemplate(n)
		for _, child := range n.Children {
			Walk(v, child)
		}
	case *Element:
		v.VisitElement(n)
		for _, child := range n.Children {
			Walk(v, child)
		}
	case *Text:
		v.VisitText(n)
	case *Interpolation:
		v.VisitInterpolation(n)
	default:
		panic("tplast: unknown node kind")
	}
}

// Expressions collects every binding and interpolation expression reachable
// from node, in document order.
func Expressions(node Node) []*Expression {
	var out []*Expression
	collect := &exprCollector{exprs: &out}
	Walk(collect, node)
	return out
}

type exprCollector struct {
	exprs *[]*Expression
}

func (c *exprCollector) VisitTemplate(t *Template) {
	for _, in := range t.Inputs {
		if in.Expr != nil {
			*c.exprs = append(*c.exprs, in.Expr)
		}
	}
}

func (c *exprCollector) VisitElement(e *Element) {
	for _, in := range e.Inputs {
		if in.Expr != nil {
			*c.exprs = append(*c.exprs, in.Expr)
		}
	}
	for _, out := range e.Outputs {
		if out.Expr != nil {
			*c.exprs = append(*c.exprs, out.Expr)
		}
	}
}

func (c *exprCollector) VisitText(*Text) {}

func (c *exprCollector) VisitInterpolation(i *Interpolation) {
	if i.Expr != nil {
		*c.exprs = append(*c.exprs, i.Expr)
	}
}
