// Package tplast defines the syntax tree for component templates. Nodes are
// a closed set of struct kinds matched exhaustively by type switch; every
// node carries the byte span it was parsed from.
package tplast

import (
	"templint/internal/source"
)

// Node is implemented by every template node kind.
type Node interface {
	Span() source.Span
}

// Template is the root of a template unit or an embedded <ng-template>
// scope. Both introduce input variables and may carry references.
type Template struct {
	// SyntheticFor names the structural directive this template was
	// desugared from ("ngFor", "ngIf", ...); empty for written templates
	// and the root.
	SyntheticFor string
	Variables    []*Variable
	References   []*Reference
	Attributes   []*TextAttribute
	Inputs       []*BoundAttribute
	Children     []Node
	SourceSpan   source.Span
}

func (t *Template) Span() source.Span { return t.SourceSpan }

// Element is a markup element with its attributes, bindings and children.
type Element struct {
	Name       string
	References []*Reference
	Attributes []*TextAttribute
	Inputs     []*BoundAttribute
	Outputs    []*BoundEvent
	Children   []Node
	SourceSpan source.Span
}

func (e *Element) Span() source.Span { return e.SourceSpan }

// Text is raw character data between elements.
type Text struct {
	Value      string
	SourceSpan source.Span
}

func (t *Text) Span() source.Span { return t.SourceSpan }

// Interpolation is a {{ expression }} region inside text.
type Interpolation struct {
	Expr       *Expression
	SourceSpan source.Span
}

func (i *Interpolation) Span() source.Span { return i.SourceSpan }

// TextAttribute is a plain name or name="value" attribute.
type TextAttribute struct {
	Name       string
	Value      string
	SourceSpan source.Span
}

func (a *TextAttribute) Span() source.Span { return a.SourceSpan }

// BoundAttribute is an input binding: [name]="expr", bind-name="expr", or a
// key binding produced by structural-directive desugaring (ngForOf,
// ngIfElse, ...).
type BoundAttribute struct {
	Name       string
	Expr       *Expression
	SourceSpan source.Span
}

func (a *BoundAttribute) Span() source.Span { return a.SourceSpan }

// BoundEvent is an output binding: (name)="expr" or on-name="expr".
type BoundEvent struct {
	Name       string
	Expr       *Expression
	SourceSpan source.Span
}

func (e *BoundEvent) Span() source.Span { return e.SourceSpan }

// Variable is a name introduced into the template scope by a let binding:
// let-name on an <ng-template>, or "let name" / "expr as name" in
// structural-directive microsyntax.
type Variable struct {
	Name       string
	Value      string // context key the variable binds to; "" means $implicit
	SourceSpan source.Span
}

func (v *Variable) Span() source.Span { return v.SourceSpan }

// Reference is a #name / ref-name declaration on an element or template.
type Reference struct {
	Name       string
	Value      string
	SourceSpan source.Span
}

func (r *Reference) Span() source.Span { return r.SourceSpan }

// ReceiverForm states how a property read is qualified.
type ReceiverForm uint8

const (
	// ReceiverImplicit is a bare name read: {{ name }}.
	ReceiverImplicit ReceiverForm = iota
	// ReceiverExplicit is a this-qualified read: {{ this.name }}.
	ReceiverExplicit
	// ReceiverOther is a read off some other expression ({{ user.name }})
	// or a keyed access; such reads are never style-checked.
	ReceiverOther
)

func (f ReceiverForm) String() string {
	switch f {
	case ReceiverImplicit:
		return "implicit"
	case ReceiverExplicit:
		return "explicit"
	case ReceiverOther:
		return "other"
	}
	return "unknown"
}

// PropertyRead is one occurrence of a name read inside a binding or
// interpolation expression. For an explicit read the span covers the whole
// "this.name" text; for an implicit read it covers the bare name.
type PropertyRead struct {
	Name string
	Form ReceiverForm
	// BindingName is the name of the binding hosting the expression
	// ("ngIfElse", "click", ...). Empty for interpolations and for reads
	// whose ancestry could not be established.
	BindingName string
	SourceSpan  source.Span
}

func (r *PropertyRead) Span() source.Span { return r.SourceSpan }

// Expression is a parsed binding or interpolation expression: its raw text,
// its span in the template, and the property reads found inside it.
type Expression struct {
	Text       string
	Reads      []*PropertyRead
	SourceSpan source.Span
}

func (e *Expression) Span() source.Span { return e.SourceSpan }
