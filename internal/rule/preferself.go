// Package rule implements the prefer-self style rule: every read of a
// qualifiable name in a template expression either must or must not carry
// the explicit "this." qualifier, depending on the name's origin tier and
// the per-tier policy in Options.
package rule

import (
	"fmt"

	"templint/internal/diag"
	"templint/internal/fix"
	"templint/internal/source"
	"templint/internal/tplast"
)

// qualifier is the literal prefix the rule inserts or removes.
const qualifier = "this."

// safeGlobals are names that are never qualifiable, in any configuration.
var safeGlobals = map[string]bool{
	"$event": true,
}

// referenceInputs are directive inputs that carry a template reference even
// though the markup does not declare one with #name. A read bound to one of
// these classifies into the reference tier.
var referenceInputs = map[string]bool{
	"ngIfThen":         true,
	"ngIfElse":         true,
	"ngTemplateOutlet": true,
}

// registries is the unit-wide scope state: flat name sets with no nesting
// or shadowing semantics. A name registered anywhere in the unit is visible
// everywhere in it. Each CheckTemplate run owns a fresh pair.
type registries struct {
	variables  map[string]bool
	references map[string]bool
}

// CheckTemplate runs the rule over one template unit and reports every
// violation with its auto-fix. References may be declared after their use
// point, so the registries are completed over the whole unit before any
// read is classified.
func CheckTemplate(f *source.File, root *tplast.Template, opts Options, r diag.Reporter) {
	reg := &registries{
		variables:  make(map[string]bool),
		references: make(map[string]bool),
	}
	tplast.Walk(reg, root)

	c := checker{file: f, reg: reg, opts: opts, reporter: r}
	for _, expr := range tplast.Expressions(root) {
		for _, read := range expr.Reads {
			c.checkRead(read)
		}
	}
}

// VisitTemplate registers the input variables and references a template
// scope declares. The root and embedded <ng-template> nodes both land here,
// as do the synthetic templates desugared from structural directives.
func (r *registries) VisitTemplate(t *tplast.Template) {
	for _, v := range t.Variables {
		r.variables[v.Name] = true
	}
	for _, ref := range t.References {
		r.references[ref.Name] = true
	}
}

// VisitElement registers the references declared directly on an element.
func (r *registries) VisitElement(e *tplast.Element) {
	for _, ref := range e.References {
		r.references[ref.Name] = true
	}
}

func (r *registries) VisitText(*tplast.Text)                   {}
func (r *registries) VisitInterpolation(*tplast.Interpolation) {}

type checker struct {
	file     *source.File
	reg      *registries
	opts     Options
	reporter diag.Reporter
}

// tier describes where a name resolved and which policy applies to it.
type tier struct {
	mode         Mode
	explicitCode diag.Code
	implicitCode diag.Code
	label        string
}

// checkRead classifies one read and reports at most one violation. The
// decision order is fixed: safe global, input variable, template reference,
// directive-carried reference, plain property. First match wins.
func (c *checker) checkRead(read *tplast.PropertyRead) {
	if read.Form == tplast.ReceiverOther {
		return
	}
	if safeGlobals[read.Name] {
		return
	}

	var t tier
	switch {
	case c.reg.variables[read.Name]:
		t = tier{c.opts.Variables, diag.PreferSelfExplicitVariable,
			diag.PreferSelfImplicitVariable, "template variable"}
	case c.reg.references[read.Name]:
		t = tier{c.opts.TemplateReferences, diag.PreferSelfExplicitTemplateRef,
			diag.PreferSelfImplicitTemplateRef, "template reference"}
	case referenceInputs[read.BindingName]:
		t = tier{c.opts.TemplateReferences, diag.PreferSelfExplicitTemplateRef,
			diag.PreferSelfImplicitTemplateRef, "template reference"}
	default:
		t = tier{c.opts.Properties, diag.PreferSelfExplicitProperty,
			diag.PreferSelfImplicitProperty, "property"}
	}

	switch {
	case t.mode == ModeExplicit && read.Form == tplast.ReceiverImplicit:
		c.report(t.explicitCode,
			fmt.Sprintf("%s '%s' should be this.%s", t.label, read.Name, read.Name),
			read, c.insertFix(read))
	case t.mode == ModeImplicit && read.Form == tplast.ReceiverExplicit:
		c.report(t.implicitCode,
			fmt.Sprintf("%s '%s' should not be prefixed with this.", t.label, read.Name),
			read, c.deleteFix(read))
	}
}

func (c *checker) report(code diag.Code, msg string, read *tplast.PropertyRead, f diag.Fix) {
	c.reporter.Report(code, diag.SevError, read.SourceSpan, msg, nil, []diag.Fix{f})
}

// insertFix adds the qualifier in front of an implicit read.
func (c *checker) insertFix(read *tplast.PropertyRead) diag.Fix {
	return fix.InsertText(
		fmt.Sprintf("Insert 'this.' before '%s'", read.Name),
		read.SourceSpan.Collapse(),
		qualifier,
		"",
		fix.Preferred(),
	)
}

// deleteFix removes the qualifier prefix of an explicit read. The span of
// an explicit read covers the whole "this.name" text, so the prefix is
// everything before the name, including any whitespace around the dot.
func (c *checker) deleteFix(read *tplast.PropertyRead) diag.Fix {
	sp := read.SourceSpan
	prefix := source.Span{
		File:  sp.File,
		Start: sp.Start,
		End:   sp.End - uint32(len(read.Name)),
	}
	expect := ""
	if int(prefix.End) <= len(c.file.Content) {
		expect = string(c.file.Content[prefix.Start:prefix.End])
	}
	return fix.DeleteSpan(
		fmt.Sprintf("Remove 'this.' before '%s'", read.Name),
		prefix,
		expect,
		fix.Preferred(),
	)
}
