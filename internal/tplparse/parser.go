// Package tplparse parses component template markup into a tplast tree.
// The parser is loss-tolerant: malformed input is reported through the
// diagnostics reporter and the parse always yields a usable tree for the
// parts that did scan.
package tplparse

import (
	"fmt"
	"strings"

	"templint/internal/diag"
	"templint/internal/source"
	"templint/internal/tplast"
)

// voidElements never have children and need no closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// Parse builds the template tree for a file. The returned root template is
// never nil.
func Parse(f *source.File, opts Options) *tplast.Template {
	p := parser{cur: NewCursor(f), opts: &opts}
	children := p.parseNodes("")
	return &tplast.Template{
		Children:   children,
		SourceSpan: source.Span{File: f.ID, Start: 0, End: uint32(len(f.Content))},
	}
}

type parser struct {
	cur  Cursor
	opts *Options
}

func (p *parser) file() source.FileID { return p.cur.File.ID }

// parseNodes scans siblings until EOF or a closing tag. closing names the
// open element we are inside, or "" at the root.
func (p *parser) parseNodes(closing string) []tplast.Node {
	var nodes []tplast.Node
	for !p.cur.EOF() {
		switch {
		case p.cur.Has("<!--"):
			p.skipComment()
		case p.cur.Has("</"):
			if closing != "" {
				return nodes
			}
			p.skipStrayClose()
		case p.cur.Has("<!"):
			p.skipDeclaration()
		case p.cur.Peek() == '<' && isTagNameStart(p.cur.PeekAt(1)):
			if el := p.parseElement(); el != nil {
				nodes = append(nodes, el)
			}
		default:
			if text := p.parseText(); text != nil {
				nodes = append(nodes, text)
			}
		}
	}
	if closing != "" {
		p.opts.report(diag.ParseUnexpectedEOF, p.cur.SpanFrom(p.cur.Off),
			fmt.Sprintf("unexpected end of file inside <%s>", closing))
	}
	return nodes
}

func (p *parser) skipComment() {
	start := p.cur.Off
	p.cur.Match("<!--")
	for !p.cur.EOF() {
		if p.cur.Match("-->") {
			return
		}
		p.cur.Bump()
	}
	p.opts.report(diag.ParseUnexpectedEOF, p.cur.SpanFrom(start), "unterminated comment")
}

func (p *parser) skipDeclaration() {
	for !p.cur.EOF() && p.cur.Bump() != '>' {
	}
}

func (p *parser) skipStrayClose() {
	start := p.cur.Off
	p.cur.Match("</")
	name := p.readTagName()
	for !p.cur.EOF() && p.cur.Bump() != '>' {
	}
	p.opts.warn(diag.ParseUnclosedTag, p.cur.SpanFrom(start),
		fmt.Sprintf("closing tag </%s> has no matching open tag", name))
}

// parseText collects character data and interpolations until the next tag.
func (p *parser) parseText() tplast.Node {
	if p.cur.Has("{{") {
		return p.parseInterpolation()
	}
	start := p.cur.Off
	for !p.cur.EOF() {
		if p.cur.Has("{{") {
			break
		}
		c := p.cur.Peek()
		if c == '<' {
			n := p.cur.PeekAt(1)
			if isTagNameStart(n) || n == '/' || n == '!' {
				break
			}
		}
		p.cur.Bump()
	}
	value := p.cur.Slice(start, p.cur.Off)
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &tplast.Text{Value: value, SourceSpan: p.cur.SpanFrom(start)}
}

func (p *parser) parseInterpolation() tplast.Node {
	start := p.cur.Off
	p.cur.Match("{{")
	innerStart := p.cur.Off
	for !p.cur.EOF() && !p.cur.Has("}}") {
		p.cur.Bump()
	}
	innerEnd := p.cur.Off
	if !p.cur.Match("}}") {
		p.opts.report(diag.ParseUnterminatedInterpolation, p.cur.SpanFrom(start),
			"interpolation is missing the closing }}")
	}
	expr := scanExpression(p.file(), p.cur.Slice(innerStart, innerEnd), innerStart, "", p.opts)
	return &tplast.Interpolation{Expr: expr, SourceSpan: p.cur.SpanFrom(start)}
}

// elemParts accumulates classified attributes while an element is parsed.
type elemParts struct {
	refs    []*tplast.Reference
	attrs   []*tplast.TextAttribute
	inputs  []*tplast.BoundAttribute
	outputs []*tplast.BoundEvent
	vars    []*tplast.Variable

	microDir  string
	micro     microResult
	hasMicro  bool
	selfClose bool
}

func (p *parser) parseElement() tplast.Node {
	start := p.cur.Off
	p.cur.Bump() // '<'
	name := p.readTagName()
	parts := p.parseAttributes(name, start)

	isTemplate := name == "ng-template"
	var children []tplast.Node
	if !parts.selfClose && !voidElements[name] {
		children = p.parseNodes(name)
		p.consumeCloseTag(name, start)
	}

	var node tplast.Node
	if isTemplate {
		node = &tplast.Template{
			Variables:  parts.vars,
			References: parts.refs,
			Attributes: parts.attrs,
			Inputs:     parts.inputs,
			Children:   children,
			SourceSpan: p.cur.SpanFrom(start),
		}
	} else {
		node = &tplast.Element{
			Name:       name,
			References: parts.refs,
			Attributes: parts.attrs,
			Inputs:     parts.inputs,
			Outputs:    parts.outputs,
			Children:   children,
			SourceSpan: p.cur.SpanFrom(start),
		}
	}
	if parts.hasMicro {
		// A structural directive wraps its host in a synthetic template
		// that owns the desugared variables and key bindings.
		node = &tplast.Template{
			SyntheticFor: parts.microDir,
			Variables:    parts.micro.vars,
			Inputs:       parts.micro.inputs,
			Children:     []tplast.Node{node},
			SourceSpan:   node.Span(),
		}
	}
	return node
}

func (p *parser) parseAttributes(tag string, elemStart uint32) elemParts {
	var parts elemParts
	for {
		p.cur.SkipWhitespace()
		if p.cur.EOF() {
			p.opts.report(diag.ParseUnexpectedEOF, p.cur.SpanFrom(elemStart),
				fmt.Sprintf("unexpected end of file inside <%s ...>", tag))
			return parts
		}
		if p.cur.Match("/>") {
			parts.selfClose = true
			return parts
		}
		if p.cur.Peek() == '>' {
			p.cur.Bump()
			return parts
		}
		p.parseAttribute(tag, &parts)
	}
}

func (p *parser) parseAttribute(tag string, parts *elemParts) {
	nameStart := p.cur.Off
	name := p.readAttrName()
	nameSpan := p.cur.SpanFrom(nameStart)
	if name == "" {
		p.opts.report(diag.ParseBadAttribute, nameSpan, "expected an attribute name")
		p.cur.Bump()
		return
	}

	value := ""
	valueBase := p.cur.Off
	hasValue := false
	p.cur.SkipWhitespace()
	if p.cur.Peek() == '=' {
		p.cur.Bump()
		p.cur.SkipWhitespace()
		value, valueBase = p.readAttrValue(nameSpan)
		hasValue = true
	}
	p.classifyAttribute(tag, parts, name, nameSpan, value, valueBase, hasValue)
}

func (p *parser) classifyAttribute(tag string, parts *elemParts, name string, nameSpan source.Span, value string, valueBase uint32, hasValue bool) {
	fullSpan := source.Span{File: p.file(), Start: nameSpan.Start, End: p.cur.Off}
	switch {
	case strings.HasPrefix(name, "#"):
		p.addReference(parts, name[1:], value, fullSpan)
	case strings.HasPrefix(name, "ref-"):
		p.addReference(parts, name[len("ref-"):], value, fullSpan)
	case strings.HasPrefix(name, "*"):
		dir := name[1:]
		if parts.hasMicro {
			p.opts.report(diag.ParseBadAttribute, fullSpan,
				fmt.Sprintf("*%s: only one structural directive is allowed per element", dir))
			return
		}
		parts.microDir = dir
		parts.micro = parseMicrosyntax(p.file(), dir, value, valueBase, p.opts)
		parts.hasMicro = true
	case strings.HasPrefix(name, "let-"):
		if tag != "ng-template" {
			p.opts.warn(diag.ParseBadAttribute, fullSpan,
				fmt.Sprintf("%s declares a variable outside <ng-template>", name))
			return
		}
		parts.vars = append(parts.vars, &tplast.Variable{
			Name: name[len("let-"):], Value: value, SourceSpan: fullSpan,
		})
	case strings.HasPrefix(name, "[(") && strings.HasSuffix(name, ")]"):
		inner := name[2 : len(name)-2]
		parts.inputs = append(parts.inputs, &tplast.BoundAttribute{
			Name: inner, Expr: p.bindingExpr(inner, value, valueBase, hasValue), SourceSpan: fullSpan,
		})
	case strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]"):
		inner := name[1 : len(name)-1]
		parts.inputs = append(parts.inputs, &tplast.BoundAttribute{
			Name: inner, Expr: p.bindingExpr(inner, value, valueBase, hasValue), SourceSpan: fullSpan,
		})
	case strings.HasPrefix(name, "bind-"):
		inner := name[len("bind-"):]
		parts.inputs = append(parts.inputs, &tplast.BoundAttribute{
			Name: inner, Expr: p.bindingExpr(inner, value, valueBase, hasValue), SourceSpan: fullSpan,
		})
	case strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")"):
		inner := name[1 : len(name)-1]
		parts.outputs = append(parts.outputs, &tplast.BoundEvent{
			Name: inner, Expr: p.bindingExpr(inner, value, valueBase, hasValue), SourceSpan: fullSpan,
		})
	case strings.HasPrefix(name, "on-"):
		inner := name[len("on-"):]
		parts.outputs = append(parts.outputs, &tplast.BoundEvent{
			Name: inner, Expr: p.bindingExpr(inner, value, valueBase, hasValue), SourceSpan: fullSpan,
		})
	default:
		if hasValue && strings.Contains(value, "{{") {
			if expr := p.attrInterpolation(value, valueBase); expr != nil {
				parts.inputs = append(parts.inputs, &tplast.BoundAttribute{
					Name: name, Expr: expr, SourceSpan: fullSpan,
				})
				return
			}
		}
		parts.attrs = append(parts.attrs, &tplast.TextAttribute{
			Name: name, Value: value, SourceSpan: fullSpan,
		})
	}
}

// attrInterpolation scans the {{ }} regions of a plain attribute value.
// alt="{{ caption }}" binds an expression the same way [alt]="caption"
// does, so the reads inside it go through the usual style checks. Returns
// nil when the value holds no complete interpolation.
func (p *parser) attrInterpolation(value string, valueBase uint32) *tplast.Expression {
	var reads []*tplast.PropertyRead
	found := false
	pos := 0
	for {
		open := strings.Index(value[pos:], "{{")
		if open < 0 {
			break
		}
		open += pos
		closeOff := strings.Index(value[open+2:], "}}")
		if closeOff < 0 {
			p.opts.report(diag.ParseUnterminatedInterpolation,
				source.Span{File: p.file(), Start: valueBase + uint32(open), End: valueBase + uint32(len(value))},
				"interpolation is never closed")
			break
		}
		inner := value[open+2 : open+2+closeOff]
		if expr := scanExpression(p.file(), inner, valueBase+uint32(open)+2, "", p.opts); expr != nil {
			reads = append(reads, expr.Reads...)
		}
		found = true
		pos = open + 2 + closeOff + 2
	}
	if !found {
		return nil
	}
	return &tplast.Expression{
		Text:       value,
		Reads:      reads,
		SourceSpan: source.Span{File: p.file(), Start: valueBase, End: valueBase + uint32(len(value))},
	}
}

func (p *parser) addReference(parts *elemParts, name, value string, span source.Span) {
	if !isValidRefName(name) {
		p.opts.report(diag.ParseBadReferenceName, span,
			fmt.Sprintf("%q is not a valid reference name", name))
		return
	}
	parts.refs = append(parts.refs, &tplast.Reference{Name: name, Value: value, SourceSpan: span})
}

func (p *parser) bindingExpr(binding, value string, valueBase uint32, hasValue bool) *tplast.Expression {
	if !hasValue {
		return nil
	}
	return scanExpression(p.file(), value, valueBase, binding, p.opts)
}

// consumeCloseTag eats </name>. A mismatching close tag is left for an
// ancestor element and the current one is reported as unclosed.
func (p *parser) consumeCloseTag(name string, elemStart uint32) {
	if !p.cur.Has("</") {
		return // parseNodes already reported the EOF
	}
	save := p.cur.Off
	p.cur.Match("</")
	got := p.readTagName()
	if got != name {
		p.cur.Off = save
		p.opts.report(diag.ParseUnclosedTag,
			source.Span{File: p.file(), Start: elemStart, End: elemStart + uint32(len(name)) + 1},
			fmt.Sprintf("<%s> is never closed", name))
		return
	}
	p.cur.SkipWhitespace()
	if p.cur.Peek() == '>' {
		p.cur.Bump()
	}
}

func (p *parser) readTagName() string {
	start := p.cur.Off
	for !p.cur.EOF() && isTagNameChar(p.cur.Peek()) {
		p.cur.Bump()
	}
	return p.cur.Slice(start, p.cur.Off)
}

// readAttrName scans an attribute name, which may carry binding sigils:
// #ref, *ngIf, [prop], (event), [(model)].
func (p *parser) readAttrName() string {
	start := p.cur.Off
	for !p.cur.EOF() {
		c := p.cur.Peek()
		if isSpace(c) || c == '=' || c == '>' {
			break
		}
		if c == '/' && p.cur.PeekAt(1) == '>' {
			break
		}
		p.cur.Bump()
	}
	return p.cur.Slice(start, p.cur.Off)
}

// readAttrValue returns the value text and the offset of its first byte.
func (p *parser) readAttrValue(nameSpan source.Span) (string, uint32) {
	quote := p.cur.Peek()
	if quote == '"' || quote == '\'' {
		p.cur.Bump()
		start := p.cur.Off
		for !p.cur.EOF() && p.cur.Peek() != quote {
			p.cur.Bump()
		}
		value := p.cur.Slice(start, p.cur.Off)
		if p.cur.EOF() {
			p.opts.report(diag.ParseBadAttribute,
				source.Span{File: p.file(), Start: nameSpan.Start, End: p.cur.Off},
				"attribute value is missing its closing quote")
		} else {
			p.cur.Bump()
		}
		return value, start
	}
	start := p.cur.Off
	for !p.cur.EOF() {
		c := p.cur.Peek()
		if isSpace(c) || c == '>' || (c == '/' && p.cur.PeekAt(1) == '>') {
			break
		}
		p.cur.Bump()
	}
	return p.cur.Slice(start, p.cur.Off), start
}

func isTagNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isTagNameChar(c byte) bool {
	return isTagNameStart(c) || isDigit(c) || c == '-' || c == ':'
}

func isValidRefName(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentPart(name[i]) {
			return false
		}
	}
	return true
}
