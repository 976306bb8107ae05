package tplparse

import (
	"fmt"

	"templint/internal/diag"
	"templint/internal/source"
	"templint/internal/tplast"
)

// microResult is the outcome of desugaring one *directive="..." attribute:
// the template variables it introduces and the bindings it expands to.
type microResult struct {
	vars   []*tplast.Variable
	inputs []*tplast.BoundAttribute
}

// parseMicrosyntax expands structural-directive shorthand into explicit
// bindings and variables, mirroring how the framework itself desugars it:
//
//	*ngFor="let item of items; index as i; trackBy: fn"
//
// becomes variables item/i plus bindings ngForOf=items, ngForTrackBy=fn.
// dir is the directive name without the leading star; base is the byte
// offset of text inside the file.
func parseMicrosyntax(file source.FileID, dir string, text string, base uint32, opts *Options) microResult {
	p := microParser{file: file, dir: dir, text: text, base: base, opts: opts}
	return p.parse()
}

type microParser struct {
	file source.FileID
	dir  string
	text string
	base uint32
	opts *Options

	i   int
	res microResult
}

func (p *microParser) parse() microResult {
	first := true
	for {
		p.skipWs()
		if p.i >= len(p.text) {
			return p.res
		}
		switch {
		case p.peekWord("let"):
			p.parseLet()
		case first:
			// The leading part is a bare expression bound to the
			// directive's own input: *ngIf="cond".
			p.parseBoundExpr(p.dir, p.i)
		default:
			p.parseKeyedPart()
		}
		first = false
		p.skipWs()
		if p.i < len(p.text) && (p.text[p.i] == ';' || p.text[p.i] == ',') {
			p.i++
		}
	}
}

// parseLet handles "let name" and "let name = key".
func (p *microParser) parseLet() {
	start := p.i
	p.i += len("let")
	p.skipWs()
	name, nameSpan := p.ident()
	if name == "" {
		p.bad(start, "expected a variable name after let")
		return
	}
	value := ""
	p.skipWs()
	if p.i < len(p.text) && p.text[p.i] == '=' {
		p.i++
		p.skipWs()
		value, _ = p.ident()
		if value == "" {
			p.bad(start, "expected a context key after =")
		}
	}
	p.res.vars = append(p.res.vars, &tplast.Variable{
		Name: name, Value: value, SourceSpan: nameSpan,
	})
}

// parseKeyedPart handles "key expr", "key: expr", "key as local" and
// "key expr as local" after the leading part.
func (p *microParser) parseKeyedPart() {
	start := p.i
	key, _ := p.ident()
	if key == "" {
		p.bad(start, "expected a binding key")
		p.skipToSeparator()
		return
	}
	p.skipWs()
	if p.i < len(p.text) && p.text[p.i] == ':' {
		p.i++
	}
	p.skipWs()
	if p.peekWord("as") {
		p.i += len("as")
		p.skipWs()
		local, localSpan := p.ident()
		if local == "" {
			p.bad(start, "expected a variable name after as")
			return
		}
		p.res.vars = append(p.res.vars, &tplast.Variable{
			Name: local, Value: key, SourceSpan: localSpan,
		})
		return
	}
	if p.i >= len(p.text) || p.text[p.i] == ';' || p.text[p.i] == ',' {
		p.bad(start, fmt.Sprintf("binding key %q has no expression", key))
		return
	}
	p.parseBoundExpr(p.dir+titleCase(key), start)
}

// parseBoundExpr consumes an expression up to the next top-level separator
// or "as" clause and records it as a binding named name.
func (p *microParser) parseBoundExpr(name string, partStart int) {
	exprStart := p.i
	exprEnd := p.scanExprEnd()
	raw := p.text[exprStart:exprEnd]
	p.i = exprEnd
	expr := scanExpression(p.file, raw, p.base+uint32(exprStart), name, p.opts)
	p.res.inputs = append(p.res.inputs, &tplast.BoundAttribute{
		Name: name, Expr: expr, SourceSpan: expr.SourceSpan,
	})
	p.skipWs()
	if p.peekWord("as") {
		p.i += len("as")
		p.skipWs()
		local, localSpan := p.ident()
		if local == "" {
			p.bad(partStart, "expected a variable name after as")
			return
		}
		p.res.vars = append(p.res.vars, &tplast.Variable{
			Name: local, Value: "", SourceSpan: localSpan,
		})
	}
}

// scanExprEnd finds the end of the current expression: the next ';' or ','
// outside brackets and strings, or a top-level "as" keyword.
func (p *microParser) scanExprEnd() int {
	depth := 0
	j := p.i
	end := j
	for j < len(p.text) {
		c := p.text[j]
		switch {
		case c == '\'' || c == '"' || c == '`':
			j = p.skipStringFrom(j, c)
			end = j
			continue
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case depth == 0 && (c == ';' || c == ','):
			return end
		case depth == 0 && isIdentStart(c):
			k := j
			for k < len(p.text) && isIdentPart(p.text[k]) {
				k++
			}
			if p.text[j:k] == "as" && p.wordBoundaryBefore(j) {
				return end
			}
			j = k
			end = j
			continue
		}
		j++
		if !isSpace(c) {
			end = j
		}
	}
	return end
}

// wordBoundaryBefore reports whether position j starts a fresh word rather
// than continuing an identifier.
func (p *microParser) wordBoundaryBefore(j int) bool {
	return j == 0 || !isIdentPart(p.text[j-1])
}

func (p *microParser) skipStringFrom(j int, quote byte) int {
	j++
	for j < len(p.text) {
		c := p.text[j]
		if c == '\\' {
			j += 2
			continue
		}
		j++
		if c == quote {
			return j
		}
	}
	return j
}

func (p *microParser) ident() (string, source.Span) {
	start := p.i
	for p.i < len(p.text) && isIdentPart(p.text[p.i]) {
		p.i++
	}
	sp := source.Span{File: p.file, Start: p.base + uint32(start), End: p.base + uint32(p.i)}
	return p.text[start:p.i], sp
}

func (p *microParser) peekWord(w string) bool {
	end := p.i + len(w)
	if end > len(p.text) || p.text[p.i:end] != w {
		return false
	}
	return end == len(p.text) || !isIdentPart(p.text[end])
}

func (p *microParser) skipWs() {
	for p.i < len(p.text) && isSpace(p.text[p.i]) {
		p.i++
	}
}

func (p *microParser) skipToSeparator() {
	for p.i < len(p.text) && p.text[p.i] != ';' && p.text[p.i] != ',' {
		p.i++
	}
}

func (p *microParser) bad(start int, msg string) {
	sp := source.Span{File: p.file, Start: p.base + uint32(start), End: p.base + uint32(p.i)}
	p.opts.report(diag.ParseBadMicrosyntax, sp, msg)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
