package tplparse

import (
	"templint/internal/diag"
	"templint/internal/source"
	"templint/internal/tplast"
)

// exprKeywords are names that never count as property reads.
var exprKeywords = map[string]bool{
	"true":      true,
	"false":     true,
	"null":      true,
	"undefined": true,
	"typeof":    true,
	"in":        true,
	"of":        true,
	"as":        true,
	"let":       true,
}

// scanExpression tokenizes a binding or interpolation expression and
// collects the property reads rooted in the component scope. Reads behind a
// member or keyed access ({{ user.name }}, {{ list[i].x }}) are skipped for
// everything but their head; pipe names and object literal keys are never
// reads. base is the byte offset of text inside the file.
func scanExpression(file source.FileID, text string, base uint32, bindingName string, opts *Options) *tplast.Expression {
	expr := &tplast.Expression{
		Text:       text,
		SourceSpan: source.Span{File: file, Start: base, End: base + uint32(len(text))},
	}

	s := exprScanner{
		file:    file,
		text:    text,
		base:    base,
		binding: bindingName,
		opts:    opts,
	}
	expr.Reads = s.scan()
	return expr
}

type exprScanner struct {
	file    source.FileID
	text    string
	base    uint32
	binding string
	opts    *Options

	i       int
	prevSig byte // last significant byte, 'a' for idents, '0' for numbers
	curly   int
}

func (s *exprScanner) scan() []*tplast.PropertyRead {
	var reads []*tplast.PropertyRead
	for s.i < len(s.text) {
		c := s.text[s.i]
		switch {
		case isSpace(c):
			s.i++
		case c == '\'' || c == '"' || c == '`':
			s.skipString(c)
		case isDigit(c):
			s.skipNumber()
		case isIdentStart(c):
			if r := s.scanIdent(); r != nil {
				reads = append(reads, r)
			}
		default:
			s.scanPunct(c)
		}
	}
	return reads
}

func (s *exprScanner) skipString(quote byte) {
	start := s.i
	s.i++
	for s.i < len(s.text) {
		c := s.text[s.i]
		if c == '\\' {
			s.i += 2
			continue
		}
		s.i++
		if c == quote {
			s.prevSig = quote
			return
		}
	}
	sp := source.Span{File: s.file, Start: s.base + uint32(start), End: s.base + uint32(len(s.text))}
	s.opts.report(diag.ParseUnterminatedString, sp, "unterminated string literal in expression")
	s.prevSig = quote
}

func (s *exprScanner) skipNumber() {
	for s.i < len(s.text) {
		c := s.text[s.i]
		if isAlnum(c) || c == '.' || c == '_' {
			s.i++
			continue
		}
		break
	}
	s.prevSig = '0'
}

// scanIdent reads one identifier and decides whether it is a property read.
func (s *exprScanner) scanIdent() *tplast.PropertyRead {
	start := s.i
	for s.i < len(s.text) && isIdentPart(s.text[s.i]) {
		s.i++
	}
	word := s.text[start:s.i]
	afterDot := s.prevSig == '.'
	prev := s.prevSig
	s.prevSig = 'a'

	if word == "this" && !afterDot {
		return s.scanThisRead(start)
	}
	if exprKeywords[word] {
		return nil
	}
	if afterDot {
		return nil // member of a chain, receiver is some other value
	}
	if prev == '|' {
		return nil // pipe name
	}
	if s.curly > 0 && (prev == '{' || prev == ',') && s.nextSig() == ':' {
		return nil // object literal key
	}
	return &tplast.PropertyRead{
		Name:        word,
		Form:        tplast.ReceiverImplicit,
		BindingName: s.binding,
		SourceSpan:  source.Span{File: s.file, Start: s.base + uint32(start), End: s.base + uint32(s.i)},
	}
}

// scanThisRead handles "this.<name>", including the guarded forms
// "this?.<name>" and "this!.<name>". The resulting span covers the whole
// qualified read so a fix can rewrite it as one unit. A bare "this" with no
// member access is not a read.
func (s *exprScanner) scanThisRead(start int) *tplast.PropertyRead {
	save := s.i
	j := s.i
	for j < len(s.text) && isSpace(s.text[j]) {
		j++
	}
	if j+1 < len(s.text) && (s.text[j] == '?' || s.text[j] == '!') && s.text[j+1] == '.' {
		j++
	}
	if j >= len(s.text) || s.text[j] != '.' {
		return nil
	}
	j++
	for j < len(s.text) && isSpace(s.text[j]) {
		j++
	}
	if j >= len(s.text) || !isIdentStart(s.text[j]) {
		s.i = save
		return nil
	}
	nameStart := j
	for j < len(s.text) && isIdentPart(s.text[j]) {
		j++
	}
	s.i = j
	return &tplast.PropertyRead{
		Name:        s.text[nameStart:j],
		Form:        tplast.ReceiverExplicit,
		BindingName: s.binding,
		SourceSpan:  source.Span{File: s.file, Start: s.base + uint32(start), End: s.base + uint32(j)},
	}
}

func (s *exprScanner) scanPunct(c byte) {
	switch c {
	case '|':
		if s.i+1 < len(s.text) && s.text[s.i+1] == '|' {
			s.i += 2
			s.prevSig = 'o' // logical or, not a pipe
			return
		}
		s.i++
		s.prevSig = '|'
	case '?', '!':
		if s.i+1 < len(s.text) && s.text[s.i+1] == '.' {
			s.i += 2
			s.prevSig = '.'
			return
		}
		s.i++
		s.prevSig = c
	case '{':
		s.curly++
		s.i++
		s.prevSig = c
	case '}':
		if s.curly > 0 {
			s.curly--
		}
		s.i++
		s.prevSig = c
	default:
		s.i++
		s.prevSig = c
	}
}

// nextSig returns the next significant byte without consuming it.
func (s *exprScanner) nextSig() byte {
	for j := s.i; j < len(s.text); j++ {
		if !isSpace(s.text[j]) {
			return s.text[j]
		}
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '$'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
