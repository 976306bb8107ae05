package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"templint/internal/diag"
	"templint/internal/source"
)

// Pretty renders diagnostics for humans. The bag is expected to be sorted.
// Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline over the span, then
// notes and fix titles when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	for _, d := range bag.Items() {
		p.printDiagnostic(d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p *prettyPrinter) printDiagnostic(d diag.Diagnostic) {
	startPos, _ := p.fs.Resolve(d.Primary)
	path := displayPath(p.fs, d.Primary.File, p.opts.PathMode)

	fmt.Fprintf(p.w, "%s:%d:%d: %s %s: %s\n",
		path, startPos.Line, startPos.Col,
		p.severity(d.Severity), p.code(d.Code), d.Message)
	p.printUnderline(d.Primary)

	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			notePos, _ := p.fs.Resolve(n.Span)
			notePath := displayPath(p.fs, n.Span.File, p.opts.PathMode)
			fmt.Fprintf(p.w, "  note: %s (%s:%d:%d)\n", n.Msg, notePath, notePos.Line, notePos.Col)
		}
	}
	if p.opts.ShowFixes {
		for _, fx := range d.Fixes {
			suffix := ""
			if fx.IsPreferred {
				suffix = " (preferred)"
			}
			fmt.Fprintf(p.w, "  fix: %s%s\n", fx.Title, suffix)
		}
	}
}

// printUnderline shows the offending source line with a caret marker sized
// to the span's display width.
func (p *prettyPrinter) printUnderline(span source.Span) {
	file := p.fs.Get(span.File)
	if file == nil {
		return
	}
	startPos, endPos := p.fs.Resolve(span)
	lineText := file.GetLine(startPos.Line)
	if lineText == "" && span.Empty() {
		return
	}

	gutter := fmt.Sprintf("%5d", startPos.Line)
	fmt.Fprintf(p.w, "%s | %s\n", gutter, lineText)

	// Byte columns are 1-based; clamp to the rendered line.
	startCol := int(startPos.Col) - 1
	if startCol > len(lineText) {
		startCol = len(lineText)
	}
	endCol := len(lineText)
	if endPos.Line == startPos.Line && int(endPos.Col)-1 < endCol {
		endCol = int(endPos.Col) - 1
	}
	if endCol < startCol {
		endCol = startCol
	}

	pad := runewidth.StringWidth(lineText[:startCol])
	markerWidth := runewidth.StringWidth(lineText[startCol:endCol])
	if markerWidth < 1 {
		markerWidth = 1
	}
	marker := "^" + strings.Repeat("~", markerWidth-1)
	fmt.Fprintf(p.w, "%s | %s%s\n", strings.Repeat(" ", len(gutter)), strings.Repeat(" ", pad), p.marker(marker))
}

func (p *prettyPrinter) severity(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return p.paint(color.New(color.FgRed, color.Bold), "error")
	case diag.SevWarning:
		return p.paint(color.New(color.FgYellow, color.Bold), "warning")
	default:
		return p.paint(color.New(color.FgCyan), "info")
	}
}

func (p *prettyPrinter) code(code diag.Code) string {
	return p.paint(color.New(color.Faint), code.ID())
}

func (p *prettyPrinter) marker(s string) string {
	return p.paint(color.New(color.FgGreen, color.Bold), s)
}

func (p *prettyPrinter) paint(c *color.Color, s string) string {
	if !p.opts.Color {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}
