package tplparse

import (
	"templint/internal/diag"
	"templint/internal/source"
)

// Options configures the parser.
type Options struct {
	// Reporter receives parse diagnostics. May be nil.
	Reporter diag.Reporter
}

func (o *Options) report(code diag.Code, span source.Span, msg string) {
	if o.Reporter == nil {
		return
	}
	o.Reporter.Report(code, diag.SevError, span, msg, nil, nil)
}

func (o *Options) warn(code diag.Code, span source.Span, msg string) {
	if o.Reporter == nil {
		return
	}
	o.Reporter.Report(code, diag.SevWarning, span, msg, nil, nil)
}
