package diag

import (
	"templint/internal/source"
)

// Note is a secondary span with context for a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces the text covered by Span with NewText. A zero-length
// span is a pure insertion. OldText, when non-empty, is a guard: the fix
// engine refuses to apply the edit if the current text differs.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixKind is a coarse classification of a fix.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactorRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactorRewrite:
		return "refactor"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability states how confidently a fix can be applied without
// human review.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// Fix represents a possible automated correction. It is data-only: edits are
// computed by the producer and applied by the fix engine or an editor.
type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

// Diagnostic is the central finding record shared by the parser and rules.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
