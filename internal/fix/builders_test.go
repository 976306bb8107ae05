package fix

import (
	"testing"

	"templint/internal/diag"
	"templint/internal/source"
)

func TestInsertTextDefaults(t *testing.T) {
	at := source.Span{Start: 4, End: 4}
	fix := InsertText("Add explicit this", at, "this.", "")

	if fix.Kind != diag.FixKindQuickFix {
		t.Errorf("expected quickfix kind, got %v", fix.Kind)
	}
	if fix.Applicability != diag.FixApplicabilityAlwaysSafe {
		t.Errorf("expected always-safe applicability, got %v", fix.Applicability)
	}
	if len(fix.Edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(fix.Edits))
	}
	if fix.Edits[0].NewText != "this." || fix.Edits[0].OldText != "" {
		t.Errorf("unexpected edit: %+v", fix.Edits[0])
	}
}

func TestDeleteSpanKeepsGuard(t *testing.T) {
	span := source.Span{Start: 3, End: 8}
	fix := DeleteSpan("Remove explicit this", span, "this.")

	if len(fix.Edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(fix.Edits))
	}
	edit := fix.Edits[0]
	if edit.NewText != "" {
		t.Errorf("expected empty NewText for deletion, got %q", edit.NewText)
	}
	if edit.OldText != "this." {
		t.Errorf("expected OldText guard 'this.', got %q", edit.OldText)
	}
}

func TestBuilderOptions(t *testing.T) {
	span := source.Span{Start: 0, End: 3}
	fix := ReplaceSpan("swap", span, "b", "a",
		WithID("stable-id"),
		Preferred(),
		WithKind(diag.FixKindRefactorRewrite),
		WithApplicability(diag.FixApplicabilityManualReview),
	)

	if fix.ID != "stable-id" {
		t.Errorf("expected ID option to apply, got %q", fix.ID)
	}
	if !fix.IsPreferred {
		t.Error("expected Preferred option to apply")
	}
	if fix.Kind != diag.FixKindRefactorRewrite {
		t.Errorf("expected kind override, got %v", fix.Kind)
	}
	if fix.Applicability != diag.FixApplicabilityManualReview {
		t.Errorf("expected applicability override, got %v", fix.Applicability)
	}
}
