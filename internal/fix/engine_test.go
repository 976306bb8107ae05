package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"templint/internal/diag"
	"templint/internal/source"
)

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("card.html", []byte(""))
	span := source.Span{File: fileID, Start: 0, End: 0}

	diagnostics := []diag.Diagnostic{{
		Code:    diag.PreferSelfExplicitProperty,
		Message: "missing qualifier",
		Primary: span,
		Fixes: []diag.Fix{
			{
				ID:    "fix-duplicate",
				Title: "insert this.",
				Edits: []diag.TextEdit{{Span: span, NewText: "this."}},
			},
			{
				ID:    "fix-duplicate",
				Title: "insert this. again",
				Edits: []diag.TextEdit{{Span: span, NewText: "this."}},
			},
		},
	}}

	candidates, skips := gatherCandidates(diagnostics)

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(skips) != 1 {
		t.Fatalf("expected 1 skipped fix, got %d", len(skips))
	}
	if skips[0].Reason != "duplicate fix id" {
		t.Fatalf("expected duplicate fix reason, got %q", skips[0].Reason)
	}
}

func TestGatherCandidatesSynthesizesIDs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("card.html", []byte("{{ x }}"))
	span := source.Span{File: fileID, Start: 3, End: 4}

	diagnostics := []diag.Diagnostic{{
		Code:    diag.PreferSelfExplicitProperty,
		Primary: span,
		Fixes: []diag.Fix{{
			Title: "insert this.",
			Edits: []diag.TextEdit{{Span: span.Collapse(), NewText: "this."}},
		}},
	}}

	candidates, _ := gatherCandidates(diagnostics)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].fix.ID == "" {
		t.Error("expected a synthesized fix ID")
	}
}

func writeTempTemplate(t *testing.T, content string) (string, *source.FileSet, source.FileID) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "card.html")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("failed to load template: %v", err)
	}
	return path, fs, id
}

func TestApplyInsertsQualifier(t *testing.T) {
	path, fs, id := writeTempTemplate(t, "<div>{{ name }}</div>")

	at := source.Span{File: id, Start: 8, End: 8}
	d := diag.NewError(diag.PreferSelfExplicitProperty, source.Span{File: id, Start: 8, End: 12}, "needs this.").
		WithFixSuggestion(InsertText("Add explicit this", at, "this.", ""))

	result, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(result.Applied) != 1 {
		t.Fatalf("expected 1 applied fix, got %d", len(result.Applied))
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to re-read template: %v", err)
	}
	if string(got) != "<div>{{ this.name }}</div>" {
		t.Errorf("unexpected patched content: %q", string(got))
	}
}

func TestApplyDeletesQualifierWithGuard(t *testing.T) {
	path, fs, id := writeTempTemplate(t, "{{ this.item }}")

	span := source.Span{File: id, Start: 3, End: 8}
	d := diag.NewError(diag.PreferSelfImplicitVariable, source.Span{File: id, Start: 3, End: 12}, "drop this.").
		WithFixSuggestion(DeleteSpan("Remove explicit this", span, "this."))

	if _, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeOnce}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "{{ item }}" {
		t.Errorf("unexpected patched content: %q", string(got))
	}
}

func TestApplyRejectsStaleGuard(t *testing.T) {
	_, fs, id := writeTempTemplate(t, "{{ item }}")

	span := source.Span{File: id, Start: 3, End: 8}
	d := diag.NewError(diag.PreferSelfImplicitVariable, span, "drop this.").
		WithFixSuggestion(DeleteSpan("Remove explicit this", span, "this."))

	result, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeOnce})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(result.Skipped) == 0 {
		t.Fatal("expected the stale fix to be skipped")
	}
	if result.Skipped[0].Reason != "existing text does not match expected content" {
		t.Errorf("unexpected skip reason: %q", result.Skipped[0].Reason)
	}
}

func TestApplySkipsVirtualFiles(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("virtual.html", []byte("{{ a }}"))
	span := source.Span{File: id, Start: 3, End: 3}

	d := diag.NewError(diag.PreferSelfExplicitProperty, span, "x").
		WithFixSuggestion(InsertText("Add explicit this", span, "this.", ""))

	result, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes for virtual file, got %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != "target file is virtual" {
		t.Fatalf("expected virtual-file skip, got %+v", result.Skipped)
	}
}

func TestApplyModeIDSelectsSingleFix(t *testing.T) {
	path, fs, id := writeTempTemplate(t, "{{ a }} {{ b }}")

	dA := diag.NewError(diag.PreferSelfExplicitProperty, source.Span{File: id, Start: 3, End: 4}, "a").
		WithFixSuggestion(InsertText("Add explicit this", source.Span{File: id, Start: 3, End: 3}, "this.", "", WithID("fix-a")))
	dB := diag.NewError(diag.PreferSelfExplicitProperty, source.Span{File: id, Start: 11, End: 12}, "b").
		WithFixSuggestion(InsertText("Add explicit this", source.Span{File: id, Start: 11, End: 11}, "this.", "", WithID("fix-b")))

	result, err := Apply(fs, []diag.Diagnostic{dA, dB}, ApplyOptions{Mode: ApplyModeID, TargetID: "fix-b"})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(result.Applied) != 1 || result.Applied[0].ID != "fix-b" {
		t.Fatalf("expected only fix-b applied, got %+v", result.Applied)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "{{ a }} {{ this.b }}" {
		t.Errorf("unexpected patched content: %q", string(got))
	}
}

func TestApplyAllAppliesMultipleEditsWithDeltas(t *testing.T) {
	path, fs, id := writeTempTemplate(t, "{{ a }} {{ b }}")

	dA := diag.NewError(diag.PreferSelfExplicitProperty, source.Span{File: id, Start: 3, End: 4}, "a").
		WithFixSuggestion(InsertText("Add explicit this", source.Span{File: id, Start: 3, End: 3}, "this.", ""))
	dB := diag.NewError(diag.PreferSelfExplicitProperty, source.Span{File: id, Start: 11, End: 12}, "b").
		WithFixSuggestion(InsertText("Add explicit this", source.Span{File: id, Start: 11, End: 11}, "this.", ""))

	if _, err := Apply(fs, []diag.Diagnostic{dA, dB}, ApplyOptions{Mode: ApplyModeAll}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "{{ this.a }} {{ this.b }}" {
		t.Errorf("unexpected patched content: %q", string(got))
	}
}

func TestApplyDryRunLeavesFileUntouched(t *testing.T) {
	path, fs, id := writeTempTemplate(t, "{{ a }}")

	d := diag.NewError(diag.PreferSelfExplicitProperty, source.Span{File: id, Start: 3, End: 4}, "a").
		WithFixSuggestion(InsertText("Add explicit this", source.Span{File: id, Start: 3, End: 3}, "this.", ""))

	result, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(result.FileChanges) != 1 {
		t.Fatalf("expected 1 staged file change, got %d", len(result.FileChanges))
	}

	got, _ := os.ReadFile(path)
	if string(got) != "{{ a }}" {
		t.Errorf("dry run must not modify the file, got %q", string(got))
	}
}

func TestPatchAppliesEditsInMemory(t *testing.T) {
	content := []byte("{{ this.item }}")
	edits := []diag.TextEdit{{
		Span:    source.Span{Start: 3, End: 8},
		OldText: "this.",
	}}

	got, err := Patch(content, edits)
	if err != nil {
		t.Fatalf("Patch returned error: %v", err)
	}
	if string(got) != "{{ item }}" {
		t.Errorf("unexpected patched content: %q", string(got))
	}
}

func TestSpansConflict(t *testing.T) {
	mk := func(start, end uint32) diag.TextEdit {
		return diag.TextEdit{Span: source.Span{Start: start, End: end}}
	}

	cases := []struct {
		name string
		a, b diag.TextEdit
		want bool
	}{
		{"disjoint", mk(0, 2), mk(5, 7), false},
		{"overlap", mk(0, 5), mk(3, 7), true},
		{"touching", mk(0, 3), mk(3, 6), false},
		{"zero-zero", mk(2, 2), mk(2, 2), false},
		{"zero inside", mk(3, 3), mk(1, 5), true},
		{"zero outside", mk(7, 7), mk(1, 5), false},
	}
	for _, c := range cases {
		if got := spansConflict(c.a, c.b); got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}
