package diag

import (
	"strings"
	"testing"

	"templint/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase(".")
	id := fs.AddVirtual("card.html", []byte("<div>{{ name }}</div>\n"))

	diags := []Diagnostic{
		NewError(PreferSelfExplicitProperty, source.Span{File: id, Start: 8, End: 12}, "property 'name' should be this.name"),
	}

	got := FormatShortDiagnostics(diags, fs, false)
	want := "error SELF2001 card.html:1:9 property 'name' should be this.name"
	if got != want {
		t.Errorf("short format mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestFormatShortDiagnosticsIncludesNotes(t *testing.T) {
	fs := source.NewFileSetWithBase(".")
	id := fs.AddVirtual("card.html", []byte("<div #tpl>{{ tpl }}</div>\n"))

	d := NewError(PreferSelfImplicitTemplateRef, source.Span{File: id, Start: 13, End: 16}, "reference read").
		WithNote(source.Span{File: id, Start: 5, End: 9}, "declared here")

	got := FormatShortDiagnostics([]Diagnostic{d}, fs, true)
	if !strings.Contains(got, "note SELF2006 card.html:1:6 declared here") {
		t.Errorf("expected note line in output, got:\n%s", got)
	}
}

func TestFormatGoldenSkipsVendoredPaths(t *testing.T) {
	fs := source.NewFileSetWithBase(".")
	id := fs.AddVirtual("node_modules/pkg/x.html", []byte("{{ a }}"))

	diags := []Diagnostic{
		NewError(PreferSelfExplicitProperty, source.Span{File: id, Start: 3, End: 4}, "x"),
	}

	if got := FormatGoldenDiagnostics(diags, fs, false); got != "" {
		t.Errorf("expected vendored path to be skipped, got %q", got)
	}
	if got := FormatShortDiagnostics(diags, fs, false); got == "" {
		t.Error("short format must keep vendored paths")
	}
}

func TestSanitizeMessageFlattensNewlines(t *testing.T) {
	if got := sanitizeMessage("a\r\nb\nc "); got != "a b c" {
		t.Errorf("unexpected sanitized message: %q", got)
	}
}
