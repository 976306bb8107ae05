package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"templint/internal/diag"
	"templint/internal/diagfmt"
	"templint/internal/rule"
	"templint/internal/source"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCheckFile(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("card.html", []byte("{{ name }}"))
	bag := CheckFile(fs.Get(id), rule.DefaultOptions(), 64)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.PreferSelfExplicitProperty {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
	if len(bag.Items()[0].Fixes) != 1 {
		t.Fatalf("fix missing: %+v", bag.Items()[0])
	}
}

func TestListTemplateFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/card.html":               "{{ a }}",
		"app/list.html":               "{{ b }}",
		"app/style.css":               "",
		"node_modules/dep/x.html":     "{{ c }}",
		".cache/y.html":               "{{ d }}",
		"dist/bundle/templates.html":  "{{ e }}",
		"app/sub/node_modules/z.html": "{{ f }}",
		"app/sub/nested/widget.html":  "{{ g }}",
	})
	files, err := ListTemplateFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "app", "card.html"),
		filepath.Join(dir, "app", "list.html"),
		filepath.Join(dir, "app", "sub", "nested", "widget.html"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files = %v, want %v", files, want)
		}
	}
}

func TestCheckDir(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.html": "{{ first }}",
		"b.html": "{{ this.second }}",
		"c.html": `<li *ngFor="let item of rows">{{ item }}</li>`,
	})

	var events []Event
	_, results, err := CheckDir(context.Background(), dir, Options{
		Rule:           rule.DefaultOptions(),
		MaxDiagnostics: 64,
		Jobs:           4,
		Progress:       func(e Event) { events = append(events, e) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	// Results keep stable file order regardless of completion order.
	for i, base := range []string{"a.html", "b.html", "c.html"} {
		if filepath.Base(results[i].Path) != base {
			t.Fatalf("result %d is %s, want %s", i, results[i].Path, base)
		}
	}
	if results[0].Bag.Len() != 1 || results[0].Bag.Items()[0].Code != diag.PreferSelfExplicitProperty {
		t.Fatalf("a.html diagnostics = %v", results[0].Bag.Items())
	}
	// b.html: explicit property read is fine under the default policy.
	if results[1].Bag.Len() != 0 {
		t.Fatalf("b.html diagnostics = %v", results[1].Bag.Items())
	}
	// c.html: rows is an implicit property read; item is a compliant
	// implicit variable read.
	if results[2].Bag.Len() != 1 || results[2].Bag.Items()[0].Code != diag.PreferSelfExplicitProperty {
		t.Fatalf("c.html diagnostics = %v", results[2].Bag.Items())
	}

	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	for i, e := range events {
		if e.Index != i+1 || e.Total != 3 {
			t.Fatalf("event %d = %+v", i, e)
		}
	}
}

func TestCheckDirEmpty(t *testing.T) {
	_, results, err := CheckDir(context.Background(), t.TempDir(), Options{
		Rule: rule.DefaultOptions(), MaxDiagnostics: 16,
	})
	if err != nil || results != nil {
		t.Fatalf("results = %v, err = %v", results, err)
	}
}

func TestMergeBags(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.html": "{{ x }}",
		"b.html": "{{ y }}",
	})
	_, results, err := CheckDir(context.Background(), dir, Options{
		Rule: rule.DefaultOptions(), MaxDiagnostics: 8,
	})
	if err != nil {
		t.Fatal(err)
	}
	merged := MergeBags(results, 8)
	if merged.Len() != 2 {
		t.Fatalf("merged = %v", merged.Items())
	}
	if !merged.HasErrors() {
		t.Fatal("merged bag should carry errors")
	}
}

func TestCheckFilesLoadsGivenPaths(t *testing.T) {
	dir := writeTree(t, map[string]string{"one.html": "{{ v }}"})
	missing := filepath.Join(dir, "absent.html")

	_, results, err := CheckFiles(context.Background(), []string{
		filepath.Join(dir, "one.html"), missing,
	}, Options{Rule: rule.DefaultOptions(), MaxDiagnostics: 8})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Bag.Len() != 1 {
		t.Fatalf("one.html diagnostics = %v", results[0].Bag.Items())
	}
	if results[1].Bag.Len() != 1 || results[1].Bag.Items()[0].Code != diag.IOLoadFileError {
		t.Fatalf("missing file diagnostics = %v", results[1].Bag.Items())
	}
}

func TestLoadErrorDiagnosticRenders(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.html")

	fs, results, err := CheckFiles(context.Background(), []string{missing},
		Options{Rule: rule.DefaultOptions(), MaxDiagnostics: 8})
	if err != nil {
		t.Fatal(err)
	}

	merged := MergeBags(results, 8)
	if merged.Len() != 1 || merged.Items()[0].Code != diag.IOLoadFileError {
		t.Fatalf("diagnostics = %v", merged.Items())
	}
	if got, want := merged.Items()[0].Primary.File, results[0].FileID; got != want {
		t.Fatalf("span anchored to file %d, unit file is %d", got, want)
	}

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, merged, fs, diagfmt.PrettyOpts{})
	if !strings.Contains(buf.String(), "absent.html:1:1") {
		t.Fatalf("pretty output = %q", buf.String())
	}
	if short := diag.FormatShortDiagnostics(merged.Items(), fs, false); !strings.Contains(short, "IO3001") {
		t.Fatalf("short output = %q", short)
	}
}
