package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	bag, fs := testBag(t)
	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
		IncludeFixes:     true,
		IncludePreviews:  true,
	})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output does not round-trip: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("output = %+v", out)
	}

	d := out.Diagnostics[0]
	if d.Code != "SELF2001" || d.Severity != "ERROR" {
		t.Fatalf("diagnostic = %+v", d)
	}
	loc := d.Location
	if loc.StartByte != 8 || loc.EndByte != 12 {
		t.Fatalf("location bytes = %+v", loc)
	}
	if loc.StartLine != 1 || loc.StartCol != 9 || loc.EndCol != 13 {
		t.Fatalf("location positions = %+v", loc)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "read here" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.NewText != "this." {
		t.Fatalf("edit = %+v", edit)
	}
	if len(edit.BeforeLines) != 1 || edit.BeforeLines[0] != "<div>{{ name }}</div>" {
		t.Fatalf("before preview = %v", edit.BeforeLines)
	}
	if len(edit.AfterLines) != 1 || edit.AfterLines[0] != "<div>{{ this.name }}</div>" {
		t.Fatalf("after preview = %v", edit.AfterLines)
	}
}

func TestJSONTruncation(t *testing.T) {
	bag, fs := testBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 0}); err != nil {
		t.Fatal(err)
	}
	var all DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &all); err != nil {
		t.Fatal(err)
	}
	if all.Count != 1 {
		t.Fatalf("count = %d", all.Count)
	}

	// Notes and fixes stay out without opt-in.
	if len(all.Diagnostics[0].Notes) != 0 || len(all.Diagnostics[0].Fixes) != 0 {
		t.Fatalf("diagnostic = %+v", all.Diagnostics[0])
	}
}
