package tplparse

import (
	"testing"

	"templint/internal/source"
)

func readNames(text string) []string {
	expr := scanExpression(source.FileID(1), text, 0, "", &Options{})
	names := make([]string, 0, len(expr.Reads))
	for _, r := range expr.Reads {
		names = append(names, r.Name)
	}
	return names
}

func TestScanExpressionReads(t *testing.T) {
	cases := []struct {
		expr string
		want []string
	}{
		{"name", []string{"name"}},
		{"this.name", []string{"name"}},
		{"a + b", []string{"a", "b"}},
		{"user.name", []string{"user"}},
		{"user?.profile?.email", []string{"user"}},
		{"list[i].value", []string{"list", "i"}},
		{"items | async", []string{"items"}},
		{"items | slice:0:limit", []string{"items", "limit"}},
		{"a || b", []string{"a", "b"}},
		{"cond ? yes : no", []string{"cond", "yes", "no"}},
		{"fn({count: total, x})", []string{"fn", "total", "x"}},
		{"'literal' + name", []string{"name"}},
		{"42 + offset", []string{"offset"}},
		{"true && ready", []string{"ready"}},
		{"null", nil},
		{"save($event)", []string{"save", "$event"}},
		{"this", nil},
		{"this?.name", []string{"name"}},
		{"this!.name", []string{"name"}},
		{"typeof value", []string{"value"}},
		{"{a, b: c}", []string{"a", "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got := readNames(tc.expr)
			if len(got) != len(tc.want) {
				t.Fatalf("reads = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("reads = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestScanExpressionForms(t *testing.T) {
	expr := scanExpression(source.FileID(1), "this.total + count", 0, "", &Options{})
	if len(expr.Reads) != 2 {
		t.Fatalf("reads = %+v", expr.Reads)
	}
	if expr.Reads[0].Form.String() != "explicit" || expr.Reads[1].Form.String() != "implicit" {
		t.Fatalf("forms = %v, %v", expr.Reads[0].Form, expr.Reads[1].Form)
	}
}

func TestScanExpressionGuardedThisRead(t *testing.T) {
	expr := scanExpression(source.FileID(1), "this?.name", 0, "", &Options{})
	if len(expr.Reads) != 1 {
		t.Fatalf("reads = %+v", expr.Reads)
	}
	r := expr.Reads[0]
	if r.Name != "name" || r.Form.String() != "explicit" {
		t.Fatalf("read = %+v", r)
	}
	if r.SourceSpan.Start != 0 || r.SourceSpan.End != uint32(len("this?.name")) {
		t.Fatalf("span = %v", r.SourceSpan)
	}
}

func TestScanExpressionSpansWithBase(t *testing.T) {
	// Offsets are file-absolute: base shifts every span.
	expr := scanExpression(source.FileID(1), "a + this.b", 100, "click", &Options{})
	if len(expr.Reads) != 2 {
		t.Fatalf("reads = %+v", expr.Reads)
	}
	a := expr.Reads[0]
	if a.SourceSpan.Start != 100 || a.SourceSpan.End != 101 {
		t.Fatalf("a span = %v", a.SourceSpan)
	}
	b := expr.Reads[1]
	if b.SourceSpan.Start != 104 || b.SourceSpan.End != 110 {
		t.Fatalf("this.b span = %v", b.SourceSpan)
	}
	if a.BindingName != "click" || b.BindingName != "click" {
		t.Fatalf("binding names = %q, %q", a.BindingName, b.BindingName)
	}
}

func TestScanExpressionSpacedThis(t *testing.T) {
	expr := scanExpression(source.FileID(1), "this . name", 0, "", &Options{})
	if len(expr.Reads) != 1 {
		t.Fatalf("reads = %+v", expr.Reads)
	}
	r := expr.Reads[0]
	if r.Name != "name" || r.SourceSpan.Start != 0 || r.SourceSpan.End != 11 {
		t.Fatalf("read = %+v", r)
	}
}
