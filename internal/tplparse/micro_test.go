package tplparse

import (
	"testing"

	"templint/internal/diag"
	"templint/internal/source"
)

func desugar(t *testing.T, dir, text string) microResult {
	t.Helper()
	bag := diag.NewBag(16)
	res := parseMicrosyntax(source.FileID(1), dir, text, 0, &Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	return res
}

func TestMicrosyntaxNgForFull(t *testing.T) {
	res := desugar(t, "ngFor", "let item of items; index as i; trackBy: trackFn")

	if len(res.vars) != 2 {
		t.Fatalf("vars = %+v", res.vars)
	}
	if res.vars[0].Name != "item" || res.vars[0].Value != "" {
		t.Fatalf("item = %+v", res.vars[0])
	}
	if res.vars[1].Name != "i" || res.vars[1].Value != "index" {
		t.Fatalf("i = %+v", res.vars[1])
	}

	if len(res.inputs) != 2 {
		t.Fatalf("inputs = %+v", res.inputs)
	}
	if res.inputs[0].Name != "ngForOf" || res.inputs[0].Expr.Text != "items" {
		t.Fatalf("ngForOf = %+v", res.inputs[0])
	}
	if res.inputs[1].Name != "ngForTrackBy" || res.inputs[1].Expr.Text != "trackFn" {
		t.Fatalf("ngForTrackBy = %+v", res.inputs[1])
	}
}

func TestMicrosyntaxNgIfAs(t *testing.T) {
	res := desugar(t, "ngIf", "user$ | async as user")
	if len(res.inputs) != 1 || res.inputs[0].Name != "ngIf" {
		t.Fatalf("inputs = %+v", res.inputs)
	}
	if res.inputs[0].Expr.Text != "user$ | async" {
		t.Fatalf("ngIf expr = %q", res.inputs[0].Expr.Text)
	}
	if len(res.vars) != 1 || res.vars[0].Name != "user" {
		t.Fatalf("vars = %+v", res.vars)
	}
}

func TestMicrosyntaxNgIfElse(t *testing.T) {
	res := desugar(t, "ngIf", "loaded; else placeholder")
	if len(res.inputs) != 2 {
		t.Fatalf("inputs = %+v", res.inputs)
	}
	if res.inputs[1].Name != "ngIfElse" {
		t.Fatalf("second input = %+v", res.inputs[1])
	}
	reads := res.inputs[1].Expr.Reads
	if len(reads) != 1 || reads[0].Name != "placeholder" || reads[0].BindingName != "ngIfElse" {
		t.Fatalf("else reads = %+v", reads)
	}
}

func TestMicrosyntaxLetWithKey(t *testing.T) {
	res := desugar(t, "ngTemplateOutlet", "let row = item")
	if len(res.vars) != 1 || res.vars[0].Name != "row" || res.vars[0].Value != "item" {
		t.Fatalf("vars = %+v", res.vars)
	}
}

func TestMicrosyntaxKeyWithColon(t *testing.T) {
	res := desugar(t, "ngFor", "let x of rows; trackBy: byId")
	if len(res.inputs) != 2 || res.inputs[1].Name != "ngForTrackBy" {
		t.Fatalf("inputs = %+v", res.inputs)
	}
}

func TestMicrosyntaxExprKeepsSeparatorsInsideCalls(t *testing.T) {
	res := desugar(t, "ngIf", "check(a, b)")
	if len(res.inputs) != 1 || res.inputs[0].Expr.Text != "check(a, b)" {
		t.Fatalf("inputs = %+v", res.inputs)
	}
}

func TestMicrosyntaxErrors(t *testing.T) {
	cases := []struct{ name, text string }{
		{"let without name", "let"},
		{"key without expression", "cond; else"},
		{"as without name", "cond as"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bag := diag.NewBag(16)
			parseMicrosyntax(source.FileID(1), "ngIf", tc.text, 0,
				&Options{Reporter: diag.BagReporter{Bag: bag}})
			found := false
			for _, d := range bag.Items() {
				if d.Code == diag.ParseBadMicrosyntax {
					found = true
				}
			}
			if !found {
				t.Fatalf("want ParseBadMicrosyntax, got %v", bag.Items())
			}
		})
	}
}
