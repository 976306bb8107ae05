package rule

import (
	"fmt"
)

// Mode states whether reads in a tier group must carry the this qualifier.
type Mode string

const (
	ModeExplicit Mode = "explicit"
	ModeImplicit Mode = "implicit"
)

// Options holds the per-tier policy of the prefer-self rule. All three
// settings are always populated; zero values are rejected by Validate.
type Options struct {
	// Properties governs plain component property reads.
	Properties Mode
	// Variables governs reads of template input variables (let bindings).
	Variables Mode
	// TemplateReferences governs reads of #name references, including the
	// directive inputs that carry references without declaring them.
	TemplateReferences Mode
}

// DefaultOptions returns the stock policy: properties explicit, locals
// implicit.
func DefaultOptions() Options {
	return Options{
		Properties:         ModeExplicit,
		Variables:          ModeImplicit,
		TemplateReferences: ModeImplicit,
	}
}

// Validate rejects any setting outside the two-value enum.
func (o Options) Validate() error {
	for _, s := range []struct {
		key  string
		mode Mode
	}{
		{"properties", o.Properties},
		{"variables", o.Variables},
		{"template-references", o.TemplateReferences},
	} {
		if s.mode != ModeExplicit && s.mode != ModeImplicit {
			return fmt.Errorf("prefer-self: %s must be %q or %q, got %q",
				s.key, ModeExplicit, ModeImplicit, s.mode)
		}
	}
	return nil
}
