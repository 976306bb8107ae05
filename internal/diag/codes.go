package diag

import (
	"fmt"
)

type Code uint16

const (
	// UnknownCode is the fallback for unmapped diagnostics.
	UnknownCode Code = 0

	// Template parsing
	ParseInfo                      Code = 1000
	ParseUnexpectedEOF             Code = 1001
	ParseUnclosedTag               Code = 1002
	ParseUnterminatedInterpolation Code = 1003
	ParseBadAttribute              Code = 1004
	ParseBadMicrosyntax            Code = 1005
	ParseUnterminatedString        Code = 1006
	ParseBadReferenceName          Code = 1007

	// prefer-self rule. One code per policy outcome and tier group, six in
	// total: the explicit-* codes fire when the qualifier is missing but
	// required, the implicit-* codes when it is present but forbidden.
	PreferSelfInfo                Code = 2000
	PreferSelfExplicitProperty    Code = 2001
	PreferSelfImplicitProperty    Code = 2002
	PreferSelfExplicitVariable    Code = 2003
	PreferSelfImplicitVariable    Code = 2004
	PreferSelfExplicitTemplateRef Code = 2005
	PreferSelfImplicitTemplateRef Code = 2006

	// I/O
	IOLoadFileError Code = 3001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	ParseInfo:                      "Template parse information",
	ParseUnexpectedEOF:             "Unexpected end of template",
	ParseUnclosedTag:               "Unclosed element tag",
	ParseUnterminatedInterpolation: "Unterminated interpolation",
	ParseBadAttribute:              "Malformed attribute",
	ParseBadMicrosyntax:            "Malformed structural directive expression",
	ParseUnterminatedString:        "Unterminated string literal",
	ParseBadReferenceName:          "Malformed template reference name",

	PreferSelfInfo:                "prefer-self information",
	PreferSelfExplicitProperty:    "Property read must use explicit this",
	PreferSelfImplicitProperty:    "Property read must not use explicit this",
	PreferSelfExplicitVariable:    "Template variable read must use explicit this",
	PreferSelfImplicitVariable:    "Template variable read must not use explicit this",
	PreferSelfExplicitTemplateRef: "Template reference read must use explicit this",
	PreferSelfImplicitTemplateRef: "Template reference read must not use explicit this",

	IOLoadFileError: "Failed to load file",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("PAR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SELF%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
