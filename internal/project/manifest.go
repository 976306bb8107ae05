// Package project locates and loads the templint.toml manifest and turns
// its [rules.prefer-self] section into validated rule options.
package project

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"templint/internal/rule"
)

// PreferSelfConfig is the raw [rules.prefer-self] section. Empty fields
// take the rule defaults.
type PreferSelfConfig struct {
	Properties         string `toml:"properties"`
	Variables          string `toml:"variables"`
	TemplateReferences string `toml:"template-references"`
}

// Manifest is a loaded templint.toml.
type Manifest struct {
	Path       string
	PreferSelf PreferSelfConfig
}

type manifestFile struct {
	Rules struct {
		PreferSelf PreferSelfConfig `toml:"prefer-self"`
	} `toml:"rules"`
}

// Load parses a templint.toml. Keys outside the known schema are rejected
// so a typo never silently falls back to a default.
func Load(path string) (Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Manifest{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	m := Manifest{Path: path, PreferSelf: cfg.Rules.PreferSelf}
	if _, err := m.RuleOptions(); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadFromDir walks up from startDir and loads the nearest manifest. With
// no manifest anywhere up the tree, the zero Manifest (all defaults) is
// returned.
func LoadFromDir(startDir string) (Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return Manifest{}, err
	}
	if !ok {
		return Manifest{}, nil
	}
	return Load(path)
}

// RuleOptions resolves the section into rule options, applying defaults
// for omitted keys and validating the rest.
func (m Manifest) RuleOptions() (rule.Options, error) {
	opts := rule.DefaultOptions()
	if v := strings.TrimSpace(m.PreferSelf.Properties); v != "" {
		opts.Properties = rule.Mode(v)
	}
	if v := strings.TrimSpace(m.PreferSelf.Variables); v != "" {
		opts.Variables = rule.Mode(v)
	}
	if v := strings.TrimSpace(m.PreferSelf.TemplateReferences); v != "" {
		opts.TemplateReferences = rule.Mode(v)
	}
	if err := opts.Validate(); err != nil {
		return rule.Options{}, err
	}
	return opts, nil
}
