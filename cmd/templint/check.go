package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"templint/internal/diag"
	"templint/internal/diagfmt"
	"templint/internal/driver"
	"templint/internal/project"
	"templint/internal/rule"
	"templint/internal/source"
	"templint/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.html|directory>",
	Short: "Check templates for receiver style violations",
	Long:  `Check lints a template file or all *.html files within a directory and reports every name read that violates the configured receiver style`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif|short)")
	checkCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "show before/after previews for suggested fixes")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("no-cache", false, "disable the persistent result cache")
	checkCmd.Flags().String("ui", "auto", "progress UI for directory runs (auto|on|off)")
	checkCmd.Flags().String("properties", "", "receiver style for component properties (explicit|implicit)")
	checkCmd.Flags().String("variables", "", "receiver style for template variables (explicit|implicit)")
	checkCmd.Flags().String("template-references", "", "receiver style for template references (explicit|implicit)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "sarif", "short":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}

	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return fmt.Errorf("failed to get preview flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	st, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	startDir := targetPath
	if !st.IsDir() {
		startDir = filepath.Dir(targetPath)
	}
	ruleOpts, err := resolveRuleOptions(cmd, startDir)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Rule:           ruleOpts,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
	}
	if !noCache {
		cache, cacheErr := driver.OpenDiskCache("templint")
		if cacheErr != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "warning: result cache unavailable: %v\n", cacheErr)
			}
		} else {
			opts.Cache = cache
		}
	}

	var (
		fileSet *source.FileSet
		results []driver.UnitResult
	)
	if st.IsDir() {
		if shouldUseTUI(mode) && !quiet && format == "pretty" {
			files, listErr := driver.ListTemplateFiles(targetPath)
			if listErr != nil {
				return fmt.Errorf("check failed: %w", listErr)
			}
			fileSet, results, err = runCheckWithUI(cmd.Context(), "checking "+targetPath, files, opts,
				func(ctx context.Context, o driver.Options) (*source.FileSet, []driver.UnitResult, error) {
					return driver.CheckDir(ctx, targetPath, o)
				})
		} else {
			fileSet, results, err = driver.CheckDir(cmd.Context(), targetPath, opts)
		}
	} else {
		fileSet, results, err = driver.CheckFiles(cmd.Context(), []string{targetPath}, opts)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	merged := driver.MergeBags(results, maxDiagnostics)
	if noWarnings {
		merged.Filter(func(d diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning
		})
	}
	if warningsAsErrors {
		merged.Transform(func(d diag.Diagnostic) diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
	}

	color, err := useColor(cmd)
	if err != nil {
		return err
	}
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	showFixes := suggest || preview

	switch format {
	case "pretty":
		diagfmt.Pretty(os.Stdout, merged, fileSet, diagfmt.PrettyOpts{
			Color:     color,
			PathMode:  pathMode,
			ShowNotes: withNotes,
			ShowFixes: showFixes,
		})
	case "short":
		output := diag.FormatShortDiagnostics(merged.Items(), fileSet, withNotes)
		if output != "" {
			fmt.Fprintln(os.Stdout, output)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
			IncludeFixes:     showFixes,
			IncludePreviews:  preview,
		}
		if err := diagfmt.JSON(os.Stdout, merged, fileSet, jsonOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:       "templint",
			ToolVersion:    version.Plain,
			InvocationArgs: os.Args,
		}
		if err := diagfmt.Sarif(os.Stdout, merged, fileSet, meta); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}

	if merged.HasErrors() {
		// Suppress cobra usage output on lint findings
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

// resolveRuleOptions loads the nearest manifest above startDir and layers
// any CLI overrides on top, validating the combined result.
func resolveRuleOptions(cmd *cobra.Command, startDir string) (rule.Options, error) {
	manifest, err := project.LoadFromDir(startDir)
	if err != nil {
		return rule.Options{}, err
	}
	opts, err := manifest.RuleOptions()
	if err != nil {
		return rule.Options{}, err
	}

	for _, override := range []struct {
		flag   string
		target *rule.Mode
	}{
		{"properties", &opts.Properties},
		{"variables", &opts.Variables},
		{"template-references", &opts.TemplateReferences},
	} {
		value, err := cmd.Flags().GetString(override.flag)
		if err != nil {
			return rule.Options{}, fmt.Errorf("failed to get %s flag: %w", override.flag, err)
		}
		if v := strings.TrimSpace(value); v != "" {
			*override.target = rule.Mode(v)
		}
	}

	if err := opts.Validate(); err != nil {
		return rule.Options{}, err
	}
	return opts, nil
}
