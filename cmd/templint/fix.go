package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"templint/internal/diag"
	"templint/internal/driver"
	"templint/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file.html|directory>",
	Short: "Apply available fixes to a template file or directory",
	Long:  "Run the check, surface available fixes, and apply them according to the chosen strategy.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all safe fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply fix with a specific identifier")
	fixCmd.Flags().Bool("dry-run", false, "compute the result without writing any file")
}

func runFix(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	applyOpts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		DryRun:   dryRun,
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}

	// A fix id is only unique within one file.
	if info.IsDir() && targetID != "" {
		return fmt.Errorf("fix: id can only be used with a single file")
	}

	startDir := targetPath
	if !info.IsDir() {
		startDir = filepath.Dir(targetPath)
	}
	ruleOpts, err := resolveRuleOptions(cmd, startDir)
	if err != nil {
		return err
	}

	driverOpts := driver.Options{
		Rule:           ruleOpts,
		MaxDiagnostics: maxDiagnostics,
	}

	if !info.IsDir() {
		return runFixFile(cmd.Context(), targetPath, driverOpts, applyOpts)
	}
	return runFixDir(cmd.Context(), targetPath, driverOpts, applyOpts)
}

func runFixFile(ctx context.Context, path string, driverOpts driver.Options, opts fix.ApplyOptions) error {
	fileSet, results, err := driver.CheckFiles(ctx, []string{path}, driverOpts)
	if err != nil {
		return fmt.Errorf("fix: check failed: %w", err)
	}
	res, applyErr := fix.Apply(fileSet, collectDiagnostics(results), opts)
	return handleApplyResult(res, applyErr)
}

func runFixDir(ctx context.Context, path string, driverOpts driver.Options, opts fix.ApplyOptions) error {
	fileSet, results, err := driver.CheckDir(ctx, path, driverOpts)
	if err != nil {
		return fmt.Errorf("fix: check dir failed: %w", err)
	}
	res, applyErr := fix.Apply(fileSet, collectDiagnostics(results), opts)
	return handleApplyResult(res, applyErr)
}

func collectDiagnostics(results []driver.UnitResult) []diag.Diagnostic {
	all := make([]diag.Diagnostic, 0)
	for _, r := range results {
		if r.Bag == nil {
			continue
		}
		all = append(all, r.Bag.Items()...)
	}
	return all
}

func handleApplyResult(res *fix.ApplyResult, applyErr error) error {
	if res == nil {
		return applyErr
	}
	var printErr error

	if len(res.Applied) > 0 {
		_, printErr = fmt.Fprintf(os.Stdout, "Applied %d fix(es):\n", len(res.Applied))
		if printErr != nil {
			return printErr
		}
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			_, printErr = fmt.Fprintf(
				os.Stdout,
				"  %s [%s] at %s (%d edits, %s)\n",
				item.Title,
				item.ID,
				location,
				item.EditCount,
				item.Applicability.String(),
			)
			if printErr != nil {
				return printErr
			}
		}
	}

	if len(res.FileChanges) > 0 {
		_, printErr = fmt.Fprintln(os.Stdout, "Updated files:")
		if printErr != nil {
			return printErr
		}
		for _, change := range res.FileChanges {
			_, printErr = fmt.Fprintf(os.Stdout, "  %s (%d edits)\n", change.Path, change.EditCount)
			if printErr != nil {
				return printErr
			}
		}
	}

	if len(res.Skipped) > 0 {
		_, printErr = fmt.Fprintln(os.Stdout, "Skipped fixes:")
		if printErr != nil {
			return printErr
		}
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				_, printErr = fmt.Fprintf(os.Stdout, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				_, printErr = fmt.Fprintf(os.Stdout, "  [%s]: %s\n", id, skip.Reason)
			}
			if printErr != nil {
				return printErr
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			_, printErr = fmt.Fprintln(os.Stdout, "No applicable fixes found.")
			if printErr != nil {
				return printErr
			}
			return nil
		}
		return applyErr
	}

	if len(res.Applied) == 0 {
		_, printErr = fmt.Fprintln(os.Stdout, "No fixes applied.")
		if printErr != nil {
			return printErr
		}
	}
	return nil
}
