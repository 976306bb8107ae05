package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"templint/internal/diag"
	"templint/internal/driver"
	"templint/internal/source"
	"templint/internal/tplast"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file.html>",
	Short: "Parse a template file and dump its tree",
	Long:  `Parse reads one template file and prints the node tree the checker sees, including desugared structural directives and the reads found in each expression`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("reads", false, "list the property reads of every expression")
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	showReads, err := cmd.Flags().GetBool("reads")
	if err != nil {
		return fmt.Errorf("failed to get reads flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	fileSet := source.NewFileSet()
	fileID, err := fileSet.Load(filePath)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}
	file := fileSet.Get(fileID)

	bag := diag.NewBag(maxDiagnostics)
	root := driver.ParseFile(file, bag)

	dumpNode(os.Stdout, root, 0, showReads)

	if bag.Len() > 0 {
		bag.Sort()
		fmt.Fprintln(os.Stdout)
		output := diag.FormatShortDiagnostics(bag.Items(), fileSet, false)
		if output != "" {
			fmt.Fprintln(os.Stdout, output)
		}
	}
	if bag.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

func dumpNode(w io.Writer, node tplast.Node, depth int, showReads bool) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *tplast.Template:
		label := "template"
		if n.SyntheticFor != "" {
			label = fmt.Sprintf("template (from *%s)", n.SyntheticFor)
		}
		fmt.Fprintf(w, "%s%s %s\n", indent, label, n.SourceSpan)
		for _, v := range n.Variables {
			key := v.Value
			if key == "" {
				key = "$implicit"
			}
			fmt.Fprintf(w, "%s  let %s = %s\n", indent, v.Name, key)
		}
		for _, r := range n.References {
			fmt.Fprintf(w, "%s  #%s\n", indent, r.Name)
		}
		for _, in := range n.Inputs {
			dumpExpr(w, indent+"  ", "["+in.Name+"]", in.Expr, showReads)
		}
		for _, child := range n.Children {
			dumpNode(w, child, depth+1, showReads)
		}
	case *tplast.Element:
		fmt.Fprintf(w, "%s<%s> %s\n", indent, n.Name, n.SourceSpan)
		for _, r := range n.References {
			fmt.Fprintf(w, "%s  #%s\n", indent, r.Name)
		}
		for _, in := range n.Inputs {
			dumpExpr(w, indent+"  ", "["+in.Name+"]", in.Expr, showReads)
		}
		for _, out := range n.Outputs {
			dumpExpr(w, indent+"  ", "("+out.Name+")", out.Expr, showReads)
		}
		for _, child := range n.Children {
			dumpNode(w, child, depth+1, showReads)
		}
	case *tplast.Text:
		trimmed := strings.TrimSpace(n.Value)
		if trimmed != "" {
			fmt.Fprintf(w, "%stext %q\n", indent, trimmed)
		}
	case *tplast.Interpolation:
		dumpExpr(w, indent, "interpolation", n.Expr, showReads)
	}
}

func dumpExpr(w io.Writer, indent, label string, expr *tplast.Expression, showReads bool) {
	if expr == nil {
		fmt.Fprintf(w, "%s%s\n", indent, label)
		return
	}
	fmt.Fprintf(w, "%s%s = %q\n", indent, label, expr.Text)
	if !showReads {
		return
	}
	for _, read := range expr.Reads {
		fmt.Fprintf(w, "%s  read %s (%s) %s\n", indent, read.Name, read.Form, read.SourceSpan)
	}
}
