package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"templint/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "templint",
	Short: "Templint component template linter",
	Long:  `Templint checks component templates for implicit or explicit receiver style and can rewrite them in place`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout)), nil
}
