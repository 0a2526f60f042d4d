// Package main provides the opx command: it parses OPX edit markup from an LLM
// reply and applies the edits to one or more workspace roots.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errActionsFailed signals a non-zero exit after the report was written.
var errActionsFailed = errors.New("one or more edits failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errActionsFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// options holds flag values shared by every subcommand.
type options struct {
	configPath string
	roots      []string
	format     string
	verbose    bool
	dryRun     bool
	nvimAddr   string
	flat       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "opx",
		Short: "Apply OPX edit markup to a workspace",
		Long: `opx reads an LLM reply containing OPX edit markup, recovers every
<edit> element it can, and applies them to the workspace in order.

Input comes from a file argument, piped stdin, or the clipboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: ~/.config/opx/config.json)")
	rootCmd.PersistentFlags().StringArrayVar(&opts.roots, "root", nil, "Workspace root as name=path or path (repeatable; first is default)")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	applyCmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Parse markup and apply the edits",
		Long: `Parses OPX markup and applies each edit in source order. A failed edit
is reported and the rest still run. Use --dry-run to see diffs without writing.

Examples:
  opx apply reply.md
  pbpaste | opx apply --dry-run
  opx apply --root api=./backend --root web=./frontend reply.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, firstArg(args))
		},
	}
	applyCmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Show what would change without writing")
	applyCmd.Flags().StringVar(&opts.nvimAddr, "nvim", "", "Apply text edits through the Neovim instance listening at this address")

	parseCmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse markup and print the recovered actions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts, firstArg(args))
		},
	}

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the file tree of every workspace root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, opts)
		},
	}
	treeCmd.Flags().BoolVar(&opts.flat, "flat", false, "Print one relative path per line")

	rootCmd.AddCommand(applyCmd, parseCmd, treeCmd)
	return rootCmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
