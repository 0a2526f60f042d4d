package main

import (
	"os/signal"
	"syscall"

	"github.com/Cyclone1070/opx/internal/model"
	"github.com/Cyclone1070/opx/internal/parser"
	"github.com/Cyclone1070/opx/internal/source"
	"github.com/Cyclone1070/opx/internal/tree"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runApply(cmd *cobra.Command, opts *options, path string) error {
	deps, err := buildDependencies(cmd, opts)
	if err != nil {
		return err
	}
	defer deps.Close()

	outcome, err := readAndParse(deps, path)
	if err != nil {
		return err
	}
	if len(outcome.Actions) == 0 {
		if err := deps.Report.Results(nil, outcome.Errors); err != nil {
			return err
		}
		return errActionsFailed
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := deps.newStore(opts.nvimAddr)
	if err != nil {
		return err
	}
	exec := deps.newExecutor(s)

	if opts.dryRun {
		previews := exec.Preview(ctx, outcome.Actions)
		if err := deps.Report.Previews(previews, outcome.Errors); err != nil {
			return err
		}
		for _, p := range previews {
			if !p.Success {
				return errActionsFailed
			}
		}
		if len(outcome.Errors) > 0 {
			return errActionsFailed
		}
		return nil
	}

	results := exec.Execute(ctx, outcome.Actions)
	if err := deps.Report.Results(results, outcome.Errors); err != nil {
		return err
	}
	if len(outcome.Errors) > 0 || anyFailed(results) {
		return errActionsFailed
	}
	return nil
}

func runParse(cmd *cobra.Command, opts *options, path string) error {
	deps, err := buildDependencies(cmd, opts)
	if err != nil {
		return err
	}
	defer deps.Close()

	outcome, err := readAndParse(deps, path)
	if err != nil {
		return err
	}
	if err := deps.Report.Parse(outcome); err != nil {
		return err
	}
	if len(outcome.Errors) > 0 {
		return errActionsFailed
	}
	return nil
}

func runTree(cmd *cobra.Command, opts *options) error {
	deps, err := buildDependencies(cmd, opts)
	if err != nil {
		return err
	}
	defer deps.Close()

	trees, err := tree.NewBuilder(deps.FS, deps.Config, deps.Logger).Build(cmd.Context(), deps.Resolver.Roots())
	if err != nil {
		return err
	}
	if opts.flat {
		return deps.Report.Paths(trees)
	}
	return deps.Report.Tree(trees)
}

func readAndParse(deps *Dependencies, path string) (model.ParseOutcome, error) {
	src := source.New()
	text, kind, err := src.Read(path)
	if err != nil {
		return model.ParseOutcome{}, err
	}
	outcome := parser.Parse(text)
	deps.Logger.Info("parsed markup",
		zap.String("source", string(kind)),
		zap.Int("actions", len(outcome.Actions)),
		zap.Int("errors", len(outcome.Errors)),
	)
	for _, e := range outcome.Errors {
		deps.Logger.Warn("parse error", zap.String("error", e))
	}
	return outcome, nil
}

func anyFailed(results []model.ActionResult) bool {
	for _, r := range results {
		if !r.Success {
			return true
		}
	}
	return false
}
