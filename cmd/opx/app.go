package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/opx/internal/config"
	"github.com/Cyclone1070/opx/internal/document"
	"github.com/Cyclone1070/opx/internal/executor"
	"github.com/Cyclone1070/opx/internal/logging"
	"github.com/Cyclone1070/opx/internal/report"
	"github.com/Cyclone1070/opx/internal/service/checksum"
	"github.com/Cyclone1070/opx/internal/service/fs"
	pathsvc "github.com/Cyclone1070/opx/internal/service/path"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// store is what the executor needs from a document store.
type store interface {
	Exists(path string) (bool, error)
	Read(path string) (*document.Snapshot, error)
	Apply(ctx context.Context, edit *document.Edit) error
	IsDirty(path string) bool
	Save(ctx context.Context, path string) error
}

// Dependencies holds the components a command runs with.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	FS        *fs.OSFileSystem
	Checksums *checksum.Manager
	Resolver  *pathsvc.Resolver
	Report    *report.Writer
	closers   []func() error
}

// Close releases anything opened while building dependencies.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
	_ = d.Logger.Sync()
}

// buildDependencies loads config, resolves roots and wires the shared services.
func buildDependencies(cmd *cobra.Command, opts *options) (*Dependencies, error) {
	logger, err := logging.New(opts.verbose)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}

	roots, err := resolveRoots(opts.roots, cfg.Workspace.Roots)
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	var reportOpts []report.Option
	if isTerminal(out) {
		reportOpts = append(reportOpts, report.WithMarkdown(100))
	}
	writer, err := report.NewWriter(out, cfg.Output.Format, reportOpts...)
	if err != nil {
		return nil, err
	}

	osFS := fs.NewOSFileSystem()
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		FS:        osFS,
		Checksums: checksum.NewManager(),
		Resolver:  pathsvc.NewMultiRootResolver(roots, osFS),
		Report:    writer,
	}
	for _, r := range roots {
		logger.Debug("workspace root", zap.String("name", r.Name), zap.String("path", r.Path))
	}
	return deps, nil
}

// newStore returns the file store, or an editor-backed store when an nvim address is set.
func (d *Dependencies) newStore(nvimAddr string) (store, error) {
	files := document.NewFileStore(d.FS, d.Checksums, d.Config.Tools.MaxFileSize)
	if nvimAddr == "" {
		return files, nil
	}
	nv, err := document.DialNvim(nvimAddr, files, d.Checksums)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, nv.Close)
	return nv, nil
}

func (d *Dependencies) newExecutor(s store) *executor.Executor {
	return executor.New(d.Resolver, s, d.FS, d.Checksums, d.Config, d.Logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.NewLoader().LoadFile(path)
	}
	return config.Load()
}

// resolveRoots turns --root flags (or configured roots, or the working directory)
// into canonical named roots.
func resolveRoots(flags []string, configured []config.RootConfig) ([]pathsvc.Root, error) {
	var specs []config.RootConfig
	switch {
	case len(flags) > 0:
		for _, f := range flags {
			name, path, ok := strings.Cut(f, "=")
			if !ok {
				name, path = "", f
			}
			specs = append(specs, config.RootConfig{Name: name, Path: path})
		}
	case len(configured) > 0:
		specs = configured
	default:
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		specs = []config.RootConfig{{Path: wd}}
	}

	roots := make([]pathsvc.Root, 0, len(specs))
	seen := make(map[string]bool)
	for _, s := range specs {
		canonical, err := pathsvc.CanonicaliseRoot(s.Path)
		if err != nil {
			return nil, err
		}
		name := s.Name
		if name == "" {
			name = filepath.Base(canonical)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate workspace root name %q", name)
		}
		seen[name] = true
		roots = append(roots, pathsvc.Root{Name: name, Path: canonical})
	}
	return roots, nil
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
