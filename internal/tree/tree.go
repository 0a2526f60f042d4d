// Package tree builds the workspace file tree shown alongside edit results.
package tree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Cyclone1070/opx/internal/config"
	"github.com/Cyclone1070/opx/internal/logging"
	"github.com/Cyclone1070/opx/internal/service/git"
	pathsvc "github.com/Cyclone1070/opx/internal/service/path"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrTimeout is returned when building a tree takes longer than configured.
var ErrTimeout = errors.New("file tree build timed out")

// fileSystem defines the filesystem operations the builder needs.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ListDir(path string) ([]os.FileInfo, error)
}

// ignoreMatcher decides whether a root-relative path is excluded.
type ignoreMatcher interface {
	ShouldIgnore(relativePath string, isDir bool) bool
}

// Node is one file or directory. Directories list children directories first,
// then files, each alphabetically.
type Node struct {
	Name     string  `json:"name" yaml:"name"`
	RelPath  string  `json:"path" yaml:"path"`
	IsDir    bool    `json:"isDir" yaml:"isDir"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// RootTree is the tree of one workspace root.
type RootTree struct {
	Root      string  `json:"root" yaml:"root"`
	Path      string  `json:"path" yaml:"path"`
	Nodes     []*Node `json:"nodes" yaml:"nodes"`
	Entries   int     `json:"entries" yaml:"entries"`
	Truncated bool    `json:"truncated" yaml:"truncated"`
}

// Builder walks workspace roots.
type Builder struct {
	fs     fileSystem
	config *config.Config
	logger *zap.Logger
}

// NewBuilder creates a Builder with injected dependencies.
func NewBuilder(fs fileSystem, cfg *config.Config, logger *zap.Logger) *Builder {
	if fs == nil {
		panic("fs is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &Builder{fs: fs, config: cfg, logger: logging.OrNop(logger)}
}

// Build walks every root concurrently and returns their trees in root order.
// The whole build is bounded by the configured timeout.
func (b *Builder) Build(ctx context.Context, roots []pathsvc.Root) ([]RootTree, error) {
	timeout := time.Duration(b.config.Tree.TimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	trees := make([]RootTree, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			tree, err := b.buildRoot(gctx, root)
			if err != nil {
				return err
			}
			trees[i] = tree
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, err
	}
	return trees, nil
}

func (b *Builder) buildRoot(ctx context.Context, root pathsvc.Root) (RootTree, error) {
	var matcher ignoreMatcher = &git.NoOpMatcher{}
	if !b.config.Tree.IncludeIgnored {
		m, err := git.NewIgnoreMatcher(root.Path, b.fs)
		if err != nil {
			b.logger.Warn("gitignore unavailable", zap.String("root", root.Name), zap.Error(err))
		} else {
			matcher = m
		}
	}

	w := &walker{
		fs:         b.fs,
		root:       root.Path,
		matcher:    matcher,
		maxDepth:   b.config.Tree.MaxDepth,
		maxEntries: b.config.Tree.MaxEntries,
		visited:    make(map[string]bool),
	}
	nodes, err := w.walk(ctx, root.Path, 1)
	if err != nil {
		return RootTree{}, err
	}
	b.logger.Debug("tree built", zap.String("root", root.Name), zap.Int("entries", w.count), zap.Bool("truncated", w.capHit))
	return RootTree{Root: root.Name, Path: root.Path, Nodes: nodes, Entries: w.count, Truncated: w.capHit}, nil
}

type walker struct {
	fs         fileSystem
	root       string
	matcher    ignoreMatcher
	maxDepth   int
	maxEntries int
	visited    map[string]bool
	count      int
	capHit     bool
}

// walk lists abs and its subdirectories. depth is 1 for the root's children;
// maxDepth 0 means unlimited.
func (w *walker) walk(ctx context.Context, abs string, depth int) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.maxDepth > 0 && depth > w.maxDepth {
		return nil, nil
	}

	// Detect symlink loops using canonical path
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		canonical = abs
	}
	if w.visited[canonical] {
		return nil, nil
	}
	w.visited[canonical] = true

	entries, err := w.fs.ListDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", abs, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	var nodes []*Node
	for _, entry := range entries {
		if w.count >= w.maxEntries {
			w.capHit = true
			return nodes, nil
		}
		if entry.IsDir() && entry.Name() == ".git" {
			continue
		}

		entryAbs := filepath.Join(abs, entry.Name())
		entryRel, err := filepath.Rel(w.root, entryAbs)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate relative path for entry %s: %w", entry.Name(), err)
		}
		entryRel = filepath.ToSlash(entryRel)

		if w.matcher.ShouldIgnore(entryRel, entry.IsDir()) {
			continue
		}

		node := &Node{Name: entry.Name(), RelPath: entryRel, IsDir: entry.IsDir()}
		nodes = append(nodes, node)
		w.count++

		if entry.IsDir() {
			children, err := w.walk(ctx, entryAbs, depth+1)
			if err != nil {
				return nil, err
			}
			node.Children = children
			if w.capHit {
				return nodes, nil
			}
		}
	}
	return nodes, nil
}

// Flatten returns every path in the tree, depth first, directories suffixed with "/".
func Flatten(nodes []*Node) []string {
	var out []string
	var visit func([]*Node)
	visit = func(ns []*Node) {
		for _, n := range ns {
			if n.IsDir {
				out = append(out, n.RelPath+"/")
				visit(n.Children)
				continue
			}
			out = append(out, n.RelPath)
		}
	}
	visit(nodes)
	return out
}
