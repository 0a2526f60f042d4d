package path

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Root is a named workspace folder.
type Root struct {
	Name string
	Path string
}

// statter is the only filesystem access the resolver needs.
type statter interface {
	Stat(path string) (os.FileInfo, error)
}

// Resolver provides path resolution within one or more workspace roots.
// The first root is the default for relative paths.
type Resolver struct {
	roots []Root
	fs    statter
}

// NewResolver creates a resolver for a single workspace root.
func NewResolver(workspaceRoot string, fs statter) *Resolver {
	return NewMultiRootResolver([]Root{{Name: filepath.Base(workspaceRoot), Path: workspaceRoot}}, fs)
}

// NewMultiRootResolver creates a resolver over several named roots.
// Root paths are expected to be canonical (see CanonicaliseRoot).
func NewMultiRootResolver(roots []Root, fs statter) *Resolver {
	if fs == nil {
		panic("fs is required")
	}
	cleaned := make([]Root, 0, len(roots))
	for _, r := range roots {
		cleaned = append(cleaned, Root{Name: r.Name, Path: filepath.Clean(r.Path)})
	}
	return &Resolver{roots: cleaned, fs: fs}
}

// Roots returns the configured roots in priority order.
func (r *Resolver) Roots() []Root {
	out := make([]Root, len(r.roots))
	copy(out, r.roots)
	return out
}

// CanonicaliseRoot canonicalises a workspace root path by making it absolute and resolving symlinks.
// Returns an error if the path doesn't exist or isn't a directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &WorkspaceRootError{Root: absRoot, Cause: err}
	}

	// Resolve symlinks in the workspace root to get canonical path
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &WorkspaceRootError{Root: absRoot, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &WorkspaceRootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &WorkspaceRootError{Root: resolved, Cause: fmt.Errorf("%w: %s", ErrNotADirectory, resolved)}
	}
	return resolved, nil
}

// Resolve maps a declared path, optionally qualified by a root name, to an absolute
// location inside the workspace.
//
// With a root name the path is joined to that root. Absolute paths must lie inside
// some root. Relative paths without a root resolve against the single root that
// already contains them; if several roots do, the path is ambiguous; if none do,
// the default root is used.
//
// A path that lands on a workspace root itself is rejected, so no edit can
// delete or move a whole root.
func (r *Resolver) Resolve(path, rootName string) (string, error) {
	abs, err := r.resolve(path, rootName)
	if err != nil {
		return "", err
	}
	for _, root := range r.roots {
		if abs == root.Path {
			return "", &RootTargetError{Path: path, Root: root.Name}
		}
	}
	return abs, nil
}

func (r *Resolver) resolve(path, rootName string) (string, error) {
	if len(r.roots) == 0 {
		return "", ErrWorkspaceRootNotSet
	}
	if strings.TrimSpace(path) == "" {
		return "", ErrPathRequired
	}

	if rootName != "" {
		root, ok := r.rootByName(rootName)
		if !ok {
			return "", &UnknownRootError{Name: rootName}
		}
		return within(root.Path, path)
	}

	if filepath.IsAbs(path) {
		abs := filepath.Clean(path)
		for _, root := range r.roots {
			if contains(root.Path, abs) {
				return abs, nil
			}
		}
		return "", ErrOutsideWorkspace
	}

	if len(r.roots) == 1 {
		return within(r.roots[0].Path, path)
	}

	var matches []string
	for _, root := range r.roots {
		abs, err := within(root.Path, path)
		if err != nil {
			continue
		}
		if _, err := r.fs.Stat(abs); err == nil {
			matches = append(matches, abs)
		}
	}
	switch len(matches) {
	case 0:
		return within(r.roots[0].Path, path)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousPathError{Path: path, Candidates: matches}
	}
}

// Rel returns path relative to the root that contains it, with forward slashes.
func (r *Resolver) Rel(abs string) (string, error) {
	abs = filepath.Clean(abs)
	for _, root := range r.roots {
		if !contains(root.Path, abs) {
			continue
		}
		rel, err := filepath.Rel(root.Path, abs)
		if err != nil {
			return "", ErrOutsideWorkspace
		}
		if rel == "." {
			return "", nil
		}
		return filepath.ToSlash(rel), nil
	}
	return "", ErrOutsideWorkspace
}

func (r *Resolver) rootByName(name string) (Root, bool) {
	for _, root := range r.roots {
		if root.Name == name {
			return root, true
		}
	}
	return Root{}, false
}

// within joins path onto root and rejects results that escape it.
func within(root, path string) (string, error) {
	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(root, path))
	}
	if !contains(root, abs) {
		return "", ErrOutsideWorkspace
	}
	return abs, nil
}

// contains reports whether abs is root itself or a child of root.
func contains(root, abs string) bool {
	return abs == root || strings.HasPrefix(abs, root+string(filepath.Separator))
}
