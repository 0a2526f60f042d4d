package path

import (
	"errors"
	"fmt"
	"strings"
)

// -- Error Types --

// WorkspaceRootError is returned when the workspace root is invalid.
type WorkspaceRootError struct {
	Root  string
	Cause error
}

func (e *WorkspaceRootError) Error() string {
	return fmt.Sprintf("invalid workspace root %s: %v", e.Root, e.Cause)
}
func (e *WorkspaceRootError) Unwrap() error { return e.Cause }

// UnknownRootError is returned when a path names a root that is not configured.
type UnknownRootError struct {
	Name string
}

func (e *UnknownRootError) Error() string {
	return fmt.Sprintf("unknown workspace root %q", e.Name)
}
func (e *UnknownRootError) Unwrap() error { return ErrUnknownRoot }

// AmbiguousPathError is returned when a relative path exists under several roots.
type AmbiguousPathError struct {
	Path       string
	Candidates []string
}

func (e *AmbiguousPathError) Error() string {
	return fmt.Sprintf("path %s is ambiguous across workspace roots: %s; add a root attribute",
		e.Path, strings.Join(e.Candidates, ", "))
}
func (e *AmbiguousPathError) Unwrap() error { return ErrAmbiguousPath }

// RootTargetError is returned when a path resolves to a workspace root itself.
type RootTargetError struct {
	Path string
	Root string
}

func (e *RootTargetError) Error() string {
	return fmt.Sprintf("path %s is the workspace root %q, not a file inside it", e.Path, e.Root)
}
func (e *RootTargetError) Unwrap() error { return ErrWorkspaceRoot }

// -- Sentinels --

var (
	ErrOutsideWorkspace    = errors.New("path is outside workspace root")
	ErrWorkspaceRootNotSet = errors.New("workspace root not set")
	ErrNotADirectory       = errors.New("not a directory")
	ErrPathRequired        = errors.New("path is required")
	ErrUnknownRoot         = errors.New("unknown workspace root")
	ErrAmbiguousPath       = errors.New("ambiguous path")
	ErrWorkspaceRoot       = errors.New("path is a workspace root")
)
