package executor

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/Cyclone1070/opx/internal/document"
)

// -- Matching Errors --

var (
	ErrSearchNotFound       = errors.New("search text not found")
	ErrAmbiguousMatch       = errors.New("ambiguous match")
	ErrOccurrenceOutOfRange = errors.New("occurrence out of range")
	ErrEmptySearch          = errors.New("empty search text")
	ErrOverlappingChange    = errors.New("overlapping change")
)

// MatchError describes why a change block could not be located.
type MatchError struct {
	Preview   string
	Matches   int
	Requested int
	Cause     error
}

func (e *MatchError) Error() string {
	switch {
	case errors.Is(e.Cause, ErrSearchNotFound):
		return fmt.Sprintf("Search text not found: %q", e.Preview)
	case errors.Is(e.Cause, ErrAmbiguousMatch):
		return fmt.Sprintf("ambiguous: search text %q matches %d times; specify occurrence", e.Preview, e.Matches)
	case errors.Is(e.Cause, ErrOccurrenceOutOfRange):
		return fmt.Sprintf("occurrence %d requested but only %d found for %q", e.Requested, e.Matches, e.Preview)
	case errors.Is(e.Cause, ErrOverlappingChange):
		return fmt.Sprintf("change for %q overlaps an earlier change", e.Preview)
	default:
		return e.Cause.Error()
	}
}
func (e *MatchError) Unwrap() error { return e.Cause }

// -- Filesystem Error Translation --

// describeError turns a store or filesystem error into a short user-facing reason
// without raw system text where the underlying error can be classified.
func describeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, syscall.ENOSPC):
		return "disk full"
	case errors.Is(err, syscall.EROFS):
		return "read-only filesystem"
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.ETXTBSY):
		return "locked by another process"
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM), errors.Is(err, os.ErrPermission):
		return "permission denied"
	case errors.Is(err, os.ErrNotExist):
		return "does not exist"
	case errors.Is(err, os.ErrExist):
		return "already exists"
	case errors.Is(err, document.ErrEditConflict):
		return "file changed since it was read"
	default:
		return err.Error()
	}
}
