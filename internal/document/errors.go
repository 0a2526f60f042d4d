package document

import (
	"errors"
	"fmt"
)

// -- Error Types --

// RangeError is returned when a replacement range does not fit the snapshot.
type RangeError struct {
	Start, End, Len int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range [%d,%d) out of bounds for text of length %d", e.Start, e.End, e.Len)
}
func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// OverlapError is returned when two replacements in one batch touch the same text.
type OverlapError struct {
	FirstStart, FirstEnd   int
	SecondStart, SecondEnd int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlapping edits [%d,%d) and [%d,%d)", e.FirstStart, e.FirstEnd, e.SecondStart, e.SecondEnd)
}
func (e *OverlapError) Unwrap() error { return ErrOverlappingEdits }

// ConflictError is returned when a document changed after its snapshot was taken.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("edit conflict: file changed since last read: %s", e.Path)
}
func (e *ConflictError) Unwrap() error { return ErrEditConflict }

// FileTooLargeError is returned when a document exceeds the configured size limit.
type FileTooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s (size %d, limit %d)", e.Path, e.Size, e.Limit)
}
func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// ApplyError wraps a failure of one primitive during Apply.
type ApplyError struct {
	Kind  OpKind
	Path  string
	Cause error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Cause)
}
func (e *ApplyError) Unwrap() error { return e.Cause }

// -- Sentinels --

var (
	ErrInvalidRange     = errors.New("invalid range")
	ErrOverlappingEdits = errors.New("overlapping edits")
	ErrEditConflict     = errors.New("edit conflict")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNoSnapshot       = errors.New("no snapshot for document")
	ErrBinaryFile       = errors.New("binary file")
)
