package parser

import (
	"errors"
	"fmt"
	"strings"
)

// -- Error Types --

// MissingAttributesError is returned when an edit element lacks required attributes.
type MissingAttributesError struct {
	Names []string
}

func (e *MissingAttributesError) Error() string {
	return fmt.Sprintf("Missing required attribute(s): %s", strings.Join(e.Names, ", "))
}

// UnknownOpError is returned for an op token outside the fixed vocabulary.
type UnknownOpError struct {
	Op string
}

func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("%v %q", ErrUnknownOp, e.Op)
}
func (e *UnknownOpError) Unwrap() error { return ErrUnknownOp }

// EditError ties a structural error to the 1-based position of the edit element it came from.
type EditError struct {
	Index int
	Path  string
	Cause error
}

func (e *EditError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("Edit #%d: %v", e.Index, e.Cause)
	}
	return fmt.Sprintf("Edit #%d (%s): %v", e.Index, e.Path, e.Cause)
}
func (e *EditError) Unwrap() error { return e.Cause }

// -- Sentinels --

var (
	ErrEmptyInput         = errors.New("Empty input")
	ErrNoEdits            = errors.New("No <edit> elements found")
	ErrUnknownOp          = errors.New("unknown op")
	ErrMissingPut         = errors.New("Missing <put> block")
	ErrMissingFindOrPut   = errors.New("Missing <find> or <put>")
	ErrEmptyMarkerBlock   = errors.New("Empty or missing marker block")
	ErrMissingDestination = errors.New("Missing destination file specification")
)
