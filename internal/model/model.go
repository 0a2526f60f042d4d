package model

import (
	"strconv"
)

// ActionKind is the kind of file mutation a FileAction requests.
type ActionKind string

const (
	ActionCreate  ActionKind = "create"
	ActionRewrite ActionKind = "rewrite"
	ActionModify  ActionKind = "modify"
	ActionDelete  ActionKind = "delete"
	ActionRename  ActionKind = "rename"
)

// OccurrenceKind selects which match a search block targets when it matches more than once.
type OccurrenceKind int

const (
	OccurrenceUnspecified OccurrenceKind = iota
	OccurrenceFirst
	OccurrenceLast
	OccurrenceNth
)

// Occurrence is a normalised disambiguator. N is only meaningful for OccurrenceNth and is >= 1.
type Occurrence struct {
	Kind OccurrenceKind
	N    int
}

// String renders the occurrence the way it is written in markup.
func (o Occurrence) String() string {
	switch o.Kind {
	case OccurrenceFirst:
		return "first"
	case OccurrenceLast:
		return "last"
	case OccurrenceNth:
		return strconv.Itoa(o.N)
	default:
		return ""
	}
}

// MarshalText lets reports encode occurrences as plain strings.
func (o Occurrence) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ChangeBlock is one edit unit within a FileAction.
// Search is empty for create and rewrite.
type ChangeBlock struct {
	Description string     `json:"description" yaml:"description"`
	Search      string     `json:"search,omitempty" yaml:"search,omitempty"`
	Content     string     `json:"content" yaml:"content"`
	Occurrence  Occurrence `json:"occurrence,omitempty" yaml:"occurrence,omitempty"`
}

// FileAction is the parser's typed representation of one file mutation request.
// The executor only reads it.
type FileAction struct {
	Path    string        `json:"path" yaml:"path"`
	Kind    ActionKind    `json:"action" yaml:"action"`
	Root    string        `json:"root,omitempty" yaml:"root,omitempty"`
	NewPath string        `json:"newPath,omitempty" yaml:"newPath,omitempty"`
	Changes []ChangeBlock `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// ActionResult reports the outcome of executing one FileAction.
type ActionResult struct {
	Path    string     `json:"path" yaml:"path"`
	Kind    ActionKind `json:"action" yaml:"action"`
	Success bool       `json:"success" yaml:"success"`
	Message string     `json:"message" yaml:"message"`
	NewPath string     `json:"newPath,omitempty" yaml:"newPath,omitempty"`
}

// ParseOutcome is everything the parser recovered from one response text.
type ParseOutcome struct {
	Actions []FileAction `json:"actions" yaml:"actions"`
	Errors  []string     `json:"errors" yaml:"errors"`
}
