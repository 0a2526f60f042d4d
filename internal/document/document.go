// Package document provides the stores the executor reads snapshots from and
// applies batched edits through.
//
// A store hands out a Snapshot of a document's full text, then accepts an Edit
// describing creates, range replacements, deletes and renames. All replacements
// recorded for one path are resolved against the text the snapshot was taken
// from and land together or not at all.
package document

import (
	"strings"
)

// EOL is a document's line terminator.
type EOL string

const (
	LF   EOL = "\n"
	CRLF EOL = "\r\n"
)

// String names the convention for logs and reports.
func (e EOL) String() string {
	if e == CRLF {
		return "crlf"
	}
	return "lf"
}

// DetectEOL returns CRLF when text contains at least one CRLF sequence.
func DetectEOL(text string) EOL {
	if strings.Contains(text, "\r\n") {
		return CRLF
	}
	return LF
}

// Normalize rewrites every line ending in text to eol.
func Normalize(text string, eol EOL) string {
	lf := strings.ReplaceAll(text, "\r\n", "\n")
	if eol == CRLF {
		return strings.ReplaceAll(lf, "\n", "\r\n")
	}
	return lf
}

// Snapshot is the full text of a document at one point in time.
type Snapshot struct {
	Path     string
	Text     string
	EOL      EOL
	Checksum string
}
