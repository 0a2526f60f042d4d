package parser

import (
	"strings"
)

const (
	openMarker  = "<<<"
	closeMarker = ">>>"
)

// extractMarkerBlock returns the literal text between the first open marker and the
// last close marker. Marker lines truncated to one or two characters are repaired first.
func extractMarkerBlock(body string) (string, bool) {
	s := healMarkers(strings.TrimSpace(body))

	open := strings.Index(s, openMarker)
	if open < 0 {
		return "", false
	}
	start := open + len(openMarker)
	end := strings.LastIndex(s, closeMarker)
	if end < start {
		return "", false
	}
	return trimMarkerPadding(s[start:end]), true
}

// healMarkers rewrites standalone "<", "<<", ">" and ">>" lines to full markers.
func healMarkers(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		cr := strings.HasSuffix(line, "\r")
		switch strings.TrimSpace(line) {
		case "<", "<<":
			lines[i] = openMarker
		case ">", ">>":
			lines[i] = closeMarker
		default:
			continue
		}
		if cr {
			lines[i] += "\r"
		}
	}
	return strings.Join(lines, "\n")
}

// trimMarkerPadding drops the remainder of the open-marker line and the indentation
// before the close marker, so exactly one layer of framing whitespace goes away.
func trimMarkerPadding(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 && strings.TrimSpace(s[:i]) == "" {
		s = s[i+1:]
	} else if strings.TrimSpace(s) == "" {
		return ""
	}
	if i := strings.LastIndexByte(s, '\n'); i >= 0 && strings.TrimSpace(s[i+1:]) == "" {
		s = strings.TrimSuffix(s[:i], "\r")
	}
	return s
}
