package parser

import (
	"regexp"
	"strings"
)

var (
	leadingFenceRegex  = regexp.MustCompile("^```[\\w.+-]*[ \\t]*\\r?\\n")
	trailingFenceRegex = regexp.MustCompile("\\r?\\n?[ \\t]*```$")

	spanStartRegex    = regexp.MustCompile(`(?i)<(?:opx|edit)\b`)
	wrapperCloseRegex = regexp.MustCompile(`(?i)</opx\s*>`)
	editCloseRegex    = regexp.MustCompile(`(?i)</edit\s*>`)
)

// Sanitize strips code fences and chat text around the edit markup.
// It returns the span from the first <opx> or <edit> tag to the end of the last
// closing tag, or "" when the input is blank. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}

	if loc := leadingFenceRegex.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	if loc := trailingFenceRegex.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.TrimSpace(s)

	startLoc := spanStartRegex.FindStringIndex(s)
	if startLoc == nil {
		return s
	}
	start := startLoc[0]

	end := -1
	for _, re := range []*regexp.Regexp{wrapperCloseRegex, editCloseRegex, selfClosingEditRegex} {
		if loc := lastMatch(re, s[start:]); loc != nil && start+loc[1] > end {
			end = start + loc[1]
		}
	}
	if end < 0 {
		return s[start:]
	}
	return s[start:end]
}

// lastMatch returns the location of the final non-overlapping match of re in s.
func lastMatch(re *regexp.Regexp, s string) []int {
	all := re.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}
