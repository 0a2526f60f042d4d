package parser

import (
	"regexp"
	"sort"
)

// attrSpan matches an opening tag's attribute text, honouring quoted values so a
// '>' or '/' inside quotes does not end the tag.
const attrSpan = `((?:"[^"]*"|'[^']*'|[^>"'/]|/[^>])*)`

var (
	selfClosingEditRegex = regexp.MustCompile(`(?is)<edit\b` + attrSpan + `/\s*>`)
	pairedEditRegex      = regexp.MustCompile(`(?is)<edit\b` + attrSpan + `>(.*?)</edit\s*>`)
)

// RawEdit is one matched edit element. Body is nil for self-closing elements.
type RawEdit struct {
	Offset int
	Attrs  map[string]string
	Body   *string
}

// collectEdits finds every self-closing and paired edit element and returns them
// in source order. Self-closing tags that sit inside a paired element's body are payload
// text, not edits, and are dropped.
func collectEdits(text string) []RawEdit {
	var edits []RawEdit
	var pairedSpans [][2]int

	for _, m := range pairedEditRegex.FindAllStringSubmatchIndex(text, -1) {
		body := text[m[4]:m[5]]
		edits = append(edits, RawEdit{
			Offset: m[0],
			Attrs:  parseAttributes(text[m[2]:m[3]]),
			Body:   &body,
		})
		pairedSpans = append(pairedSpans, [2]int{m[0], m[1]})
	}

	for _, m := range selfClosingEditRegex.FindAllStringSubmatchIndex(text, -1) {
		if insideAny(m[0], pairedSpans) {
			continue
		}
		edits = append(edits, RawEdit{
			Offset: m[0],
			Attrs:  parseAttributes(text[m[2]:m[3]]),
		})
	}

	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].Offset < edits[j].Offset
	})
	return edits
}

func insideAny(offset int, spans [][2]int) bool {
	for _, s := range spans {
		if offset > s[0] && offset < s[1] {
			return true
		}
	}
	return false
}
