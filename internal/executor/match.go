package executor

import (
	"strings"

	"github.com/Cyclone1070/opx/internal/model"
)

// locate finds the byte offset of search in text according to occ.
// A unique match is used whatever occ says.
func locate(text, search string, occ model.Occurrence, previewLen int) (int, error) {
	if search == "" {
		return 0, &MatchError{Cause: ErrEmptySearch}
	}

	first := strings.Index(text, search)
	if first < 0 {
		return 0, &MatchError{Preview: preview(search, previewLen), Cause: ErrSearchNotFound}
	}

	count := strings.Count(text, search)
	if count == 1 {
		return first, nil
	}

	switch occ.Kind {
	case model.OccurrenceFirst:
		return first, nil
	case model.OccurrenceLast:
		return strings.LastIndex(text, search), nil
	case model.OccurrenceNth:
		if occ.N > count {
			return 0, &MatchError{Preview: preview(search, previewLen), Matches: count, Requested: occ.N, Cause: ErrOccurrenceOutOfRange}
		}
		return nthIndex(text, search, occ.N), nil
	default:
		return 0, &MatchError{Preview: preview(search, previewLen), Matches: count, Cause: ErrAmbiguousMatch}
	}
}

// nthIndex returns the offset of the nth (1-indexed) non-overlapping match,
// or -1 when there are fewer matches.
func nthIndex(text, search string, n int) int {
	offset := 0
	for i := 1; ; i++ {
		idx := strings.Index(text[offset:], search)
		if idx < 0 {
			return -1
		}
		if i == n {
			return offset + idx
		}
		offset += idx + len(search)
	}
}

// preview shortens search text for failure messages.
func preview(search string, n int) string {
	runes := []rune(search)
	if n <= 0 || len(runes) <= n {
		return search
	}
	return string(runes[:n]) + "..."
}
