package parser

import (
	"strconv"
	"strings"

	"github.com/Cyclone1070/opx/internal/model"
)

// ParseOccurrence normalises an occurrence attribute. Anything other than "first",
// "last" or a positive integer yields OccurrenceUnspecified; ambiguity is settled at
// execution time against the real match count.
func ParseOccurrence(raw string) model.Occurrence {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "":
		return model.Occurrence{}
	case "first":
		return model.Occurrence{Kind: model.OccurrenceFirst}
	case "last":
		return model.Occurrence{Kind: model.OccurrenceLast}
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return model.Occurrence{}
	}
	return model.Occurrence{Kind: model.OccurrenceNth, N: n}
}
