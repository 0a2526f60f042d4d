package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var attributeRegex = regexp.MustCompile(`([A-Za-z_][\w.:-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// parseAttributes extracts key="value" and key='value' pairs. Keys are lower-cased;
// a repeated key keeps its first value.
func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attributeRegex.FindAllStringSubmatchIndex(s, -1) {
		key := strings.ToLower(s[m[2]:m[3]])
		if _, seen := attrs[key]; seen {
			continue
		}
		var value string
		if m[4] >= 0 {
			value = s[m[4]:m[5]]
		} else {
			value = s[m[6]:m[7]]
		}
		attrs[key] = value
	}
	return attrs
}

// validator is implemented by attribute structs with required fields.
type validator interface {
	Validate() error
}

// decodeAttrs decodes an attribute map into a typed struct, trims every value
// and runs its validation.
func decodeAttrs[T any](attrs map[string]string) (T, error) {
	var out T
	trimmed := make(map[string]string, len(attrs))
	for k, v := range attrs {
		trimmed[k] = strings.TrimSpace(v)
	}
	if err := mapstructure.Decode(trimmed, &out); err != nil {
		return out, fmt.Errorf("invalid attributes: %w", err)
	}
	if v, ok := any(out).(validator); ok {
		if err := v.Validate(); err != nil {
			return out, err
		}
	}
	return out, nil
}

// editAttrs is the typed view of an <edit> element's attributes.
type editAttrs struct {
	File string `mapstructure:"file"`
	Op   string `mapstructure:"op"`
	Root string `mapstructure:"root"`
}

func (a editAttrs) Validate() error {
	var missing []string
	if a.File == "" {
		missing = append(missing, "file")
	}
	if a.Op == "" {
		missing = append(missing, "op")
	}
	if len(missing) > 0 {
		return &MissingAttributesError{Names: missing}
	}
	return nil
}

// findAttrs is the typed view of a <find> element's attributes.
type findAttrs struct {
	Occurrence string `mapstructure:"occurrence"`
}

// toAttrs is the typed view of a move's <to> element.
type toAttrs struct {
	File string `mapstructure:"file"`
}

func (a toAttrs) Validate() error {
	if a.File == "" {
		return ErrMissingDestination
	}
	return nil
}
