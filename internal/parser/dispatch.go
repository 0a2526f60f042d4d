package parser

import (
	"regexp"
	"strings"

	"github.com/Cyclone1070/opx/internal/model"
)

// opToken is an operation token as written in markup.
type opToken string

const (
	opNew     opToken = "new"
	opPatch   opToken = "patch"
	opReplace opToken = "replace"
	opRemove  opToken = "remove"
	opMove    opToken = "move"
)

// actionKind maps an op token to its action kind. The vocabulary is closed.
func (o opToken) actionKind() (model.ActionKind, bool) {
	switch o {
	case opNew:
		return model.ActionCreate, true
	case opPatch:
		return model.ActionModify, true
	case opReplace:
		return model.ActionRewrite, true
	case opRemove:
		return model.ActionDelete, true
	case opMove:
		return model.ActionRename, true
	default:
		return "", false
	}
}

var (
	whyRegex  = regexp.MustCompile(`(?is)<why\b[^>]*>(.*?)</why\s*>`)
	findRegex = regexp.MustCompile(`(?is)<find\b` + attrSpan + `>(.*?)</find\s*>`)
	putRegex  = regexp.MustCompile(`(?is)<put\b` + attrSpan + `>(.*?)</put\s*>`)
	toRegex   = regexp.MustCompile(`(?is)<to\b` + attrSpan + `/?\s*>`)
)

var defaultDescriptions = map[model.ActionKind]string{
	model.ActionCreate:  "Create file",
	model.ActionRewrite: "Replace file",
	model.ActionModify:  "Modify file",
}

// dispatch validates one raw edit against its op's required-children contract and
// builds the FileAction. The returned path is whatever target was declared, for error
// reporting even when validation fails.
func dispatch(raw RawEdit) (model.FileAction, string, error) {
	attrs, err := decodeAttrs[editAttrs](raw.Attrs)
	if err != nil {
		return model.FileAction{}, attrs.File, err
	}

	kind, ok := opToken(strings.ToLower(attrs.Op)).actionKind()
	if !ok {
		return model.FileAction{}, attrs.File, &UnknownOpError{Op: attrs.Op}
	}

	action := model.FileAction{
		Path: attrs.File,
		Kind: kind,
		Root: attrs.Root,
	}

	body := ""
	if raw.Body != nil {
		body = *raw.Body
	}
	description := describe(body, kind)

	switch kind {
	case model.ActionCreate, model.ActionRewrite:
		put := putRegex.FindStringSubmatch(body)
		if put == nil {
			return model.FileAction{}, attrs.File, ErrMissingPut
		}
		content, ok := extractMarkerBlock(put[2])
		if !ok {
			return model.FileAction{}, attrs.File, ErrEmptyMarkerBlock
		}
		action.Changes = []model.ChangeBlock{{Description: description, Content: content}}

	case model.ActionModify:
		changes, err := patchChanges(body, description)
		if err != nil {
			return model.FileAction{}, attrs.File, err
		}
		action.Changes = changes

	case model.ActionDelete:
		// No children.

	case model.ActionRename:
		to := toRegex.FindStringSubmatch(body)
		if to == nil {
			return model.FileAction{}, attrs.File, ErrMissingDestination
		}
		dest, err := decodeAttrs[toAttrs](parseAttributes(to[1]))
		if err != nil {
			return model.FileAction{}, attrs.File, err
		}
		action.NewPath = dest.File
	}

	return action, attrs.File, nil
}

// patchChanges pairs <find> and <put> children in document order.
func patchChanges(body, description string) ([]model.ChangeBlock, error) {
	finds := findRegex.FindAllStringSubmatch(body, -1)
	puts := putRegex.FindAllStringSubmatch(body, -1)
	if len(finds) == 0 || len(puts) == 0 || len(finds) != len(puts) {
		return nil, ErrMissingFindOrPut
	}

	changes := make([]model.ChangeBlock, 0, len(finds))
	for i, find := range finds {
		search, ok := extractMarkerBlock(find[2])
		if !ok || strings.TrimSpace(search) == "" {
			return nil, ErrEmptyMarkerBlock
		}
		content, ok := extractMarkerBlock(puts[i][2])
		if !ok {
			return nil, ErrEmptyMarkerBlock
		}
		attrs, err := decodeAttrs[findAttrs](parseAttributes(find[1]))
		if err != nil {
			return nil, err
		}
		changes = append(changes, model.ChangeBlock{
			Description: description,
			Search:      search,
			Content:     content,
			Occurrence:  ParseOccurrence(attrs.Occurrence),
		})
	}
	return changes, nil
}

func describe(body string, kind model.ActionKind) string {
	if m := whyRegex.FindStringSubmatch(body); m != nil {
		if why := strings.TrimSpace(m[1]); why != "" {
			return why
		}
	}
	return defaultDescriptions[kind]
}
