package document

import (
	"sort"
)

// OpKind identifies a primitive inside an Edit.
type OpKind int

const (
	OpCreate OpKind = iota
	OpReplace
	OpDelete
	OpRename
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpReplace:
		return "replace"
	case OpDelete:
		return "delete"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Op is one primitive of a batched edit.
// Start and End are byte offsets into the snapshot text for OpReplace.
type Op struct {
	Kind      OpKind
	Path      string
	NewPath   string
	Start     int
	End       int
	Text      string
	Recursive bool
	Overwrite bool
}

// Edit collects primitives that a store applies in one step.
type Edit struct {
	ops []Op
}

// NewEdit returns an empty batch.
func NewEdit() *Edit {
	return &Edit{}
}

// Create records a new file with the given content.
func (e *Edit) Create(path, content string) {
	e.ops = append(e.ops, Op{Kind: OpCreate, Path: path, Text: content})
}

// Replace records a replacement of text[start:end] in path's snapshot.
func (e *Edit) Replace(path string, start, end int, text string) {
	e.ops = append(e.ops, Op{Kind: OpReplace, Path: path, Start: start, End: end, Text: text})
}

// Delete records removal of path.
func (e *Edit) Delete(path string, recursive bool) {
	e.ops = append(e.ops, Op{Kind: OpDelete, Path: path, Recursive: recursive})
}

// Rename records a move of oldPath to newPath.
func (e *Edit) Rename(oldPath, newPath string, overwrite bool) {
	e.ops = append(e.ops, Op{Kind: OpRename, Path: oldPath, NewPath: newPath, Overwrite: overwrite})
}

// Ops returns the recorded primitives in insertion order.
func (e *Edit) Ops() []Op {
	return e.ops
}

// Len reports how many primitives are recorded.
func (e *Edit) Len() int {
	return len(e.ops)
}

// replacementsByPath groups replace primitives by path, keeping first-seen path order.
func (e *Edit) replacementsByPath() ([]string, map[string][]Op) {
	var order []string
	groups := make(map[string][]Op)
	for _, op := range e.ops {
		if op.Kind != OpReplace {
			continue
		}
		if _, ok := groups[op.Path]; !ok {
			order = append(order, op.Path)
		}
		groups[op.Path] = append(groups[op.Path], op)
	}
	return order, groups
}

// Splice applies replacements to text. Ranges refer to the original text and must
// not overlap; they are applied from the highest offset down so earlier offsets stay valid.
func Splice(text string, reps []Op) (string, error) {
	sorted := make([]Op, len(reps))
	copy(sorted, reps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i, op := range sorted {
		if op.Start < 0 || op.End < op.Start || op.End > len(text) {
			return "", &RangeError{Start: op.Start, End: op.End, Len: len(text)}
		}
		if i > 0 && sorted[i-1].End > op.Start {
			return "", &OverlapError{
				FirstStart: sorted[i-1].Start, FirstEnd: sorted[i-1].End,
				SecondStart: op.Start, SecondEnd: op.End,
			}
		}
	}

	out := text
	for i := len(sorted) - 1; i >= 0; i-- {
		op := sorted[i]
		out = out[:op.Start] + op.Text + out[op.End:]
	}
	return out, nil
}
