package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/opx/internal/document"
	"github.com/Cyclone1070/opx/internal/model"
	"github.com/pmezard/go-difflib/difflib"
)

// Preview is the dry-run outcome of one action.
type Preview struct {
	model.ActionResult `yaml:",inline"`
	Diff         string `json:"diff,omitempty" yaml:"diff,omitempty"`
	AddedLines   int    `json:"addedLines" yaml:"addedLines"`
	RemovedLines int    `json:"removedLines" yaml:"removedLines"`
}

// overlay tracks what earlier actions in a dry run would have done, so later
// actions see created, rewritten, deleted and renamed files.
type overlay struct {
	files map[string]*string
}

func (o *overlay) lookup(abs string) (content string, known, exists bool) {
	c, ok := o.files[abs]
	if !ok {
		return "", false, false
	}
	if c == nil {
		return "", true, false
	}
	return *c, true, true
}

func (o *overlay) set(abs, content string) { o.files[abs] = &content }
func (o *overlay) drop(abs string)         { o.files[abs] = nil }

// Preview computes what Execute would do without writing anything. Each entry
// carries a unified diff of the content change where one applies.
func (e *Executor) Preview(ctx context.Context, actions []model.FileAction) []Preview {
	defer e.cache.Clear()

	ov := &overlay{files: make(map[string]*string)}
	previews := make([]Preview, 0, len(actions))
	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			previews = append(previews, Preview{ActionResult: failure(action, fmt.Sprintf("Cancelled: %v", err))})
			continue
		}
		previews = append(previews, e.preview(action, ov))
	}
	return previews
}

func (e *Executor) preview(action model.FileAction, ov *overlay) Preview {
	abs, err := e.resolver.Resolve(action.Path, action.Root)
	if err != nil {
		return Preview{ActionResult: failure(action, resolveMessage(err))}
	}

	current, exists, err := e.currentText(abs, ov)
	if err != nil {
		return Preview{ActionResult: failure(action, "Failed to read file: "+describeError(err))}
	}

	switch action.Kind {
	case model.ActionCreate:
		if exists {
			return Preview{ActionResult: success(action, "File already exists, skipped")}
		}
		next := payload(action)
		ov.set(abs, next)
		return e.withDiff(success(action, "Would create file"), abs, "", next)

	case model.ActionRewrite:
		if !exists {
			return Preview{ActionResult: failure(action, "File does not exist, cannot rewrite")}
		}
		next := document.Normalize(payload(action), document.DetectEOL(current))
		ov.set(abs, next)
		return e.withDiff(success(action, "Would replace file"), abs, current, next)

	case model.ActionModify:
		if !exists {
			return Preview{ActionResult: failure(action, "File does not exist, cannot modify")}
		}
		if len(action.Changes) == 0 {
			return Preview{ActionResult: failure(action, "No changes to apply")}
		}
		snap := &document.Snapshot{Path: abs, Text: current, EOL: document.DetectEOL(current)}
		p := e.plan(snap, action.Changes)
		if p.applied == 0 {
			return Preview{ActionResult: failure(action, p.summary())}
		}
		ops := make([]document.Op, 0, len(p.ranges))
		for _, r := range p.ranges {
			ops = append(ops, document.Op{Kind: document.OpReplace, Path: abs, Start: r.start, End: r.end, Text: r.text})
		}
		next, err := document.Splice(current, ops)
		if err != nil {
			return Preview{ActionResult: failure(action, "Failed to apply changes: "+describeError(err))}
		}
		ov.set(abs, next)
		return e.withDiff(success(action, p.summary()), abs, current, next)

	case model.ActionDelete:
		if !exists {
			return Preview{ActionResult: failure(action, "File does not exist, cannot delete")}
		}
		ov.drop(abs)
		return e.withDiff(success(action, "Would delete"), abs, current, "")

	case model.ActionRename:
		if !exists {
			return Preview{ActionResult: failure(action, "Source file does not exist, cannot rename")}
		}
		dst, err := e.resolver.Resolve(action.NewPath, action.Root)
		if err != nil {
			return Preview{ActionResult: failure(action, "Destination: "+resolveMessage(err))}
		}
		_, dstExists, err := e.currentText(dst, ov)
		if err != nil {
			return Preview{ActionResult: failure(action, "Failed to check destination: "+describeError(err))}
		}
		if dstExists {
			return Preview{ActionResult: failure(action, "Destination already exists: "+action.NewPath)}
		}
		ov.drop(abs)
		ov.set(dst, current)
		return Preview{ActionResult: success(action, "Would rename to "+action.NewPath)}

	default:
		return Preview{ActionResult: failure(action, fmt.Sprintf("unsupported action %q", action.Kind))}
	}
}

// currentText returns the text a dry run should see for abs. Directories exist
// but have no text.
func (e *Executor) currentText(abs string, ov *overlay) (string, bool, error) {
	if content, known, exists := ov.lookup(abs); known {
		return content, exists, nil
	}
	exists, err := e.store.Exists(abs)
	if err != nil || !exists {
		return "", false, err
	}
	snap, err := e.store.Read(abs)
	if err != nil {
		// Directories and unreadable files still exist for create/delete/rename checks.
		return "", true, nil
	}
	return snap.Text, true, nil
}

func (e *Executor) withDiff(res model.ActionResult, abs, oldContent, newContent string) Preview {
	diff, added, removed := computeUnifiedDiff(e.diffName(abs), oldContent, newContent)
	return Preview{ActionResult: res, Diff: diff, AddedLines: added, RemovedLines: removed}
}

// diffName labels a diff with the workspace-relative path of abs.
func (e *Executor) diffName(abs string) string {
	rel, err := e.resolver.Rel(abs)
	if err != nil || rel == "" {
		return filepath.Base(abs)
	}
	return rel
}

func computeUnifiedDiff(filename, oldContent, newContent string) (diff string, added, removed int) {
	ud := difflib.UnifiedDiff{
		A:        splitLines(oldContent),
		B:        splitLines(newContent),
		FromFile: "a/" + filename,
		ToFile:   "b/" + filename,
		Context:  3,
	}
	diff, _ = difflib.GetUnifiedDiffString(ud)

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			added++
		} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			removed++
		}
	}
	return diff, added, removed
}

// splitLines splits s after each newline. Unlike difflib.SplitLines it adds no
// empty line after a trailing newline; a final unterminated line gets one.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		return lines[:len(lines)-1]
	}
	lines[len(lines)-1] += "\n"
	return lines
}
