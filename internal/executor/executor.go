// Package executor applies parsed file actions to the workspace.
//
// Actions run one at a time in the order given, since a later action may rely on
// an earlier one (create then modify the same path). A failing action is reported
// and the batch carries on; nothing is rolled back across actions.
package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/opx/internal/config"
	"github.com/Cyclone1070/opx/internal/document"
	"github.com/Cyclone1070/opx/internal/logging"
	"github.com/Cyclone1070/opx/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pathResolver maps a declared path and optional root name to an absolute path,
// and back to a workspace-relative one.
type pathResolver interface {
	Resolve(path, root string) (string, error)
	Rel(abs string) (string, error)
}

// documentStore reads snapshots and applies batched edits.
type documentStore interface {
	Exists(path string) (bool, error)
	Read(path string) (*document.Snapshot, error)
	Apply(ctx context.Context, edit *document.Edit) error
	IsDirty(path string) bool
	Save(ctx context.Context, path string) error
}

// dirEnsurer creates a directory and its parents.
type dirEnsurer interface {
	EnsureDirs(path string) error
}

// checksumCache is the snapshot cache shared with the document store.
type checksumCache interface {
	Clear()
}

// Executor runs file actions against a document store.
type Executor struct {
	resolver pathResolver
	store    documentStore
	dirs     dirEnsurer
	cache    checksumCache
	config   *config.Config
	logger   *zap.Logger
}

// New creates an Executor with injected dependencies. A nil logger discards output.
func New(
	resolver pathResolver,
	store documentStore,
	dirs dirEnsurer,
	cache checksumCache,
	cfg *config.Config,
	logger *zap.Logger,
) *Executor {
	if resolver == nil {
		panic("resolver is required")
	}
	if store == nil {
		panic("store is required")
	}
	if dirs == nil {
		panic("dirs is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &Executor{
		resolver: resolver,
		store:    store,
		dirs:     dirs,
		cache:    cache,
		config:   cfg,
		logger:   logging.OrNop(logger),
	}
}

// Execute applies actions sequentially and returns one result per action, in order.
// The checksum cache is cleared once the batch finishes.
func (e *Executor) Execute(ctx context.Context, actions []model.FileAction) []model.ActionResult {
	log := e.logger.With(zap.String("run_id", uuid.NewString()))
	defer e.cache.Clear()

	results := make([]model.ActionResult, 0, len(actions))
	for i, action := range actions {
		var res model.ActionResult
		if err := ctx.Err(); err != nil {
			res = failure(action, fmt.Sprintf("Cancelled: %v", err))
		} else {
			res = e.execute(ctx, action)
		}
		log.Info("action finished",
			zap.Int("index", i+1),
			zap.String("action", string(action.Kind)),
			zap.String("path", action.Path),
			zap.Bool("success", res.Success),
			zap.String("message", res.Message),
		)
		results = append(results, res)
	}
	return results
}

func (e *Executor) execute(ctx context.Context, action model.FileAction) model.ActionResult {
	switch action.Kind {
	case model.ActionCreate:
		return e.create(ctx, action)
	case model.ActionRewrite:
		return e.rewrite(ctx, action)
	case model.ActionModify:
		return e.modify(ctx, action)
	case model.ActionDelete:
		return e.remove(ctx, action)
	case model.ActionRename:
		return e.rename(ctx, action)
	default:
		return failure(action, fmt.Sprintf("unsupported action %q", action.Kind))
	}
}

func (e *Executor) create(ctx context.Context, action model.FileAction) model.ActionResult {
	abs, err := e.resolver.Resolve(action.Path, action.Root)
	if err != nil {
		return failure(action, resolveMessage(err))
	}
	if err := e.dirs.EnsureDirs(filepath.Dir(abs)); err != nil {
		return failure(action, "Failed to create parent directory: "+describeError(err))
	}

	exists, err := e.store.Exists(abs)
	if err != nil {
		return failure(action, "Failed to check file: "+describeError(err))
	}
	if exists {
		return success(action, "File already exists, skipped")
	}

	edit := document.NewEdit()
	edit.Create(abs, payload(action))
	if err := e.commit(ctx, edit, abs); err != nil {
		return failure(action, "Failed to create file: "+describeError(err))
	}
	return success(action, "Created file")
}

func (e *Executor) rewrite(ctx context.Context, action model.FileAction) model.ActionResult {
	abs, err := e.resolver.Resolve(action.Path, action.Root)
	if err != nil {
		return failure(action, resolveMessage(err))
	}
	if res, ok := e.requireExisting(action, abs, "rewrite"); !ok {
		return res
	}

	snap, err := e.store.Read(abs)
	if err != nil {
		return failure(action, "Failed to read file: "+describeError(err))
	}

	edit := document.NewEdit()
	edit.Replace(abs, 0, len(snap.Text), document.Normalize(payload(action), snap.EOL))
	if err := e.commit(ctx, edit, abs); err != nil {
		return failure(action, "Failed to replace file: "+describeError(err))
	}
	return success(action, "Replaced file")
}

func (e *Executor) modify(ctx context.Context, action model.FileAction) model.ActionResult {
	abs, err := e.resolver.Resolve(action.Path, action.Root)
	if err != nil {
		return failure(action, resolveMessage(err))
	}
	if res, ok := e.requireExisting(action, abs, "modify"); !ok {
		return res
	}
	if len(action.Changes) == 0 {
		return failure(action, "No changes to apply")
	}

	snap, err := e.store.Read(abs)
	if err != nil {
		return failure(action, "Failed to read file: "+describeError(err))
	}

	p := e.plan(snap, action.Changes)
	if p.applied == 0 {
		return failure(action, p.summary())
	}

	edit := document.NewEdit()
	for _, r := range p.ranges {
		edit.Replace(abs, r.start, r.end, r.text)
	}
	if err := e.commit(ctx, edit, abs); err != nil {
		return failure(action, "Failed to apply changes: "+describeError(err))
	}
	return success(action, p.summary())
}

func (e *Executor) remove(ctx context.Context, action model.FileAction) model.ActionResult {
	abs, err := e.resolver.Resolve(action.Path, action.Root)
	if err != nil {
		return failure(action, resolveMessage(err))
	}
	if res, ok := e.requireExisting(action, abs, "delete"); !ok {
		return res
	}

	edit := document.NewEdit()
	edit.Delete(abs, true)
	if err := e.store.Apply(ctx, edit); err != nil {
		return failure(action, "Failed to delete: "+describeError(err))
	}
	return success(action, "Deleted")
}

func (e *Executor) rename(ctx context.Context, action model.FileAction) model.ActionResult {
	src, err := e.resolver.Resolve(action.Path, action.Root)
	if err != nil {
		return failure(action, resolveMessage(err))
	}
	if res, ok := e.requireExisting(action, src, "rename"); !ok {
		return res
	}

	dst, err := e.resolver.Resolve(action.NewPath, action.Root)
	if err != nil {
		return failure(action, "Destination: "+resolveMessage(err))
	}
	exists, err := e.store.Exists(dst)
	if err != nil {
		return failure(action, "Failed to check destination: "+describeError(err))
	}
	if exists {
		return failure(action, "Destination already exists: "+action.NewPath)
	}
	if err := e.dirs.EnsureDirs(filepath.Dir(dst)); err != nil {
		return failure(action, "Failed to create destination directory: "+describeError(err))
	}

	edit := document.NewEdit()
	edit.Rename(src, dst, false)
	if err := e.store.Apply(ctx, edit); err != nil {
		return failure(action, "Failed to rename: "+describeError(err))
	}
	return success(action, "Renamed to "+action.NewPath)
}

// requireExisting fails the action when abs is missing.
func (e *Executor) requireExisting(action model.FileAction, abs, verb string) (model.ActionResult, bool) {
	exists, err := e.store.Exists(abs)
	if err != nil {
		return failure(action, "Failed to check file: "+describeError(err)), false
	}
	if !exists {
		if action.Kind == model.ActionRename {
			return failure(action, fmt.Sprintf("Source file does not exist, cannot %s", verb)), false
		}
		return failure(action, fmt.Sprintf("File does not exist, cannot %s", verb)), false
	}
	return model.ActionResult{}, true
}

// commit applies edit and saves abs if the store left it dirty.
func (e *Executor) commit(ctx context.Context, edit *document.Edit, abs string) error {
	if err := e.store.Apply(ctx, edit); err != nil {
		return err
	}
	if e.store.IsDirty(abs) {
		if err := e.store.Save(ctx, abs); err != nil {
			return err
		}
	}
	return nil
}

type replacement struct {
	start, end int
	text       string
}

// modifyPlan is the outcome of resolving every change block against one snapshot.
type modifyPlan struct {
	total    int
	applied  int
	ranges   []replacement
	failures []string
}

func (p modifyPlan) summary() string {
	msg := fmt.Sprintf("Applied %d of %d changes", p.applied, p.total)
	if len(p.failures) > 0 {
		msg += "; " + strings.Join(p.failures, "; ")
	}
	return msg
}

// plan resolves change blocks against snap. Search and content are converted to
// the document's line endings first, falling back to the text as written when
// only that matches. A block whose range overlaps an earlier block is rejected.
func (e *Executor) plan(snap *document.Snapshot, changes []model.ChangeBlock) modifyPlan {
	p := modifyPlan{total: len(changes)}
	previewLen := e.config.Tools.SearchPreviewLength

	for i, change := range changes {
		search := document.Normalize(change.Search, snap.EOL)
		content := document.Normalize(change.Content, snap.EOL)
		start, err := locate(snap.Text, search, change.Occurrence, previewLen)
		if errors.Is(err, ErrSearchNotFound) && search != change.Search {
			// Mixed line endings: the block may match as written.
			if raw, rawErr := locate(snap.Text, change.Search, change.Occurrence, previewLen); rawErr == nil {
				start, err = raw, nil
				search, content = change.Search, change.Content
			}
		}
		if err == nil {
			end := start + len(search)
			for _, r := range p.ranges {
				if start < r.end && r.start < end {
					err = &MatchError{Preview: preview(search, previewLen), Cause: ErrOverlappingChange}
					break
				}
			}
			if err == nil {
				p.ranges = append(p.ranges, replacement{start: start, end: end, text: content})
				p.applied++
				e.logger.Debug("change resolved", zap.String("path", snap.Path), zap.Int("change", i+1), zap.Int("offset", start))
				continue
			}
		}
		p.failures = append(p.failures, fmt.Sprintf("change %d (%s): %v", i+1, change.Description, err))
		e.logger.Debug("change failed", zap.String("path", snap.Path), zap.Int("change", i+1), zap.Error(err))
	}
	return p
}

// payload is the whole-file content of a create or rewrite action.
func payload(action model.FileAction) string {
	if len(action.Changes) == 0 {
		return ""
	}
	return action.Changes[0].Content
}

func resolveMessage(err error) string {
	return "Path resolution failed: " + err.Error()
}

func success(action model.FileAction, msg string) model.ActionResult {
	return model.ActionResult{Path: action.Path, Kind: action.Kind, Success: true, Message: msg, NewPath: action.NewPath}
}

func failure(action model.FileAction, msg string) model.ActionResult {
	return model.ActionResult{Path: action.Path, Kind: action.Kind, Success: false, Message: msg, NewPath: action.NewPath}
}
