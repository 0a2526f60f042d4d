package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/Cyclone1070/opx/internal/config"
	"github.com/Cyclone1070/opx/internal/document"
	"github.com/Cyclone1070/opx/internal/model"
	"github.com/Cyclone1070/opx/internal/service/checksum"
	"github.com/Cyclone1070/opx/internal/service/fs"
	pathsvc "github.com/Cyclone1070/opx/internal/service/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	root      string
	exec      *Executor
	checksums *checksum.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root, err := pathsvc.CanonicaliseRoot(t.TempDir())
	require.NoError(t, err)

	osfs := fs.NewOSFileSystem()
	sums := checksum.NewManager()
	store := document.NewFileStore(osfs, sums, 1024*1024)
	resolver := pathsvc.NewResolver(root, osfs)
	return &harness{
		root:      root,
		exec:      New(resolver, store, osfs, sums, config.DefaultConfig(), nil),
		checksums: sums,
	}
}

func (h *harness) write(t *testing.T, rel, content string) {
	t.Helper()
	abs := filepath.Join(h.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func (h *harness) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.root, rel))
	require.NoError(t, err)
	return string(data)
}

func (h *harness) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(h.root, rel))
	return err == nil
}

func (h *harness) run(t *testing.T, actions ...model.FileAction) []model.ActionResult {
	t.Helper()
	results := h.exec.Execute(context.Background(), actions)
	require.Len(t, results, len(actions))
	return results
}

func modifyAction(path string, blocks ...model.ChangeBlock) model.FileAction {
	return model.FileAction{Path: path, Kind: model.ActionModify, Changes: blocks}
}

func block(search, content string, occ model.Occurrence) model.ChangeBlock {
	return model.ChangeBlock{Description: "Modify file", Search: search, Content: content, Occurrence: occ}
}

var unspecified = model.Occurrence{}

func TestExecute_CreateIsIdempotent(t *testing.T) {
	h := newHarness(t)
	create := model.FileAction{
		Path: "pkg/new/file.go", Kind: model.ActionCreate,
		Changes: []model.ChangeBlock{{Description: "Create file", Content: "package new\n"}},
	}

	first := h.run(t, create)
	second := h.run(t, create)

	assert.True(t, first[0].Success, first[0].Message)
	assert.True(t, second[0].Success)
	assert.Contains(t, second[0].Message, "already exists, skipped")
	assert.Equal(t, "package new\n", h.read(t, "pkg/new/file.go"))
}

func TestExecute_ModifyUniqueMatch(t *testing.T) {
	h := newHarness(t)
	original := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"
	h.write(t, "main.go", original)

	res := h.run(t, modifyAction("main.go", block("println(\"hi\")", "println(\"bye\")", model.Occurrence{Kind: model.OccurrenceLast})))

	require.True(t, res[0].Success, res[0].Message)
	assert.Equal(t, "Applied 1 of 1 changes", res[0].Message)
	assert.Equal(t, "package main\n\nfunc main() {\n\tprintln(\"bye\")\n}\n", h.read(t, "main.go"))
}

func TestExecute_ModifyLastOccurrencePreservesCRLF(t *testing.T) {
	h := newHarness(t)
	h.write(t, "x.js", "a\r\nconst x = 1;\r\nconst x = 1;\r\nz\r\n")

	res := h.run(t, modifyAction("x.js", block("const x = 1;\n", "const x = 2;\n", model.Occurrence{Kind: model.OccurrenceLast})))

	require.True(t, res[0].Success, res[0].Message)
	assert.Equal(t, "a\r\nconst x = 1;\r\nconst x = 2;\r\nz\r\n", h.read(t, "x.js"))
}

func TestExecute_ModifyOccurrenceSelection(t *testing.T) {
	tests := []struct {
		name    string
		occ     model.Occurrence
		want    string
		success bool
		msg     string
	}{
		{name: "first", occ: model.Occurrence{Kind: model.OccurrenceFirst}, want: "Y x x", success: true},
		{name: "last", occ: model.Occurrence{Kind: model.OccurrenceLast}, want: "x x Y", success: true},
		{name: "second", occ: model.Occurrence{Kind: model.OccurrenceNth, N: 2}, want: "x Y x", success: true},
		{name: "out of range", occ: model.Occurrence{Kind: model.OccurrenceNth, N: 4}, want: "x x x", msg: "occurrence 4 requested but only 3 found"},
		{name: "unspecified is ambiguous", occ: unspecified, want: "x x x", msg: "ambiguous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.write(t, "f.txt", "x x x")

			res := h.run(t, modifyAction("f.txt", block("x", "Y", tt.occ)))

			assert.Equal(t, tt.success, res[0].Success, res[0].Message)
			assert.Contains(t, res[0].Message, tt.msg)
			assert.Equal(t, tt.want, h.read(t, "f.txt"))
		})
	}
}

func TestExecute_ModifyPartialSuccess(t *testing.T) {
	h := newHarness(t)
	h.write(t, "f.txt", "alpha\nbeta\n")

	res := h.run(t, modifyAction("f.txt",
		block("alpha", "ALPHA", unspecified),
		block("this text is definitely absent", "nope", unspecified),
	))

	require.True(t, res[0].Success)
	assert.Contains(t, res[0].Message, "Applied 1 of 2 changes")
	assert.Contains(t, res[0].Message, `Search text not found: "this text is definit..."`)
	assert.Equal(t, "ALPHA\nbeta\n", h.read(t, "f.txt"))
}

func TestExecute_ModifyAllBlocksFail(t *testing.T) {
	h := newHarness(t)
	h.write(t, "f.txt", "alpha\n")

	res := h.run(t, modifyAction("f.txt", block("gamma", "G", unspecified)))

	assert.False(t, res[0].Success)
	assert.Contains(t, res[0].Message, "Applied 0 of 1 changes")
	assert.Equal(t, "alpha\n", h.read(t, "f.txt"))
}

func TestExecute_ModifyRejectsOverlappingBlocks(t *testing.T) {
	h := newHarness(t)
	h.write(t, "f.txt", "one two three")

	res := h.run(t, modifyAction("f.txt",
		block("one two", "1 2", unspecified),
		block("two three", "2 3", unspecified),
	))

	require.True(t, res[0].Success)
	assert.Contains(t, res[0].Message, "Applied 1 of 2 changes")
	assert.Contains(t, res[0].Message, "overlaps an earlier change")
	assert.Equal(t, "1 2 three", h.read(t, "f.txt"))
}

func TestExecute_ModifyBlocksUseOneSnapshot(t *testing.T) {
	h := newHarness(t)
	h.write(t, "f.txt", "a b")

	// The second block searches for text the first block introduces; it must not see it.
	res := h.run(t, modifyAction("f.txt",
		block("a", "c", unspecified),
		block("c", "d", unspecified),
	))

	assert.Contains(t, res[0].Message, "Applied 1 of 2 changes")
	assert.Equal(t, "c b", h.read(t, "f.txt"))
}

func TestExecute_RewritePrecondition(t *testing.T) {
	h := newHarness(t)
	rewrite := model.FileAction{
		Path: "missing.txt", Kind: model.ActionRewrite,
		Changes: []model.ChangeBlock{{Description: "Replace file", Content: "new"}},
	}

	res := h.run(t, rewrite)

	assert.False(t, res[0].Success)
	assert.Contains(t, res[0].Message, "does not exist, cannot rewrite")
	assert.False(t, h.exists("missing.txt"))
}

func TestExecute_RewriteKeepsLineEndings(t *testing.T) {
	h := newHarness(t)
	h.write(t, "win.txt", "old\r\nlines\r\n")

	res := h.run(t, model.FileAction{
		Path: "win.txt", Kind: model.ActionRewrite,
		Changes: []model.ChangeBlock{{Content: "fresh\ncontent\n"}},
	})

	require.True(t, res[0].Success, res[0].Message)
	assert.Equal(t, "fresh\r\ncontent\r\n", h.read(t, "win.txt"))
}

func TestExecute_RenamePreconditions(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		h := newHarness(t)
		res := h.run(t, model.FileAction{Path: "nope.txt", Kind: model.ActionRename, NewPath: "other.txt"})
		assert.False(t, res[0].Success)
		assert.Contains(t, res[0].Message, "does not exist")
	})

	t.Run("existing destination", func(t *testing.T) {
		h := newHarness(t)
		h.write(t, "a.txt", "A")
		h.write(t, "b.txt", "B")

		res := h.run(t, model.FileAction{Path: "a.txt", Kind: model.ActionRename, NewPath: "b.txt"})

		assert.False(t, res[0].Success)
		assert.Contains(t, res[0].Message, "Destination already exists")
		assert.Equal(t, "A", h.read(t, "a.txt"))
		assert.Equal(t, "B", h.read(t, "b.txt"))
	})

	t.Run("moves into new directory", func(t *testing.T) {
		h := newHarness(t)
		h.write(t, "a.txt", "A")

		res := h.run(t, model.FileAction{Path: "a.txt", Kind: model.ActionRename, NewPath: "sub/dir/a.txt"})

		require.True(t, res[0].Success, res[0].Message)
		assert.Equal(t, "sub/dir/a.txt", res[0].NewPath)
		assert.Equal(t, "A", h.read(t, "sub/dir/a.txt"))
		assert.False(t, h.exists("a.txt"))
	})
}

func TestExecute_WorkspaceRootIsNeverATarget(t *testing.T) {
	h := newHarness(t)
	h.write(t, "src/a.go", "package a")

	res := h.run(t,
		model.FileAction{Path: ".", Kind: model.ActionDelete},
		model.FileAction{Path: h.root, Kind: model.ActionDelete},
		model.FileAction{Path: "src/..", Kind: model.ActionRename, NewPath: "moved"},
		model.FileAction{Path: "src/a.go", Kind: model.ActionRename, NewPath: "."},
	)

	for i, r := range res {
		assert.False(t, r.Success, "action %d", i+1)
		assert.Contains(t, r.Message, "workspace root", "action %d", i+1)
	}
	assert.True(t, h.exists("src/a.go"))
	assert.False(t, h.exists("moved"))
}

func TestExecute_MixedLineEndings(t *testing.T) {
	h := newHarness(t)
	h.write(t, "mixed.txt", "line1\r\nfoo\nbar\n")

	res := h.run(t, modifyAction("mixed.txt", block("foo\nbar", "baz\nqux", unspecified)))

	require.True(t, res[0].Success, res[0].Message)
	assert.Equal(t, "line1\r\nbaz\nqux\n", h.read(t, "mixed.txt"))
}

func TestExecute_Delete(t *testing.T) {
	h := newHarness(t)
	h.write(t, "dir/sub/f.txt", "x")

	res := h.run(t,
		model.FileAction{Path: "dir", Kind: model.ActionDelete},
		model.FileAction{Path: "dir", Kind: model.ActionDelete},
	)

	assert.True(t, res[0].Success, res[0].Message)
	assert.False(t, h.exists("dir"))
	assert.False(t, res[1].Success)
	assert.Contains(t, res[1].Message, "does not exist")
}

func TestExecute_SequentialDependencies(t *testing.T) {
	h := newHarness(t)

	res := h.run(t,
		model.FileAction{Path: "cfg.yaml", Kind: model.ActionCreate, Changes: []model.ChangeBlock{{Content: "port: 80\n"}}},
		modifyAction("cfg.yaml", block("port: 80", "port: 8080", unspecified)),
		model.FileAction{Path: "../escape.txt", Kind: model.ActionCreate, Changes: []model.ChangeBlock{{Content: "x"}}},
		model.FileAction{Path: "cfg.yaml", Kind: model.ActionRename, NewPath: "conf/cfg.yaml"},
	)

	assert.True(t, res[0].Success, res[0].Message)
	assert.True(t, res[1].Success, res[1].Message)
	assert.False(t, res[2].Success)
	assert.Contains(t, res[2].Message, "outside workspace")
	assert.True(t, res[3].Success, "a failed action does not stop the batch")
	assert.Equal(t, "port: 8080\n", h.read(t, "conf/cfg.yaml"))
}

func TestExecute_ClearsChecksumCache(t *testing.T) {
	h := newHarness(t)
	h.write(t, "f.txt", "a")

	h.run(t, modifyAction("f.txt", block("a", "b", unspecified)))

	assert.Equal(t, 0, h.checksums.Len())
}

func TestExecute_UnsupportedKind(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, model.FileAction{Path: "f.txt", Kind: model.ActionKind("explode")})
	assert.False(t, res[0].Success)
	assert.Contains(t, res[0].Message, "unsupported action")
}

func TestExecute_Cancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := h.exec.Execute(ctx, []model.FileAction{{Path: "f.txt", Kind: model.ActionCreate}})

	require.Len(t, res, 1)
	assert.False(t, res[0].Success)
	assert.False(t, h.exists("f.txt"))
}

// --- store failure handling ---

type fakeStore struct {
	files    map[string]string
	applyErr error
	dirty    bool
	saved    []string
}

func (s *fakeStore) Exists(path string) (bool, error) {
	_, ok := s.files[path]
	return ok, nil
}

func (s *fakeStore) Read(path string) (*document.Snapshot, error) {
	text, ok := s.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &document.Snapshot{Path: path, Text: text, EOL: document.DetectEOL(text)}, nil
}

func (s *fakeStore) Apply(ctx context.Context, edit *document.Edit) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	for _, op := range edit.Ops() {
		switch op.Kind {
		case document.OpCreate:
			s.files[op.Path] = op.Text
		case document.OpReplace:
			next, err := document.Splice(s.files[op.Path], []document.Op{op})
			if err != nil {
				return err
			}
			s.files[op.Path] = next
		}
	}
	return nil
}

func (s *fakeStore) IsDirty(path string) bool { return s.dirty }

func (s *fakeStore) Save(ctx context.Context, path string) error {
	s.saved = append(s.saved, path)
	return nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(path, root string) (string, error) {
	if root != "" {
		return "/" + root + "/" + path, nil
	}
	return "/ws/" + path, nil
}

func (fakeResolver) Rel(abs string) (string, error) {
	return strings.TrimPrefix(abs, "/ws/"), nil
}

type fakeDirs struct{ err error }

func (d fakeDirs) EnsureDirs(path string) error { return d.err }

type fakeCache struct{ cleared int }

func (c *fakeCache) Clear() { c.cleared++ }

func TestExecute_TranslatesStoreErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"disk full", &os.PathError{Op: "write", Path: "/ws/f", Err: syscall.ENOSPC}, "disk full"},
		{"permission", &os.PathError{Op: "open", Path: "/ws/f", Err: syscall.EACCES}, "permission denied"},
		{"locked", &os.PathError{Op: "open", Path: "/ws/f", Err: syscall.EBUSY}, "locked by another process"},
		{"read-only", &os.PathError{Op: "open", Path: "/ws/f", Err: syscall.EROFS}, "read-only filesystem"},
		{"conflict", &document.ConflictError{Path: "/ws/f"}, "file changed since it was read"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{files: map[string]string{}, applyErr: tt.err}
			exec := New(fakeResolver{}, store, fakeDirs{}, &fakeCache{}, config.DefaultConfig(), nil)

			res := exec.Execute(context.Background(), []model.FileAction{
				{Path: "f", Kind: model.ActionCreate, Changes: []model.ChangeBlock{{Content: "x"}}},
			})

			assert.False(t, res[0].Success)
			assert.Equal(t, "Failed to create file: "+tt.want, res[0].Message)
		})
	}
}

func TestExecute_CreateDirectoryFailure(t *testing.T) {
	store := &fakeStore{files: map[string]string{}}
	exec := New(fakeResolver{}, store, fakeDirs{err: &os.PathError{Op: "mkdir", Path: "/ws", Err: syscall.EROFS}}, &fakeCache{}, config.DefaultConfig(), nil)

	res := exec.Execute(context.Background(), []model.FileAction{{Path: "a/b", Kind: model.ActionCreate}})

	assert.False(t, res[0].Success)
	assert.Contains(t, res[0].Message, "read-only filesystem")
}

func TestExecute_SavesDirtyDocuments(t *testing.T) {
	store := &fakeStore{files: map[string]string{"/ws/f.txt": "a"}, dirty: true}
	cache := &fakeCache{}
	exec := New(fakeResolver{}, store, fakeDirs{}, cache, config.DefaultConfig(), nil)

	res := exec.Execute(context.Background(), []model.FileAction{modifyAction("f.txt", block("a", "b", unspecified))})

	require.True(t, res[0].Success, res[0].Message)
	assert.Equal(t, []string{"/ws/f.txt"}, store.saved)
	assert.Equal(t, 1, cache.cleared)
}

func TestExecute_NamedRootReachesResolver(t *testing.T) {
	store := &fakeStore{files: map[string]string{"/web/index.ts": "old"}}
	exec := New(fakeResolver{}, store, fakeDirs{}, &fakeCache{}, config.DefaultConfig(), nil)

	res := exec.Execute(context.Background(), []model.FileAction{{
		Path: "index.ts", Root: "web", Kind: model.ActionModify,
		Changes: []model.ChangeBlock{block("old", "new", unspecified)},
	}})

	require.True(t, res[0].Success, res[0].Message)
	assert.Equal(t, "new", store.files["/web/index.ts"])
}

func TestNew_PanicsOnMissingDependencies(t *testing.T) {
	assert.Panics(t, func() {
		New(nil, &fakeStore{}, fakeDirs{}, &fakeCache{}, config.DefaultConfig(), nil)
	})
	assert.Panics(t, func() {
		New(fakeResolver{}, &fakeStore{}, fakeDirs{}, &fakeCache{}, nil, nil)
	})
}
