package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// fileSystem defines the filesystem operations the file store needs.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
	RemoveAll(path string) error
	Rename(oldPath, newPath string) error
}

// checksumCache records the checksum each snapshot was taken at.
type checksumCache interface {
	Compute(data []byte) string
	Get(path string) (checksum string, ok bool)
	Update(path string, checksum string)
	Invalidate(path string)
	Move(oldPath, newPath string)
}

// defaultFilePerm is used for files the store creates.
const defaultFilePerm os.FileMode = 0o644

// FileStore applies edits directly to files on disk. Every write goes through
// a temp file and rename, so a document is never left half-written.
type FileStore struct {
	fs          fileSystem
	checksums   checksumCache
	maxFileSize int64
}

// NewFileStore creates a FileStore. maxFileSize <= 0 disables the size limit.
func NewFileStore(fs fileSystem, checksums checksumCache, maxFileSize int64) *FileStore {
	if fs == nil {
		panic("fs is required")
	}
	if checksums == nil {
		panic("checksums is required")
	}
	return &FileStore{fs: fs, checksums: checksums, maxFileSize: maxFileSize}
}

// Exists reports whether path exists. A missing path is not an error.
func (s *FileStore) Exists(path string) (bool, error) {
	if _, err := s.fs.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Read returns a snapshot of path and records its checksum.
func (s *FileStore) Read(path string) (*Snapshot, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if s.maxFileSize > 0 && info.Size() > s.maxFileSize {
		return nil, &FileTooLargeError{Path: path, Size: info.Size(), Limit: s.maxFileSize}
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isBinary(data) {
		return nil, fmt.Errorf("%w: %s", ErrBinaryFile, path)
	}

	sum := s.checksums.Compute(data)
	s.checksums.Update(path, sum)

	text := string(data)
	return &Snapshot{Path: path, Text: text, EOL: DetectEOL(text), Checksum: sum}, nil
}

// Apply runs the edit. Replacements are validated and spliced for every path
// before anything touches disk, so a bad range or a conflict leaves all files
// unchanged. Remaining primitives then run in insertion order.
func (s *FileStore) Apply(ctx context.Context, edit *Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pending, err := s.prepareReplacements(edit)
	if err != nil {
		return err
	}

	written := make(map[string]bool)
	for _, op := range edit.Ops() {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch op.Kind {
		case OpCreate:
			if err := s.create(op.Path, op.Text); err != nil {
				return &ApplyError{Kind: op.Kind, Path: op.Path, Cause: err}
			}
		case OpReplace:
			if written[op.Path] {
				continue
			}
			written[op.Path] = true
			p := pending[op.Path]
			if err := s.write(op.Path, p.text, p.perm); err != nil {
				return &ApplyError{Kind: op.Kind, Path: op.Path, Cause: err}
			}
		case OpDelete:
			if err := s.delete(op.Path, op.Recursive); err != nil {
				return &ApplyError{Kind: op.Kind, Path: op.Path, Cause: err}
			}
		case OpRename:
			if err := s.rename(op.Path, op.NewPath, op.Overwrite); err != nil {
				return &ApplyError{Kind: op.Kind, Path: op.Path, Cause: err}
			}
		default:
			return fmt.Errorf("unsupported edit primitive %v", op.Kind)
		}
	}
	return nil
}

// IsDirty is always false: the file store has no unsaved state.
func (s *FileStore) IsDirty(path string) bool {
	return false
}

// Save is a no-op for the file store.
func (s *FileStore) Save(ctx context.Context, path string) error {
	return nil
}

type pendingWrite struct {
	text string
	perm os.FileMode
}

func (s *FileStore) prepareReplacements(edit *Edit) (map[string]pendingWrite, error) {
	order, groups := edit.replacementsByPath()
	pending := make(map[string]pendingWrite, len(order))

	for _, path := range order {
		info, err := s.fs.Stat(path)
		if err != nil {
			return nil, &ApplyError{Kind: OpReplace, Path: path, Cause: err}
		}
		data, err := s.fs.ReadFile(path)
		if err != nil {
			return nil, &ApplyError{Kind: OpReplace, Path: path, Cause: err}
		}

		current := s.checksums.Compute(data)
		prior, ok := s.checksums.Get(path)
		if !ok {
			return nil, &ApplyError{Kind: OpReplace, Path: path, Cause: ErrNoSnapshot}
		}
		if prior != current {
			return nil, &ConflictError{Path: path}
		}

		text, err := Splice(string(data), groups[path])
		if err != nil {
			return nil, &ApplyError{Kind: OpReplace, Path: path, Cause: err}
		}
		if s.maxFileSize > 0 && int64(len(text)) > s.maxFileSize {
			return nil, &FileTooLargeError{Path: path, Size: int64(len(text)), Limit: s.maxFileSize}
		}
		pending[path] = pendingWrite{text: text, perm: info.Mode().Perm()}
	}
	return pending, nil
}

func (s *FileStore) create(path, content string) error {
	exists, err := s.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return os.ErrExist
	}
	if s.maxFileSize > 0 && int64(len(content)) > s.maxFileSize {
		return &FileTooLargeError{Path: path, Size: int64(len(content)), Limit: s.maxFileSize}
	}
	if err := s.fs.EnsureDirs(filepath.Dir(path)); err != nil {
		return err
	}
	return s.write(path, content, defaultFilePerm)
}

func (s *FileStore) write(path, content string, perm os.FileMode) error {
	data := []byte(content)
	if err := s.fs.WriteFileAtomic(path, data, perm); err != nil {
		return err
	}
	s.checksums.Update(path, s.checksums.Compute(data))
	return nil
}

func (s *FileStore) delete(path string, recursive bool) error {
	info, err := s.fs.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() && !recursive {
		return fmt.Errorf("%s is a directory", path)
	}
	if err := s.fs.RemoveAll(path); err != nil {
		return err
	}
	s.checksums.Invalidate(path)
	return nil
}

func (s *FileStore) rename(oldPath, newPath string, overwrite bool) error {
	if !overwrite {
		exists, err := s.Exists(newPath)
		if err != nil {
			return err
		}
		if exists {
			return os.ErrExist
		}
	} else if err := s.fs.RemoveAll(newPath); err != nil {
		return err
	}
	if err := s.fs.EnsureDirs(filepath.Dir(newPath)); err != nil {
		return err
	}
	if err := s.fs.Rename(oldPath, newPath); err != nil {
		return err
	}
	s.checksums.Move(oldPath, newPath)
	return nil
}
