package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/neovim/go-client/nvim"
)

// NvimStore routes text edits through a running Neovim instance so buffer undo
// history and modified flags stay consistent with what was applied. Creates,
// deletes and renames go to disk through the wrapped FileStore, after which the
// affected buffers are reloaded or wiped.
type NvimStore struct {
	v         *nvim.Nvim
	files     *FileStore
	checksums checksumCache
	buffers   map[string]nvim.Buffer
}

// DialNvim connects to the Neovim instance listening on address.
func DialNvim(address string, files *FileStore, checksums checksumCache) (*NvimStore, error) {
	v, err := nvim.Dial(address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nvim at %s: %w", address, err)
	}
	return NewNvimStore(v, files, checksums), nil
}

// NewNvimStore wraps an existing Neovim connection.
func NewNvimStore(v *nvim.Nvim, files *FileStore, checksums checksumCache) *NvimStore {
	if v == nil {
		panic("nvim is required")
	}
	if files == nil {
		panic("files is required")
	}
	if checksums == nil {
		panic("checksums is required")
	}
	return &NvimStore{v: v, files: files, checksums: checksums, buffers: make(map[string]nvim.Buffer)}
}

// Close disconnects from Neovim.
func (s *NvimStore) Close() error {
	return s.v.Close()
}

// Exists reports whether path exists on disk.
func (s *NvimStore) Exists(path string) (bool, error) {
	return s.files.Exists(path)
}

// Read loads path into a buffer and snapshots the buffer text, which may hold
// unsaved changes the file on disk does not.
func (s *NvimStore) Read(path string) (*Snapshot, error) {
	buf, err := s.load(path)
	if err != nil {
		return nil, err
	}
	text, eol, err := s.bufferText(buf)
	if err != nil {
		return nil, err
	}
	sum := s.checksums.Compute([]byte(text))
	s.checksums.Update(path, sum)
	return &Snapshot{Path: path, Text: text, EOL: eol, Checksum: sum}, nil
}

// Apply replaces buffer contents for every replaced path in one batch and
// delegates the other primitives to the file store.
func (s *NvimStore) Apply(ctx context.Context, edit *Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	order, groups := edit.replacementsByPath()
	type applied struct {
		path string
		sum  string
	}
	var pending []applied
	b := s.v.NewBatch()
	for _, path := range order {
		buf, ok := s.buffers[path]
		if !ok {
			return &ApplyError{Kind: OpReplace, Path: path, Cause: ErrNoSnapshot}
		}
		text, eol, err := s.bufferText(buf)
		if err != nil {
			return &ApplyError{Kind: OpReplace, Path: path, Cause: err}
		}
		if prior, ok := s.checksums.Get(path); !ok || prior != s.checksums.Compute([]byte(text)) {
			return &ConflictError{Path: path}
		}
		next, err := Splice(text, groups[path])
		if err != nil {
			return &ApplyError{Kind: OpReplace, Path: path, Cause: err}
		}
		// The buffer holds lines; the final terminator lives in 'endofline'.
		trailing := strings.HasSuffix(next, string(eol))
		b.SetBufferLines(buf, 0, -1, true, toLines(next, eol))
		b.SetBufferOption(buf, "endofline", trailing)
		b.SetBufferOption(buf, "fixendofline", trailing)
		pending = append(pending, applied{path: path, sum: s.checksums.Compute([]byte(next))})
	}
	if len(order) > 0 {
		if err := b.Execute(); err != nil {
			for _, path := range order {
				s.checksums.Invalidate(path)
			}
			return fmt.Errorf("nvim batch failed: %w", err)
		}
		for _, p := range pending {
			s.checksums.Update(p.path, p.sum)
		}
	}

	rest := NewEdit()
	for _, op := range edit.Ops() {
		if op.Kind != OpReplace {
			rest.ops = append(rest.ops, op)
		}
	}
	if rest.Len() == 0 {
		return nil
	}
	if err := s.files.Apply(ctx, rest); err != nil {
		return err
	}
	for _, op := range rest.Ops() {
		switch op.Kind {
		case OpDelete:
			s.wipe(op.Path)
		case OpRename:
			s.wipe(op.Path)
		}
	}
	return nil
}

// IsDirty reports whether the buffer for path has unsaved changes.
func (s *NvimStore) IsDirty(path string) bool {
	buf, ok := s.buffers[path]
	if !ok {
		return false
	}
	var modified bool
	if err := s.v.BufferOption(buf, "modified", &modified); err != nil {
		return false
	}
	return modified
}

// Save writes the buffer for path to disk.
func (s *NvimStore) Save(ctx context.Context, path string) error {
	buf, ok := s.buffers[path]
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	const saveLua = `local buf = ...
vim.api.nvim_buf_call(buf, function() vim.cmd('silent write') end)`
	if err := s.v.ExecLua(saveLua, nil, buf); err != nil {
		return fmt.Errorf("failed to write buffer for %s: %w", path, err)
	}
	return nil
}

func (s *NvimStore) load(path string) (nvim.Buffer, error) {
	if buf, ok := s.buffers[path]; ok {
		return buf, nil
	}
	var bufnr int
	if err := s.v.Call("bufadd", &bufnr, path); err != nil {
		return 0, fmt.Errorf("failed to open buffer for %s: %w", path, err)
	}
	if err := s.v.Call("bufload", nil, bufnr); err != nil {
		return 0, fmt.Errorf("failed to load buffer for %s: %w", path, err)
	}
	buf := nvim.Buffer(bufnr)
	s.buffers[path] = buf
	return buf, nil
}

func (s *NvimStore) wipe(path string) {
	buf, ok := s.buffers[path]
	if !ok {
		return
	}
	delete(s.buffers, path)
	_ = s.v.Command(fmt.Sprintf("silent! bwipeout! %d", int(buf)))
}

func (s *NvimStore) bufferText(buf nvim.Buffer) (string, EOL, error) {
	lines, err := s.v.BufferLines(buf, 0, -1, true)
	if err != nil {
		return "", LF, err
	}
	var format string
	if err := s.v.BufferOption(buf, "fileformat", &format); err != nil {
		return "", LF, err
	}
	var endOfLine bool
	if err := s.v.BufferOption(buf, "endofline", &endOfLine); err != nil {
		return "", LF, err
	}
	eol := LF
	if format == "dos" {
		eol = CRLF
	}
	return fromLines(lines, eol, endOfLine), eol, nil
}

// fromLines joins buffer lines into document text.
func fromLines(lines [][]byte, eol EOL, trailing bool) string {
	if len(lines) == 1 && len(lines[0]) == 0 {
		return ""
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = string(l)
	}
	text := strings.Join(parts, string(eol))
	if trailing {
		text += string(eol)
	}
	return text
}

// toLines splits document text into buffer lines. A final terminator does not
// produce an empty last line.
func toLines(text string, eol EOL) [][]byte {
	text = strings.TrimSuffix(Normalize(text, eol), string(eol))
	parts := strings.Split(text, string(eol))
	lines := make([][]byte, len(parts))
	for i, p := range parts {
		lines[i] = []byte(p)
	}
	return lines
}
