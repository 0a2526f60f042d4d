package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
)

// Kind names where markup was read from.
type Kind string

const (
	KindFile      Kind = "file"
	KindStdin     Kind = "stdin"
	KindClipboard Kind = "clipboard"
)

// ErrClipboardUnavailable is returned when no clipboard utility is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Provider reads OPX markup from a file, piped stdin or the clipboard.
type Provider struct {
	stdin         *os.File
	readFile      func(string) ([]byte, error)
	readClipboard func() (string, error)
}

// New creates a Provider backed by the real process stdin, filesystem and clipboard.
func New() *Provider {
	return &Provider{
		stdin:         os.Stdin,
		readFile:      os.ReadFile,
		readClipboard: clipboard.ReadAll,
	}
}

// Read returns markup from path when given ("-" means stdin), otherwise from
// stdin when it is piped, otherwise from the clipboard.
func (p *Provider) Read(path string) (string, Kind, error) {
	switch {
	case path == "-":
		return p.fromReader(p.stdin)
	case path != "":
		data, err := p.readFile(path)
		if err != nil {
			return "", KindFile, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), KindFile, nil
	case p.stdinPiped():
		return p.fromReader(p.stdin)
	default:
		return p.fromClipboard()
	}
}

func (p *Provider) stdinPiped() bool {
	if p.stdin == nil {
		return false
	}
	stat, err := p.stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func (p *Provider) fromReader(r io.Reader) (string, Kind, error) {
	if r == nil {
		return "", KindStdin, fmt.Errorf("stdin is not available")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", KindStdin, fmt.Errorf("failed to read from stdin: %w", err)
	}
	return string(data), KindStdin, nil
}

func (p *Provider) fromClipboard() (string, Kind, error) {
	if clipboard.Unsupported {
		return "", KindClipboard, ErrClipboardUnavailable
	}
	content, err := p.readClipboard()
	if err != nil {
		return "", KindClipboard, fmt.Errorf("failed to read from clipboard: %w", err)
	}
	return content, KindClipboard, nil
}
