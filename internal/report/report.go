// Package report renders parse outcomes, execution results, dry-run previews
// and file trees as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Cyclone1070/opx/internal/config"
	"github.com/Cyclone1070/opx/internal/executor"
	"github.com/Cyclone1070/opx/internal/model"
	"github.com/Cyclone1070/opx/internal/tree"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Option configures a Writer.
type Option func(*Writer)

// WithMarkdown renders preview diffs through glamour at the given wrap width.
// Intended for terminals; plain diffs are written otherwise.
func WithMarkdown(width int) Option {
	return func(w *Writer) {
		w.markdown = true
		w.width = width
	}
}

// Writer renders reports to an output stream.
type Writer struct {
	out      io.Writer
	format   string
	markdown bool
	width    int
	styles   styles
}

type styles struct {
	ok     lipgloss.Style
	fail   lipgloss.Style
	path   lipgloss.Style
	dim    lipgloss.Style
	header lipgloss.Style
}

// NewWriter creates a Writer for one of config.FormatText, FormatJSON or FormatYAML.
func NewWriter(out io.Writer, format string, opts ...Option) (*Writer, error) {
	switch format {
	case config.FormatText, config.FormatJSON, config.FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	r := lipgloss.NewRenderer(out)
	w := &Writer{
		out:    out,
		format: format,
		width:  80,
		styles: styles{
			ok:     r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
			fail:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			path:   r.NewStyle().Foreground(lipgloss.Color("63")),
			dim:    r.NewStyle().Foreground(lipgloss.Color("241")),
			header: r.NewStyle().Bold(true).Underline(true),
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// resultsDoc is the structured form of an apply run.
type resultsDoc struct {
	Results     []model.ActionResult `json:"results" yaml:"results"`
	ParseErrors []string             `json:"parseErrors" yaml:"parseErrors"`
	Succeeded   int                  `json:"succeeded" yaml:"succeeded"`
	Failed      int                  `json:"failed" yaml:"failed"`
}

type previewDoc struct {
	Previews    []executor.Preview `json:"previews" yaml:"previews"`
	ParseErrors []string           `json:"parseErrors" yaml:"parseErrors"`
}

type treeDoc struct {
	Roots []tree.RootTree `json:"roots" yaml:"roots"`
}

type pathsDoc struct {
	Roots []rootPaths `json:"roots" yaml:"roots"`
}

type rootPaths struct {
	Root  string   `json:"root" yaml:"root"`
	Paths []string `json:"paths" yaml:"paths"`
}

// Results writes execution results together with any parse errors.
func (w *Writer) Results(results []model.ActionResult, parseErrors []string) error {
	doc := resultsDoc{Results: results, ParseErrors: nonNil(parseErrors)}
	if doc.Results == nil {
		doc.Results = []model.ActionResult{}
	}
	for _, r := range results {
		if r.Success {
			doc.Succeeded++
		} else {
			doc.Failed++
		}
	}
	if w.format != config.FormatText {
		return w.encode(doc)
	}

	var b strings.Builder
	w.writeParseErrors(&b, doc.ParseErrors)
	for _, r := range results {
		b.WriteString(w.resultLine(r))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s\n", w.styles.dim.Render(fmt.Sprintf("%d succeeded, %d failed", doc.Succeeded, doc.Failed)))
	_, err := io.WriteString(w.out, b.String())
	return err
}

// Previews writes dry-run outcomes with their diffs.
func (w *Writer) Previews(previews []executor.Preview, parseErrors []string) error {
	doc := previewDoc{Previews: previews, ParseErrors: nonNil(parseErrors)}
	if doc.Previews == nil {
		doc.Previews = []executor.Preview{}
	}
	if w.format != config.FormatText {
		return w.encode(doc)
	}

	var b strings.Builder
	w.writeParseErrors(&b, doc.ParseErrors)
	for _, p := range previews {
		b.WriteString(w.resultLine(p.ActionResult))
		if p.Diff != "" {
			fmt.Fprintf(&b, " %s", w.styles.dim.Render(fmt.Sprintf("(+%d -%d)", p.AddedLines, p.RemovedLines)))
		}
		b.WriteByte('\n')
		if p.Diff != "" {
			b.WriteString(w.renderDiff(p.Diff))
		}
	}
	_, err := io.WriteString(w.out, b.String())
	return err
}

// Parse writes the actions and errors recovered from markup.
func (w *Writer) Parse(outcome model.ParseOutcome) error {
	if w.format != config.FormatText {
		return w.encode(outcome)
	}

	var b strings.Builder
	w.writeParseErrors(&b, outcome.Errors)
	for i, a := range outcome.Actions {
		target := a.Path
		if a.Root != "" {
			target = a.Root + ":" + a.Path
		}
		if a.NewPath != "" {
			target += " -> " + a.NewPath
		}
		fmt.Fprintf(&b, "%d. %-7s %s\n", i+1, a.Kind, w.styles.path.Render(target))
		for j, c := range a.Changes {
			line := fmt.Sprintf("   %d) %s", j+1, c.Description)
			if occ := c.Occurrence.String(); occ != "" {
				line += " [occurrence " + occ + "]"
			}
			b.WriteString(w.styles.dim.Render(line))
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "%s\n", w.styles.dim.Render(fmt.Sprintf("%d actions, %d errors", len(outcome.Actions), len(outcome.Errors))))
	_, err := io.WriteString(w.out, b.String())
	return err
}

// Tree writes workspace trees.
func (w *Writer) Tree(trees []tree.RootTree) error {
	if w.format != config.FormatText {
		return w.encode(treeDoc{Roots: trees})
	}

	var b strings.Builder
	for _, t := range trees {
		fmt.Fprintf(&b, "%s %s\n", w.styles.header.Render(t.Root), w.styles.dim.Render(t.Path))
		writeNodes(&b, t.Nodes, "")
		if t.Truncated {
			fmt.Fprintf(&b, "%s\n", w.styles.dim.Render(fmt.Sprintf("(capped at %d entries)", t.Entries)))
		}
	}
	_, err := io.WriteString(w.out, b.String())
	return err
}

// Paths writes one workspace-relative path per line, directories suffixed with
// "/". With several roots each line is prefixed with its root name.
func (w *Writer) Paths(trees []tree.RootTree) error {
	if w.format != config.FormatText {
		doc := pathsDoc{Roots: make([]rootPaths, 0, len(trees))}
		for _, t := range trees {
			doc.Roots = append(doc.Roots, rootPaths{Root: t.Root, Paths: nonNil(tree.Flatten(t.Nodes))})
		}
		return w.encode(doc)
	}

	var b strings.Builder
	for _, t := range trees {
		for _, p := range tree.Flatten(t.Nodes) {
			if len(trees) > 1 {
				p = t.Root + ":" + p
			}
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w.out, b.String())
	return err
}

func writeNodes(b *strings.Builder, nodes []*tree.Node, prefix string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		name := n.Name
		if n.IsDir {
			name += "/"
		}
		fmt.Fprintf(b, "%s%s%s\n", prefix, branch, name)
		if n.IsDir {
			writeNodes(b, n.Children, prefix+next)
		}
	}
}

func (w *Writer) resultLine(r model.ActionResult) string {
	mark := w.styles.ok.Render("✔")
	if !r.Success {
		mark = w.styles.fail.Render("✘")
	}
	target := r.Path
	if r.NewPath != "" {
		target += " -> " + r.NewPath
	}
	return fmt.Sprintf("%s %-7s %s  %s", mark, r.Kind, w.styles.path.Render(target), r.Message)
}

func (w *Writer) writeParseErrors(b *strings.Builder, errs []string) {
	for _, e := range errs {
		fmt.Fprintf(b, "%s %s\n", w.styles.fail.Render("parse error:"), e)
	}
}

// renderDiff shows a unified diff, through glamour when markdown output is on.
func (w *Writer) renderDiff(diff string) string {
	if !w.markdown {
		if !strings.HasSuffix(diff, "\n") {
			diff += "\n"
		}
		return diff
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(w.width),
	)
	if err != nil {
		return diff
	}
	out, err := r.Render("```diff\n" + strings.TrimRight(diff, "\n") + "\n```\n")
	if err != nil {
		return diff
	}
	return out
}

func (w *Writer) encode(v any) error {
	switch w.format {
	case config.FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", w.format)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
