// Package markdown renders answer text to styled terminal output
// using goldmark for parsing and lipgloss for styling.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultWidth is used when the caller passes a non-positive width.
const DefaultWidth = 80

// Styles are the lipgloss styles applied to markdown elements.
type Styles struct {
	Heading lipgloss.Style
	Bold    lipgloss.Style
	Italic  lipgloss.Style
	Code    lipgloss.Style
	Link    lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns styles that read on both light and dark terminals.
func DefaultStyles() Styles {
	return Styles{
		Heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Italic:  lipgloss.NewStyle().Italic(true),
		Code:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Link:    lipgloss.NewStyle().Underline(true),
		Muted:   lipgloss.NewStyle().Faint(true),
	}
}

// Render parses source and returns it word-wrapped to width.
// Code blocks keep their lines as written.
func Render(source string, width int, styles Styles) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}

	r := &renderer{source: []byte(source), width: width, styles: styles}
	doc := goldmark.DefaultParser().Parse(text.NewReader(r.source))

	var buf bytes.Buffer
	r.blocks(doc, &buf, "")
	return strings.TrimRight(buf.String(), "\n")
}

type renderer struct {
	source []byte
	width  int
	styles Styles
}

func (r *renderer) blocks(parent ast.Node, buf *bytes.Buffer, indent string) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(n, buf, indent)
		if n.NextSibling() != nil {
			buf.WriteString("\n")
		}
	}
}

func (r *renderer) block(node ast.Node, buf *bytes.Buffer, indent string) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		r.wrap(buf, indent, indent, r.inlines(n))

	case *ast.Heading:
		r.wrap(buf, indent, indent, r.styles.Heading.Render(r.inlines(n)))

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if fenced, ok := n.(*ast.FencedCodeBlock); ok {
			if lang := string(fenced.Language(r.source)); lang != "" {
				buf.WriteString(indent + r.styles.Muted.Render(lang) + "\n")
			}
		}
		gutter := indent + r.styles.Muted.Render("│") + " "
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.WriteString(gutter + r.styles.Code.Render(strings.TrimRight(string(line.Value(r.source)), "\n")) + "\n")
		}

	case *ast.Blockquote:
		var inner bytes.Buffer
		r.blocks(n, &inner, "")
		bar := r.styles.Muted.Render("▌") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(indent + bar + line + "\n")
		}

	case *ast.List:
		r.list(n, buf, indent)

	case *ast.ThematicBreak:
		buf.WriteString(indent + r.styles.Muted.Render(strings.Repeat("─", min(r.width-len(indent), 40))) + "\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.WriteString(indent + strings.TrimRight(string(line.Value(r.source)), "\n") + "\n")
		}

	default:
		r.blocks(n, buf, indent)
	}
}

func (r *renderer) list(n *ast.List, buf *bytes.Buffer, indent string) {
	num := n.Start
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "• "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		continuation := indent + strings.Repeat(" ", len([]rune(marker)))

		first := true
		for ic := c.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				lead := continuation
				if first {
					lead = indent + marker
				}
				r.wrap(buf, lead, continuation, r.inlines(in))
			default:
				if first {
					buf.WriteString(indent + marker + "\n")
				}
				r.block(ic, buf, continuation)
			}
			first = false
		}
	}
}

// wrap writes content word-wrapped to the remaining width. The first line is
// prefixed with lead and the rest with continuation.
func (r *renderer) wrap(buf *bytes.Buffer, lead, continuation, content string) {
	width := r.width - lipgloss.Width(lead)
	if width < 10 {
		width = 10
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(content)
	for i, line := range strings.Split(wrapped, "\n") {
		prefix := continuation
		if i == 0 {
			prefix = lead
		}
		buf.WriteString(prefix + strings.TrimRight(line, " ") + "\n")
	}
}

func (r *renderer) inlines(node ast.Node) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(c, &buf)
	}
	return buf.String()
}

func (r *renderer) inline(node ast.Node, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(r.source))
		switch {
		case n.HardLineBreak():
			buf.WriteByte('\n')
		case n.SoftLineBreak():
			buf.WriteByte(' ')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		if n.Level == 1 {
			buf.WriteString(r.styles.Italic.Render(r.inlines(n)))
		} else {
			buf.WriteString(r.styles.Bold.Render(r.inlines(n)))
		}

	case *ast.CodeSpan:
		buf.WriteString(r.styles.Code.Render(r.inlines(n)))

	case *ast.Link:
		buf.WriteString(r.styles.Link.Render(r.inlines(n)))
		buf.WriteString(" " + r.styles.Muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		buf.WriteString(r.styles.Link.Render(string(n.URL(r.source))))

	case *ast.Image:
		buf.WriteString(r.styles.Muted.Render("[image: " + r.inlines(n) + "]"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(r.source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.inline(c, buf)
		}
	}
}
