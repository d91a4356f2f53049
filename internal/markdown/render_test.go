package markdown_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/raphaelgruber/kbchat/internal/markdown"
	"github.com/stretchr/testify/assert"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func plain(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender(t *testing.T) {
	styles := markdown.DefaultStyles()

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", markdown.Render("  \n", 80, styles))
	})

	t.Run("paragraph", func(t *testing.T) {
		assert.Equal(t, "X is Y.", plain(markdown.Render("X is Y.", 80, styles)))
	})

	t.Run("heading is styled", func(t *testing.T) {
		heading := markdown.Render("# Summary", 80, styles)
		assert.Equal(t, "Summary", plain(heading))
		assert.NotEqual(t, heading, markdown.Render("Summary", 80, styles))
	})

	t.Run("emphasis keeps text", func(t *testing.T) {
		out := plain(markdown.Render("some **bold** and *italic* and `code`", 80, styles))
		assert.Equal(t, "some bold and italic and code", out)
	})

	t.Run("paragraphs are separated", func(t *testing.T) {
		out := plain(markdown.Render("one\n\ntwo", 80, styles))
		assert.Equal(t, "one\n\ntwo", out)
	})

	t.Run("wraps to width", func(t *testing.T) {
		out := plain(markdown.Render(strings.Repeat("word ", 30), 20, styles))
		for _, line := range strings.Split(out, "\n") {
			assert.LessOrEqual(t, len(line), 20)
		}
		assert.Greater(t, strings.Count(out, "\n"), 3)
	})

	t.Run("unordered list", func(t *testing.T) {
		out := plain(markdown.Render("- first\n- second", 80, styles))
		assert.Equal(t, "• first\n• second", out)
	})

	t.Run("ordered list keeps start", func(t *testing.T) {
		out := plain(markdown.Render("3. three\n4. four", 80, styles))
		assert.Equal(t, "3. three\n4. four", out)
	})

	t.Run("nested list is indented", func(t *testing.T) {
		out := plain(markdown.Render("- parent\n  - child", 80, styles))
		assert.Contains(t, out, "• parent\n  • child")
	})

	t.Run("code block keeps lines", func(t *testing.T) {
		out := plain(markdown.Render("```go\nfmt.Println(1)\nreturn\n```", 80, styles))
		assert.Equal(t, "go\n│ fmt.Println(1)\n│ return", out)
	})

	t.Run("link shows destination", func(t *testing.T) {
		out := plain(markdown.Render("[docs](https://example.com)", 80, styles))
		assert.Equal(t, "docs (https://example.com)", out)
	})

	t.Run("blockquote", func(t *testing.T) {
		out := plain(markdown.Render("> quoted", 80, styles))
		assert.Equal(t, "▌ quoted", out)
	})

	t.Run("non-positive width uses default", func(t *testing.T) {
		assert.Equal(t, "hi", plain(markdown.Render("hi", 0, styles)))
	})
}
