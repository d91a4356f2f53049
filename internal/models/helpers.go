package models

import (
	"strings"

	"github.com/rivo/uniseg"
)

// TruncateGraphemes returns at most n user-perceived characters of s.
// Grapheme clusters are kept whole so emoji and combining marks are never split.
func TruncateGraphemes(s string, n int) string {
	if n <= 0 {
		return ""
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for count := 0; count < n && g.Next(); count++ {
		b.WriteString(g.Str())
	}
	return b.String()
}
