package position

import (
	"fmt"
	"strings"
)

// Highlight renders the expression text with the span underlined, e.g.
//
//	front(list())
//	^^^^^^^^^^^^^
func Highlight(text string, span Span) string {
	if !span.IsValid() {
		return text
	}
	start := clamp(span.Start.Offset, 0, len(text))
	end := clamp(span.End.Offset, start, len(text))

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n")
	for i := 0; i < start; i++ {
		if text[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	n := end - start
	if n < 1 {
		n = 1
	}
	b.WriteString(strings.Repeat("^", n))
	return b.String()
}

// Excerpt formats a position followed by the highlighted expression, each
// line indented for nesting under a diagnostic header.
func Excerpt(text string, span Span, indent string) string {
	lines := strings.Split(Highlight(text, span), "\n")
	var b strings.Builder
	fmt.Fprintf(&b, "%s--> %s\n", indent, span.Start.String())
	for _, l := range lines {
		b.WriteString(indent)
		b.WriteString("  | ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
