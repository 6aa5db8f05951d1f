// Package position provides source position tracking for list expressions
// embedded in manifests. Every diagnostic points at a Span so a failed
// expression can be reported at the exact operation that was ill-formed.
package position

import (
	"fmt"
	"path/filepath"
)

// Position represents a single point in an expression
type Position struct {
	Filename string // Manifest file name
	Line     int    // 1-based line of the expression in the manifest
	Column   int    // 1-based column in the manifest line
	Offset   int    // 0-based byte offset inside the expression text
}

// IsValid returns true if the position is valid
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// String returns a string representation of the position
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before returns true if this position comes before other
func (p Position) Before(other Position) bool {
	if p.Filename != other.Filename {
		return p.Filename < other.Filename
	}
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// Span represents a range of an expression between two positions
type Span struct {
	Start Position // Starting position (inclusive)
	End   Position // Ending position (exclusive)
}

// IsValid returns true if the span is valid
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() &&
		s.Start.Filename == s.End.Filename &&
		s.Start.Offset <= s.End.Offset
}

// Origin anchors the text of one expression inside its manifest.
type Origin struct {
	Filename string
	Line     int
	Column   int
}

// At converts a byte offset inside the expression into a Position.
// Expressions are single line, so only the column moves.
func (o Origin) At(offset int) Position {
	line, col := o.Line, o.Column
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	return Position{Filename: o.Filename, Line: line, Column: col + offset, Offset: offset}
}

// Span returns the span covering [start, end) of the expression.
func (o Origin) Span(start, end int) Span {
	return Span{Start: o.At(start), End: o.At(end)}
}
