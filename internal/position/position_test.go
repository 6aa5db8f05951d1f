package position

import (
	"strings"
	"testing"
)

func TestPosition(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		pos      Position
		isValid  bool
	}{
		{
			name: "Valid position with filename",
			pos: Position{
				Filename: "shapes/typelist.yaml",
				Line:     10,
				Column:   5,
				Offset:   3,
			},
			isValid:  true,
			expected: "typelist.yaml:10:5",
		},
		{
			name:     "Valid position without filename",
			pos:      Position{Line: 1, Column: 1, Offset: 0},
			isValid:  true,
			expected: "1:1",
		},
		{
			name:    "Invalid position - zero line",
			pos:     Position{Line: 0, Column: 1, Offset: 0},
			isValid: false,
		},
		{
			name:    "Invalid position - negative offset",
			pos:     Position{Line: 1, Column: 1, Offset: -1},
			isValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.IsValid(); got != tt.isValid {
				t.Errorf("Position.IsValid() = %v, want %v", got, tt.isValid)
			}

			if tt.isValid {
				if got := tt.pos.String(); got != tt.expected {
					t.Errorf("Position.String() = %v, want %v", got, tt.expected)
				}
			}
		})
	}
}

func TestPositionComparison(t *testing.T) {
	pos1 := Position{Filename: "a.yaml", Line: 3, Column: 5, Offset: 4}
	pos2 := Position{Filename: "a.yaml", Line: 3, Column: 10, Offset: 9}
	pos3 := Position{Filename: "a.yaml", Line: 7, Column: 1, Offset: 0}

	if !pos1.Before(pos2) {
		t.Error("pos1 should be before pos2")
	}
	if pos2.Before(pos1) {
		t.Error("pos2 should not be before pos1")
	}
	if !pos2.Before(pos3) {
		t.Error("later lines come after earlier ones regardless of offset")
	}
}

func TestOriginSpan(t *testing.T) {
	o := Origin{Filename: "m.yaml", Line: 4, Column: 11}
	span := o.Span(6, 12)

	if !span.IsValid() {
		t.Fatalf("span %v should be valid", span)
	}
	if got, want := span.Start.String(), "m.yaml:4:17"; got != want {
		t.Errorf("Start.String() = %v, want %v", got, want)
	}
	if got := span.End.Offset - span.Start.Offset; got != 6 {
		t.Errorf("span covers %d bytes, want 6", got)
	}

	zero := Origin{}.At(2)
	if zero.Line != 1 || zero.Column != 3 {
		t.Errorf("zero origin should default to 1:1, got %v", zero)
	}
}

func TestHighlight(t *testing.T) {
	o := Origin{Filename: "m.yaml", Line: 1, Column: 1}
	got := Highlight("front(list())", o.Span(6, 12))
	want := "front(list())\n      ^^^^^^"
	if got != want {
		t.Errorf("Highlight() =\n%s\nwant\n%s", got, want)
	}

	empty := Highlight("x", o.Span(1, 1))
	if !strings.HasSuffix(empty, " ^") {
		t.Errorf("empty span should still show one caret, got %q", empty)
	}

	ex := Excerpt("size(x)", o.Span(0, 4), "  ")
	if !strings.Contains(ex, "--> m.yaml:1:1") || !strings.Contains(ex, "  | ^^^^") {
		t.Errorf("unexpected excerpt:\n%s", ex)
	}
}
