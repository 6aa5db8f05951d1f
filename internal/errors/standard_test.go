package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestCategoryCodes(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		code     string
		camel    string
	}{
		{CategoryOutOfRange, "TL0001", "OutOfRange"},
		{CategoryEmptyOperand, "TL0002", "EmptyOperand"},
		{CategoryArityMismatch, "TL0003", "ArityMismatch"},
		{CategoryShapeMismatch, "TL0004", "ShapeMismatch"},
		{CategoryLengthLimit, "TL0005", "LengthLimit"},
		{ErrorCategory("NOPE"), "TL0000", "Nope"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := tt.category.Code(); got != tt.code {
				t.Errorf("Code() = %v, want %v", got, tt.code)
			}
			if got := tt.category.CamelName(); got != tt.camel {
				t.Errorf("CamelName() = %v, want %v", got, tt.camel)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"EmptyOperand", "EMPTY_OPERAND"} {
		c, ok := ParseCategory(s)
		if !ok || c != CategoryEmptyOperand {
			t.Errorf("ParseCategory(%q) = %v, %v", s, c, ok)
		}
	}
	if _, ok := ParseCategory("Whatever"); ok {
		t.Error("unknown category should not parse")
	}
}

func TestCategoryOf(t *testing.T) {
	err := fmt.Errorf("evaluating: %w", OutOfRange("element", 4, 2))
	c, ok := CategoryOf(err)
	if !ok || c != CategoryOutOfRange {
		t.Errorf("CategoryOf() = %v, %v", c, ok)
	}
	if !Is(err, CategoryOutOfRange) || Is(err, CategoryEmptyOperand) {
		t.Error("Is() disagrees with CategoryOf()")
	}
	if _, ok := CategoryOf(fmt.Errorf("plain")); ok {
		t.Error("plain errors carry no category")
	}
}

func TestConstructors(t *testing.T) {
	e := OutOfRange("element", 4, 2)
	if !strings.Contains(e.Error(), "element: index 4 out of range for size 2") {
		t.Errorf("Error() = %q", e.Error())
	}
	if e.Context["index"] != 4 {
		t.Errorf("context = %v", e.Context)
	}
	if !strings.Contains(e.Caller, "TestConstructors") {
		t.Errorf("Caller = %q, want the calling test", e.Caller)
	}
	if s := System("LOAD_FAILED", "boom"); s.Category != CategorySystem || !strings.Contains(s.Caller, "TestConstructors") {
		t.Errorf("System() = %+v", s)
	}
	if ShapeMismatch("size", "list", "tag").Category != CategoryShapeMismatch {
		t.Error("ShapeMismatch category")
	}
	if LengthLimit("concat", 5000, 4096).Category != CategoryLengthLimit {
		t.Error("LengthLimit category")
	}
}
