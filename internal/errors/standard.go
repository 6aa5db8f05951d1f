// Package errors provides standardized contract errors for typelist
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryOutOfRange    ErrorCategory = "OUT_OF_RANGE"
	CategoryEmptyOperand  ErrorCategory = "EMPTY_OPERAND"
	CategoryArityMismatch ErrorCategory = "ARITY_MISMATCH"
	CategoryShapeMismatch ErrorCategory = "SHAPE_MISMATCH"
	CategoryLengthLimit   ErrorCategory = "LENGTH_LIMIT"
	CategoryValidation    ErrorCategory = "VALIDATION"
	CategorySystem        ErrorCategory = "SYSTEM"
)

// Categories lists every category in diagnostic code order.
var Categories = []ErrorCategory{
	CategoryOutOfRange,
	CategoryEmptyOperand,
	CategoryArityMismatch,
	CategoryShapeMismatch,
	CategoryLengthLimit,
	CategoryValidation,
	CategorySystem,
}

// Code returns the stable diagnostic code of the category (TL0001...).
func (c ErrorCategory) Code() string {
	for i, cat := range Categories {
		if cat == c {
			return fmt.Sprintf("TL%04d", i+1)
		}
	}
	return "TL0000"
}

// ParseCategory accepts either the upper snake form (OUT_OF_RANGE) or the
// camel form used in manifests (OutOfRange).
func ParseCategory(s string) (ErrorCategory, bool) {
	for _, cat := range Categories {
		if string(cat) == s || cat.CamelName() == s {
			return cat, true
		}
	}
	return "", false
}

// CamelName returns the category as OutOfRange, EmptyOperand, ...
func (c ErrorCategory) CamelName() string {
	out := make([]byte, 0, len(c))
	upper := true
	for i := 0; i < len(c); i++ {
		ch := c[i]
		if ch == '_' {
			upper = true
			continue
		}
		if !upper && ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		upper = false
		out = append(out, ch)
	}
	return string(out)
}

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// newStandardError creates a standardized error, recording the function
// depth frames above it as Caller.
func newStandardError(depth int, category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(depth)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// CategoryOf returns the category of the first StandardError in err's chain.
func CategoryOf(err error) (ErrorCategory, bool) {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Category, true
	}
	return "", false
}

// Is reports whether err carries the given category.
func Is(err error, category ErrorCategory) bool {
	c, ok := CategoryOf(err)
	return ok && c == category
}

// Common error constructors
func OutOfRange(op string, index, size int) *StandardError {
	return newStandardError(2, CategoryOutOfRange, "INDEX_OUT_OF_RANGE",
		fmt.Sprintf("%s: index %d out of range for size %d", op, index, size),
		map[string]interface{}{"operation": op, "index": index, "size": size})
}

func EmptyOperand(op string) *StandardError {
	return newStandardError(2, CategoryEmptyOperand, "EMPTY_OPERAND",
		fmt.Sprintf("%s: operand is empty", op),
		map[string]interface{}{"operation": op})
}

func ArityMismatch(op, detail string) *StandardError {
	return newStandardError(2, CategoryArityMismatch, "ARITY_MISMATCH",
		fmt.Sprintf("%s: %s", op, detail),
		map[string]interface{}{"operation": op})
}

func ShapeMismatch(op, want, got string) *StandardError {
	return newStandardError(2, CategoryShapeMismatch, "SHAPE_MISMATCH",
		fmt.Sprintf("%s: expected %s, got %s", op, want, got),
		map[string]interface{}{"operation": op, "want": want, "got": got})
}

func LengthLimit(op string, size, max int) *StandardError {
	return newStandardError(2, CategoryLengthLimit, "LENGTH_LIMIT",
		fmt.Sprintf("%s: result size %d exceeds the supported maximum %d", op, size, max),
		map[string]interface{}{"operation": op, "size": size, "max": max})
}

func Validation(code, message string) *StandardError {
	return newStandardError(2, CategoryValidation, code, message, nil)
}

func System(code, message string) *StandardError {
	return newStandardError(2, CategorySystem, code, message, nil)
}
