// Diagnostic reporting for typelist manifests.
// Every ill-formed expression, failed assertion or invalid manifest entry is
// reported as a Diagnostic pinned to the span that caused it.

package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	tlerrors "github.com/orizon-lang/typelist/internal/errors"
	"github.com/orizon-lang/typelist/internal/position"
)

// DiagnosticLevel represents the severity level of a diagnostic message.
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
	DiagnosticInfo
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code     string
	Title    string
	Message  string
	Source   string
	Span     position.Span
	Level    DiagnosticLevel
	Category tlerrors.ErrorCategory
	Cause    error
}

// Error implements error so a diagnostic can travel through error returns.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s[%s]: %s: %s", d.Span.Start.String(), d.Level, d.Code, d.Title, d.Message)
}

// Unwrap exposes the contract error behind the diagnostic.
func (d *Diagnostic) Unwrap() error { return d.Cause }

// DiagnosticBuilder helps construct diagnostic messages with fluent API.
type DiagnosticBuilder struct {
	diagnostic *Diagnostic
}

// NewDiagnostic creates a new diagnostic builder.
func NewDiagnostic() *DiagnosticBuilder {
	return &DiagnosticBuilder{diagnostic: &Diagnostic{}}
}

func (db *DiagnosticBuilder) Error() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticError

	return db
}

func (db *DiagnosticBuilder) Warning() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticWarning

	return db
}

func (db *DiagnosticBuilder) Category(c tlerrors.ErrorCategory) *DiagnosticBuilder {
	db.diagnostic.Category = c
	db.diagnostic.Code = c.Code()

	return db
}

func (db *DiagnosticBuilder) Title(title string) *DiagnosticBuilder {
	db.diagnostic.Title = title

	return db
}

func (db *DiagnosticBuilder) Message(message string) *DiagnosticBuilder {
	db.diagnostic.Message = message

	return db
}

func (db *DiagnosticBuilder) Span(span position.Span) *DiagnosticBuilder {
	db.diagnostic.Span = span

	return db
}

func (db *DiagnosticBuilder) Source(text string) *DiagnosticBuilder {
	db.diagnostic.Source = text

	return db
}

func (db *DiagnosticBuilder) Cause(err error) *DiagnosticBuilder {
	db.diagnostic.Cause = err

	return db
}

func (db *DiagnosticBuilder) Build() *Diagnostic {
	return db.diagnostic
}

// FromError converts a contract error raised while evaluating the operation
// at span into an error diagnostic.
func FromError(err error, span position.Span, source string) *Diagnostic {
	if d, ok := err.(*Diagnostic); ok {
		return d
	}
	category, ok := tlerrors.CategoryOf(err)
	if !ok {
		category = tlerrors.CategorySystem
	}
	return NewDiagnostic().
		Error().
		Category(category).
		Title(titles[category]).
		Message(err.Error()).
		Span(span).
		Source(source).
		Cause(err).
		Build()
}

var titles = map[tlerrors.ErrorCategory]string{
	tlerrors.CategoryOutOfRange:    "Index out of range",
	tlerrors.CategoryEmptyOperand:  "Empty operand",
	tlerrors.CategoryArityMismatch: "Arity mismatch",
	tlerrors.CategoryShapeMismatch: "Shape mismatch",
	tlerrors.CategoryLengthLimit:   "List too long",
	tlerrors.CategoryValidation:    "Invalid manifest",
	tlerrors.CategorySystem:        "Internal error",
}

// DiagnosticEngine collects the diagnostics of one generation run.
type DiagnosticEngine struct {
	diagnostics []Diagnostic
	maxErrors   int
}

// NewDiagnosticEngine creates a new diagnostic engine. maxErrors <= 0 means
// unlimited.
func NewDiagnosticEngine(maxErrors int) *DiagnosticEngine {
	return &DiagnosticEngine{maxErrors: maxErrors}
}

// AddDiagnostic adds a diagnostic to the engine.
func (de *DiagnosticEngine) AddDiagnostic(diagnostic *Diagnostic) {
	if de.maxErrors > 0 && len(de.GetErrors()) >= de.maxErrors {
		return
	}
	de.diagnostics = append(de.diagnostics, *diagnostic)
}

// GetDiagnostics returns all diagnostics.
func (de *DiagnosticEngine) GetDiagnostics() []Diagnostic {
	return de.diagnostics
}

// GetErrors returns only error-level diagnostics.
func (de *DiagnosticEngine) GetErrors() []Diagnostic {
	errors := make([]Diagnostic, 0)

	for _, diag := range de.diagnostics {
		if diag.Level == DiagnosticError {
			errors = append(errors, diag)
		}
	}

	return errors
}

// HasErrors returns true if there are any errors.
func (de *DiagnosticEngine) HasErrors() bool {
	return len(de.GetErrors()) > 0
}

// Err returns the first error diagnostic, or nil.
func (de *DiagnosticEngine) Err() error {
	for i := range de.diagnostics {
		if de.diagnostics[i].Level == DiagnosticError {
			return &de.diagnostics[i]
		}
	}
	return nil
}

// SortDiagnostics sorts diagnostics by position and severity.
func (de *DiagnosticEngine) SortDiagnostics() {
	sort.SliceStable(de.diagnostics, func(i, j int) bool {
		a, b := de.diagnostics[i], de.diagnostics[j]

		if a.Span.Start.Before(b.Span.Start) {
			return true
		}

		if b.Span.Start.Before(a.Span.Start) {
			return false
		}

		return a.Level < b.Level
	})
}

// FormatDiagnostics returns a formatted string representation of all diagnostics.
func (de *DiagnosticEngine) FormatDiagnostics() string {
	if len(de.diagnostics) == 0 {
		return ""
	}

	de.SortDiagnostics()

	var result strings.Builder

	for i := range de.diagnostics {
		if i > 0 {
			result.WriteString("\n")
		}

		result.WriteString(Format(&de.diagnostics[i]))
	}

	result.WriteString(fmt.Sprintf("\n%d error(s)\n", len(de.GetErrors())))

	return result.String()
}

// Format renders one diagnostic with its expression excerpt.
func Format(diag *Diagnostic) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("%s: %s[%s]: %s\n",
		diag.Span.Start.String(),
		diag.Level.String(),
		diag.Code,
		diag.Title,
	))

	if diag.Message != "" {
		result.WriteString(fmt.Sprintf("  %s\n", diag.Message))
	}

	if diag.Source != "" {
		result.WriteString(position.Excerpt(diag.Source, diag.Span, "  "))
	}

	return result.String()
}
