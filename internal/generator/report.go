package generator

import (
	"io"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/orizon-lang/typelist/internal/diagnostic"
	"github.com/orizon-lang/typelist/internal/expr"
)

// Report summarises one manifest run.
type Report struct {
	Manifest string        `json:"manifest"`
	Package  string        `json:"package,omitempty"`
	Output   string        `json:"output,omitempty"`
	Lists    []ListReport  `json:"lists,omitempty"`
	Asserts  int           `json:"asserts"`
	UpToDate bool          `json:"up_to_date"`
	Written  bool          `json:"written"`
	Problems []Problem     `json:"problems,omitempty"`
	// Diff is set in check mode when the output is stale.
	Diff     string        `json:"diff,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// ListReport describes one frozen result.
type ListReport struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Size  int    `json:"size,omitempty"`
	Value string `json:"value"`
}

// Problem is a diagnostic flattened for JSON output.
type Problem struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Level    string `json:"level"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Position string `json:"position"`
}

func listReport(name string, v expr.Value) ListReport {
	lr := ListReport{Name: name, Kind: v.Kind.String(), Value: v.String()}
	if v.Kind == expr.KindList {
		lr.Size = v.List.Size()
	}
	return lr
}

func (r *Report) addProblems(de *diagnostic.DiagnosticEngine) {
	de.SortDiagnostics()
	r.Problems = r.Problems[:0]
	for _, d := range de.GetDiagnostics() {
		r.Problems = append(r.Problems, Problem{
			Code:     d.Code,
			Category: string(d.Category),
			Level:    d.Level.String(),
			Title:    d.Title,
			Message:  d.Message,
			Position: d.Span.Start.String(),
		})
	}
}

// WriteJSON encodes reports as an indented JSON array.
func WriteJSON(w io.Writer, reports []*Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
