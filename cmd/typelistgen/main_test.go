package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestYAML = `version: "1.0"
package: shapes
tags:
  w1: {width: 1}
  w2: {width: 2}
lists:
  - name: Pair
    expr: "sort(list(w2, w1), width_le)"
asserts:
  - expr: "front(Pair) == w1"
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func runTool(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunGenerates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typelist.yaml")
	writeFile(t, path, manifestYAML)

	code, _, stderr := runTool("-config", "", "-manifest", path)
	require.Equal(t, 0, code, stderr)

	src, err := os.ReadFile(filepath.Join(dir, "typelist_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "type Pair struct {\n\t_ [0]w1\n\t_ [0]w2\n}")

	code, _, stderr = runTool("-config", "", "-check", path)
	assert.Equal(t, 0, code, stderr)
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typelist.yaml")
	writeFile(t, path, manifestYAML)

	code, stdout, _ := runTool("-config", "", "-json", path)
	require.Equal(t, 0, code)

	var reports []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "shapes", reports[0]["package"])
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, `version: "1.0"
package: shapes
lists:
  - {name: Oops, expr: "back(list())"}
`)
	stale := filepath.Join(t.TempDir(), "typelist.yaml")
	writeFile(t, stale, manifestYAML)

	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"contract violation", []string{"-manifest", bad}, 1, "Empty operand"},
		{"stale output", []string{"-check", stale}, 1, "out of date"},
		{"missing manifest", []string{filepath.Join(dir, "nope.yaml")}, 1, "reading manifest"},
		{"unknown flag", []string{"-frobnicate"}, 2, "Usage"},
		{"check and watch", []string{"-check", "-watch", bad}, 2, "cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runTool(append([]string{"-config", ""}, tt.args...)...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, tt.msg)
		})
	}
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runTool("-version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "typelistgen v")

	code, stdout, _ = runTool("-version", "-json")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, `"tool": "typelistgen"`)
}

func TestSourceDirs(t *testing.T) {
	base := t.TempDir()
	for _, d := range []string{"a/b", "testdata/x", ".git", "_examples/y", "c"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0o755))
	}

	got := sourceDirs(base, "./...")
	assert.ElementsMatch(t, []string{
		base,
		filepath.Join(base, "a"),
		filepath.Join(base, "a", "b"),
		filepath.Join(base, "c"),
	}, got)

	assert.Equal(t, []string{filepath.Join(base, "a")}, sourceDirs(base, "./a"))
}

func TestRunSaveConfig(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "typelist.yaml")
	writeFile(t, manifest, manifestYAML)
	cfgPath := filepath.Join(dir, ".typelistgen.yaml")

	code, stdout, stderr := runTool("-config", cfgPath, "-save-config", "-goarch", "arm64", "-tags", "a, b", manifest)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "wrote "+cfgPath)

	// The saved file alone now drives generation.
	code, _, stderr = runTool("-config", cfgPath)
	require.Equal(t, 0, code, stderr)
	_, err := os.Stat(filepath.Join(dir, "typelist_gen.go"))
	assert.NoError(t, err)

	code, _, _ = runTool("-config", "", "-save-config")
	assert.Equal(t, 2, code)
}
