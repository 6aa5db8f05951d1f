package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name           string
		verbose, debug bool
		want, hidden   []string
	}{
		{"quiet", false, false, []string{"careful"}, []string{"hello", "details"}},
		{"verbose", true, false, []string{"hello", "careful"}, []string{"details"}},
		{"debug", false, true, []string{"hello", "details", "careful"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(&buf, tt.verbose, tt.debug)
			l.Info("hello %d", 1)
			l.Debug("details")
			l.Warn("careful")
			out := buf.String()
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.hidden {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Manifests)

	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`verbose: true
manifests: [a/typelist.yaml, b/typelist.yaml]
goarch: arm64
build_tags: [integration]
watch_delay: 500ms
`), 0o644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, []string{"a/typelist.yaml", "b/typelist.yaml"}, cfg.Manifests)
	assert.Equal(t, "arm64", cfg.GOARCH)
	d, err := cfg.Delay()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	out := filepath.Join(dir, "saved.yaml")
	require.NoError(t, cfg.SaveConfig(out))
	again, err := LoadConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	require.NoError(t, os.WriteFile(path, []byte("watch_delay: soon\n"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, SplitList(" a.yaml, ,b.yaml,"))
	assert.Nil(t, SplitList(""))
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "typelistgen", false)
	assert.True(t, strings.HasPrefix(buf.String(), "typelistgen v"+Version+"\n"))

	buf.Reset()
	PrintVersion(&buf, "typelistgen", true)
	assert.Contains(t, buf.String(), `"build_date": "`+BuildDate+`"`)
}
