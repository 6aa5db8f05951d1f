package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
)

// Version information for typelistgen
const (
	Version   = "0.3.0"
	BuildDate = "2026-10-19"
)

// CommitSHA is set during build with -ldflags.
var CommitSHA = "unknown"

// VersionInfo contains version and build information
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	CommitSHA string `json:"commit_sha"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns structured version information
func GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion prints version information in a consistent format
func PrintVersion(w io.Writer, toolName string, jsonOutput bool) {
	info := GetVersionInfo()

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":         toolName,
			"version_info": info,
		}, "", "  ")
		if err == nil {
			fmt.Fprintln(w, string(data))
			return
		}
		fmt.Fprintf(os.Stderr, "Error: Failed to marshal version info to JSON: %v\n", err)
	}

	fmt.Fprintf(w, "%s v%s\n", toolName, info.Version)
	fmt.Fprintf(w, "Build Date: %s\n", info.BuildDate)
	if info.CommitSHA != "unknown" && info.CommitSHA != "" {
		fmt.Fprintf(w, "Commit: %s\n", info.CommitSHA)
	}
	fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform: %s/%s\n", info.Platform, info.Arch)
}

// Logger provides leveled logging for CLI tools on top of zerolog.
type Logger struct {
	Verbose   bool
	DebugMode bool

	zl zerolog.Logger
}

// NewLogger creates a logger writing human-readable lines to w.
func NewLogger(w io.Writer, verbose, debug bool) *Logger {
	level := zerolog.WarnLevel
	switch {
	case debug:
		level = zerolog.DebugLevel
	case verbose:
		level = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}
	return &Logger{
		Verbose:   verbose,
		DebugMode: debug,
		zl:        zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

// Zerolog exposes the underlying logger for packages that log structured fields.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// Config is the optional tool configuration file. Flags override it.
type Config struct {
	Verbose    bool     `yaml:"verbose"`
	Debug      bool     `yaml:"debug"`
	Manifests  []string `yaml:"manifests"`
	GOARCH     string   `yaml:"goarch"`
	BuildTags  []string `yaml:"build_tags"`
	MaxErrors  int      `yaml:"max_errors"`
	WatchDelay string   `yaml:"watch_delay"`
}

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = ".typelistgen.yaml"

// LoadConfig loads configuration from file. A missing file yields defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if _, err := config.Delay(); err != nil {
		return nil, err
	}

	return config, nil
}

// Delay parses WatchDelay; zero means the watcher default.
func (c *Config) Delay() (time.Duration, error) {
	if c.WatchDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.WatchDelay)
	if err != nil {
		return 0, fmt.Errorf("watch_delay %q: %w", c.WatchDelay, err)
	}
	return d, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SplitList splits a comma-separated flag value, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
