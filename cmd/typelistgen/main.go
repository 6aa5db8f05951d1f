// Command typelistgen evaluates typelist manifests and writes the generated Go
// code. It is meant to run from go:generate:
//
//	//go:generate go run github.com/orizon-lang/typelist/cmd/typelistgen -manifest typelist.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/orizon-lang/typelist/internal/cli"
	"github.com/orizon-lang/typelist/internal/generator"
	"github.com/orizon-lang/typelist/internal/manifest"
	"github.com/orizon-lang/typelist/internal/watch"
)

const (
	toolName        = "typelistgen"
	defaultManifest = "typelist.yaml"
	usage           = "Usage: typelistgen [-manifest <files,comma-separated>] [-check] [-watch] [-json] [-goarch <arch>] [-tags <build-tags>] [-config <file>] [-save-config] [-v] [-debug] [-version] [manifest...]"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		manifests  string
		configPath string
		goarch     string
		buildTags  string
		maxErrors  int
		check      bool
		watchMode  bool
		jsonOut    bool
		verbose    bool
		debug      bool
		version    bool
		saveConfig bool
	)
	flags := flag.NewFlagSet(toolName, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprintln(stderr, usage) }
	flags.StringVar(&manifests, "manifest", "", "manifest files (comma-separated)")
	flags.StringVar(&configPath, "config", cli.DefaultConfigFile, "tool configuration file")
	flags.StringVar(&goarch, "goarch", "", "size model for Go types (default: manifest goarch, then runtime)")
	flags.StringVar(&buildTags, "tags", "", "build tags for loading Go packages (comma-separated)")
	flags.IntVar(&maxErrors, "max-errors", 0, "stop reporting after this many errors per manifest (0: unlimited)")
	flags.BoolVar(&check, "check", false, "fail if generated files are out of date instead of writing them")
	flags.BoolVar(&watchMode, "watch", false, "regenerate whenever a manifest or source changes")
	flags.BoolVar(&jsonOut, "json", false, "print reports as JSON")
	flags.BoolVar(&verbose, "v", false, "verbose output")
	flags.BoolVar(&debug, "debug", false, "debug output")
	flags.BoolVar(&version, "version", false, "print version and exit")
	flags.BoolVar(&saveConfig, "save-config", false, "write the effective settings to the -config file and exit")
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if version {
		cli.PrintVersion(stdout, toolName, jsonOut)
		return 0
	}

	cfg, err := cli.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error: "+err.Error())
		return 2
	}
	delay, _ := cfg.Delay()

	paths := cli.SplitList(manifests)
	paths = append(paths, flags.Args()...)

	if saveConfig {
		if configPath == "" {
			fmt.Fprintln(stderr, "Error: -save-config needs a -config file")
			return 2
		}
		cfg.Verbose = cfg.Verbose || verbose
		cfg.Debug = cfg.Debug || debug
		if len(paths) > 0 {
			cfg.Manifests = paths
		}
		cfg.GOARCH = firstNonEmpty(goarch, cfg.GOARCH)
		if tags := cli.SplitList(buildTags); len(tags) > 0 {
			cfg.BuildTags = tags
		}
		if maxErrors > 0 {
			cfg.MaxErrors = maxErrors
		}
		if err := cfg.SaveConfig(configPath); err != nil {
			fmt.Fprintln(stderr, "Error: "+err.Error())
			return 1
		}
		fmt.Fprintln(stdout, "wrote "+configPath)
		return 0
	}

	if len(paths) == 0 {
		paths = cfg.Manifests
	}
	if len(paths) == 0 {
		if _, err := os.Stat(defaultManifest); err == nil {
			paths = []string{defaultManifest}
		}
	}
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "Error: no manifest given and no "+defaultManifest+" in the working directory")
		fmt.Fprintln(stderr, usage)
		return 2
	}
	if check && watchMode {
		fmt.Fprintln(stderr, "Error: -check and -watch cannot be combined")
		return 2
	}

	logger := cli.NewLogger(stderr, verbose || cfg.Verbose, debug || cfg.Debug)
	opts := generator.Options{
		Check:     check,
		GOARCH:    firstNonEmpty(goarch, cfg.GOARCH),
		BuildTags: cfg.BuildTags,
		MaxErrors: cfg.MaxErrors,
		Logger:    logger.Zerolog(),
	}
	if tags := cli.SplitList(buildTags); len(tags) > 0 {
		opts.BuildTags = tags
	}
	if maxErrors > 0 {
		opts.MaxErrors = maxErrors
	}

	code := generate(ctx, paths, opts, jsonOut, stdout, stderr, logger)
	if !watchMode {
		return code
	}

	files, dirs, outputs := watchSet(paths, logger)
	logger.Info("watching %d manifest(s), %d source dir(s)", len(files), len(dirs))
	err = watch.Run(ctx, files, dirs, watch.Options{
		Delay:  delay,
		Ignore: func(p string) bool { return outputs[p] },
		Logger: logger.Zerolog(),
	}, func(changed []string) {
		logger.Info("change detected: %s", strings.Join(changed, ", "))
		generate(ctx, paths, opts, jsonOut, stdout, stderr, logger)
	})
	if err != nil {
		logger.Error("watch: %v", err)
		return 1
	}
	return 0
}

// generate runs every manifest once and reports the outcome. It returns the
// process exit code.
func generate(ctx context.Context, paths []string, opts generator.Options, jsonOut bool, stdout, stderr io.Writer, logger *cli.Logger) int {
	reports, err := generator.GenerateAll(ctx, paths, opts)
	if jsonOut {
		if jerr := generator.WriteJSON(stdout, reports); jerr != nil {
			logger.Error("encoding report: %v", jerr)
			return 1
		}
	}
	if err != nil {
		if !jsonOut {
			for _, r := range reports {
				if r != nil && r.Diff != "" {
					fmt.Fprint(stderr, r.Diff)
				}
			}
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	for _, r := range reports {
		switch {
		case r.Written:
			logger.Info("generated %s (%d lists, %d asserts)", r.Output, len(r.Lists), r.Asserts)
		case r.UpToDate:
			logger.Debug("%s is up to date", r.Output)
		}
	}
	return 0
}

// watchSet collects the manifests, the source directories they name, and
// their outputs, which must not retrigger generation.
func watchSet(paths []string, logger *cli.Logger) (files, dirs []string, outputs map[string]bool) {
	outputs = make(map[string]bool)
	seen := make(map[string]bool)
	for _, p := range paths {
		files = append(files, p)
		m, err := manifest.Load(p)
		if err != nil {
			// Watch it anyway; fixing it triggers a rerun.
			continue
		}
		if out, err := filepath.Abs(m.OutputPath()); err == nil {
			outputs[out] = true
		}
		for _, src := range m.Sources {
			for _, d := range sourceDirs(m.Dir(), src) {
				if !seen[d] {
					seen[d] = true
					dirs = append(dirs, d)
				}
			}
		}
	}
	logger.Debug("watch set: %d files, %d dirs", len(files), len(dirs))
	return files, dirs, outputs
}

// sourceDirs expands a package pattern relative to base. A trailing /...
// includes every subdirectory except hidden, testdata and vendor trees.
func sourceDirs(base, pattern string) []string {
	root, recursive := strings.CutSuffix(filepath.ToSlash(pattern), "/...")
	if pattern == "..." {
		root, recursive = ".", true
	}
	root = filepath.Join(base, filepath.FromSlash(root))
	if !recursive {
		return []string{root}
	}
	var dirs []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor") {
			return filepath.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	return dirs
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
