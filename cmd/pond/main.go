// Command pond is the command line interface to a pond artifact store.
//
// Usage:
//
//	pond write --name metrics --file metrics.json     # store a new version
//	pond read --name metrics                          # print the latest version
//	pond versions --name metrics                      # list version names
//	pond lineage --name metrics --version v2          # show provenance
//	pond export --name metrics --dest backup.yaml     # copy to another store
//	pond version                                      # show build info
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/datrocity/pond"
	"github.com/datrocity/pond/artifact"
	"github.com/datrocity/pond/config"
	"github.com/datrocity/pond/internal/telemetry"
	"github.com/datrocity/pond/metadata"
)

// Injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "write":
		runWrite(os.Args[2:])
	case "read":
		runRead(os.Args[2:])
	case "versions":
		runVersions(os.Args[2:])
	case "lineage":
		runLineage(os.Args[2:])
	case "export":
		runExport(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// env assembles the shared pieces every subcommand needs: config, logger,
// datastore and the Activity bound to them.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	activity *pond.Activity
	shutdown func(context.Context)
}

func setup(configPath string) (*env, error) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.BuildLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("telemetry init failed", zap.Error(err))
	}

	store, err := config.BuildDatastore(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("build datastore: %w", err)
	}

	activity := pond.NewActivity(cfg.Activity.Source, cfg.Activity.Location, store,
		pond.WithAuthor(cfg.Activity.Author),
		pond.WithLogger(logger),
	)

	return &env{
		cfg:      cfg,
		logger:   logger,
		activity: activity,
		shutdown: func(ctx context.Context) {
			if err := store.Close(); err != nil {
				logger.Warn("close datastore", zap.Error(err))
			}
			if err := providers.Shutdown(ctx); err != nil {
				logger.Warn("shutdown telemetry", zap.Error(err))
			}
			logger.Sync()
		},
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// metaFlags collects repeated --meta key=value flags.
type metaFlags map[string]any

func (m metaFlags) String() string { return fmt.Sprintf("%v", map[string]any(m)) }

func (m metaFlags) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	m[key] = val
	return nil
}

func runWrite(args []string) {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	name := fs.String("name", "", "Artifact name")
	file := fs.String("file", "", "Input file to store")
	formatName := fs.String("format", "", "Artifact format (json, csv, raw); default from file extension")
	mode := fs.String("mode", "", "Write mode (error-if-exists, write-on-change, overwrite)")
	version := fs.String("version", "", "Explicit version name, e.g. v3")
	location := fs.String("location", "", "Override the configured location")
	meta := metaFlags{}
	fs.Var(meta, "meta", "User metadata as key=value (repeatable)")
	fs.Parse(args)

	if *name == "" || *file == "" {
		fatal("write: --name and --file are required")
	}

	e, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	ctx, cancel := signalContext()
	defer cancel()
	defer e.shutdown(ctx)

	payload, err := os.ReadFile(*file)
	if err != nil {
		fatal("read input file: %v", err)
	}

	fname := *formatName
	if fname == "" {
		fname = formatFromExtension(*file)
	}
	format, err := artifact.DefaultRegistry().ForName(fname)
	if err != nil {
		fatal("unknown format %q", fname)
	}
	data, _, err := format.Deserialize(payload)
	if err != nil {
		fatal("parse %s as %s: %v", *file, fname, err)
	}

	writeMode, err := pond.ParseWriteMode(*mode)
	if err != nil {
		fatal("%v", err)
	}
	opts := []pond.Option{
		pond.WithFormat(format),
		pond.WithWriteMode(writeMode),
	}
	if *version != "" {
		opts = append(opts, pond.WithVersion(*version))
	}
	if *location != "" {
		opts = append(opts, pond.WithLocation(*location))
	}
	if len(meta) > 0 {
		opts = append(opts, pond.WithMetadata(meta))
	}

	v, err := e.activity.Write(ctx, *name, data, opts...)
	if err != nil {
		fatal("write: %v", err)
	}
	fmt.Println(v.URI)
}

func runRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	name := fs.String("name", "", "Artifact name")
	version := fs.String("version", "", "Version to read; default latest")
	location := fs.String("location", "", "Override the configured location")
	output := fs.String("output", "", "Output file; default stdout")
	fs.Parse(args)

	if *name == "" {
		fatal("read: --name is required")
	}

	e, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	ctx, cancel := signalContext()
	defer cancel()
	defer e.shutdown(ctx)

	opts := readOpts(*version, *location)
	v, err := e.activity.Read(ctx, *name, opts...)
	if err != nil {
		fatal("read: %v", err)
	}

	format, err := artifact.DefaultRegistry().ForName(
		v.Manifest.SectionString(metadata.SectionVersion, "format"))
	if err != nil {
		fatal("%v", err)
	}
	payload, err := format.Serialize(v.Data, nil)
	if err != nil {
		fatal("serialize: %v", err)
	}

	if *output == "" {
		os.Stdout.Write(payload)
		return
	}
	if err := os.WriteFile(*output, payload, 0o644); err != nil {
		fatal("write output: %v", err)
	}
	fmt.Fprintf(os.Stderr, "%s -> %s\n", v.URI, *output)
}

func runVersions(args []string) {
	fs := flag.NewFlagSet("versions", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	name := fs.String("name", "", "Artifact name")
	location := fs.String("location", "", "Override the configured location")
	fs.Parse(args)

	if *name == "" {
		fatal("versions: --name is required")
	}

	e, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	ctx, cancel := signalContext()
	defer cancel()
	defer e.shutdown(ctx)

	names, err := e.activity.Versions(ctx, *name, readOpts("", *location)...)
	if err != nil {
		fatal("versions: %v", err)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func runLineage(args []string) {
	fs := flag.NewFlagSet("lineage", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	name := fs.String("name", "", "Artifact name")
	version := fs.String("version", "", "Version to inspect; default latest")
	location := fs.String("location", "", "Override the configured location")
	fs.Parse(args)

	if *name == "" {
		fatal("lineage: --name is required")
	}

	e, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	ctx, cancel := signalContext()
	defer cancel()
	defer e.shutdown(ctx)

	m, err := e.activity.ReadManifest(ctx, *name, readOpts(*version, *location)...)
	if err != nil {
		fatal("lineage: %v", err)
	}
	section, ok := m.Section(metadata.SectionLineage)
	if !ok {
		fatal("version has no lineage section")
	}
	lin, err := metadata.LineageFromSection(section)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("source:    %s\n", lin.Source)
	fmt.Printf("author:    %s\n", lin.Author)
	fmt.Printf("timestamp: %s\n", lin.Timestamp)
	if lin.Commit != "" {
		fmt.Printf("commit:    %s\n", lin.Commit)
	}
	for _, in := range lin.Inputs {
		fmt.Printf("input:     %s\n", in)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	name := fs.String("name", "", "Artifact name")
	destPath := fs.String("dest", "", "Config file describing the destination datastore")
	location := fs.String("location", "", "Override the configured location")
	fs.Parse(args)

	if *name == "" || *destPath == "" {
		fatal("export: --name and --dest are required")
	}

	e, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	ctx, cancel := signalContext()
	defer cancel()
	defer e.shutdown(ctx)

	destCfg, err := config.NewLoader().WithConfigPath(*destPath).Load()
	if err != nil {
		fatal("load destination config: %v", err)
	}
	dest, err := config.BuildDatastore(destCfg, e.logger, prometheus.NewRegistry())
	if err != nil {
		fatal("build destination datastore: %v", err)
	}
	defer dest.Close()

	copied, err := e.activity.Export(ctx, *name, dest, readOpts("", *location)...)
	if err != nil {
		fatal("export: %v", err)
	}
	fmt.Printf("copied %d version(s) of %s to %s\n", copied, *name, dest.ID())
}

func readOpts(version, location string) []pond.Option {
	var opts []pond.Option
	if version != "" {
		opts = append(opts, pond.WithVersion(version))
	}
	if location != "" {
		opts = append(opts, pond.WithLocation(location))
	}
	return opts
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	default:
		return "raw"
	}
}

func printVersion() {
	fmt.Printf("pond %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`pond - versioned research artifact store

Usage:
  pond <command> [options]

Commands:
  write     Store a file as a new artifact version
  read      Print an artifact version
  versions  List the versions of an artifact
  lineage   Show the provenance of a version
  export    Copy every version of an artifact to another datastore
  version   Show version information
  help      Show this help message

Common options:
  --config <path>     Path to configuration file (YAML)
  --name <artifact>   Artifact name
  --location <loc>    Override the configured location

Examples:
  pond write --name metrics --file metrics.json --meta experiment=exp-42
  pond write --name metrics --file metrics.json --mode write-on-change
  pond read --name metrics --version v2 --output metrics.json
  pond lineage --name metrics
  pond export --name metrics --dest backup.yaml`)
}
