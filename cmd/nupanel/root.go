package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/willibrandon/nupanel/cache"
	"github.com/willibrandon/nupanel/config"
	"github.com/willibrandon/nupanel/host"
	"github.com/willibrandon/nupanel/observability"
	"github.com/willibrandon/nupanel/panel"
	"github.com/willibrandon/nupanel/project"
	"github.com/willibrandon/nupanel/solution"
)

type rootOptions struct {
	searchMode    string
	logFile       string
	logLevel      string
	metricsAddr   string
	traceExporter string
	otlpEndpoint  string
	otlpInsecure  bool
	noHTTPCache   bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "nupanel [project]",
		Short: "Terminal NuGet package-manager panel",
		Long: `nupanel is an interactive terminal panel for managing the NuGet packages
of a .NET project: browse and search the configured feeds, inspect the
installed and transitive packages, and install, update, or remove
package references.

With no argument it looks for a single project file in the current
directory; pass a .csproj path or a directory to pick one explicitly.
A .sln, .slnx, or .slnf argument works when the solution holds exactly
one project.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return runPanel(target, opts)
		},
	}

	cmd.Flags().StringVar(&opts.searchMode, "search-mode", "quick",
		"search-as-you-type mode: quick (suggestions + search), full (search only), off (enter searches)")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "",
		"write structured logs to this file (the panel owns the terminal, so there is no console logging)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info",
		"minimum log level: verbose, debug, info, warn, error")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "",
		"expose Prometheus metrics and health checks on this address (e.g. localhost:9090)")
	cmd.Flags().StringVar(&opts.traceExporter, "trace-exporter", "none",
		"OpenTelemetry trace exporter: none or otlp")
	cmd.Flags().StringVar(&opts.otlpEndpoint, "otlp-endpoint", "localhost:4317",
		"OTLP collector endpoint for --trace-exporter=otlp")
	cmd.Flags().BoolVar(&opts.otlpInsecure, "otlp-insecure", false,
		"use plaintext gRPC for the OTLP connection")
	cmd.Flags().BoolVar(&opts.noHTTPCache, "no-http-cache", false,
		"disable the on-disk cache for registry metadata")

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func runPanel(target string, opts *rootOptions) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("nupanel is interactive and needs a terminal; stdout is not one")
	}

	mode, err := parseSearchMode(opts.searchMode)
	if err != nil {
		return err
	}

	projectPath, err := resolveProjectPath(target)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	tracerCfg := observability.DefaultTracerConfig()
	tracerCfg.ServiceVersion = version
	tracerCfg.ExporterType = opts.traceExporter
	tracerCfg.OTLPEndpoint = opts.otlpEndpoint
	tracerCfg.OTLPInsecure = opts.otlpInsecure
	if tracerCfg.ExporterType == "stdout" {
		// The stdout exporter would write straight into the panel.
		return fmt.Errorf("--trace-exporter=stdout would corrupt the panel; use otlp or none")
	}
	tp, err := observability.SetupTracing(context.Background(), tracerCfg)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = observability.ShutdownTracing(ctx, tp)
	}()

	sources := config.ResolveSources(filepath.Dir(projectPath))
	logger.Info("Starting panel for {ProjectPath} with {SourceCount} sources", projectPath, len(sources))

	var diskCache *cache.DiskCache
	if !opts.noHTTPCache {
		diskCache, err = openHTTPCache()
		if err != nil {
			warn("HTTP cache disabled: %v", err)
		}
	}

	h := host.New(host.Config{
		ProjectPath: projectPath,
		Sources:     sources,
		Logger:      logger,
		HTTPCache:   diskCache,
	})

	if opts.metricsAddr != "" {
		startMetricsServer(opts.metricsAddr, projectPath, sources, logger)
	}

	m := panel.New(panel.Config{
		Host:        h,
		ProjectPath: projectPath,
		SearchMode:  mode,
		Logger:      logger,
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	return nil
}

func parseSearchMode(s string) (panel.SearchMode, error) {
	switch s {
	case "quick":
		return panel.SearchModeQuick, nil
	case "full":
		return panel.SearchModeFull, nil
	case "off":
		return panel.SearchModeOff, nil
	}
	return 0, fmt.Errorf("invalid --search-mode %q (want quick, full, or off)", s)
}

// resolveProjectPath accepts a project file, a solution file, a
// directory holding exactly one of either, or "." for the current
// directory. A directory is searched for a project first; solutions are
// the fallback, since the panel ultimately manages a single project.
func resolveProjectPath(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("project %q: %w", target, err)
	}
	if info.IsDir() {
		path, projErr := project.FindProjectFile(target)
		if projErr == nil {
			return path, nil
		}
		slnPath, slnErr := solution.Find(target)
		if slnErr != nil {
			return "", projErr
		}
		return projectFromSolution(slnPath)
	}
	if solution.IsSolutionFile(target) {
		return projectFromSolution(target)
	}
	return target, nil
}

// projectFromSolution narrows a solution to the one project the panel
// will manage. Multi-project solutions need the project named on the
// command line.
func projectFromSolution(path string) (string, error) {
	sol, err := solution.Load(path)
	if err != nil {
		return "", err
	}
	switch len(sol.Projects) {
	case 0:
		return "", fmt.Errorf("solution %s contains no projects", path)
	case 1:
		return sol.Projects[0].Path, nil
	default:
		names := make([]string, len(sol.Projects))
		for i, p := range sol.Projects {
			names[i] = p.Name
		}
		return "", fmt.Errorf("solution %s has %d projects (%s); pass the project file to manage one",
			path, len(sol.Projects), strings.Join(names, ", "))
	}
}

// newLogger opens the log file when one is configured. Without a file the
// panel runs with a null logger: stdout belongs to the UI.
func newLogger(opts *rootOptions) (observability.Logger, func(), error) {
	if opts.logFile == "" {
		return observability.NewNullLogger(), func() {}, nil
	}
	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := observability.NewLogger(f, observability.ParseLevel(opts.logLevel))
	return logger, func() { _ = f.Close() }, nil
}

func openHTTPCache() (*cache.DiskCache, error) {
	dir := os.Getenv("NUPANEL_HTTP_CACHE")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			dir = filepath.Join(os.TempDir(), "nupanel-cache")
		} else {
			dir = filepath.Join(home, ".nupanel", "http-cache")
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return cache.NewDiskCache(dir)
}

// startMetricsServer serves /metrics and /healthz in the background. The
// panel keeps running if the listener fails; the failure is only logged.
func startMetricsServer(addr, projectPath string, sources []config.Source, logger observability.Logger) {
	checker := observability.NewHealthChecker()
	checker.Register(observability.HostHealthCheck("project", func(context.Context) error {
		_, err := os.Stat(projectPath)
		return err
	}))
	for _, src := range sources {
		if src.IsLocal() {
			dir := src.LocalPath()
			checker.Register(observability.HostHealthCheck(src.Name, func(context.Context) error {
				_, err := os.Stat(dir)
				return err
			}))
			continue
		}
		checker.Register(observability.HTTPSourceHealthCheck(src.Name, src.URL, 5*time.Second))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/healthz", checker.Handler())

	go func() {
		if err := (&http.Server{Addr: addr, Handler: mux}).ListenAndServe(); err != nil {
			logger.Error("Metrics server on {Addr} failed: {Error}", addr, err)
		}
	}()
}

// warn prints a pre-launch diagnostic; once the panel starts, problems go
// to the log file instead.
func warn(format string, args ...any) {
	_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
