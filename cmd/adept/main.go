package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/adeptlang/adept/internal/compile"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/executor"
	"github.com/adeptlang/adept/internal/ir"
	"github.com/adeptlang/adept/internal/lsp"
)

var (
	// Version info - set by ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	red  = color.New(color.FgRed).SprintFunc()
	cyan = color.New(color.FgCyan).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

// envConfig is the daemon/runtime environment configuration.
type envConfig struct {
	Workers      int    `env:"ADEPT_WORKERS"`
	StepBudget   int    `env:"ADEPT_STEP_BUDGET"`
	MetricsAddr  string `env:"ADEPT_METRICS_ADDR"`
	QueryTimeout int    `env:"ADEPT_QUERY_TIMEOUT_MS" envDefault:"1000"`
}

func main() {
	var (
		debugFlag    = flag.Bool("debug", false, "Enable debug logging")
		workersFlag  = flag.Int("workers", 0, "Worker thread count (default: all cores)")
		progressFlag = flag.Bool("progress", false, "Show build progress")
		targetFlag   = flag.String("target", "x86_64-linux", "Target triple (arch-os)")
		versionFlag  = flag.Bool("version", false, "Print version information")
		helpFlag     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s: bad environment: %v\n", red("Error"), err)
		os.Exit(1)
	}
	if *workersFlag > 0 {
		cfg.Workers = *workersFlag
	}

	switch flag.Arg(0) {
	case "build", "check":
		os.Exit(runBuild(flag.Args()[1:], flag.Arg(0) == "check", *targetFlag, *progressFlag, cfg, logger))
	case "lsp":
		os.Exit(runLSP(cfg, logger))
	case "version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), flag.Arg(0))
		printHelp()
		os.Exit(1)
	}
}

func parseTarget(s string) (ir.Target, error) {
	arch, osName, found := strings.Cut(s, "-")
	if !found {
		return ir.Target{}, fmt.Errorf("target must be arch-os, e.g. x86_64-linux")
	}
	var t ir.Target
	switch arch {
	case "x86_64", "amd64":
		t.Arch = ir.ArchX8664
	case "aarch64", "arm64":
		t.Arch = ir.ArchAarch64
	default:
		return t, fmt.Errorf("unsupported architecture %q", arch)
	}
	switch osName {
	case "linux":
		t.OS = ir.OSLinux
	case "mac", "darwin":
		t.OS = ir.OSMac
	case "windows":
		t.OS = ir.OSWindows
	case "freebsd":
		t.OS = ir.OSFreeBSD
	default:
		return t, fmt.Errorf("unsupported OS %q", osName)
	}
	return t, nil
}

func runBuild(args []string, checkOnly bool, targetStr string, progress bool, cfg envConfig, logger *slog.Logger) int {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	target, err := parseTarget(targetStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}

	ws, reports := compile.LoadWorkspace(dir, nil)
	colored := isatty.IsTerminal(os.Stderr.Fd())
	renderer := diag.NewRenderer(os.Stderr, colored)
	if ws == nil || diag.HasErrors(reports) {
		renderer.Render(reports)
		return 1
	}

	var bar *progressbar.ProgressBar
	if progress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("compiling"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
		)
	}

	res := compile.Build(ws, compile.Options{
		Target:     target,
		Workers:    cfg.Workers,
		Logger:     logger,
		ScriptOut:  os.Stdout,
		StepBudget: cfg.StepBudget,
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	reports = append(reports, res.Reports...)
	renderer.Render(reports)

	if res.HasErrors() {
		return 1
	}
	if checkOnly {
		fmt.Fprintf(os.Stderr, "%s (%d tasks, %d completed)\n",
			bold("OK"), res.Execution.Scheduled, res.Execution.Completed)
		return 0
	}

	// Code emission and linking are external collaborators; this binary
	// stops at the lowered module.
	fmt.Fprintf(os.Stderr, "%s lowered %d functions for %s\n",
		bold("OK"), res.Module.Funcs.Len(), cyan(targetStr))
	return 0
}

func runLSP(cfg envConfig, logger *slog.Logger) int {
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		executor.NewMetrics(reg)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics endpoint failed", "err", err)
			}
		}()
	}

	server := lsp.NewServer(nil)
	server.Log = logger
	server.QueryTimeout = time.Duration(cfg.QueryTimeout) * time.Millisecond
	return server.Serve(os.Stdin, os.Stdout)
}

func printVersion() {
	fmt.Printf("adept %s (%s, built %s)\n", Version, Commit, BuildTime)
}

func printHelp() {
	fmt.Println(bold("adept") + " - Adept compiler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  adept build [dir]    Compile a workspace")
	fmt.Println("  adept check [dir]    Type-check without emitting")
	fmt.Println("  adept lsp            Run the language-server daemon")
	fmt.Println("  adept version        Print version information")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  ADEPT_WORKERS           Worker thread count")
	fmt.Println("  ADEPT_STEP_BUDGET       Build-script instruction budget")
	fmt.Println("  ADEPT_METRICS_ADDR      Prometheus endpoint address (lsp mode)")
	fmt.Println("  ADEPT_QUERY_TIMEOUT_MS  LSP query wall-clock budget")
}
