// pulsebar is a status bar for dwm and similar window managers.
//
// It refreshes a table of small text blocks (clock, CPU, memory, volume,
// running processes, shell commands) on per-block intervals or on demand
// through real-time signals, and publishes the joined line as the X11 root
// window name or on standard output.
//
// Usage:
//
//	pulsebar [flags]
//
// Flags:
//
//	-p                Write the status line to standard output instead of X11
//	-config string    Path to configuration file (default: ~/.config/pulsebar/config.toml)
//	-list             List available producers and exit
//	-signal int       Refresh signal group n of the running instance (needs pid_file)
//	-verbose          Enable verbose logging
//	-version          Print version and exit
//
// Unknown arguments are ignored. Block group n is refreshed with
//
//	pkill -RTMIN+n pulsebar
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/daemon"
	"gitlab.com/tinyland/lab/pulsebar/pkg/producers"
	"gitlab.com/tinyland/lab/pulsebar/pkg/render"
	"gitlab.com/tinyland/lab/pulsebar/pkg/scheduler"
	"gitlab.com/tinyland/lab/pulsebar/pkg/signals"
	"gitlab.com/tinyland/lab/pulsebar/pkg/sink"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

type options struct {
	stdout     bool
	configPath string
	list       bool
	signal     int
	verbose    bool
	version    bool
}

// valueFlags take an argument; boolFlags do not.
var (
	valueFlags = map[string]bool{"config": true, "signal": true}
	boolFlags  = map[string]bool{"p": true, "list": true, "verbose": true, "version": true}
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// filterArgs drops every argument that is not a known flag so that stray
// arguments from launchers do not abort startup.
func filterArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		if !strings.HasPrefix(a, "-") {
			continue
		}
		name := strings.TrimLeft(a, "-")
		name, _, hasValue := strings.Cut(name, "=")
		switch {
		case boolFlags[name]:
			out = append(out, a)
		case valueFlags[name]:
			out = append(out, a)
			if !hasValue && i+1 < len(args) {
				i++
				out = append(out, args[i])
			}
		}
	}
	return out
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("pulsebar", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.stdout, "p", false, "Write the status line to standard output instead of X11")
	fs.StringVar(&o.configPath, "config", "", "Path to configuration file")
	fs.BoolVar(&o.list, "list", false, "List available producers and exit")
	fs.IntVar(&o.signal, "signal", 0, "Refresh signal group n of the running instance (needs pid_file)")
	fs.BoolVar(&o.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(filterArgs(args)); err != nil {
		return o, err
	}
	return o, nil
}

// newLogger writes text to a terminal and JSON everywhere else, so the
// output of a bar started from .xinitrc stays machine-readable.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func loadConfig(o options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.stdout {
		cfg.Status.Output = config.OutputStdout
	}
	if o.verbose {
		cfg.General.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if o.version {
		fmt.Fprintf(stdout, "pulsebar %s (%s) built %s\n", version, commit, date)
		return 0
	}

	reg := producers.Default()
	if o.list {
		listProducers(stdout, reg)
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "pulsebar: %v\n", err)
		return 1
	}
	level, _ := cfg.General.Level()
	logger := newLogger(stderr, level)

	if o.signal != 0 {
		return signalRunning(cfg, o.signal, logger)
	}

	if err := serve(cfg, reg, stdout, logger); err != nil {
		logger.Error("pulsebar stopped", "error", err)
		return 1
	}
	return 0
}

func listProducers(w io.Writer, reg *producers.Registry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range reg.List() {
		arg := ""
		if e.TakesPath {
			arg = "path"
		}
		if e.DefaultArg != "" {
			arg += " (default " + e.DefaultArg + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Usage, strings.TrimSpace(arg))
	}
	tw.Flush()
}

func signalRunning(cfg *config.Config, id int, logger *slog.Logger) int {
	if cfg.General.PIDFile == "" {
		logger.Error("-signal needs general.pid_file to be set")
		return 1
	}
	if _, err := signals.New([]int{id}, logger); err != nil {
		logger.Error("invalid signal group", "signal", id, "error", err)
		return 1
	}
	pid, err := daemon.SignalRunning(cfg.General.PIDFile, signals.Signal(id))
	if err != nil {
		logger.Error("signal failed", "signal", id, "error", err)
		return 1
	}
	logger.Debug("signalled running instance", "pid", pid, "signal", id)
	return 0
}

// serve builds every component from cfg and runs until a termination
// signal. It returns an error for any startup failure or a failed publish.
func serve(cfg *config.Config, reg *producers.Registry, stdout io.Writer, logger *slog.Logger) error {
	specs, err := producers.Build(reg, cfg.Blocks, producers.SysfsResolver)
	if err != nil {
		return fmt.Errorf("build blocks: %w", err)
	}
	table, err := blocks.New(specs, cfg.Status.BlockCapacity)
	if err != nil {
		return fmt.Errorf("build block table: %w", err)
	}
	router, err := signals.New(table.Signals(), logger)
	if err != nil {
		return fmt.Errorf("signals: %w", err)
	}

	out, err := sink.Open(sink.Kind(cfg.Status.Output), stdout)
	if err != nil {
		return err
	}
	defer out.Close()

	if path := cfg.General.PIDFile; path != "" {
		if err := daemon.AcquirePID(path); err != nil {
			return err
		}
		defer func() {
			if err := daemon.ReleasePID(path); err != nil {
				logger.Warn("failed to remove pid file", "path", path, "error", err)
			}
		}()
	}

	renderer := render.New(table.Len(), cfg.Status.PadLeft, cfg.Status.PadRight, table.Capacity())
	sched := scheduler.New(table, renderer, out, scheduler.Config{
		Tick:         cfg.General.Tick.Duration,
		SlowProducer: cfg.General.SlowProducer.Duration,
		Logger:       logger,
	})

	router.Start()
	defer router.Stop()
	for _, m := range router.Mappings() {
		logger.Info("signal group", "signal", m.ID, "os_signal", m.Name)
	}
	logger.Info("starting pulsebar",
		"version", version,
		"blocks", table.Len(),
		"output", cfg.Status.Output,
		"tick", cfg.General.Tick.Duration,
	)

	if err := sched.Populate(); err != nil {
		return err
	}
	return sched.Run(context.Background(), router)
}
