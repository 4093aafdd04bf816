// Command rebalance re-breaks localized game text so each line fits the
// on-screen text box.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsmiamoto/rebalance/internal/cli"
	"github.com/fsmiamoto/rebalance/internal/config"
	"github.com/fsmiamoto/rebalance/internal/logging"
	"golang.org/x/term"
)

const (
	exitOK          = 0
	exitFatal       = 1
	exitUsage       = 2
	exitFileErrors  = 3
	exitInterrupted = 130
)

// streams bundles the process I/O so commands can be tested.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], streams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}, os.Getenv))
}

func run(args []string, std streams, getenv func(string) string) int {
	opts, err := cli.Parse(args, std.stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(std.stderr, "rebalance: %v\n", err)
		return exitUsage
	}

	if opts.Command == cli.CommandVersion {
		fmt.Fprintln(std.stdout, cli.VersionString())
		return exitOK
	}

	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(std.stderr, "rebalance: %v\n", err)
		return exitFatal
	}
	rt, err := loadRuntime(opts, getenv)
	if err != nil {
		fmt.Fprintf(std.stderr, "rebalance: %v\n", err)
		return exitFatal
	}

	useTUI := opts.Command == cli.CommandRun && !opts.NoTUI && isTerminal(std.stdout)
	logCfg := rt.Config.Logging
	logger, closer, err := logging.New(logging.Config{
		Level:      logCfg.Level,
		Dir:        logCfg.Dir,
		MaxSizeMB:  logCfg.MaxSizeMB,
		MaxBackups: logCfg.MaxBackups,
		MaxAgeDays: logCfg.MaxAgeDays,
		Compress:   logCfg.Compress,
		Stderr:     std.stderr,
		Quiet:      useTUI,
	})
	if err != nil {
		fmt.Fprintf(std.stderr, "rebalance: %v\n", err)
		return exitFatal
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{opts: opts, rt: rt, log: logger, std: std}
	switch opts.Command {
	case cli.CommandCheck:
		return a.check()
	case cli.CommandProfiles:
		return a.profiles()
	case cli.CommandView:
		return a.view()
	case cli.CommandFixJSON:
		return a.fixJSON(ctx)
	default:
		return a.balance(ctx, useTUI)
	}
}

// loadRuntime layers the configuration: built-in defaults, the config file,
// REBALANCE_* variables, then command-line flags.
func loadRuntime(opts *cli.Config, getenv func(string) string) (*config.Runtime, error) {
	path := opts.ConfigPath
	if path == "" {
		path = getenv(config.EnvConfigPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(&cfg, getenv); err != nil {
		return nil, err
	}

	if opts.Root != "" {
		cfg.RootDirectory = opts.Root
	}
	if opts.RunsDir != "" {
		cfg.RunsDir = opts.RunsDir
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	return config.Build(cfg)
}

type app struct {
	opts *cli.Config
	rt   *config.Runtime
	log  *slog.Logger
	std  streams
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
