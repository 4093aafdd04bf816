// Package cli handles flag parsing for rebalance.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Command is the subcommand selected on the command line.
type Command string

const (
	CommandRun      Command = "run"
	CommandCheck    Command = "check"
	CommandProfiles Command = "profiles"
	CommandView     Command = "view"
	CommandFixJSON  Command = "fixjson"
	CommandVersion  Command = "version"
)

// ErrHelp is returned when help was requested; the caller exits 0.
var ErrHelp = errors.New("help requested")

// Config holds the parsed CLI configuration. Zero values mean "use the
// configuration file or its defaults".
type Config struct {
	Command    Command
	ConfigPath string
	LogLevel   string
	RunsDir    string

	// run
	Single  string
	Root    string
	Mode    int // force the profile with this many lines; 0 = classify
	Profile string
	Workers int
	DryRun  bool
	NoTUI   bool

	// check
	Text      string
	ReadStdin bool

	// view
	ViewRunID string
	ViewTUI   bool

	// fixjson
	FixDir string
}

const usage = `Usage: rebalance [run] [flags]
       rebalance check [flags] [TEXT]
       rebalance profiles [flags]
       rebalance view [flags] [RUN-ID]
       rebalance fixjson [flags] [DIR]
       rebalance version

Balances line breaks in localized game text tables.

Run flags:
  -s, --single <file>     Process only this file (skips folder scanning)
      --mode <n>          Force the profile allowing n lines (2 = cinematic, 3 = standard)
  -p, --profile <name>    Force a named profile (conflicts with --mode)
  -r, --root <dir>        Batch root directory (default from config: UnpackedBDAT)
  -w, --workers <n>       Files processed in parallel (default from config)
  -n, --dry-run           Compute and log changes without writing files
      --no-tui            Disable TUI, use plain stderr output

Common flags:
  -c, --config <file>     Configuration file, TOML or YAML (env REBALANCE_CONFIG)
      --runs-dir <path>   Runs directory (default ".rebalance/runs")
      --log-level <lvl>   debug, info, warn or error
  -h, --help              Show this help

check balances TEXT (or stdin) and prints the result with its width.
view lists past runs, or shows the report of one run (--tui to browse it).
fixjson repairs raw line breaks inside JSON strings under DIR (default ".").
`

// Parse parses command-line arguments and returns a Config. Usage is
// written to stderr on errors and when help is requested.
func Parse(args []string, stderr io.Writer) (*Config, error) {
	cmd := CommandRun
	if len(args) > 0 {
		switch Command(args[0]) {
		case CommandRun, CommandCheck, CommandProfiles, CommandView, CommandFixJSON, CommandVersion:
			cmd = Command(args[0])
			args = args[1:]
		case "help":
			printUsage(stderr)
			return nil, ErrHelp
		}
	}

	cfg := &Config{Command: cmd}
	fs := pflag.NewFlagSet("rebalance "+string(cmd), pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // we handle output ourselves
	fs.StringVarP(&cfg.ConfigPath, "config", "c", "", "")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "")
	fs.StringVar(&cfg.RunsDir, "runs-dir", "", "")

	switch cmd {
	case CommandRun:
		fs.StringVarP(&cfg.Single, "single", "s", "", "")
		fs.StringVarP(&cfg.Root, "root", "r", "", "")
		fs.IntVar(&cfg.Mode, "mode", 0, "")
		fs.StringVarP(&cfg.Profile, "profile", "p", "", "")
		fs.IntVarP(&cfg.Workers, "workers", "w", 0, "")
		fs.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "")
		fs.BoolVar(&cfg.NoTUI, "no-tui", false, "")
	case CommandCheck:
		fs.IntVar(&cfg.Mode, "mode", 0, "")
		fs.StringVarP(&cfg.Profile, "profile", "p", "", "")
	case CommandView:
		fs.BoolVar(&cfg.ViewTUI, "tui", false, "")
	}

	if err := fs.Parse(args); err != nil {
		printUsage(stderr)
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	if cfg.LogLevel != "" {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(cfg.LogLevel)
		default:
			return nil, fmt.Errorf("--log-level must be debug, info, warn or error, got %q", cfg.LogLevel)
		}
	}
	if cfg.Mode != 0 && (cfg.Mode < 1 || cfg.Mode > 3) {
		return nil, fmt.Errorf("--mode must be 1, 2 or 3, got %d", cfg.Mode)
	}
	if cfg.Mode != 0 && cfg.Profile != "" {
		return nil, fmt.Errorf("--mode and --profile are mutually exclusive")
	}
	if fs.Changed("workers") && cfg.Workers < 1 {
		return nil, fmt.Errorf("--workers must be a positive integer, got %d", cfg.Workers)
	}

	positional := fs.Args()
	switch cmd {
	case CommandRun:
		if len(positional) > 0 {
			return nil, fmt.Errorf("unexpected argument %q", positional[0])
		}
		if cfg.Single != "" && fs.Changed("root") {
			return nil, fmt.Errorf("--single and --root are mutually exclusive")
		}
	case CommandCheck:
		if len(positional) == 0 {
			cfg.ReadStdin = true
		} else {
			cfg.Text = strings.Join(positional, " ")
		}
	case CommandView:
		if len(positional) > 1 {
			return nil, fmt.Errorf("expected at most one run id, got %d", len(positional))
		}
		if len(positional) == 1 {
			cfg.ViewRunID = positional[0]
		}
		if cfg.ViewTUI && cfg.ViewRunID == "" {
			return nil, fmt.Errorf("--tui needs a run id")
		}
	case CommandFixJSON:
		if len(positional) > 1 {
			return nil, fmt.Errorf("expected at most one directory, got %d", len(positional))
		}
		cfg.FixDir = "."
		if len(positional) == 1 {
			cfg.FixDir = positional[0]
		}
	default:
		if len(positional) > 0 {
			return nil, fmt.Errorf("%s takes no arguments", cmd)
		}
	}

	return cfg, nil
}

func printUsage(w io.Writer) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, VersionString())
	fmt.Fprint(w, usage)
}
