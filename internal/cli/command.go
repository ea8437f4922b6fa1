package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/dirsize/internal/config"
	"github.com/idelchi/dirsize/internal/integration"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// flags holds the raw command-line values before they are merged with the config file.
type flags struct {
	config      string
	minSize     string
	all         bool
	version     bool
	integration bool
	cfg         config.Config
}

// Execute runs the CLI with the process arguments. An interrupt cancels a running scan.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Command().ExecuteContext(ctx)
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	f := flags{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   "dirsize [flags] [path]",
		Short: "Find the largest files and directories by on-disk size",
		Long: heredoc.Doc(`
			dirsize walks a directory tree in parallel and reports the entries that
			occupy the most disk space.

			Sizes are allocated bytes: sparse files count only their written blocks
			and hard-linked files are counted once.

			Positional Arguments:
			  path    Directory to analyze. Defaults to current directory if not specified.

			Modes:
			  By default only directories are ranked. Use --all to rank files and
			  directories together or --rank files for files only.

			Settings are read from $XDG_CONFIG_HOME/dirsize/config.toml when present,
			or from --config. Flags override the file.

			The '--init' flag prints a zsh function that pipes the output to 'fzf'
			and changes into the selected directory.
		`),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.version {
				fmt.Fprintln(cmd.OutOrStdout(), c.version)

				return nil
			}

			if f.integration {
				rendered, err := integration.Render()
				if err != nil {
					return fmt.Errorf("rendering integration script: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), rendered)

				return nil
			}

			cfg, err := resolve(cmd.Flags(), f)
			if err != nil {
				return err
			}

			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			return logic(cmd, path, cfg)
		},
	}

	defaults := f.cfg

	fl := cmd.Flags()
	fl.SortFlags = false

	fl.IntVarP(&f.cfg.Scan.Top, "top", "n", defaults.Scan.Top, "Number of top entries to display")
	fl.IntVarP(&f.cfg.Scan.Depth, "depth", "d", defaults.Scan.Depth, "Maximum depth of reported entries (-1=unlimited)")
	fl.BoolVar(&f.cfg.Scan.Prune, "prune", defaults.Scan.Prune, "Do not descend below --depth (sizes stop at the limit)")
	fl.BoolVarP(&f.all, "all", "a", false, "Rank files in addition to directories (same as --rank all)")
	fl.StringVar(&f.cfg.Scan.Rank, "rank", defaults.Scan.Rank, "Entries to rank: all, dirs or files")
	fl.BoolVarP(&f.cfg.Scan.Hidden, "hidden", "H", defaults.Scan.Hidden, "Include hidden files and directories")
	fl.IntVarP(&f.cfg.Scan.Threads, "threads", "t", defaults.Scan.Threads, "Number of threads (0=all CPUs)")
	fl.StringVar(&f.minSize, "min-size", defaults.Scan.MinSize, "Minimum size of reported entries (e.g., 1MB)")
	fl.StringSliceVarP(&f.cfg.Scan.Excludes, "exclude", "e", defaults.Scan.Excludes, "Regex patterns to exclude")
	fl.BoolVar(&f.cfg.Scan.Apparent, "apparent-size", defaults.Scan.Apparent, "Report apparent file lengths instead of disk usage")
	fl.StringVarP(&f.cfg.Output.Format, "output", "o", defaults.Output.Format, "Output format: table, json or plain")
	fl.StringVar(&f.config, "config", "", "Path to a TOML or YAML config file")
	fl.BoolVar(&f.cfg.Logging.Debug, "debug", defaults.Logging.Debug, "Enable debug output")
	fl.StringVar(&f.cfg.Logging.File, "log-file", defaults.Logging.File, "Write logs to a rotating file")
	fl.BoolVarP(&f.version, "version", "v", false, "Show version and exit")
	fl.BoolVarP(&f.integration, "init", "i", false, "Output init script for shell usage")

	return cmd
}

// configFlags maps flag names to the setter copying the flag value into a config.
//
//nolint:gochecknoglobals // Lookup table
var configFlags = map[string]func(dst *config.Config, src flags){
	"top":           func(dst *config.Config, src flags) { dst.Scan.Top = src.cfg.Scan.Top },
	"depth":         func(dst *config.Config, src flags) { dst.Scan.Depth = src.cfg.Scan.Depth },
	"prune":         func(dst *config.Config, src flags) { dst.Scan.Prune = src.cfg.Scan.Prune },
	"rank":          func(dst *config.Config, src flags) { dst.Scan.Rank = src.cfg.Scan.Rank },
	"hidden":        func(dst *config.Config, src flags) { dst.Scan.Hidden = src.cfg.Scan.Hidden },
	"threads":       func(dst *config.Config, src flags) { dst.Scan.Threads = src.cfg.Scan.Threads },
	"min-size":      func(dst *config.Config, src flags) { dst.Scan.MinSize = src.minSize },
	"exclude":       func(dst *config.Config, src flags) { dst.Scan.Excludes = src.cfg.Scan.Excludes },
	"apparent-size": func(dst *config.Config, src flags) { dst.Scan.Apparent = src.cfg.Scan.Apparent },
	"output":        func(dst *config.Config, src flags) { dst.Output.Format = src.cfg.Output.Format },
	"debug":         func(dst *config.Config, src flags) { dst.Logging.Debug = src.cfg.Logging.Debug },
	"log-file":      func(dst *config.Config, src flags) { dst.Logging.File = src.cfg.Logging.File },
}

// resolve layers the config file and the explicitly set flags on top of the defaults.
func resolve(fl *pflag.FlagSet, f flags) (config.Config, error) {
	cfg := config.Default()

	path := f.config
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err == nil {
			if _, statErr := os.Stat(defaultPath); statErr == nil {
				path = defaultPath
			} else if !errors.Is(statErr, fs.ErrNotExist) {
				return cfg, fmt.Errorf("accessing config %q: %w", defaultPath, statErr)
			}
		}
	}

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}

		cfg = loaded
	}

	fl.Visit(func(flag *pflag.Flag) {
		if set, ok := configFlags[flag.Name]; ok {
			set(&cfg, f)
		}
	})

	if f.all {
		cfg.Scan.Rank = "all"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
