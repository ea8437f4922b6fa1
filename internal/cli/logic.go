package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/idelchi/dirsize/internal/config"
	"github.com/idelchi/dirsize/internal/diskusage"
)

// options converts a validated config into scan options.
func options(path string, cfg config.Config) (diskusage.Options, error) {
	minSize, err := cfg.MinSizeBytes()
	if err != nil {
		return diskusage.Options{}, err
	}

	rank, err := diskusage.ParseRankMode(cfg.Scan.Rank)
	if err != nil {
		return diskusage.Options{}, err
	}

	opt := diskusage.Options{
		Path:       path,
		MaxDepth:   cfg.Scan.Depth,
		PruneDepth: cfg.Scan.Prune,
		Hidden:     cfg.Scan.Hidden,
		Threads:    cfg.Scan.Threads,
		TopN:       cfg.Scan.Top,
		Rank:       rank,
		MinSize:    minSize,
		Excludes:   cfg.Scan.Excludes,
	}

	if cfg.Scan.Apparent {
		opt.Probe = diskusage.ApparentProbe{}
	}

	return opt, nil
}

func logic(cmd *cobra.Command, path string, cfg config.Config) error {
	opt, err := options(path, cfg)
	if err != nil {
		return err
	}

	logger, closer := newLogger(cfg.Logging.Debug, cfg.Logging.File, cmd.ErrOrStderr())
	defer closer.Close()

	opt.Logger = logger

	enableProgress := strings.ToLower(cfg.Output.Format) == "table" &&
		!cfg.Logging.Debug &&
		isatty.IsTerminal(os.Stderr.Fd())

	// Simple progress callback that prints directly to stderr
	var progressHook func(diskusage.Progress)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(os.Stderr, "\033[?25l")
		defer fmt.Fprint(os.Stderr, "\033[?25h")

		progressHook = func(p diskusage.Progress) {
			msg := fmt.Sprintf("Scanning… %s items, %s",
				humanize.Comma(p.Items), humanize.IBytes(p.Bytes))
			fmt.Fprintf(os.Stderr, "\r\033[2K%s\r", msg)
		}
	}

	result, err := diskusage.Scan(cmd.Context(), opt, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(os.Stderr, "\r\033[2K\r")
	}

	if err != nil {
		logger.Error("scan failed", "path", path, "error", err)

		return err
	}

	out := cmd.OutOrStdout()

	switch strings.ToLower(cfg.Output.Format) {
	case "json":
		return PrintJSON(result, out)
	case "plain":
		return PrintPlain(result, out)
	case "table":
		return PrintTable(result, out, cfg.Logging.Debug)
	default:
		return fmt.Errorf("unknown output format: %s", cfg.Output.Format)
	}
}
