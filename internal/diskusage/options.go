package diskusage

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// NoDepthLimit disables the depth limit.
const NoDepthLimit = -1

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// RankMode selects which entries compete for the top-N.
type RankMode string

const (
	// RankAll ranks files and directories together.
	RankAll RankMode = "all"
	// RankDirs ranks directories only.
	RankDirs RankMode = "dirs"
	// RankFiles ranks non-directory entries only.
	RankFiles RankMode = "files"
)

// RankModes lists the accepted rank modes.
//
//nolint:gochecknoglobals // Lookup table
var RankModes = []RankMode{RankAll, RankDirs, RankFiles}

// ParseRankMode converts s into a RankMode.
func ParseRankMode(s string) (RankMode, error) {
	for _, m := range RankModes {
		if string(m) == s {
			return m, nil
		}
	}

	return "", fmt.Errorf("invalid rank mode %q: must be one of %v", s, RankModes)
}

func (m RankMode) includes(k Kind) bool {
	switch m {
	case RankDirs:
		return k == KindDir
	case RankFiles:
		return k != KindDir
	default:
		return true
	}
}

// Options configures a scan. It is read once by Scan and never modified.
type Options struct {
	// Path is the directory to scan.
	Path string
	// MaxDepth limits the depth of entries kept in the tree (NoDepthLimit = unlimited).
	// Bytes below the limit still count towards their ancestors unless PruneDepth is set.
	MaxDepth int
	// PruneDepth stops the walk from descending below MaxDepth at all.
	PruneDepth bool
	// Hidden includes entries whose name marks them hidden.
	Hidden bool
	// Threads is the number of walker goroutines (0 = one per CPU).
	Threads int
	// TopN is the number of entries to rank.
	TopN int
	// Rank selects the entries eligible for ranking (empty = RankAll).
	Rank RankMode
	// MinSize is the smallest size an entry needs to be ranked.
	MinSize uint64
	// Excludes contains regex patterns for paths to skip entirely.
	Excludes []string
	// Probe measures file sizes (nil = the platform probe).
	Probe SizeProbe
	// Logger receives debug records (nil = discard).
	Logger *slog.Logger
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
}

// normalize validates opt and fills in defaults.
func (opt Options) normalize() (Options, error) {
	if opt.Path == "" {
		opt.Path = "."
	}

	if opt.MaxDepth < NoDepthLimit {
		return opt, errors.New("depth cannot be negative")
	}

	if opt.TopN < 0 {
		return opt, errors.New("top cannot be negative")
	}

	if opt.Threads < 0 {
		return opt, errors.New("threads cannot be negative")
	}

	if opt.Threads == 0 {
		opt.Threads = runtime.NumCPU()
	}

	if opt.Rank == "" {
		opt.Rank = RankAll
	}

	if _, err := ParseRankMode(string(opt.Rank)); err != nil {
		return opt, err
	}

	if opt.Probe == nil {
		opt.Probe = NewProbe()
	}

	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}

	if opt.ProgressInterval <= 0 {
		opt.ProgressInterval = DefaultProgressInterval
	}

	return opt, nil
}

// limited reports whether entries at depth fall outside the depth limit.
func (opt Options) limited(depth int) bool {
	return opt.MaxDepth != NoDepthLimit && depth > opt.MaxDepth
}
