package diskusage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charlievieth/fastwalk"
)

// hiddenPrefix marks hidden entries on every platform.
const hiddenPrefix = "."

func hasHiddenPrefix(name string) bool {
	return strings.HasPrefix(name, hiddenPrefix)
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// shouldExcludeByPattern checks if path matches any exclusion regex.
func shouldExcludeByPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// compilePatterns compiles the exclusion regexes.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}

// resolveRoot returns the absolute, symlink-free form of path after checking
// that it is a readable directory.
func resolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", rootError(path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", rootError(path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", rootError(path, err)
	}

	if !info.IsDir() {
		return "", &RootError{Path: path, Reason: ErrNotDirectory}
	}

	dir, err := os.Open(resolved)
	if err != nil {
		return "", rootError(path, err)
	}
	defer dir.Close()

	if _, err := dir.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", &RootError{Path: path, Reason: ErrRootUnreadable, Err: err}
	}

	return resolved, nil
}

// startProgressReporter invokes hook on each tick until ctx is done.
func startProgressReporter(ctx context.Context, agg *aggregator, hook func(Progress), interval time.Duration) {
	if hook == nil {
		return
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(agg.progress())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// skip tells fastwalk to leave an entry out; directories are not descended into.
func skip(d fs.DirEntry) error {
	if d.IsDir() {
		return filepath.SkipDir
	}

	return nil
}

// Scan walks the directory tree at opt.Path and returns its on-disk usage.
//
// Directories are read in parallel by opt.Threads fastwalk workers. Every
// file is measured with opt.Probe, hard-linked content is credited once, and
// sizes are added to all ancestors. Entries that cannot be read are recorded
// in Result.Errors and skipped.
//
// An unusable root yields a *RootError before any work starts. Cancelling ctx
// stops the walk and returns ctx's error without a partial result. Progress
// samples are sent to progressHook if provided.
//
//nolint:gocognit,funlen,cyclop // Walk callback handles every entry kind in one place.
func Scan(ctx context.Context, opt Options, progressHook func(Progress)) (*Result, error) {
	opt, err := opt.normalize()
	if err != nil {
		return nil, err
	}

	root, err := resolveRoot(opt.Path)
	if err != nil {
		return nil, err
	}

	excludes, err := compilePatterns(opt.Excludes)
	if err != nil {
		return nil, err
	}

	log := opt.Logger.With(slog.String("root", root))
	log.Debug("starting scan",
		slog.Int("max_depth", opt.MaxDepth),
		slog.Bool("prune_depth", opt.PruneDepth),
		slog.Bool("hidden", opt.Hidden),
		slog.Int("threads", opt.Threads),
		slog.Int("top", opt.TopN),
		slog.String("rank", string(opt.Rank)),
		slog.Any("excludes", opt.Excludes),
	)

	agg := newAggregator(root, opt.MaxDepth, NewLinkTracker())

	// Create child context to ensure progress reporter cleanup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startProgressReporter(ctx, agg, progressHook, opt.ProgressInterval)

	start := time.Now()

	conf := &fastwalk.Config{
		Follow:     false, // Don't follow symlinks
		NumWorkers: opt.Threads,
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			countedDir := path != root && d != nil && d.IsDir()
			scanErr := agg.addError(path, err, countedDir)
			log.Debug("skipping unreadable entry",
				slog.String("path", path),
				slog.String("kind", string(scanErr.Kind)),
				slog.Any("error", err))

			return nil
		}

		// Check cancellation periodically
		if err := ctx.Err(); err != nil {
			return err
		}

		if path == root {
			return nil
		}

		depth := calculateDepth(path, root)

		if !opt.Hidden && isHidden(d) {
			log.Debug("skipping hidden entry", slog.String("path", path))

			return skip(d)
		}

		if matchedPattern := shouldExcludeByPattern(path, excludes); matchedPattern != nil {
			log.Debug("excluding entry",
				slog.String("path", filepath.ToSlash(path)),
				slog.String("regex", matchedPattern.String()))

			return skip(d)
		}

		if opt.PruneDepth && opt.limited(depth) {
			log.Debug("skipping entry beyond depth", slog.String("path", path), slog.Int("depth", depth))

			return skip(d)
		}

		if d.IsDir() {
			agg.addDir(path, depth)

			if opt.PruneDepth && depth == opt.MaxDepth {
				return filepath.SkipDir
			}

			return nil
		}

		info, err := d.Info()
		if err != nil {
			scanErr := agg.addError(path, err, false)
			log.Debug("skipping entry without metadata",
				slog.String("path", path),
				slog.String("kind", string(scanErr.Kind)),
				slog.Any("error", err))

			return nil //nolint:nilerr // Intentionally skip errors during walk
		}

		obs := observation{path: path, kind: kindOf(info.Mode()), depth: depth}

		if obs.kind != KindSymlink {
			size, err := opt.Probe.Size(path, info)
			if err != nil {
				log.Debug("probe failed, using apparent size", slog.String("path", path), slog.Any("error", err))

				size = apparentSize(info)
			}

			obs.size = size

			if obs.kind == KindFile {
				obs.id, obs.linked = opt.Probe.Identity(path, info)
			}
		}

		agg.addEntry(obs)

		return nil
	})
	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scanning %q: %w", root, ctxErr)
		}

		return nil, fmt.Errorf("walking %q: %w", root, walkErr)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scanning %q: %w", root, err)
	}

	result := agg.finalize(opt.Rank, opt.TopN, opt.MinSize)

	result.Elapsed = time.Since(start)

	log.Debug("scan complete",
		slog.Uint64("total_size", result.TotalSize),
		slog.Int64("files", result.TotalFiles),
		slog.Int64("dirs", result.TotalDirs),
		slog.Int("errors", len(result.Errors)),
		slog.Duration("elapsed", result.Elapsed),
	)

	return result, nil
}
