package diskusage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o644))
}

// scan runs Scan with apparent sizes so byte counts are exact.
func scan(t *testing.T, opt Options) *Result {
	t.Helper()

	if opt.Probe == nil {
		opt.Probe = ApparentProbe{}
	}

	res, err := Scan(t.Context(), opt, nil)
	require.NoError(t, err)

	return res
}

func paths(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Path)
	}

	return out
}

func TestScanHardLinkedTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A"), 100)
	writeFile(t, filepath.Join(root, "sub", "C"), 300)

	if err := os.Link(filepath.Join(root, "A"), filepath.Join(root, "B")); err != nil {
		t.Skipf("hard links not supported: %v", err)
	}

	res := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 10, Rank: RankAll})
	base := res.Root.Path

	assert.Equal(t, uint64(400), res.TotalSize)
	assert.Equal(t, uint64(400), res.Root.Size)
	assert.Equal(t, int64(3), res.TotalFiles)
	assert.Equal(t, int64(1), res.TotalDirs)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []Node{
		{Path: filepath.Join(base, "sub"), Kind: KindDir, Size: 300, Depth: 1},
		{Path: filepath.Join(base, "sub", "C"), Kind: KindFile, Size: 300, Depth: 2},
		{Path: filepath.Join(base, "A"), Kind: KindFile, Size: 100, Depth: 1},
		{Path: filepath.Join(base, "B"), Kind: KindFile, Size: 0, Depth: 1, HardLink: true},
	}, res.Entries)

	dirs := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 10, Rank: RankDirs})
	assert.Equal(t, []string{filepath.Join(base, "sub")}, paths(dirs.Entries))
}

func TestScanDirectoryTotalsMatchChildren(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "one"), 11)
	writeFile(t, filepath.Join(root, "a", "two"), 22)
	writeFile(t, filepath.Join(root, "a", "b", "three"), 33)
	writeFile(t, filepath.Join(root, "a", "b", "c", "four"), 44)
	writeFile(t, filepath.Join(root, "d", "five"), 55)
	writeFile(t, filepath.Join(root, "six"), 66)
	writeFile(t, filepath.Join(root, "empty"), 0)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "e", "f"), 0o755))

	res := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 1000, Threads: 4})

	children := map[string]uint64{}
	for _, n := range res.Entries {
		children[filepath.Dir(n.Path)] += n.Size
	}

	for _, n := range res.Entries {
		if n.Kind == KindDir {
			assert.Equal(t, n.Size, children[n.Path], "directory %s", n.Path)
		}
	}

	assert.Equal(t, res.Root.Size, children[res.Root.Path])
	assert.Equal(t, uint64(231), res.TotalSize)
	assert.Equal(t, int64(7), res.TotalFiles)
	assert.Equal(t, int64(6), res.TotalDirs)

	for i := 1; i < len(res.Entries); i++ {
		assert.True(t, ranksBefore(res.Entries[i-1], res.Entries[i]), "entries out of order at %d", i)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"x/1", "x/2", "y/1", "y/z/1", "w", "v"} {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)), 64)
	}

	opt := Options{Path: root, MaxDepth: NoDepthLimit, TopN: 5}
	first := scan(t, opt)

	opt.Threads = 1
	second := scan(t, opt)

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, first.TotalSize, second.TotalSize)
}

func TestScanTopNBounds(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a"), 1)
	writeFile(t, filepath.Join(root, "b"), 2)

	none := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 0})
	assert.Empty(t, none.Entries)
	assert.Equal(t, uint64(3), none.TotalSize)

	all := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 100})
	assert.Len(t, all.Entries, 2)
}

func TestScanHiddenEntries(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "objects", "pack"), 500)
	writeFile(t, filepath.Join(root, "dir", ".env"), 20)
	writeFile(t, filepath.Join(root, "dir", "visible"), 10)

	skipped := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 10})
	base := skipped.Root.Path

	assert.Equal(t, uint64(10), skipped.TotalSize)
	assert.Equal(t, int64(1), skipped.TotalFiles)
	assert.Equal(t, int64(1), skipped.TotalDirs)
	assert.Equal(t, []string{filepath.Join(base, "dir"), filepath.Join(base, "dir", "visible")}, paths(skipped.Entries))

	included := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 10, Hidden: true})
	assert.Equal(t, uint64(530), included.TotalSize)
	assert.Equal(t, int64(3), included.TotalDirs)
	assert.Equal(t, filepath.Join(base, ".git"), included.Entries[0].Path)
}

func TestScanMaxDepth(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top"), 10)
	writeFile(t, filepath.Join(root, "l1", "l2", "l3", "deep"), 300)

	t.Run("zero keeps only the root", func(t *testing.T) {
		t.Parallel()

		res := scan(t, Options{Path: root, MaxDepth: 0, TopN: 10})
		assert.Empty(t, res.Entries)
		assert.Equal(t, uint64(310), res.Root.Size)
		assert.Equal(t, int64(3), res.TotalDirs)
	})

	t.Run("folds deeper bytes into kept ancestors", func(t *testing.T) {
		t.Parallel()

		res := scan(t, Options{Path: root, MaxDepth: 1, TopN: 10})
		base := res.Root.Path

		assert.Equal(t, []Node{
			{Path: filepath.Join(base, "l1"), Kind: KindDir, Size: 300, Depth: 1},
			{Path: filepath.Join(base, "top"), Kind: KindFile, Size: 10, Depth: 1},
		}, res.Entries)

		for _, n := range res.Entries {
			assert.LessOrEqual(t, n.Depth, 1)
		}
	})

	t.Run("prune stops descending", func(t *testing.T) {
		t.Parallel()

		res := scan(t, Options{Path: root, MaxDepth: 1, PruneDepth: true, TopN: 10})
		base := res.Root.Path

		assert.Equal(t, uint64(10), res.TotalSize)
		assert.Equal(t, int64(1), res.TotalDirs)
		assert.Equal(t, []Node{
			{Path: filepath.Join(base, "top"), Kind: KindFile, Size: 10, Depth: 1},
			{Path: filepath.Join(base, "l1"), Kind: KindDir, Size: 0, Depth: 1},
		}, res.Entries)
	})

	t.Run("prune at zero visits nothing", func(t *testing.T) {
		t.Parallel()

		res := scan(t, Options{Path: root, MaxDepth: 0, PruneDepth: true, TopN: 10})
		assert.Empty(t, res.Entries)
		assert.Equal(t, uint64(0), res.TotalSize)
		assert.Equal(t, int64(0), res.TotalFiles)
	})
}

func TestScanExcludes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), 900)
	writeFile(t, filepath.Join(root, "src", "main.go"), 40)

	res := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 10, Excludes: []string{`.*node_modules.*`}})
	assert.Equal(t, uint64(40), res.TotalSize)
	assert.Equal(t, int64(1), res.TotalDirs)

	_, err := Scan(t.Context(), Options{Path: root, Excludes: []string{"["}}, nil)
	assert.ErrorContains(t, err, "compiling exclusion pattern")
}

func TestScanSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "target"), 100)
	writeFile(t, filepath.Join(root, "dir", "inner"), 50)

	if err := os.Symlink(filepath.Join(root, "target"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken")))
	require.NoError(t, os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "dirlink")))

	res := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 10, Rank: RankFiles})
	base := res.Root.Path

	assert.Equal(t, uint64(150), res.TotalSize)
	assert.Equal(t, int64(3), res.TotalSymlinks)
	assert.Equal(t, int64(2), res.TotalFiles)
	assert.Equal(t, int64(1), res.TotalDirs)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []Node{
		{Path: filepath.Join(base, "target"), Kind: KindFile, Size: 100, Depth: 1},
		{Path: filepath.Join(base, "dir", "inner"), Kind: KindFile, Size: 50, Depth: 2},
		{Path: filepath.Join(base, "broken"), Kind: KindSymlink, Depth: 1},
		{Path: filepath.Join(base, "dirlink"), Kind: KindSymlink, Depth: 1},
		{Path: filepath.Join(base, "link"), Kind: KindSymlink, Depth: 1},
	}, res.Entries)
}

func TestScanPermissionDenied(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "secret"), 50)
	writeFile(t, filepath.Join(root, "open", "file"), 10)

	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res := scan(t, Options{Path: root, MaxDepth: NoDepthLimit, TopN: 10})
	base := res.Root.Path

	require.Len(t, res.Errors, 1)
	assert.Equal(t, filepath.Join(base, "locked"), res.Errors[0].Path)
	assert.Equal(t, ErrorPermission, res.Errors[0].Kind)
	assert.Equal(t, uint64(10), res.TotalSize)
	assert.Equal(t, int64(1), res.TotalDirs)
	assert.NotContains(t, paths(res.Entries), filepath.Join(base, "locked"))
}

func TestScanRootErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	writeFile(t, file, 3)

	_, err := Scan(t.Context(), Options{Path: filepath.Join(root, "missing")}, nil)
	require.ErrorIs(t, err, ErrRootNotFound)

	var rootErr *RootError
	require.ErrorAs(t, err, &rootErr)
	assert.Contains(t, err.Error(), "cannot access path")

	_, err = Scan(t.Context(), Options{Path: file}, nil)
	require.ErrorIs(t, err, ErrNotDirectory)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestScanUnreadableRoot(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err := Scan(t.Context(), Options{Path: root}, nil)
	require.ErrorIs(t, err, ErrRootUnreadable)
}

func TestScanInvalidOptions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	for name, opt := range map[string]Options{
		"depth":   {Path: root, MaxDepth: -2},
		"top":     {Path: root, TopN: -1},
		"threads": {Path: root, Threads: -1},
		"rank":    {Path: root, Rank: "largest"},
	} {
		_, err := Scan(t.Context(), opt, nil)
		assert.Error(t, err, name)
	}
}

func TestScanCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b"), 1)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := Scan(ctx, Options{Path: root, MaxDepth: NoDepthLimit}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, res)
}
