//go:build unix

package diskusage

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

// blockUnit is the unit of st_blocks, independent of the filesystem block size.
const blockUnit = 512

type platformProbe struct{}

// rawStat holds the fields the probe needs from either stat flavour.
type rawStat struct {
	dev    uint64
	ino    uint64
	nlink  uint64
	blocks int64
}

// statOf reads the stat fields from info, falling back to lstat(2) when the
// FileInfo does not carry a Stat_t.
func statOf(path string, info fs.FileInfo) (rawStat, error) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok && st != nil {
		return rawStat{
			dev:    uint64(st.Dev),   //nolint:unconvert,gosec // Dev width differs per platform
			ino:    uint64(st.Ino),   //nolint:unconvert // Ino width differs per platform
			nlink:  uint64(st.Nlink), //nolint:unconvert // Nlink width differs per platform
			blocks: int64(st.Blocks), //nolint:unconvert // Blocks width differs per platform
		}, nil
	}

	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return rawStat{}, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}

	return rawStat{
		dev:    uint64(st.Dev),   //nolint:unconvert,gosec // Dev width differs per platform
		ino:    uint64(st.Ino),   //nolint:unconvert // Ino width differs per platform
		nlink:  uint64(st.Nlink), //nolint:unconvert // Nlink width differs per platform
		blocks: int64(st.Blocks), //nolint:unconvert // Blocks width differs per platform
	}, nil
}

// Size returns st_blocks * 512, which excludes sparse holes and reflects
// filesystem compression.
func (platformProbe) Size(path string, info fs.FileInfo) (uint64, error) {
	st, err := statOf(path, info)
	if err != nil {
		return 0, err
	}

	if st.blocks <= 0 {
		return 0, nil
	}

	return uint64(st.blocks) * blockUnit, nil
}

// Identity returns the (device, inode) pair of files with more than one link.
func (platformProbe) Identity(path string, info fs.FileInfo) (LinkIdentity, bool) {
	st, err := statOf(path, info)
	if err != nil || st.nlink < 2 {
		return LinkIdentity{}, false
	}

	return LinkIdentity{Device: st.dev, Index: st.ino}, true
}

// isHidden reports whether the entry name starts with a dot.
func isHidden(d fs.DirEntry) bool {
	return hasHiddenPrefix(d.Name())
}
