package diskusage

import (
	"io/fs"
	"time"
)

// Kind classifies a filesystem entry.
type Kind uint8

const (
	// KindFile is a regular file.
	KindFile Kind = iota
	// KindDir is a directory.
	KindDir
	// KindSymlink is a symbolic link. Links are never followed.
	KindSymlink
	// KindOther covers devices, sockets, pipes and anything else.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// kindOf derives the Kind from a file mode as reported by lstat.
func kindOf(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Node is one filesystem entry discovered during a scan.
type Node struct {
	// Path is the absolute, symlink-free path of the entry.
	Path string `json:"path"`
	// Kind is the entry type.
	Kind Kind `json:"kind"`
	// Size is the on-disk size in bytes. For directories it is the total of
	// all descendants.
	Size uint64 `json:"size"`
	// Depth is the distance from the scan root (root = 0).
	Depth int `json:"depth"`
	// HardLink marks a file whose content was already counted under another path.
	HardLink bool `json:"hard_link,omitempty"`
}

// Progress is a sample of the running scan counters.
type Progress struct {
	// Items is the number of entries processed so far.
	Items int64
	// Bytes is the number of bytes counted so far.
	Bytes uint64
}

// Result is the outcome of a completed scan. It is not mutated after Scan returns.
type Result struct {
	// Root is the scan root with the total size of the tree.
	Root Node `json:"root"`
	// Entries are the largest entries, size descending with ties broken by path.
	Entries []Node `json:"entries"`
	// TotalSize is the number of bytes counted across the tree.
	TotalSize uint64 `json:"total_size"`
	// TotalFiles is the number of non-directory, non-symlink entries scanned.
	TotalFiles int64 `json:"total_files"`
	// TotalDirs is the number of directories scanned, excluding the root.
	TotalDirs int64 `json:"total_dirs"`
	// TotalSymlinks is the number of symbolic links seen.
	TotalSymlinks int64 `json:"total_symlinks"`
	// Errors lists the suppressed per-entry failures, ordered by path.
	Errors []ScanError `json:"errors"`
	// Saturated reports that a size total hit the uint64 ceiling.
	Saturated bool `json:"saturated,omitempty"`
	// Rank is the entry selection used for Entries.
	Rank RankMode `json:"rank"`
	// TopN is the number of entries requested.
	TopN int `json:"top_n"`
	// Elapsed is the wall time of the scan.
	Elapsed time.Duration `json:"elapsed"`
}
