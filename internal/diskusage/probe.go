package diskusage

import (
	"io/fs"
)

// SizeProbe measures the storage a file occupies.
type SizeProbe interface {
	// Size returns the bytes allocated to the file, not its apparent length.
	Size(path string, info fs.FileInfo) (uint64, error)
	// Identity returns the key of the file's physical content. ok is false
	// when the content cannot be shared with another path.
	Identity(path string, info fs.FileInfo) (id LinkIdentity, ok bool)
}

// LinkIdentity identifies the physical content of a file across hard links.
type LinkIdentity struct {
	// Device is the device or volume holding the content.
	Device uint64
	// Index is the inode or file index on that device.
	Index uint64
}

// NewProbe returns the size probe for the running platform.
func NewProbe() SizeProbe {
	return platformProbe{}
}

// ApparentProbe reports the logical file length instead of allocated space.
// Hard links are still identified through the platform probe.
type ApparentProbe struct{}

// Size returns the apparent length of the file.
func (ApparentProbe) Size(_ string, info fs.FileInfo) (uint64, error) {
	return apparentSize(info), nil
}

// Identity delegates to the platform probe.
func (ApparentProbe) Identity(path string, info fs.FileInfo) (LinkIdentity, bool) {
	return platformProbe{}.Identity(path, info)
}

func apparentSize(info fs.FileInfo) uint64 {
	if info.Size() <= 0 {
		return 0
	}

	return uint64(info.Size())
}

// roundUp rounds size up to a whole number of allocation units.
func roundUp(size, unit uint64) uint64 {
	if size == 0 {
		return 0
	}

	return ((size + unit - 1) / unit) * unit
}
