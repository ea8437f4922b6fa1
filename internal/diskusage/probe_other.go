//go:build !unix && !windows

package diskusage

import (
	"io/fs"
)

// clusterSize is the allocation unit assumed where the platform exposes none.
const clusterSize = 4096

type platformProbe struct{}

// Size rounds the apparent length up to whole clusters.
func (platformProbe) Size(_ string, info fs.FileInfo) (uint64, error) {
	return roundUp(apparentSize(info), clusterSize), nil
}

// Identity is not available on this platform.
func (platformProbe) Identity(string, fs.FileInfo) (LinkIdentity, bool) {
	return LinkIdentity{}, false
}

func isHidden(d fs.DirEntry) bool {
	return hasHiddenPrefix(d.Name())
}
