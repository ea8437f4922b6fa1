package diskusage

import (
	"sync"
)

// Owner is the path currently credited with a hard-linked file's bytes.
type Owner struct {
	// Path is the credited path.
	Path string
	// Size is the number of bytes credited.
	Size uint64
}

// LinkTracker records which hard-linked contents have been counted.
//
// The set of identities only grows. Ownership of an identity always ends up
// with the lexically smallest path that claimed it, so the outcome does not
// depend on the order in which concurrent walkers reach the links.
type LinkTracker struct {
	mu     sync.Mutex
	owners map[LinkIdentity]Owner
}

// NewLinkTracker creates an empty tracker.
func NewLinkTracker() *LinkTracker {
	return &LinkTracker{owners: make(map[LinkIdentity]Owner)}
}

// Claim registers path as a holder of id.
//
// claimed is true when path now owns the content: either id was unseen or
// path sorts before the current owner. In the latter case prev is the owner
// that lost its credit and must be uncounted by the caller.
func (t *LinkTracker) Claim(id LinkIdentity, path string, size uint64) (prev Owner, claimed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, seen := t.owners[id]
	if seen && current.Path <= path {
		return Owner{}, false
	}

	t.owners[id] = Owner{Path: path, Size: size}

	return current, true
}

// Owner returns the path credited for id.
func (t *LinkTracker) Owner(id LinkIdentity) (Owner, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	owner, ok := t.owners[id]

	return owner, ok
}

// Len returns the number of distinct identities seen.
func (t *LinkTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.owners)
}
