package diskusage

import (
	"math"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
)

// treeNode is a Node linked to its parent directory.
type treeNode struct {
	Node

	parent *treeNode
	failed bool
}

// observation is what the walker reports for one non-directory entry.
type observation struct {
	path   string
	kind   Kind
	depth  int
	size   uint64
	id     LinkIdentity
	linked bool
}

// aggregator merges walker observations into per-directory totals. All tree
// mutation happens under mu since fastwalk calls the walk function from
// multiple goroutines concurrently. The progress counters are atomic so they
// can be sampled without taking the lock.
type aggregator struct {
	mu       sync.Mutex
	root     *treeNode
	maxDepth int
	nodes    map[string]*treeNode
	links    *LinkTracker

	files     int64
	dirs      int64
	symlinks  int64
	saturated bool
	errors    []ScanError

	items atomic.Int64
	bytes atomic.Uint64
}

// newAggregator creates an aggregator for the tree rooted at root. Entries
// deeper than maxDepth are folded into their ancestor at maxDepth.
func newAggregator(root string, maxDepth int, links *LinkTracker) *aggregator {
	rootNode := &treeNode{Node: Node{Path: root, Kind: KindDir}}

	return &aggregator{
		root:     rootNode,
		maxDepth: maxDepth,
		nodes:    map[string]*treeNode{root: rootNode},
		links:    links,
	}
}

// kept reports whether entries at depth get their own node.
func (a *aggregator) kept(depth int) bool {
	return a.maxDepth == NoDepthLimit || depth <= a.maxDepth
}

// addDir records a directory below the root.
func (a *aggregator) addDir(path string, depth int) {
	a.items.Add(1)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.dirs++

	if a.kept(depth) {
		a.ensureDir(path, depth)
	}
}

// addEntry records a file, symlink or other non-directory entry and credits
// its size to every ancestor up to the root. A hard link whose content is
// already owned by another path is recorded with size 0.
func (a *aggregator) addEntry(obs observation) {
	a.items.Add(1)

	a.mu.Lock()
	defer a.mu.Unlock()

	if obs.kind == KindSymlink {
		a.symlinks++
	} else {
		a.files++
	}

	size := obs.size
	duplicate := false

	if obs.linked {
		prev, claimed := a.links.Claim(obs.id, obs.path, size)

		switch {
		case !claimed:
			size, duplicate = 0, true
		case prev.Path != "":
			a.release(prev)
		default:
			a.bytes.Add(size)
		}
	} else {
		a.bytes.Add(size)
	}

	parent := a.anchor(obs.path, obs.depth)

	if a.kept(obs.depth) {
		a.nodes[obs.path] = &treeNode{
			Node: Node{
				Path:     obs.path,
				Kind:     obs.kind,
				Size:     size,
				Depth:    obs.depth,
				HardLink: duplicate,
			},
			parent: parent,
		}
	}

	a.credit(parent, size)
}

// addError records a suppressed failure. A directory that was counted but
// could not be read is taken back out of the directory count and the ranking.
func (a *aggregator) addError(path string, err error, countedDir bool) ScanError {
	scanErr := newScanError(path, err)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.errors = append(a.errors, scanErr)

	if countedDir {
		a.dirs--

		if n, ok := a.nodes[path]; ok && n != a.root {
			n.failed = true
		}
	}

	return scanErr
}

// progress samples the running counters.
func (a *aggregator) progress() Progress {
	return Progress{Items: a.items.Load(), Bytes: a.bytes.Load()}
}

// ensureDir returns the node for the directory at path, creating it and any
// missing ancestors.
func (a *aggregator) ensureDir(path string, depth int) *treeNode {
	if n, ok := a.nodes[path]; ok {
		return n
	}

	if depth <= 0 {
		return a.root
	}

	n := &treeNode{
		Node:   Node{Path: path, Kind: KindDir, Depth: depth},
		parent: a.ensureDir(filepath.Dir(path), depth-1),
	}
	a.nodes[path] = n

	return n
}

// anchor returns the deepest kept directory above the entry at path.
func (a *aggregator) anchor(path string, depth int) *treeNode {
	dir, dirDepth := filepath.Dir(path), depth-1

	for !a.kept(dirDepth) {
		dir, dirDepth = filepath.Dir(dir), dirDepth-1
	}

	return a.ensureDir(dir, dirDepth)
}

// release moves the credit for a hard-linked file away from its previous owner.
func (a *aggregator) release(prev Owner) {
	depth := calculateDepth(prev.Path, a.root.Path)

	if n, ok := a.nodes[prev.Path]; ok {
		n.Size = 0
		n.HardLink = true
	}

	for n := a.anchor(prev.Path, depth); n != nil; n = n.parent {
		n.Size = subSaturating(n.Size, prev.Size)
	}
}

// credit adds size to n and all of its ancestors.
func (a *aggregator) credit(n *treeNode, size uint64) {
	if size == 0 {
		return
	}

	for ; n != nil; n = n.parent {
		var clamped bool

		n.Size, clamped = addSaturating(n.Size, size)
		a.saturated = a.saturated || clamped
	}
}

// finalize produces the Result from the collected data. It ranks every kept
// node except the root and directories that failed to read.
func (a *aggregator) finalize(rank RankMode, topN int, minSize uint64) *Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	candidates := make([]Node, 0, len(a.nodes))

	for _, n := range a.nodes {
		if n == a.root || n.failed || !rank.includes(n.Kind) || n.Size < minSize {
			continue
		}

		candidates = append(candidates, n.Node)
	}

	errs := make([]ScanError, len(a.errors))
	copy(errs, a.errors)
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Path != errs[j].Path {
			return errs[i].Path < errs[j].Path
		}

		return errs[i].Kind < errs[j].Kind
	})

	return &Result{
		Root:          a.root.Node,
		Entries:       TopN(candidates, topN),
		TotalSize:     a.root.Size,
		TotalFiles:    a.files,
		TotalDirs:     a.dirs,
		TotalSymlinks: a.symlinks,
		Errors:        errs,
		Saturated:     a.saturated,
		Rank:          rank,
		TopN:          topN,
	}
}

// addSaturating returns a+b, clamped to math.MaxUint64.
func addSaturating(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return math.MaxUint64, true
	}

	return a + b, false
}

// subSaturating returns a-b, clamped to 0.
func subSaturating(a, b uint64) uint64 {
	if b > a {
		return 0
	}

	return a - b
}
