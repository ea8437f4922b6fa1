package diskusage

import (
	"container/heap"
)

// ranksBefore is the result order: larger size first, then smaller path.
func ranksBefore(a, b Node) bool {
	if a.Size != b.Size {
		return a.Size > b.Size
	}

	return a.Path < b.Path
}

// nodeHeap keeps the weakest retained candidate at the top.
type nodeHeap []Node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(Node)) } //nolint:forcetypeassert // heap only holds Node

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]

	return x
}

// TopN returns the n largest nodes ordered by size descending, ties broken by
// ascending path. It keeps a bounded min-heap, so nodes is never fully sorted.
func TopN(nodes []Node, n int) []Node {
	if n <= 0 || len(nodes) == 0 {
		return []Node{}
	}

	h := make(nodeHeap, 0, min(n, len(nodes)))

	for _, node := range nodes {
		if h.Len() < n {
			heap.Push(&h, node)

			continue
		}

		if ranksBefore(node, h[0]) {
			h[0] = node
			heap.Fix(&h, 0)
		}
	}

	out := make([]Node, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Node) //nolint:forcetypeassert // heap only holds Node
	}

	return out
}
