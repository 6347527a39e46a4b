// Package merger combines ranked partitions into a single top-N list.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
)

// Merge returns the best limit matches across all partitions in ranker.Less
// order. A non-positive limit keeps everything.
func Merge(partitions [][]ranker.Match, limit int) []ranker.Match {
	if limit <= 0 {
		for _, p := range partitions {
			limit += len(p)
		}
	}
	if limit == 0 {
		return nil
	}
	h := &matchHeap{}
	heap.Init(h)
	for _, matches := range partitions {
		for _, m := range matches {
			if h.Len() == limit && !ranker.Less(m, (*h)[0]) {
				// partitions are sorted, nothing later in this one can enter
				break
			}
			heap.Push(h, m)
			if h.Len() > limit {
				heap.Pop(h)
			}
		}
	}
	result := make([]ranker.Match, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ranker.Match)
	}
	return result
}

// matchHeap keeps the worst retained match at the root.
type matchHeap []ranker.Match

func (h matchHeap) Len() int { return len(h) }

func (h matchHeap) Less(i, j int) bool {
	return ranker.Less(h[j], h[i])
}

func (h matchHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x interface{}) {
	*h = append(*h, x.(ranker.Match))
}

func (h *matchHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
