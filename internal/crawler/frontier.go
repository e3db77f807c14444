package crawler

import (
	"container/heap"
	"strings"
	"sync"
)

// priorityPaths orders same-depth pages so the ones that usually hold
// business facts are fetched first, which matters when the page budget is
// small.
var priorityPaths = []string{
	"contact", "about", "service", "location", "hours", "team", "menu", "pricing", "faq",
}

// Frontier is the crawl queue: breadth-first by depth, priority paths first
// within a depth, discovery order as the final tie-break. URLs are deduped on
// their normalized form. Pop blocks until an item is ready or the crawl is
// over.
type Frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    frontierHeap
	queued   map[string]bool
	inflight int
	closed   bool
	seq      int
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	f := &Frontier{queued: make(map[string]bool)}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Target is one queued page.
type Target struct {
	URL   string // normalized
	Depth int
	rank  int
	seq   int
}

// Push enqueues a normalized URL unless it was already queued. Returns
// whether the URL was accepted.
func (f *Frontier) Push(normURL string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.queued[normURL] {
		return false
	}
	f.queued[normURL] = true
	heap.Push(&f.items, Target{URL: normURL, Depth: depth, rank: pathRank(normURL), seq: f.seq})
	f.seq++
	f.cond.Signal()
	return true
}

// Pop blocks until a target is available, returning false when the frontier
// is closed or drained with no work in flight. A successful Pop must be
// paired with Done.
func (f *Frontier) Pop() (Target, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		if f.closed {
			return Target{}, false
		}
		if f.items.Len() > 0 {
			t := heap.Pop(&f.items).(Target)
			f.inflight++
			return t, true
		}
		if f.inflight == 0 {
			// Drained: nothing queued and nobody can enqueue more.
			f.closed = true
			f.cond.Broadcast()
			return Target{}, false
		}
		f.cond.Wait()
	}
}

// Done marks a popped target finished, releasing waiters once the last
// in-flight page completes.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	f.cond.Broadcast()
}

// Close ends the crawl; blocked Pop calls return false.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}

// Seen reports whether the normalized URL was ever queued.
func (f *Frontier) Seen(normURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queued[normURL]
}

func pathRank(normURL string) int {
	lower := strings.ToLower(normURL)
	for i, p := range priorityPaths {
		if strings.Contains(lower, p) {
			return i
		}
	}
	return len(priorityPaths)
}

type frontierHeap []Target

func (h frontierHeap) Len() int { return len(h) }

func (h frontierHeap) Less(i, j int) bool {
	if h[i].Depth != h[j].Depth {
		return h[i].Depth < h[j].Depth
	}
	if h[i].rank != h[j].rank {
		return h[i].rank < h[j].rank
	}
	return h[i].seq < h[j].seq
}

func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) { *h = append(*h, x.(Target)) }

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}
