package scraper

import "sync"

// Frontier is the work stack and visited set of one crawl.
// Pending URLs come off the stack most-recent first, so traversal is depth-first. Pushing a
// URL that is still pending puts it back on top; the older stack entry is dropped by Next.
// A URL is marked visited when it is handed out by Next and is never handed out again.
type Frontier struct {
	mu      sync.Mutex
	stack   []string
	seen    map[string]struct{} // every URL ever pushed
	visited map[string]struct{}
	active  int
	changed chan struct{}
}

// NewFrontier creates a frontier holding the seed URLs.
func NewFrontier(seeds ...string) *Frontier {
	f := &Frontier{
		seen:    make(map[string]struct{}),
		visited: make(map[string]struct{}),
		changed: make(chan struct{}),
	}
	f.Push(seeds...)
	return f
}

// Push puts every unvisited URL on top of the stack, in order, and returns the URLs that
// were never pushed before.
func (f *Frontier) Push(urls ...string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var added []string
	pushed := false
	for _, u := range urls {
		if _, ok := f.visited[u]; ok {
			continue
		}
		f.stack = append(f.stack, u)
		pushed = true
		if _, ok := f.seen[u]; !ok {
			f.seen[u] = struct{}{}
			added = append(added, u)
		}
	}
	if pushed {
		f.notifyLocked()
	}
	return added
}

// Next pops the next unvisited URL, marks it visited, and counts it as active until Done.
//
// When the stack is empty, ok is false. wait is nil if nothing is active either, meaning
// the crawl is finished; otherwise wait is closed as soon as a Push or Done may have made
// more work available.
func (f *Frontier) Next() (next string, wait <-chan struct{}, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.stack) > 0 {
		last := len(f.stack) - 1
		u := f.stack[last]
		f.stack = f.stack[:last]

		if _, seen := f.visited[u]; seen {
			continue
		}
		f.visited[u] = struct{}{}
		f.active++
		return u, nil, true
	}

	if f.active == 0 {
		return "", nil, false
	}
	return "", f.changed, false
}

// Done marks one URL returned by Next as fully processed.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active > 0 {
		f.active--
	}
	f.notifyLocked()
}

// Visited reports how many URLs have been handed out.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Len reports how many stack entries are left, stale duplicates included.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stack)
}

func (f *Frontier) notifyLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}
