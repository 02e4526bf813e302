package crawler

import "sync"

// frontierEntry is a page waiting to be visited and the page it was found on
type frontierEntry struct {
	Page      string
	Parent    string
	HasParent bool
}

// Queue implements the thread-safe FIFO frontier of a breadth-first crawl.
// Duplicates are allowed; a page already explored is simply revisited
// without being fetched again.
type Queue struct {
	mu    sync.Mutex
	items []frontierEntry
	head  int
}

// NewQueue creates an empty BFS queue
func NewQueue() *Queue {
	return &Queue{
		items: make([]frontierEntry, 0),
	}
}

// Push appends an entry to the back of the queue
func (q *Queue) Push(entry frontierEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, entry)
}

// Pop removes and returns the front entry.
// Returns (entry, true) if successful, (empty, false) if the queue is empty
func (q *Queue) Pop() (frontierEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return frontierEntry{}, false
	}

	entry := q.items[q.head]
	q.items[q.head] = frontierEntry{}
	q.head++

	// Compact once the consumed prefix dominates the backing array
	if q.head > 64 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}

	return entry, true
}

// Size returns the current number of items in the queue
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
