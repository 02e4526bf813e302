// Package pqueue implements the indexable max-heap behind the focused crawl frontier.
package pqueue

// heapNode is a single heap slot: a page identifier and its priority
type heapNode struct {
	value string
	key   int
	seq   uint64 // insertion order, earlier wins ties
}

// Queue is an indexable binary max-heap stored 1-indexed in a dense slice.
// Index 0 holds an unused sentinel so that parent(i) = i/2 and
// children(i) = 2i, 2i+1.
//
// Among equal keys the entry added first ranks higher, so equal-priority
// entries leave the queue in FIFO order.
//
// Values are identities: every queued value appears at most once, and the
// queue keeps a value -> slot map updated on every swap so callers can
// address entries by identity instead of a possibly stale index.
type Queue struct {
	nodes   []heapNode
	index   map[string]int
	nextSeq uint64
}

// New creates an empty priority queue
func New() *Queue {
	return &Queue{
		nodes: []heapNode{{key: -1}}, // sentinel at index 0
		index: make(map[string]int),
	}
}

// Len returns the number of queued entries
func (q *Queue) Len() int {
	return len(q.nodes) - 1
}

// IsEmpty returns true if the queue has no entries
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Add inserts value with the given priority and sifts it up.
// Adding a value that is already queued replaces its key instead.
func (q *Queue) Add(value string, key int) {
	if i, ok := q.index[value]; ok {
		old := q.nodes[i].key
		q.nodes[i].key = key
		if key > old {
			q.siftUp(i)
		} else {
			q.siftDown(i)
		}
		return
	}

	q.nodes = append(q.nodes, heapNode{value: value, key: key, seq: q.nextSeq})
	q.nextSeq++
	i := q.Len()
	q.index[value] = i
	q.siftUp(i)
}

// PeekMax returns the highest priority value without removing it
func (q *Queue) PeekMax() (string, bool) {
	if q.IsEmpty() {
		return "", false
	}
	return q.nodes[1].value, true
}

// ExtractMax removes and returns the highest priority value
func (q *Queue) ExtractMax() (string, bool) {
	if q.IsEmpty() {
		return "", false
	}
	value := q.nodes[1].value
	q.RemoveAt(1)
	return value, true
}

// DecrementPriority lowers the key at index i by amount. A non-negative key
// stops at 0; a negative key is lowered as is.
// Invalid indices, negative amounts and an empty queue are ignored.
func (q *Queue) DecrementPriority(i, amount int) {
	if !q.valid(i) || amount < 0 {
		return
	}

	// Clamp at 0 only for keys that start non-negative; a key never rises
	key := q.nodes[i].key
	next := key - amount
	if key >= 0 && next < 0 {
		next = 0
	}
	q.nodes[i].key = next

	// Key only went down, so order can only be broken below i
	q.siftDown(i)
}

// DecrementPriorityOf lowers the key of value by amount, see DecrementPriority
func (q *Queue) DecrementPriorityOf(value string, amount int) {
	q.DecrementPriority(q.Index(value), amount)
}

// RemoveAt deletes the entry at index i by swapping it with the last entry,
// shrinking the heap and restoring order from i. Invalid indices are ignored.
func (q *Queue) RemoveAt(i int) {
	if !q.valid(i) {
		return
	}

	last := q.Len()
	q.swap(i, last)
	delete(q.index, q.nodes[last].value)
	q.nodes = q.nodes[:last]

	if i < last {
		// The moved entry may belong below or above its new slot
		q.siftDown(i)
		q.siftUp(i)
	}
}

// Remove deletes value from the queue if present
func (q *Queue) Remove(value string) {
	q.RemoveAt(q.Index(value))
}

// Key returns the priority at index i, or -1 for an invalid index
func (q *Queue) Key(i int) int {
	if !q.valid(i) {
		return -1
	}
	return q.nodes[i].key
}

// Value returns the value at index i
func (q *Queue) Value(i int) (string, bool) {
	if !q.valid(i) {
		return "", false
	}
	return q.nodes[i].value, true
}

// Index returns the current slot of value, or 0 when it is not queued
func (q *Queue) Index(value string) int {
	return q.index[value]
}

// Contains reports whether value is currently queued
func (q *Queue) Contains(value string) bool {
	_, ok := q.index[value]
	return ok
}

// Priorities returns B with B[i] = Key(i) for every slot; B[0] is unused.
// Returns nil when the queue is empty.
func (q *Queue) Priorities() []int {
	if q.IsEmpty() {
		return nil
	}
	keys := make([]int, len(q.nodes))
	for i := 1; i < len(q.nodes); i++ {
		keys[i] = q.nodes[i].key
	}
	return keys
}

func (q *Queue) valid(i int) bool {
	return i >= 1 && i <= q.Len()
}

// higher reports whether slot a outranks slot b
func (q *Queue) higher(a, b int) bool {
	na, nb := q.nodes[a], q.nodes[b]
	if na.key != nb.key {
		return na.key > nb.key
	}
	return na.seq < nb.seq
}

func (q *Queue) swap(a, b int) {
	q.nodes[a], q.nodes[b] = q.nodes[b], q.nodes[a]
	q.index[q.nodes[a].value] = a
	q.index[q.nodes[b].value] = b
}

func (q *Queue) siftUp(i int) {
	for i > 1 {
		parent := i >> 1
		if !q.higher(i, parent) {
			return
		}
		q.swap(i, parent)
		i = parent
	}
}

func (q *Queue) siftDown(i int) {
	size := q.Len()
	for {
		left := i << 1
		right := left + 1
		largest := i

		if left <= size && q.higher(left, largest) {
			largest = left
		}
		if right <= size && q.higher(right, largest) {
			largest = right
		}
		if largest == i {
			return
		}

		q.swap(i, largest)
		i = largest
	}
}
