package audio

import "sync"

// Queue is a two-tier priority queue: high cues before low, FIFO within a
// tier. Pop blocks without timeout until a cue arrives or Close is called.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	high   []Cue
	low    []Cue
	limit  int
	closed bool

	dropped int64
}

// NewQueue creates a queue holding at most limit pending cues per tier.
// A limit <= 0 means unbounded.
func NewQueue(limit int) *Queue {
	q := &Queue{limit: limit}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a cue. It never blocks; it returns false if the queue is
// closed or the cue's tier is full.
func (q *Queue) Push(c Cue) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	tier := &q.low
	if c.Priority == PriorityHigh {
		tier = &q.high
	}
	if q.limit > 0 && len(*tier) >= q.limit {
		q.dropped++
		return false
	}
	*tier = append(*tier, c)
	q.cond.Signal()
	return true
}

// Pop blocks until a cue is available. It returns false once the queue is
// closed; cues still pending at that point are discarded.
func (q *Queue) Pop() (Cue, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && len(q.high) == 0 && len(q.low) == 0 {
		q.cond.Wait()
	}
	if q.closed {
		return Cue{}, false
	}

	var c Cue
	if len(q.high) > 0 {
		c, q.high = q.high[0], q.high[1:]
	} else {
		c, q.low = q.low[0], q.low[1:]
	}
	return c, true
}

// Close is the shutdown sentinel: it wakes every blocked Pop. It is safe
// to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of pending cues.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high) + len(q.low)
}

// Dropped returns how many cues were rejected because a tier was full.
func (q *Queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
