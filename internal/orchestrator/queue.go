package orchestrator

import (
	"sync"

	"github.com/google/uuid"
)

// intakeQueue is a thread-safe FIFO of job ids. Neither push nor tryPop
// blocks; push signals notify, which Orchestrator.take waits on (bounded by
// its poll interval) so workers observe shutdown promptly rather than
// waiting on the queue forever. Cancellation does not
// remove ids from the queue — cancelled jobs are skipped by the worker when
// it pops them (the tombstone pattern), keeping Cancel O(1) and wait-free.
type intakeQueue struct {
	mu     sync.Mutex
	items  []uuid.UUID
	notify chan struct{}
}

func newIntakeQueue() *intakeQueue {
	return &intakeQueue{notify: make(chan struct{}, 1)}
}

func (q *intakeQueue) push(id uuid.UUID) {
	q.mu.Lock()
	q.items = append(q.items, id)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// tryPop removes and returns the head of the queue, or reports false if the
// queue was empty.
func (q *intakeQueue) tryPop() (uuid.UUID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return uuid.Nil, false
	}
	id := q.items[0]
	q.items = q.items[1:]
	return id, true
}

func (q *intakeQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
