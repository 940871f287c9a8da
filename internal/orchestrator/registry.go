package orchestrator

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
)

// registry is the process-wide map from job id to Job record. It never
// evicts; the only mutation path outside of insertion is through mutate,
// which always runs under the owning actor's lock hold (orchestrator for
// queued->cancelled, the claiming worker for queued->processing->terminal).
type registry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job
}

func newRegistry() *registry {
	return &registry{jobs: make(map[uuid.UUID]*domain.Job)}
}

func (r *registry) insert(j *domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
}

func (r *registry) get(id uuid.UUID) (domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return j.Snapshot(), true
}

// list returns value-copy snapshots in no guaranteed order.
func (r *registry) list() []domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Snapshot())
	}
	return out
}

// mutate runs fn against the live job under the registry's write lock,
// giving the caller exclusive access for a compare-and-swap-style state
// transition. It reports whether the job was found.
func (r *registry) mutate(id uuid.UUID, fn func(j *domain.Job)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return false
	}
	fn(j)
	return true
}

func (r *registry) activeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, j := range r.jobs {
		if j.State == domain.StateProcessing {
			n++
		}
	}
	return n
}
