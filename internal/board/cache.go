package board

import (
	"bytes"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
)

// Snapshot is an immutable view of the cached task set. Tasks are private
// copies; mutating them does not affect the cache.
type Snapshot struct {
	Version uint64
	Tasks   []*domain.Task
}

// overlay is an optimistic change awaiting confirmation from the store.
type overlay struct {
	seq     uint64
	taskID  uuid.UUID
	patches []domain.TaskPatch
}

// TaskCache is the versioned task set of one board. It keeps the last
// confirmed records and, on top of them, the optimistic overlays of
// in-flight moves. Only the Reconciler writes to it.
type TaskCache struct {
	mu        sync.RWMutex
	version   uint64
	confirmed map[uuid.UUID]*domain.Task
	pending   []*overlay
	nextSeq   uint64
}

func NewTaskCache() *TaskCache {
	return &TaskCache{confirmed: make(map[uuid.UUID]*domain.Task)}
}

func (c *TaskCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Pending returns the number of unconfirmed optimistic moves.
func (c *TaskCache) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending)
}

// Snapshot returns the confirmed set with every pending overlay applied in
// issue order. Overlays for tasks no longer confirmed are skipped.
func (c *TaskCache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	view := make(map[uuid.UUID]*domain.Task, len(c.confirmed))
	for id, t := range c.confirmed {
		view[id] = t.Clone()
	}
	for _, o := range c.pending {
		for _, p := range o.patches {
			if t, ok := view[p.ID]; ok {
				p.Apply(t)
			}
		}
	}

	tasks := make([]*domain.Task, 0, len(view))
	for _, t := range view {
		tasks = append(tasks, t)
	}
	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return Snapshot{Version: c.version, Tasks: tasks}
}

// Confirmed returns a copy of the last confirmed record of a task.
func (c *TaskCache) Confirmed(id uuid.UUID) (*domain.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.confirmed[id]
	return t.Clone(), ok
}

// replace swaps in a freshly fetched task set. A cached record newer than
// the fetched one is kept so a slow refetch cannot undo a confirmation that
// landed meanwhile. Pending overlays are untouched.
func (c *TaskCache) replace(tasks []*domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[uuid.UUID]*domain.Task, len(tasks))
	for _, t := range tasks {
		if cur, ok := c.confirmed[t.ID]; ok && cur.UpdatedAt.After(t.UpdatedAt) {
			next[t.ID] = cur
			continue
		}
		next[t.ID] = t.Clone()
	}
	c.confirmed = next
	c.version++
}

func (c *TaskCache) push(taskID uuid.UUID, patches []domain.TaskPatch) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSeq++
	c.pending = append(c.pending, &overlay{seq: c.nextSeq, taskID: taskID, patches: patches})
	c.version++
	return c.nextSeq
}

// settle drops overlay seq and stores the given authoritative records.
// It serves both confirmation and rollback: a rollback passes no records,
// since a failed move leaves the store untouched.
func (c *TaskCache) settle(seq uint64, records []*domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range records {
		if t != nil {
			c.confirmed[t.ID] = t.Clone()
		}
	}
	c.pending = slices.DeleteFunc(c.pending, func(o *overlay) bool {
		return o.seq == seq
	})
	c.version++
}
