package board_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
)

// id returns a deterministic task id; ids order by n.
func id(n byte) uuid.UUID {
	var u uuid.UUID
	u[15] = n
	return u
}

func task(n byte, col domain.ColumnKey, pos float64) *domain.Task {
	return &domain.Task{
		ID:       id(n),
		Column:   col,
		Position: pos,
		Priority: domain.PriorityMedium,
		Title:    "task",
	}
}

func ids(tasks []*domain.Task) []uuid.UUID {
	out := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

// memStore is an in-memory TaskStore. Hooks let tests block or fail calls.
type memStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	// moveHook runs before a move is stored; an error aborts it.
	moveHook func(ctx context.Context, patch domain.TaskPatch) error
	// adjust rewrites the moved record before it is stored, as a store
	// resolving a collision would.
	adjust func(t *domain.Task)

	lists int
	moves int
	ties  []string
}

func newMemStore(tasks ...*domain.Task) *memStore {
	s := &memStore{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, t := range tasks {
		s.tasks[t.ID] = t.Clone()
	}
	return s
}

func (s *memStore) ListByBoard(_ context.Context, _ uuid.UUID) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	out := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

// Move stores the batch and the patch together or not at all.
func (s *memStore) Move(ctx context.Context, _ uuid.UUID, patch domain.TaskPatch, rebalance []domain.PositionUpdate) ([]*domain.Task, error) {
	if s.moveHook != nil {
		if err := s.moveHook(ctx, patch); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	moved, ok := s.tasks[patch.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, u := range rebalance {
		if _, ok := s.tasks[u.ID]; !ok {
			return nil, domain.ErrConflict
		}
	}

	out := make([]*domain.Task, 0, len(rebalance)+1)
	for _, u := range rebalance {
		t := s.tasks[u.ID]
		t.Position = u.Position
		out = append(out, t.Clone())
	}
	patch.Apply(moved)
	if s.adjust != nil {
		s.adjust(moved)
	}
	s.moves++
	s.ties = append(s.ties, sharedPositions(s.tasks)...)
	return append(out, moved.Clone()), nil
}

// set overwrites a stored record, simulating a write by another client.
func (s *memStore) set(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
}

func (s *memStore) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

// signalSource is an Invalidator fed by the test.
type signalSource struct {
	ch chan struct{}
}

func newSignalSource() *signalSource {
	return &signalSource{ch: make(chan struct{}, 16)}
}

func (s *signalSource) Invalidations(_ context.Context, _ uuid.UUID) (<-chan struct{}, func(), error) {
	return s.ch, func() {}, nil
}

func (s *memStore) stats() (moves int, ties []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves, append([]string(nil), s.ties...)
}

// sharedPositions lists every pair of tasks of one column at one position.
func sharedPositions(tasks map[uuid.UUID]*domain.Task) []string {
	var out []string
	seen := make(map[string]uuid.UUID, len(tasks))
	for _, t := range tasks {
		key := fmt.Sprintf("%s@%g", t.Column, t.Position)
		if other, ok := seen[key]; ok {
			out = append(out, fmt.Sprintf("%s: %s and %s", key, other, t.ID))
		}
		seen[key] = t.ID
	}
	return out
}
