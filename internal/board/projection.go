package board

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
)

// Projection maps each configured column to its visible tasks in render order.
type Projection map[domain.ColumnKey][]*domain.Task

// Project filters tasks once, partitions them by column and orders each
// column by (position, id). Every column in columns is present, empty or not;
// tasks in columns outside that list are left out.
func Project(tasks []*domain.Task, columns []domain.ColumnKey, f domain.FilterState) Projection {
	return ProjectWith(Matcher{}, tasks, columns, f)
}

// ProjectWith is Project using m for filtering.
func ProjectWith(m Matcher, tasks []*domain.Task, columns []domain.ColumnKey, f domain.FilterState) Projection {
	visible := m.Apply(tasks, f)

	p := make(Projection, len(columns))
	for _, c := range columns {
		p[c] = []*domain.Task{}
	}
	for _, t := range visible {
		col, ok := p[t.Column]
		if !ok {
			continue
		}
		p[t.Column] = append(col, t)
	}
	for _, c := range columns {
		SortTasks(p[c])
	}
	return p
}

// CompareTasks orders by position, breaking ties by id so every client
// renders equal positions the same way.
func CompareTasks(a, b *domain.Task) int {
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// SortTasks sorts tasks in place with CompareTasks.
func SortTasks(tasks []*domain.Task) {
	slices.SortFunc(tasks, CompareTasks)
}

// IndexOf returns the index of the task within column, or -1.
func (p Projection) IndexOf(column domain.ColumnKey, id uuid.UUID) int {
	return rankOf(p[column], id)
}

// Find locates a task in any column.
func (p Projection) Find(id uuid.UUID) (*domain.Task, domain.ColumnKey, int, bool) {
	for col, tasks := range p {
		if i := rankOf(tasks, id); i >= 0 {
			return tasks[i], col, i, true
		}
	}
	return nil, "", -1, false
}

// Without returns the column's tasks minus the given task, as a new slice.
func (p Projection) Without(column domain.ColumnKey, id uuid.UUID) []*domain.Task {
	src := p[column]
	out := make([]*domain.Task, 0, len(src))
	for _, t := range src {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
