package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Rank orders priorities from least (0) to most urgent. Unknown values rank -1.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return -1
	}
}

type Task struct {
	ID          uuid.UUID   `json:"id"`
	BoardID     uuid.UUID   `json:"board_id"`
	Column      ColumnKey   `json:"column"`
	Position    float64     `json:"position"`
	Priority    Priority    `json:"priority"`
	Labels      []uuid.UUID `json:"labels"`
	AssigneeID  *uuid.UUID  `json:"assignee_id,omitempty"` // nullable
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HasLabel reports whether the task carries the given label.
func (t *Task) HasLabel(id uuid.UUID) bool {
	return slices.Contains(t.Labels, id)
}

// Clone returns a deep copy of t. Cache snapshots hand out clones so readers
// can never mutate shared state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Labels != nil {
		c.Labels = slices.Clone(t.Labels)
	}
	if t.AssigneeID != nil {
		a := *t.AssigneeID
		c.AssigneeID = &a
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	ID          uuid.UUID
	Column      *ColumnKey
	Position    *float64
	Title       *string
	Description *string
	Priority    *Priority
	Labels      *[]uuid.UUID
	// AssigneeID sets the assignee when non-nil; a non-nil pointer to nil clears it.
	AssigneeID **uuid.UUID
	DueDate    **time.Time
}

// IsMove reports whether the patch changes ordering (column or position).
func (p TaskPatch) IsMove() bool {
	return p.Column != nil || p.Position != nil
}

// Apply writes the set fields of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Column != nil {
		t.Column = *p.Column
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Labels != nil {
		t.Labels = slices.Clone(*p.Labels)
	}
	if p.AssigneeID != nil {
		t.AssigneeID = *p.AssigneeID
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
}

// PositionUpdate is one element of a column rebalance batch.
type PositionUpdate struct {
	ID       uuid.UUID `json:"id"`
	Position float64   `json:"position"`
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, boardID, id uuid.UUID) (*Task, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Task, error)
	ListByColumn(ctx context.Context, boardID uuid.UUID, column ColumnKey) ([]*Task, error)
	// Update applies a partial patch and returns the stored record.
	Update(ctx context.Context, boardID uuid.UUID, patch TaskPatch) (*Task, error)
	// Rebalance writes every position of the batch in a single transaction.
	Rebalance(ctx context.Context, boardID uuid.UUID, column ColumnKey, updates []PositionUpdate) ([]*Task, error)
	// Move writes the rebalance batch of the target column and the patch in
	// one transaction. It returns the rebalanced records followed by the
	// moved one; on error nothing is stored.
	Move(ctx context.Context, boardID uuid.UUID, patch TaskPatch, rebalance []PositionUpdate) ([]*Task, error)
	Delete(ctx context.Context, boardID, id uuid.UUID) error
}
