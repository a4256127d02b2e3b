package board

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
)

// MovePlan is the single mutation produced by a committed drop.
type MovePlan struct {
	TaskID     uuid.UUID
	FromColumn domain.ColumnKey
	Column     domain.ColumnKey
	Position   float64
	// Rebalance, when non-empty, must be persisted before the move.
	Rebalance []domain.PositionUpdate
}

// ResolveTarget maps a drop target to a column and an index in that
// column's filtered view. ok is false for TargetNone.
func ResolveTarget(target DropTarget, visible Projection) (domain.ColumnKey, int, bool, error) {
	switch target.Kind() {
	case TargetNone:
		return "", 0, false, nil
	case TargetColumn:
		tasks, exists := visible[target.Column()]
		if !exists {
			return "", 0, false, fmt.Errorf("board.ResolveTarget: column %q: %w", target.Column(), domain.ErrInvalidTarget)
		}
		return target.Column(), len(tasks), true, nil
	case TargetTask:
		// The hovered task may have moved since the target was captured;
		// its current place wins.
		id := target.Task().ID
		_, column, idx, found := visible.Find(id)
		if !found {
			return "", 0, false, fmt.Errorf("board.ResolveTarget: task %s: %w", id, domain.ErrInvalidTarget)
		}
		return column, idx, true, nil
	default:
		return "", 0, false, fmt.Errorf("board.ResolveTarget: unknown target kind %d: %w", target.Kind(), domain.ErrInvalidTarget)
	}
}

// ResolveDropIndex is ResolveTarget for the dragged task taskID: the
// column and filtered index where the task would land. Dropping on the body
// of its own column moves the task to the end, which does not count the
// task itself.
func ResolveDropIndex(taskID uuid.UUID, target DropTarget, visible Projection) (domain.ColumnKey, int, bool, error) {
	column, index, ok, err := ResolveTarget(target, visible)
	if err != nil || !ok {
		return column, index, ok, err
	}
	if target.Kind() == TargetColumn && visible.IndexOf(column, taskID) >= 0 {
		index--
	}
	return column, index, true, nil
}

// ResolveDrop decides what a drop of taskID onto target means.
// visible and unfiltered must be projections of the same task set.
//
// It returns nil for a no-op (no target, or same column and same index),
// domain.ErrInvalidTarget when the target or task no longer resolves, and
// otherwise a plan whose position is computed against the unfiltered
// target column.
func ResolveDrop(taskID uuid.UUID, target DropTarget, visible, unfiltered Projection) (*MovePlan, error) {
	column, index, ok, err := ResolveDropIndex(taskID, target, visible)
	if err != nil || !ok {
		return nil, err
	}

	task, from, _, found := unfiltered.Find(taskID)
	if !found {
		return nil, fmt.Errorf("board.ResolveDrop: task %s: %w", taskID, domain.ErrInvalidTarget)
	}
	return PlanMove(task, from, column, index, visible, unfiltered), nil
}

// PlanMove computes the move of task into column at index of the filtered
// view. It returns nil when the task would stay where it is.
func PlanMove(task *domain.Task, from, column domain.ColumnKey, index int, visible, unfiltered Projection) *MovePlan {
	if column == from && visible.IndexOf(from, task.ID) == index {
		return nil
	}

	filtered := visible.Without(column, task.ID)
	all := unfiltered.Without(column, task.ID)

	rank := FilteredIndexToUnfilteredRank(filtered, all, clampIndex(index, len(filtered)))
	pos, rebalance := PlanInsert(all, rank)

	return &MovePlan{
		TaskID:     task.ID,
		FromColumn: from,
		Column:     column,
		Position:   pos,
		Rebalance:  rebalance,
	}
}
