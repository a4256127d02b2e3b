package board

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
)

// PositionStep is the gap left between neighbours when a column is seeded,
// appended to or rebalanced.
const PositionStep = 1000.0

// errRebalanceRequired signals that no integer position fits between the
// neighbours of an insert. PlanInsert handles it; it never leaves the package.
var errRebalanceRequired = errors.New("board: rebalance required")

// ComputeInsertPosition returns a position for an item inserted at
// targetIndex into a column whose remaining positions (moved item already
// removed) are given in ascending order. No other position changes.
//
// targetIndex is clamped into [0, len(positions)].
func ComputeInsertPosition(positions []float64, targetIndex int) (float64, error) {
	n := len(positions)
	if n == 0 {
		return PositionStep, nil
	}
	targetIndex = clampIndex(targetIndex, n)

	switch targetIndex {
	case 0:
		first := positions[0]
		pos := math.Floor(first / 2)
		if !(pos < first) {
			return 0, errRebalanceRequired
		}
		return pos, nil
	case n:
		return positions[n-1] + PositionStep, nil
	default:
		before, after := positions[targetIndex-1], positions[targetIndex]
		pos := math.Floor((before + after) / 2)
		if !(before < pos && pos < after) {
			return 0, errRebalanceRequired
		}
		return pos, nil
	}
}

// RebalancedPositions returns n evenly spaced positions: PositionStep,
// 2*PositionStep, ...
func RebalancedPositions(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) * PositionStep
	}
	return out
}

// PlanInsert computes the position of an item inserted at rank into column
// (ordered, moved item excluded). When the neighbours leave no room, it also
// returns the rebalance batch for the whole column; the position is then
// relative to the rebalanced order and the batch must be persisted first.
func PlanInsert(column []*domain.Task, rank int) (float64, []domain.PositionUpdate) {
	pos, err := ComputeInsertPosition(Positions(column), rank)
	if err == nil {
		return pos, nil
	}

	spaced := RebalancedPositions(len(column))
	updates := make([]domain.PositionUpdate, len(column))
	for i, t := range column {
		updates[i] = domain.PositionUpdate{ID: t.ID, Position: spaced[i]}
	}

	// Evenly spaced neighbours always leave room.
	pos, _ = ComputeInsertPosition(spaced, rank)
	return pos, updates
}

// Positions extracts the position of every task in order.
func Positions(tasks []*domain.Task) []float64 {
	out := make([]float64, len(tasks))
	for i, t := range tasks {
		out[i] = t.Position
	}
	return out
}

// FilteredIndexToUnfilteredRank translates a drop index expressed in the
// filtered view of a column into an insertion rank within the unfiltered
// column. Both slices must exclude the moved task.
//
// Dropping before a visible task inserts directly before it in the unfiltered
// order; dropping past the last visible task inserts directly after it. An
// empty filtered view appends to the unfiltered column.
func FilteredIndexToUnfilteredRank(filtered, unfiltered []*domain.Task, filteredIndex int) int {
	if len(filtered) == 0 {
		return len(unfiltered)
	}
	filteredIndex = clampIndex(filteredIndex, len(filtered))

	if filteredIndex < len(filtered) {
		if r := rankOf(unfiltered, filtered[filteredIndex].ID); r >= 0 {
			return r
		}
	}
	if filteredIndex > 0 {
		if r := rankOf(unfiltered, filtered[filteredIndex-1].ID); r >= 0 {
			return r + 1
		}
	}
	return len(unfiltered)
}

func rankOf(tasks []*domain.Task, id uuid.UUID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
