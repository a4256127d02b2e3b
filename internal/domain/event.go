package domain

import "github.com/google/uuid"

type BoardEventType string

const (
	BoardEventTaskCreated      BoardEventType = "task_created"
	BoardEventTaskUpdated      BoardEventType = "task_updated"
	BoardEventTaskMoved        BoardEventType = "task_moved"
	BoardEventTaskDeleted      BoardEventType = "task_deleted"
	BoardEventColumnRebalanced BoardEventType = "column_rebalanced"
)

// BoardEvent is published on a board's push channel after every change.
// Subscribers treat it as an invalidation; Task is informational only.
type BoardEvent struct {
	Type    BoardEventType `json:"type"`
	BoardID uuid.UUID      `json:"board_id"`
	TaskID  uuid.UUID      `json:"task_id,omitempty"`
	Column  ColumnKey      `json:"column,omitempty"`
	Task    *Task          `json:"task,omitempty"`
}
