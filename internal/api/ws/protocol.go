package ws

import (
	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/board"
	"github.com/gosuda/kira/internal/domain"
)

// Client message types.
const (
	MsgPointerDown = "pointer_down"
	MsgPointerMove = "pointer_move"
	MsgPointerUp   = "pointer_up"
	MsgCancel      = "cancel"
	MsgSetFilters  = "set_filters"
)

// Server message types.
const (
	MsgView  = "view"
	MsgError = "error"
)

// ClientMessage is one input sample or command from the browser.
type ClientMessage struct {
	Type     string           `json:"type"`
	Modality string           `json:"modality,omitempty"` // "pointer" or "touch"
	TaskID   uuid.UUID        `json:"task_id,omitempty"`
	Column   domain.ColumnKey `json:"column,omitempty"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
	Over     *Over            `json:"over,omitempty"`
	Filters  *FilterMessage   `json:"filters,omitempty"`
}

// Over names the droppable region under the input.
type Over struct {
	Type   string           `json:"type"` // "column" or "task"
	Column domain.ColumnKey `json:"column,omitempty"`
	TaskID uuid.UUID        `json:"task_id,omitempty"`
}

type FilterMessage struct {
	Labels     []uuid.UUID       `json:"labels,omitempty"`
	Priorities []domain.Priority `json:"priorities,omitempty"`
	Assignees  []uuid.UUID       `json:"assignees,omitempty"`
	Search     string            `json:"search,omitempty"`
}

// ViewMessage is a full render of the board.
type ViewMessage struct {
	Type     string       `json:"type"`
	Version  uint64       `json:"version"`
	Columns  []ColumnView `json:"columns"`
	Dragging *DragView    `json:"dragging,omitempty"`
}

type ColumnView struct {
	Key   domain.ColumnKey `json:"key"`
	Title string           `json:"title"`
	Tasks []*domain.Task   `json:"tasks"`
}

type DragView struct {
	TaskID    uuid.UUID        `json:"task_id"`
	Modality  string           `json:"modality"`
	Candidate *board.Candidate `json:"candidate,omitempty"`
}

// ErrorMessage reports a move the store rejected. The view that follows it
// already shows the task back in place.
type ErrorMessage struct {
	Type    string           `json:"type"`
	TaskID  uuid.UUID        `json:"task_id,omitempty"`
	Column  domain.ColumnKey `json:"column,omitempty"`
	Message string           `json:"message"`
}

func parseModality(s string) (board.Modality, bool) {
	switch s {
	case "pointer", "mouse", "":
		return board.ModalityPointer, true
	case "touch":
		return board.ModalityTouch, true
	default:
		return 0, false
	}
}

func (f *FilterMessage) state() domain.FilterState {
	if f == nil {
		return domain.FilterState{}
	}
	return domain.FilterState{
		Labels:     f.Labels,
		Priorities: f.Priorities,
		Assignees:  f.Assignees,
		Search:     f.Search,
	}
}
