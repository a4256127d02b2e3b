package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
	"github.com/gosuda/kira/internal/tasks"
)

type TaskPath struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ID      uuid.UUID `path:"id" doc:"Task ID"`
}

type CreateTaskInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Column      string      `json:"column" minLength:"1" doc:"Column key"`
		Title       string      `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description string      `json:"description,omitempty" doc:"Task description"`
		Priority    string      `json:"priority,omitempty" enum:"low,medium,high,urgent" doc:"Priority (default medium)"`
		Labels      []uuid.UUID `json:"labels,omitempty" doc:"Label IDs"`
		AssigneeID  *uuid.UUID  `json:"assignee_id,omitempty" doc:"Assignee ID"`
		DueDate     *time.Time  `json:"due_date,omitempty" doc:"Due date"`
	}
}

type TaskOutput struct {
	Body *domain.Task
}

type ListTasksInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type TasksOutput struct {
	Body []*domain.Task
}

type UpdateTaskInput struct {
	TaskPath
	Body struct {
		Column        *string      `json:"column,omitempty" doc:"Target column key"`
		Position      *float64     `json:"position,omitempty" doc:"Target position"`
		Title         *string      `json:"title,omitempty" maxLength:"500" doc:"Task title"`
		Description   *string      `json:"description,omitempty" doc:"Task description"`
		Priority      *string      `json:"priority,omitempty" doc:"Priority"`
		Labels        *[]uuid.UUID `json:"labels,omitempty" doc:"Replaces the label set"`
		AssigneeID    *uuid.UUID   `json:"assignee_id,omitempty" doc:"Assignee ID"`
		ClearAssignee bool         `json:"clear_assignee,omitempty" doc:"Remove the assignee"`
		DueDate       *time.Time   `json:"due_date,omitempty" doc:"Due date"`
		ClearDueDate  bool         `json:"clear_due_date,omitempty" doc:"Remove the due date"`
	}
}

type RebalanceInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Column  string    `path:"column" doc:"Column key"`
	Body    struct {
		Updates []domain.PositionUpdate `json:"updates" minItems:"1" doc:"New positions"`
	}
}

func RegisterTaskRoutes(api huma.API, svc TaskService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/tasks",
		Summary:     "List every task of a board",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*TasksOutput, error) {
		list, err := svc.ListByBoard(ctx, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tasks", err)
		}
		if list == nil {
			list = []*domain.Task{}
		}

		return &TasksOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/tasks",
		Summary:       "Create a task at the end of a column",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
		t, err := svc.Create(ctx, input.BoardID, tasks.NewTask{
			Column:      domain.ColumnKey(input.Body.Column),
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Priority:    domain.Priority(input.Body.Priority),
			Labels:      input.Body.Labels,
			AssigneeID:  input.Body.AssigneeID,
			DueDate:     input.Body.DueDate,
		})
		if err != nil {
			return nil, toHTTPError(err, "board")
		}

		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/tasks/{id}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskPath) (*TaskOutput, error) {
		t, err := svc.Get(ctx, input.BoardID, input.ID)
		if err != nil {
			return nil, toHTTPError(err, "task")
		}

		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}/tasks/{id}",
		Summary:     "Update or move a task",
		Description: "The stored record is returned. Its position may differ from the requested one when that position was already taken.",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
		t, err := svc.Update(ctx, input.BoardID, input.patch())
		if err != nil {
			return nil, toHTTPError(err, "task")
		}

		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/tasks/{id}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskPath) (*struct{}, error) {
		if err := svc.Delete(ctx, input.BoardID, input.ID); err != nil {
			return nil, toHTTPError(err, "task")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rebalance-column",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/columns/{column}/rebalance",
		Summary:     "Store a batch of positions for one column",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *RebalanceInput) (*TasksOutput, error) {
		list, err := svc.Rebalance(ctx, input.BoardID, domain.ColumnKey(input.Column), input.Body.Updates)
		if err != nil {
			return nil, toHTTPError(err, "column")
		}

		return &TasksOutput{Body: list}, nil
	})
}

func (in *UpdateTaskInput) patch() domain.TaskPatch {
	b := in.Body
	p := domain.TaskPatch{
		ID:          in.ID,
		Position:    b.Position,
		Title:       b.Title,
		Description: b.Description,
		Labels:      b.Labels,
	}
	if b.Column != nil {
		col := domain.ColumnKey(*b.Column)
		p.Column = &col
	}
	if b.Priority != nil {
		pr := domain.Priority(*b.Priority)
		p.Priority = &pr
	}
	switch {
	case b.ClearAssignee:
		var none *uuid.UUID
		p.AssigneeID = &none
	case b.AssigneeID != nil:
		p.AssigneeID = &b.AssigneeID
	}
	switch {
	case b.ClearDueDate:
		var none *time.Time
		p.DueDate = &none
	case b.DueDate != nil:
		p.DueDate = &b.DueDate
	}
	return p
}
