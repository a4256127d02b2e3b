package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
	"github.com/gosuda/kira/internal/tasks"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Boards() domain.BoardRepository
	Tasks() domain.TaskRepository
}

// TaskService abstracts task writes for handler testing.
// *tasks.Service satisfies this interface.
type TaskService interface {
	Board(ctx context.Context, boardID uuid.UUID) (*domain.Board, []domain.Column, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error)
	Get(ctx context.Context, boardID, id uuid.UUID) (*domain.Task, error)
	Create(ctx context.Context, boardID uuid.UUID, in tasks.NewTask) (*domain.Task, error)
	Update(ctx context.Context, boardID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	Rebalance(ctx context.Context, boardID uuid.UUID, column domain.ColumnKey, updates []domain.PositionUpdate) ([]*domain.Task, error)
	Delete(ctx context.Context, boardID, id uuid.UUID) error
}

// toHTTPError maps domain sentinels onto problem responses.
func toHTTPError(err error, what string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(what + " not found")
	case errors.Is(err, domain.ErrInvalidTarget), errors.Is(err, domain.ErrInvalid):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error500InternalServerError("failed to process "+what, err)
	}
}
