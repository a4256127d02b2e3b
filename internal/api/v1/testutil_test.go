package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
	"github.com/gosuda/kira/internal/tasks"
)

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	boards domain.BoardRepository
	tasks  domain.TaskRepository
}

func (m *mockDataStore) Boards() domain.BoardRepository { return m.boards }
func (m *mockDataStore) Tasks() domain.TaskRepository   { return m.tasks }

// ---------------------------------------------------------------------------
// Mock BoardRepository
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createFunc  func(ctx context.Context, b *domain.Board) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	listFunc    func(ctx context.Context) ([]*domain.Board, error)
}

func (m *mockBoardRepo) Create(ctx context.Context, b *domain.Board) error {
	return m.createFunc(ctx, b)
}

func (m *mockBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBoardRepo) List(ctx context.Context) ([]*domain.Board, error) {
	return m.listFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock TaskRepository
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	domain.TaskRepository // unset methods panic

	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error)
}

func (m *mockTaskRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error) {
	return m.listByBoardFunc(ctx, boardID)
}

// ---------------------------------------------------------------------------
// Mock TaskService
// ---------------------------------------------------------------------------

type mockTaskService struct {
	boardFunc       func(ctx context.Context, boardID uuid.UUID) (*domain.Board, []domain.Column, error)
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error)
	getFunc         func(ctx context.Context, boardID, id uuid.UUID) (*domain.Task, error)
	createFunc      func(ctx context.Context, boardID uuid.UUID, in tasks.NewTask) (*domain.Task, error)
	updateFunc      func(ctx context.Context, boardID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	rebalanceFunc   func(ctx context.Context, boardID uuid.UUID, column domain.ColumnKey, updates []domain.PositionUpdate) ([]*domain.Task, error)
	deleteFunc      func(ctx context.Context, boardID, id uuid.UUID) error
}

func (m *mockTaskService) Board(ctx context.Context, boardID uuid.UUID) (*domain.Board, []domain.Column, error) {
	return m.boardFunc(ctx, boardID)
}

func (m *mockTaskService) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error) {
	return m.listByBoardFunc(ctx, boardID)
}

func (m *mockTaskService) Get(ctx context.Context, boardID, id uuid.UUID) (*domain.Task, error) {
	return m.getFunc(ctx, boardID, id)
}

func (m *mockTaskService) Create(ctx context.Context, boardID uuid.UUID, in tasks.NewTask) (*domain.Task, error) {
	return m.createFunc(ctx, boardID, in)
}

func (m *mockTaskService) Update(ctx context.Context, boardID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	return m.updateFunc(ctx, boardID, patch)
}

func (m *mockTaskService) Rebalance(ctx context.Context, boardID uuid.UUID, column domain.ColumnKey, updates []domain.PositionUpdate) ([]*domain.Task, error) {
	return m.rebalanceFunc(ctx, boardID, column, updates)
}

func (m *mockTaskService) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	return m.deleteFunc(ctx, boardID, id)
}
