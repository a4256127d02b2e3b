// Package tasks is the authoritative write path for board tasks. Every
// change is persisted through the repositories and then announced on the
// board's push channel.
package tasks

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/kira/internal/board"
	"github.com/gosuda/kira/internal/domain"
)

// EventPublisher announces board changes. *redis.PubSub satisfies this
// interface.
type EventPublisher interface {
	PublishBoardEvent(ctx context.Context, evt domain.BoardEvent) error
}

type Service struct {
	boards  domain.BoardRepository
	tasks   domain.TaskRepository
	pub     EventPublisher
	columns domain.ColumnConfig
}

func NewService(boards domain.BoardRepository, tasks domain.TaskRepository, pub EventPublisher, columns domain.ColumnConfig) *Service {
	return &Service{boards: boards, tasks: tasks, pub: pub, columns: columns}
}

// NewTask holds the caller-supplied fields of a task to create. The
// position is always assigned by the service.
type NewTask struct {
	Column      domain.ColumnKey
	Title       string
	Description string
	Priority    domain.Priority
	Labels      []uuid.UUID
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
}

// Board returns a board together with its configured columns.
func (s *Service) Board(ctx context.Context, boardID uuid.UUID) (*domain.Board, []domain.Column, error) {
	b, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, nil, fmt.Errorf("tasks.Board: %w", err)
	}
	return b, s.columns.Columns(b.Type), nil
}

func (s *Service) Get(ctx context.Context, boardID, id uuid.UUID) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, boardID, id)
	if err != nil {
		return nil, fmt.Errorf("tasks.Get: %w", err)
	}
	return t, nil
}

func (s *Service) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("tasks.ListByBoard: %w", err)
	}
	return tasks, nil
}

// Create appends a new task to the end of its column.
func (s *Service) Create(ctx context.Context, boardID uuid.UUID, in NewTask) (*domain.Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("tasks.Create: title is required: %w", domain.ErrInvalid)
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("tasks.Create: priority %q: %w", in.Priority, domain.ErrInvalid)
	}
	if err := s.checkColumn(ctx, boardID, in.Column); err != nil {
		return nil, fmt.Errorf("tasks.Create: %w", err)
	}

	column, err := s.tasks.ListByColumn(ctx, boardID, in.Column)
	if err != nil {
		return nil, fmt.Errorf("tasks.Create: %w", err)
	}
	board.SortTasks(column)
	// Appending always has room, so no rebalance batch comes back.
	pos, _ := board.PlanInsert(column, len(column))

	now := time.Now()
	t := &domain.Task{
		ID:          uuid.New(),
		BoardID:     boardID,
		Column:      in.Column,
		Position:    pos,
		Priority:    in.Priority,
		Labels:      in.Labels,
		AssigneeID:  in.AssigneeID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Labels == nil {
		t.Labels = []uuid.UUID{}
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("tasks.Create: %w", err)
	}

	s.publish(ctx, domain.BoardEvent{
		Type:    domain.BoardEventTaskCreated,
		BoardID: boardID,
		TaskID:  t.ID,
		Column:  t.Column,
		Task:    t,
	})
	return t, nil
}

// Update applies a partial update. A move goes through Move with no
// rebalance batch.
func (s *Service) Update(ctx context.Context, boardID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	if err := validatePatch(patch); err != nil {
		return nil, fmt.Errorf("tasks.Update: %w", err)
	}

	if patch.IsMove() {
		records, err := s.Move(ctx, boardID, patch, nil)
		if err != nil {
			return nil, err
		}
		return records[len(records)-1], nil
	}

	t, err := s.tasks.Update(ctx, boardID, patch)
	if err != nil {
		return nil, fmt.Errorf("tasks.Update: %w", err)
	}

	s.publish(ctx, domain.BoardEvent{
		Type:    domain.BoardEventTaskUpdated,
		BoardID: boardID,
		TaskID:  t.ID,
		Column:  t.Column,
		Task:    t,
	})
	return t, nil
}

// Move stores a move together with the rebalance batch of its target column
// in one write, then announces it with a single task_moved event. When the
// move lands on a position another task of the target column holds, the
// moved task is placed right after that task instead; the returned records
// carry what was actually stored, the moved task last.
func (s *Service) Move(ctx context.Context, boardID uuid.UUID, patch domain.TaskPatch, rebalance []domain.PositionUpdate) ([]*domain.Task, error) {
	if err := validatePatch(patch); err != nil {
		return nil, fmt.Errorf("tasks.Move: %w", err)
	}
	if !patch.IsMove() {
		return nil, fmt.Errorf("tasks.Move: patch changes neither column nor position: %w", domain.ErrInvalid)
	}

	current, err := s.tasks.GetByID(ctx, boardID, patch.ID)
	if err != nil {
		return nil, fmt.Errorf("tasks.Move: %w", err)
	}
	target := current.Column
	if patch.Column != nil {
		target = *patch.Column
		if err := s.checkColumn(ctx, boardID, target); err != nil {
			return nil, fmt.Errorf("tasks.Move: %w", err)
		}
	}

	if patch.Position != nil || len(rebalance) > 0 {
		pos := current.Position
		if patch.Position != nil {
			pos = *patch.Position
		}
		pos, rebalance, err = s.resolveCollision(ctx, boardID, patch.ID, target, pos, rebalance)
		if err != nil {
			return nil, fmt.Errorf("tasks.Move: %w", err)
		}
		patch.Position = &pos
	}

	records, err := s.tasks.Move(ctx, boardID, patch, rebalance)
	if err != nil {
		return nil, fmt.Errorf("tasks.Move: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("tasks.Move: no record stored: %w", domain.ErrConflict)
	}

	moved := records[len(records)-1]
	s.publish(ctx, domain.BoardEvent{
		Type:    domain.BoardEventTaskMoved,
		BoardID: boardID,
		TaskID:  moved.ID,
		Column:  moved.Column,
		Task:    moved,
	})
	return records, nil
}

func validatePatch(p domain.TaskPatch) error {
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("priority %q: %w", *p.Priority, domain.ErrInvalid)
	}
	if p.Title != nil && *p.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalid)
	}
	return nil
}

// Rebalance stores a batch of positions for one column.
func (s *Service) Rebalance(ctx context.Context, boardID uuid.UUID, column domain.ColumnKey, updates []domain.PositionUpdate) ([]*domain.Task, error) {
	if err := s.checkColumn(ctx, boardID, column); err != nil {
		return nil, fmt.Errorf("tasks.Rebalance: %w", err)
	}
	tasks, err := s.rebalance(ctx, boardID, column, updates)
	if err != nil {
		return nil, fmt.Errorf("tasks.Rebalance: %w", err)
	}
	return tasks, nil
}

func (s *Service) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	t, err := s.tasks.GetByID(ctx, boardID, id)
	if err != nil {
		return fmt.Errorf("tasks.Delete: %w", err)
	}
	if err := s.tasks.Delete(ctx, boardID, id); err != nil {
		return fmt.Errorf("tasks.Delete: %w", err)
	}

	s.publish(ctx, domain.BoardEvent{
		Type:    domain.BoardEventTaskDeleted,
		BoardID: boardID,
		TaskID:  id,
		Column:  t.Column,
	})
	return nil
}

func (s *Service) rebalance(ctx context.Context, boardID uuid.UUID, column domain.ColumnKey, updates []domain.PositionUpdate) ([]*domain.Task, error) {
	tasks, err := s.tasks.Rebalance(ctx, boardID, column, updates)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.BoardEvent{
		Type:    domain.BoardEventColumnRebalanced,
		BoardID: boardID,
		Column:  column,
	})
	return tasks, nil
}

// resolveCollision checks pos against column as it will be once the
// rebalance batch is applied. It returns pos and the batch unchanged unless
// another task already sits at exactly pos; then it returns a free position
// right after the occupant, with a fresh batch for the whole column when
// there is no room. Nothing is written.
func (s *Service) resolveCollision(ctx context.Context, boardID, taskID uuid.UUID, column domain.ColumnKey, pos float64, rebalance []domain.PositionUpdate) (float64, []domain.PositionUpdate, error) {
	others, err := s.tasks.ListByColumn(ctx, boardID, column)
	if err != nil {
		return 0, nil, err
	}
	others = slices.DeleteFunc(others, func(t *domain.Task) bool { return t.ID == taskID })

	if len(rebalance) > 0 {
		byID := make(map[uuid.UUID]*domain.Task, len(others))
		for _, t := range others {
			byID[t.ID] = t
		}
		for _, u := range rebalance {
			t, ok := byID[u.ID]
			if !ok {
				return 0, nil, fmt.Errorf("rebalance task %s not in column %q: %w", u.ID, column, domain.ErrConflict)
			}
			t.Position = u.Position
		}
	}
	board.SortTasks(others)

	occupant := slices.IndexFunc(others, func(t *domain.Task) bool { return t.Position == pos })
	if occupant < 0 {
		return pos, rebalance, nil
	}

	next, fresh := board.PlanInsert(others, occupant+1)
	if len(fresh) > 0 {
		rebalance = fresh
	}

	log.Debug().
		Str("board_id", boardID.String()).
		Str("task_id", taskID.String()).
		Float64("requested", pos).
		Float64("stored", next).
		Msg("tasks: position collision resolved")
	return next, rebalance, nil
}

func (s *Service) checkColumn(ctx context.Context, boardID uuid.UUID, column domain.ColumnKey) error {
	b, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return err
	}
	if !s.columns.Has(b.Type, column) {
		return fmt.Errorf("column %q on %s board: %w", column, b.Type, domain.ErrInvalidTarget)
	}
	return nil
}

// publish is best effort: the write has already been stored, and clients
// that miss the event catch up on their next refetch.
func (s *Service) publish(ctx context.Context, evt domain.BoardEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishBoardEvent(ctx, evt); err != nil {
		log.Error().Err(err).
			Str("board_id", evt.BoardID.String()).
			Str("event", string(evt.Type)).
			Msg("tasks: failed to publish board event")
	}
}
