package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/kira/internal/domain"
)

const taskColumns = `id, board_id, "column", position, priority, labels, assignee_id,
		        title, description, due_date, created_at, updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	labels := t.Labels
	if labels == nil {
		labels = []uuid.UUID{}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, board_id, "column", position, priority, labels, assignee_id,
		                    title, description, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.BoardID, t.Column, t.Position, t.Priority, labels, t.AssigneeID,
		t.Title, t.Description, t.DueDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", err)
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE board_id = $1 AND id = $2`,
		boardID, id,
	)

	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", err)
	}

	return t, nil
}

func (r *TaskRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE board_id = $1
		 ORDER BY "column", position, id
		 LIMIT 5000`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.ListByBoard")
}

func (r *TaskRepo) ListByColumn(ctx context.Context, boardID uuid.UUID, column domain.ColumnKey) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE board_id = $1 AND "column" = $2
		 ORDER BY position, id
		 LIMIT 5000`,
		boardID, column,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByColumn: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.ListByColumn")
}

// rowQuerier is satisfied by both the pool and a transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *TaskRepo) Update(ctx context.Context, boardID uuid.UUID, p domain.TaskPatch) (*domain.Task, error) {
	t, err := updateTask(ctx, r.pool, boardID, p)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Update: %w", err)
	}
	return t, nil
}

// Rebalance writes every position of the batch in one transaction. A task
// that is missing or no longer in column aborts the whole batch.
func (r *TaskRepo) Rebalance(ctx context.Context, boardID uuid.UUID, column domain.ColumnKey, updates []domain.PositionUpdate) ([]*domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Rebalance: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tasks, err := rebalanceColumn(ctx, tx, boardID, column, updates)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Rebalance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("taskRepo.Rebalance: commit: %w", err)
	}

	return tasks, nil
}

// Move stores the rebalance batch and the patch in one transaction, so no
// reader ever sees the batch without the move.
func (r *TaskRepo) Move(ctx context.Context, boardID uuid.UUID, p domain.TaskPatch, rebalance []domain.PositionUpdate) ([]*domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Move: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Lock the moved row first; its column is the batch column unless the
	// patch names another one.
	var column domain.ColumnKey
	err = tx.QueryRow(ctx,
		`SELECT "column" FROM tasks WHERE board_id = $1 AND id = $2 FOR UPDATE`,
		boardID, p.ID,
	).Scan(&column)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("taskRepo.Move: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Move: %w", err)
	}
	if p.Column != nil {
		column = *p.Column
	}

	tasks, err := rebalanceColumn(ctx, tx, boardID, column, rebalance)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Move: %w", err)
	}
	moved, err := updateTask(ctx, tx, boardID, p)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Move: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("taskRepo.Move: commit: %w", err)
	}

	return append(tasks, moved), nil
}

func updateTask(ctx context.Context, q rowQuerier, boardID uuid.UUID, p domain.TaskPatch) (*domain.Task, error) {
	sets, args := patchAssignments(p)
	var row pgx.Row
	if len(sets) == 0 {
		row = q.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE board_id = $1 AND id = $2`,
			boardID, p.ID,
		)
	} else {
		args = append(args, boardID, p.ID)
		query := fmt.Sprintf(
			`UPDATE tasks SET %s, updated_at = now() WHERE board_id = $%d AND id = $%d RETURNING `+taskColumns,
			strings.Join(sets, ", "), len(args)-1, len(args),
		)
		row = q.QueryRow(ctx, query, args...)
	}

	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func rebalanceColumn(ctx context.Context, q rowQuerier, boardID uuid.UUID, column domain.ColumnKey, updates []domain.PositionUpdate) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(updates)+1)
	for _, u := range updates {
		t, err := scanTask(q.QueryRow(ctx,
			`UPDATE tasks SET position = $1, updated_at = now()
			 WHERE board_id = $2 AND "column" = $3 AND id = $4
			 RETURNING `+taskColumns,
			u.Position, boardID, column, u.ID,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", u.ID, domain.ErrConflict)
		}
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *TaskRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tasks WHERE board_id = $1 AND id = $2`,
		boardID, id,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

// patchAssignments turns the set fields of p into numbered SET clauses.
func patchAssignments(p domain.TaskPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Column != nil {
		add(`"column"`, *p.Column)
	}
	if p.Position != nil {
		add("position", *p.Position)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Priority != nil {
		add("priority", *p.Priority)
	}
	if p.Labels != nil {
		labels := *p.Labels
		if labels == nil {
			labels = []uuid.UUID{}
		}
		add("labels", labels)
	}
	if p.AssigneeID != nil {
		add("assignee_id", *p.AssigneeID)
	}
	if p.DueDate != nil {
		add("due_date", *p.DueDate)
	}

	return sets, args
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.BoardID, &t.Column, &t.Position, &t.Priority, &t.Labels, &t.AssigneeID,
		&t.Title, &t.Description, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTasks(rows pgx.Rows, caller string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return tasks, nil
}
