package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/kira/internal/domain"
)

// TaskStore is the record store the reconciler reads from and writes to.
// *tasks.Service satisfies this interface.
type TaskStore interface {
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error)
	// Move persists the rebalance batch and the move atomically and returns
	// the rebalanced records followed by the moved one.
	Move(ctx context.Context, boardID uuid.UUID, patch domain.TaskPatch, rebalance []domain.PositionUpdate) ([]*domain.Task, error)
}

// Invalidator delivers "board changed" signals with no payload.
// *redis.PubSub satisfies this interface.
type Invalidator interface {
	Invalidations(ctx context.Context, boardID uuid.UUID) (<-chan struct{}, func(), error)
}

// MutationError reports a move the store rejected or never answered. The
// optimistic change has already been rolled back when it is reported.
type MutationError struct {
	TaskID uuid.UUID
	Column domain.ColumnKey
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("board: move of task %s to %q failed: %v", e.TaskID, e.Column, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

type ReconcilerOption func(*Reconciler)

// WithMutationTimeout bounds each dispatched mutation.
func WithMutationTimeout(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.timeout = d }
}

// WithRefetchDebounce coalesces push signals arriving within d into one refetch.
func WithRefetchDebounce(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.debounce = d }
}

// WithErrorHandler receives every *MutationError.
func WithErrorHandler(fn func(error)) ReconcilerOption {
	return func(r *Reconciler) { r.onError = fn }
}

// WithChangeHandler is called with the new cache version after every write.
func WithChangeHandler(fn func(version uint64)) ReconcilerOption {
	return func(r *Reconciler) { r.onChange = fn }
}

// Reconciler owns a board's TaskCache. It applies optimistic moves, sends
// them to the store, settles them against the authoritative answer and
// refetches on push invalidation.
type Reconciler struct {
	boardID uuid.UUID
	store   TaskStore
	cache   *TaskCache

	timeout  time.Duration
	debounce time.Duration
	onError  func(error)
	onChange func(uint64)

	inflight sync.WaitGroup
}

func NewReconciler(boardID uuid.UUID, store TaskStore, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		boardID:  boardID,
		store:    store,
		cache:    NewTaskCache(),
		timeout:  10 * time.Second,
		debounce: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns the current view of the board's tasks.
func (r *Reconciler) Snapshot() Snapshot {
	return r.cache.Snapshot()
}

func (r *Reconciler) Cache() *TaskCache { return r.cache }

// Load fetches every task of the board into the cache.
func (r *Reconciler) Load(ctx context.Context) error {
	tasks, err := r.store.ListByBoard(ctx, r.boardID)
	if err != nil {
		return fmt.Errorf("board.Reconciler.Load: %w", err)
	}
	r.cache.replace(tasks)
	r.changed()
	return nil
}

// Invalidate refetches the board after a push. Pending optimistic moves stay
// applied on top of the fresh records.
func (r *Reconciler) Invalidate(ctx context.Context) error {
	if err := r.Load(ctx); err != nil {
		refetchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("board.Reconciler.Invalidate: %w", err)
	}
	refetchesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Submit applies plan to the cache immediately and sends it to the store in
// the background. It never blocks on the store.
func (r *Reconciler) Submit(plan MovePlan) {
	patches := make([]domain.TaskPatch, 0, len(plan.Rebalance)+1)
	for _, u := range plan.Rebalance {
		pos := u.Position
		patches = append(patches, domain.TaskPatch{ID: u.ID, Position: &pos})
	}
	col, pos := plan.Column, plan.Position
	patches = append(patches, domain.TaskPatch{ID: plan.TaskID, Column: &col, Position: &pos})

	if len(plan.Rebalance) > 0 {
		rebalancesTotal.Inc()
	}

	seq := r.cache.push(plan.TaskID, patches)
	r.changed()

	r.inflight.Add(1)
	go r.dispatch(seq, plan)
}

// Wait blocks until every submitted mutation has settled.
func (r *Reconciler) Wait() {
	r.inflight.Wait()
}

// Run refetches the board on every invalidation signal until ctx is done.
// Signals arriving within the debounce window collapse into one refetch.
func (r *Reconciler) Run(ctx context.Context, inv Invalidator) error {
	signals, cleanup, err := inv.Invalidations(ctx, r.boardID)
	if err != nil {
		return fmt.Errorf("board.Reconciler.Run: %w", err)
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if !r.coalesce(ctx, signals) {
				return nil
			}
			if err := r.Invalidate(ctx); err != nil {
				log.Error().Err(err).Str("board_id", r.boardID.String()).Msg("board.Reconciler.Run: refetch failed")
			}
		}
	}
}

// coalesce swallows further signals for the debounce window. It returns
// false when the subscription ended.
func (r *Reconciler) coalesce(ctx context.Context, signals <-chan struct{}) bool {
	if r.debounce <= 0 {
		for {
			select {
			case _, ok := <-signals:
				if !ok {
					return false
				}
			default:
				return true
			}
		}
	}

	timer := time.NewTimer(r.debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case _, ok := <-signals:
			if !ok {
				return false
			}
		}
	}
}

func (r *Reconciler) dispatch(seq uint64, plan MovePlan) {
	defer r.inflight.Done()

	// Mutations are never cancelled once issued; only the timeout bounds them.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	records, err := r.mutate(ctx, plan)
	mutationDuration.Observe(time.Since(start).Seconds())

	logger := log.With().
		Str("board_id", r.boardID.String()).
		Str("task_id", plan.TaskID.String()).
		Str("column", string(plan.Column)).
		Logger()

	if err != nil {
		r.cache.settle(seq, nil)
		mutationsTotal.WithLabelValues("rolled_back").Inc()
		logger.Warn().Err(err).Msg("board.Reconciler: move rolled back")
		r.changed()
		r.report(&MutationError{TaskID: plan.TaskID, Column: plan.Column, Err: err})
		return
	}

	r.cache.settle(seq, records)
	if moved := records[len(records)-1]; moved.Column != plan.Column || moved.Position != plan.Position {
		mutationsTotal.WithLabelValues("corrected").Inc()
		logger.Debug().
			Float64("predicted", plan.Position).
			Float64("stored", moved.Position).
			Msg("board.Reconciler: store corrected predicted position")
	} else {
		mutationsTotal.WithLabelValues("confirmed").Inc()
	}
	r.changed()
}

// mutate persists the plan. The store applies the rebalance batch and the
// move together, so a failure leaves nothing behind.
func (r *Reconciler) mutate(ctx context.Context, plan MovePlan) ([]*domain.Task, error) {
	col, pos := plan.Column, plan.Position
	records, err := r.store.Move(ctx, r.boardID, domain.TaskPatch{ID: plan.TaskID, Column: &col, Position: &pos}, plan.Rebalance)
	if err != nil {
		return nil, fmt.Errorf("move: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("move: store returned no record: %w", domain.ErrConflict)
	}
	return records, nil
}

func (r *Reconciler) report(err error) {
	if r.onError != nil {
		r.onError(err)
	}
}

func (r *Reconciler) changed() {
	if r.onChange != nil {
		r.onChange(r.cache.Version())
	}
}
