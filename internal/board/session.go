package board

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/gosuda/kira/internal/domain"
)

type sessionOptions struct {
	sensors    SensorConfig
	locale     language.Tag
	reconciler []ReconcilerOption
}

type SessionOption func(*sessionOptions)

func WithSensorConfig(cfg SensorConfig) SessionOption {
	return func(o *sessionOptions) { o.sensors = cfg }
}

// WithLocale sets the language used to lowercase search text.
func WithLocale(tag language.Tag) SessionOption {
	return func(o *sessionOptions) { o.locale = tag }
}

func WithReconcilerOptions(opts ...ReconcilerOption) SessionOption {
	return func(o *sessionOptions) { o.reconciler = append(o.reconciler, opts...) }
}

// Candidate is the hover target of an active drag, resolved against the
// filtered view.
type Candidate struct {
	TaskID uuid.UUID        `json:"task_id"`
	Column domain.ColumnKey `json:"column"`
	Index  int              `json:"index"`
}

// Session is one board view: its filters, its drag controller and its
// reconciled task set. It is what a rendering layer talks to.
type Session struct {
	board      *domain.Board
	columns    []domain.Column
	keys       []domain.ColumnKey
	matcher    Matcher
	reconciler *Reconciler
	controller *DragController

	mu        sync.RWMutex
	filters   domain.FilterState
	candidate *Candidate
}

func NewSession(board *domain.Board, columns []domain.Column, store TaskStore, opts ...SessionOption) *Session {
	o := sessionOptions{sensors: DefaultSensorConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	keys := make([]domain.ColumnKey, len(columns))
	for i, c := range columns {
		keys[i] = c.Key
	}

	s := &Session{
		board:      board,
		columns:    columns,
		keys:       keys,
		matcher:    Matcher{Locale: o.locale},
		reconciler: NewReconciler(board.ID, store, o.reconciler...),
	}
	s.controller = NewDragController(o.sensors, s)
	return s
}

func (s *Session) Board() *domain.Board        { return s.board }
func (s *Session) Columns() []domain.Column    { return s.columns }
func (s *Session) Controller() *DragController { return s.controller }
func (s *Session) Reconciler() *Reconciler     { return s.reconciler }

// Load fetches the board's tasks.
func (s *Session) Load(ctx context.Context) error {
	return s.reconciler.Load(ctx)
}

// Run follows push invalidations until ctx is done.
func (s *Session) Run(ctx context.Context, inv Invalidator) error {
	return s.reconciler.Run(ctx, inv)
}

// ColumnProjection returns the filtered, ordered tasks of every column.
func (s *Session) ColumnProjection() Projection {
	visible, _, _ := s.projections()
	return visible
}

// View returns the column projection together with the cache version it
// was built from.
func (s *Session) View() (Projection, uint64) {
	visible, _, version := s.projections()
	return visible, version
}

func (s *Session) SetFilters(f domain.FilterState) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

func (s *Session) Filters() domain.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Candidate returns the current hover target while a drag is active.
func (s *Session) Candidate() (Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.candidate == nil {
		return Candidate{}, false
	}
	return *s.candidate, true
}

// Close ends the view: any drag is cancelled and filters are reset.
// In-flight mutations keep running; use Wait to drain them.
func (s *Session) Close() {
	s.controller.Cancel()
	s.SetFilters(domain.FilterState{})
}

func (s *Session) Wait() {
	s.reconciler.Wait()
}

func (s *Session) OnDragStart(ev DragStartEvent) {
	log.Debug().
		Str("board_id", s.board.ID.String()).
		Str("task_id", ev.Session.TaskID.String()).
		Str("modality", ev.Session.Modality.String()).
		Msg("drag started")
}

func (s *Session) OnDragOver(ev DragOverEvent) {
	visible := s.ColumnProjection()
	column, index, ok, err := ResolveDropIndex(ev.Session.TaskID, ev.Target, visible)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || !ok {
		s.candidate = nil
		return
	}
	s.candidate = &Candidate{TaskID: ev.Session.TaskID, Column: column, Index: index}
}

func (s *Session) OnDragEnd(ev DragEndEvent) {
	s.mu.Lock()
	s.candidate = nil
	s.mu.Unlock()

	if _, err := s.Drop(ev.Session.TaskID, ev.Target); err != nil {
		log.Debug().Err(err).
			Str("board_id", s.board.ID.String()).
			Str("task_id", ev.Session.TaskID.String()).
			Msg("drop discarded")
	}
}

// Drop resolves a drop of taskID onto target and submits the resulting move.
// It returns the submitted plan, or nil when the drop was a no-op.
// domain.ErrInvalidTarget means the drop was discarded.
func (s *Session) Drop(taskID uuid.UUID, target DropTarget) (*MovePlan, error) {
	visible, unfiltered, _ := s.projections()

	plan, err := ResolveDrop(taskID, target, visible, unfiltered)
	switch {
	case errors.Is(err, domain.ErrInvalidTarget):
		dropsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	case err != nil:
		return nil, err
	case plan == nil:
		dropsTotal.WithLabelValues("noop").Inc()
		return nil, nil
	}

	dropsTotal.WithLabelValues("committed").Inc()
	s.reconciler.Submit(*plan)
	return plan, nil
}

// projections builds the filtered and unfiltered views from one snapshot so
// index translation never mixes two task sets.
func (s *Session) projections() (visible, unfiltered Projection, version uint64) {
	snap := s.reconciler.Snapshot()
	f := s.Filters()
	visible = ProjectWith(s.matcher, snap.Tasks, s.keys, f)
	unfiltered = ProjectWith(s.matcher, snap.Tasks, s.keys, domain.FilterState{})
	return visible, unfiltered, snap.Version
}
