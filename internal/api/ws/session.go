package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/kira/internal/board"
	"github.com/gosuda/kira/internal/domain"
)

// tickInterval drives the touch long-press timer between input samples.
const tickInterval = 25 * time.Millisecond

// ServeSession runs an interactive board view over one connection. The
// client streams pointer input and filter changes; the server owns drag
// recognition, filtering, ordering and reconciliation, and answers with a
// fresh view after every change.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request) {
	boardID, err := uuid.Parse(chi.URLParam(r, "boardID"))
	if err != nil {
		http.Error(w, "invalid board id", http.StatusBadRequest)
		return
	}

	b, columns, err := h.backend.Board(r.Context(), boardID)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "board not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("board_id", boardID.String()).Msg("ws.ServeSession: load board")
		http.Error(w, "failed to load board", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &sessionConn{
		conn:    conn,
		changed: make(chan struct{}, 1),
		errs:    make(chan *board.MutationError, 16),
		logger:  log.With().Str("board_id", boardID.String()).Logger(),
	}

	opts := append([]board.SessionOption{}, h.opts...)
	opts = append(opts, board.WithReconcilerOptions(
		board.WithChangeHandler(c.notify),
		board.WithErrorHandler(c.fail),
	))
	c.session = board.NewSession(b, columns, h.backend, opts...)
	defer func() {
		c.session.Close()
		c.session.Wait()
	}()

	if err := c.session.Load(ctx); err != nil {
		c.logger.Error().Err(err).Msg("ws.ServeSession: initial load")
		_ = conn.Close(websocket.StatusInternalError, "load failed")
		return
	}

	go func() {
		if err := c.session.Run(ctx, h.pubsub); err != nil {
			c.logger.Error().Err(err).Msg("ws.ServeSession: invalidation feed")
		}
	}()

	if err := c.loop(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("ws.ServeSession: connection ended")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

type sessionConn struct {
	conn    *websocket.Conn
	session *board.Session
	changed chan struct{}
	errs    chan *board.MutationError
	logger  zerolog.Logger
}

// notify and fail run on reconciler goroutines and never block.
func (c *sessionConn) notify(uint64) {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

func (c *sessionConn) fail(err error) {
	var me *board.MutationError
	if !errors.As(err, &me) {
		return
	}
	select {
	case c.errs <- me:
	default:
		c.logger.Warn().Err(err).Msg("ws: error queue full, dropping mutation error")
	}
}

// loop is the single goroutine that drives the drag controller.
func (c *sessionConn) loop(ctx context.Context) error {
	inbox := make(chan ClientMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg ClientMessage
			if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
				readErr <- err
				return
			}
			select {
			case inbox <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	if err := c.writeView(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			return err
		case msg := <-inbox:
			c.handle(msg, time.Now())
			if err := c.writeView(ctx); err != nil {
				return err
			}
		case now := <-ticker.C:
			ctl := c.session.Controller()
			before := ctl.State()
			ctl.Tick(now)
			if ctl.State() != before {
				if err := c.writeView(ctx); err != nil {
					return err
				}
			}
		case me := <-c.errs:
			err := wsjson.Write(ctx, c.conn, ErrorMessage{
				Type:    MsgError,
				TaskID:  me.TaskID,
				Column:  me.Column,
				Message: me.Err.Error(),
			})
			if err != nil {
				return err
			}
			if err := c.writeView(ctx); err != nil {
				return err
			}
		case <-c.changed:
			if err := c.writeView(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *sessionConn) handle(msg ClientMessage, now time.Time) {
	ctl := c.session.Controller()

	if msg.Type == MsgSetFilters {
		c.session.SetFilters(msg.Filters.state())
		return
	}
	if msg.Type == MsgCancel {
		ctl.Cancel()
		return
	}

	modality, ok := parseModality(msg.Modality)
	if !ok {
		c.logger.Debug().Str("modality", msg.Modality).Msg("ws: unknown modality")
		return
	}
	ev := board.InputEvent{
		Modality: modality,
		TaskID:   msg.TaskID,
		Column:   msg.Column,
		Point:    board.Point{X: msg.X, Y: msg.Y},
		At:       now,
		Over:     c.target(msg.Over),
	}

	switch msg.Type {
	case MsgPointerDown:
		ctl.PointerDown(ev)
	case MsgPointerMove:
		ctl.PointerMove(ev)
	case MsgPointerUp:
		ctl.PointerUp(ev)
	default:
		c.logger.Debug().Str("type", msg.Type).Msg("ws: unknown message type")
	}
}

// target turns the wire description of a drop region into a DropTarget.
// A task the view no longer shows still yields a task target; the drop
// resolver rejects it.
func (c *sessionConn) target(o *Over) board.DropTarget {
	if o == nil {
		return board.DropTarget{}
	}
	switch o.Type {
	case "column":
		return board.ColumnTarget(o.Column)
	case "task":
		if t, _, _, ok := c.session.ColumnProjection().Find(o.TaskID); ok {
			return board.TaskTarget(t)
		}
		return board.TaskTarget(&domain.Task{ID: o.TaskID, Column: o.Column})
	default:
		return board.DropTarget{}
	}
}

func (c *sessionConn) writeView(ctx context.Context) error {
	projection, version := c.session.View()

	view := ViewMessage{Type: MsgView, Version: version}
	for _, col := range c.session.Columns() {
		view.Columns = append(view.Columns, ColumnView{
			Key:   col.Key,
			Title: col.Title,
			Tasks: projection[col.Key],
		})
	}
	if s, ok := c.session.Controller().Session(); ok {
		view.Dragging = &DragView{TaskID: s.TaskID, Modality: s.Modality.String()}
		if cand, ok := c.session.Candidate(); ok {
			view.Dragging.Candidate = &cand
		}
	}

	return wsjson.Write(ctx, c.conn, view)
}
