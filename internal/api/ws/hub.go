package ws

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/board"
	"github.com/gosuda/kira/internal/domain"
	redisstore "github.com/gosuda/kira/internal/store/redis"
)

// PubSub is the push channel the hub reads from.
// *redis.PubSub satisfies this interface.
type PubSub interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
	board.Invalidator
}

// Backend is the record store behind interactive sessions.
// *tasks.Service satisfies this interface.
type Backend interface {
	board.TaskStore
	Board(ctx context.Context, boardID uuid.UUID) (*domain.Board, []domain.Column, error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub  PubSub
	backend Backend
	opts    []board.SessionOption
}

// NewHub creates a new WebSocket hub. opts apply to every interactive
// session it opens.
func NewHub(pubsub PubSub, backend Backend, opts ...board.SessionOption) *Hub {
	return &Hub{pubsub: pubsub, backend: backend, opts: opts}
}

// ServeBoard handles WebSocket connections for raw board events.
// Subscribes to Redis channel "board:<boardID>" and forwards every
// BoardEvent as published.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	boardID, err := uuid.Parse(chi.URLParam(r, "boardID"))
	if err != nil {
		http.Error(w, "invalid board id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	channel := redisstore.BoardChannel(boardID)

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
