package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/kira/internal/api/v1"
	"github.com/gosuda/kira/internal/api/ws"
	"github.com/gosuda/kira/internal/config"
)

func registerAPIRoutes(api huma.API, store v1.DataStore, svc v1.TaskService, cfg *config.Config) {
	v1.RegisterBoardRoutes(api, store, cfg.Columns, cfg.Board.LocaleTag())
	v1.RegisterTaskRoutes(api, svc)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/boards/{boardID}", hub.ServeBoard)
	r.Get("/boards/{boardID}/session", hub.ServeSession)
}
