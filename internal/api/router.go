package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/codebreakergame/codebreaker-go/internal/api/middleware"
	"github.com/codebreakergame/codebreaker-go/internal/api/response"
	"github.com/codebreakergame/codebreaker-go/internal/services/game"
)

// RouterConfig holds configuration for the status API router
type RouterConfig struct {
	Logger         *slog.Logger
	GameController *game.Controller
}

// NewRouter creates the read-only status API. It exposes a health
// probe and a snapshot of the running session; all game play happens
// over the TCP protocol.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/session", handleSession(cfg.GameController)).Methods(http.MethodGet)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleSession(games *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, games.Snapshot())
	}
}
