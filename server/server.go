// Package server exposes matches over websocket and the management API over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"github.com/lguibr/pongarena/auth"
	"github.com/lguibr/pongarena/game"
	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/utils"
)

// Sessions joins authenticated players to live matches.
type Sessions interface {
	Join(spec game.MatchSpec, userID string, conn game.PlayerConn) (*game.Session, error)
}

// MatchFinder loads persisted matches.
type MatchFinder interface {
	FindMatch(ctx context.Context, id string) (*store.Match, error)
}

// Server is the realtime front door: one websocket per player per match.
type Server struct {
	sessions Sessions
	matches  MatchFinder
	verifier auth.Verifier
	cfg      utils.Config
	log      zerolog.Logger
}

func New(sessions Sessions, matches MatchFinder, verifier auth.Verifier, cfg utils.Config, logger zerolog.Logger) *Server {
	return &Server{
		sessions: sessions,
		matches:  matches,
		verifier: verifier,
		cfg:      cfg,
		log:      logger.With().Str("component", "ws").Logger(),
	}
}

// Handler routes the websocket endpoint, metrics and a liveness probe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ws/match/{matchId}", websocket.Server{
		// Bots and native clients send no Origin header.
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   s.HandleMatch,
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
