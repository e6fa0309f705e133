// Package server exposes the HTTP surface: the Telegram webhook, health and
// metrics endpoints, and a small read-only API for the dashboard guarded by
// Firebase authentication.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/brenocwb02/contasbot/internal/bot"
	"github.com/brenocwb02/contasbot/internal/ledger"
	"github.com/brenocwb02/contasbot/internal/middleware"
	"github.com/brenocwb02/contasbot/internal/reconcile"
)

// Server is the assistant's HTTP server.
type Server struct {
	bot           *bot.Bot
	repo          *ledger.Repo
	reconciler    *reconcile.Engine
	webhookSecret string
	logger        zerolog.Logger
	mux           *http.ServeMux
}

// New assembles the server. verifier may be nil, in which case the /api
// routes are not registered (webhook-only deployment).
func New(
	b *bot.Bot,
	repo *ledger.Repo,
	reconciler *reconcile.Engine,
	verifier middleware.TokenVerifier,
	webhookSecret string,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		bot:           b,
		repo:          repo,
		reconciler:    reconciler,
		webhookSecret: webhookSecret,
		logger:        logger,
		mux:           http.NewServeMux(),
	}
	s.setupRoutes(verifier)
	return s
}

func (s *Server) setupRoutes(verifier middleware.TokenVerifier) {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("POST /webhook", s.handleWebhook)

	if verifier != nil {
		authMiddleware := middleware.NewAuthMiddleware(verifier)
		s.mux.Handle("GET /api/accounts", authMiddleware.RequireAuth(http.HandlerFunc(s.handleAccounts)))
		s.mux.Handle("GET /api/balances", authMiddleware.RequireAuth(http.HandlerFunc(s.handleBalances)))
		s.mux.Handle("GET /api/transactions", authMiddleware.RequireAuth(http.HandlerFunc(s.handleTransactions)))
	}
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return middleware.CORS(s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
