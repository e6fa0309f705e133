package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/brenocwb02/contasbot/internal/middleware"
)

// The read API serves the dashboard frontend. Reads run without the ledger
// lock and may observe a transient pre-reconciliation state.

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode API response")
	}
}

// handleAccounts returns the configured accounts.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repo.Accounts(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load accounts")
		http.Error(w, "Failed to fetch accounts", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, accounts)
}

// handleBalances returns a fresh reconciliation snapshot per account.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.reconciler.Recompute(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to recompute balances")
		http.Error(w, "Failed to compute balances", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, snapshots)
}

// handleTransactions returns the authenticated user's recent ledger rows.
// ?limit=n caps the result, defaulting to 50.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	transactions, err := s.repo.TransactionsByOwner(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load transactions")
		http.Error(w, "Failed to fetch transactions", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, transactions)
}
