package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"ledger/internal/core"
	"ledger/internal/services"
)

type createTransactionRequest struct {
	Title    string  `json:"title"`
	Value    float64 `json:"value"`
	Type     string  `json:"type"`
	Category string  `json:"category"`
}

type transactionResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Value      float64   `json:"value"`
	Type       string    `json:"type"`
	CategoryID string    `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type balanceResponse struct {
	Income  float64 `json:"income"`
	Outcome float64 `json:"outcome"`
	Total   float64 `json:"total"`
}

type listTransactionsResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Balance      balanceResponse       `json:"balance"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodGet:
		s.handleListTransactions(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	value, err := core.MoneyFromUnits(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.transactions.Create(r.Context(), services.CreateTransactionInput{
		Title:    req.Title,
		Value:    value,
		Type:     core.TransactionType(req.Type),
		Category: req.Category,
	})
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Failed to create transaction", "error", err)
			writeError(w, status, "internal server error")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, balance, err := s.transactions.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := listTransactionsResponse{
		Transactions: make([]transactionResponse, 0, len(transactions)),
		Balance: balanceResponse{
			Income:  balance.Income.Units(),
			Outcome: balance.Outcome.Units(),
			Total:   balance.Total.Units(),
		},
	}
	for _, tx := range transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(tx))
	}

	writeJSON(w, http.StatusOK, resp)
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         tx.ID,
		Title:      tx.Title,
		Value:      tx.Value.Units(),
		Type:       string(tx.Type),
		CategoryID: tx.CategoryID,
		CreatedAt:  tx.CreatedAt,
	}
}
