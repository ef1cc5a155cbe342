package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/ledger"
)

// LedgerServiceInterface defines the interface for transaction operations
type LedgerServiceInterface interface {
	CreateTransaction(ctx context.Context, txn *ledger.Transaction) (*ledger.Transaction, error)
	GetTransactionDetail(ctx context.Context, id uuid.UUID) (*ledger.TransactionDetail, error)
	ListTransactions(ctx context.Context, filters ledger.TransactionFilters) ([]*ledger.TransactionDetail, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, input ledger.UpdateTransactionInput) (*ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	ledgerService LedgerServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(ledgerService LedgerServiceInterface) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// CreateTransactionRequest represents the transaction creation request
type CreateTransactionRequest struct {
	AccountID       string           `json:"account_id"`
	AssetID         *string          `json:"asset_id"`
	Type            string           `json:"type"`
	Quantity        *decimal.Decimal `json:"quantity"`
	PricePerUnit    *decimal.Decimal `json:"price_per_unit"`
	Fee             *decimal.Decimal `json:"fee"`
	TransactionTime *time.Time       `json:"transaction_time"`
	Notes           string           `json:"notes"`
}

// UpdateTransactionRequest represents the transaction update request
type UpdateTransactionRequest struct {
	AccountID       *string          `json:"account_id"`
	AssetID         *string          `json:"asset_id"`
	Type            *string          `json:"type"`
	Quantity        *decimal.Decimal `json:"quantity"`
	PricePerUnit    *decimal.Decimal `json:"price_per_unit"`
	Fee             *decimal.Decimal `json:"fee"`
	TransactionTime *time.Time       `json:"transaction_time"`
	Notes           *string          `json:"notes"`
}

// TransactionResponse represents a transaction response. The name fields are
// populated on reads, where the account and asset rows are joined in.
type TransactionResponse struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	AccountName     string          `json:"account_name,omitempty"`
	AssetID         *string         `json:"asset_id,omitempty"`
	AssetTicker     *string         `json:"asset_ticker,omitempty"`
	AssetName       *string         `json:"asset_name,omitempty"`
	Type            string          `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	Fee             decimal.Decimal `json:"fee"`
	TransactionTime string          `json:"transaction_time"`
	Notes           string          `json:"notes,omitempty"`
}

func toTransactionResponse(txn *ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              txn.ID.String(),
		AccountID:       txn.AccountID.String(),
		Type:            string(txn.Type),
		Quantity:        txn.Quantity,
		PricePerUnit:    txn.PricePerUnit,
		Fee:             txn.Fee,
		TransactionTime: txn.TransactionTime.UTC().Format(time.RFC3339),
		Notes:           txn.Notes,
	}
	if txn.AssetID != nil {
		s := txn.AssetID.String()
		resp.AssetID = &s
	}
	return resp
}

func toTransactionDetailResponse(d *ledger.TransactionDetail) TransactionResponse {
	resp := toTransactionResponse(&d.Transaction)
	resp.AccountName = d.AccountName
	resp.AssetTicker = d.AssetTicker
	resp.AssetName = d.AssetName
	return resp
}

// CreateTransaction handles POST /transactions
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account ID")
		return
	}

	txn := &ledger.Transaction{
		AccountID: accountID,
		Type:      ledger.TransactionType(req.Type),
		Notes:     req.Notes,
	}
	if req.AssetID != nil {
		assetID, err := uuid.Parse(*req.AssetID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid asset ID")
			return
		}
		txn.AssetID = &assetID
	}
	if req.Quantity != nil {
		txn.Quantity = *req.Quantity
	}
	if req.PricePerUnit != nil {
		txn.PricePerUnit = *req.PricePerUnit
	}
	if req.Fee != nil {
		txn.Fee = *req.Fee
	}
	if req.TransactionTime != nil {
		txn.TransactionTime = *req.TransactionTime
	}

	created, err := h.ledgerService.CreateTransaction(r.Context(), txn)
	if err != nil {
		respondTransactionError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toTransactionResponse(created))
}

// GetTransactions handles GET /transactions
func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	filters := ledger.TransactionFilters{Limit: limit, Offset: offset}

	if v := r.URL.Query().Get("account_id"); v != "" {
		accountID, err := uuid.Parse(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid account ID")
			return
		}
		filters.AccountID = &accountID
	}

	txns, err := h.ledgerService.ListTransactions(r.Context(), filters)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	response := make([]TransactionResponse, 0, len(txns))
	for _, d := range txns {
		response = append(response, toTransactionDetailResponse(d))
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"transactions": response})
}

// GetTransaction handles GET /transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	detail, err := h.ledgerService.GetTransactionDetail(r.Context(), id)
	if err != nil {
		respondTransactionError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransactionDetailResponse(detail))
}

// UpdateTransaction handles PUT /transactions/{id}
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := ledger.UpdateTransactionInput{
		Quantity:        req.Quantity,
		PricePerUnit:    req.PricePerUnit,
		Fee:             req.Fee,
		TransactionTime: req.TransactionTime,
		Notes:           req.Notes,
	}
	if req.AccountID != nil {
		accountID, err := uuid.Parse(*req.AccountID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid account ID")
			return
		}
		input.AccountID = &accountID
	}
	if req.AssetID != nil {
		assetID, err := uuid.Parse(*req.AssetID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid asset ID")
			return
		}
		input.AssetID = &assetID
	}
	if req.Type != nil {
		t := ledger.TransactionType(*req.Type)
		input.Type = &t
	}

	updated, err := h.ledgerService.UpdateTransaction(r.Context(), id, input)
	if err != nil {
		respondTransactionError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransactionResponse(updated))
}

// DeleteTransaction handles DELETE /transactions/{id}
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	if err := h.ledgerService.DeleteTransaction(r.Context(), id); err != nil {
		respondTransactionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondTransactionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrTransactionNotFound):
		respondWithError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, ledger.ErrAccountRequired),
		errors.Is(err, ledger.ErrInvalidTransactionType),
		errors.Is(err, ledger.ErrNegativeQuantity),
		errors.Is(err, ledger.ErrNegativePrice),
		errors.Is(err, ledger.ErrNegativeFee):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
