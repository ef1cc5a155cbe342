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

	"github.com/foliotrack/foliotrack/internal/platform/account"
)

// AccountServiceInterface defines the interface for account operations
type AccountServiceInterface interface {
	Create(ctx context.Context, acc *account.Account) (*account.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	List(ctx context.Context, limit, offset int) ([]*account.Account, error)
	Update(ctx context.Context, id uuid.UUID, input account.UpdateInput) (*account.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BalanceSourceInterface computes the current balance of an account
type BalanceSourceInterface interface {
	AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService AccountServiceInterface
	balances       BalanceSourceInterface
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService AccountServiceInterface, balances BalanceSourceInterface) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		balances:       balances,
	}
}

// CreateAccountRequest represents the account creation request
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// UpdateAccountRequest represents the account update request
type UpdateAccountRequest struct {
	Name     *string `json:"name"`
	Currency *string `json:"currency"`
}

// AccountResponse represents an account response. TotalBalance is computed on
// single-account reads only; listings stay cheap.
type AccountResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Currency     string           `json:"currency"`
	TotalBalance *decimal.Decimal `json:"total_balance,omitempty"`
	CreatedAt    string           `json:"created_at"`
}

// AccountBalanceResponse represents an account balance response
type AccountBalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

func toAccountResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		Name:      acc.Name,
		Currency:  acc.Currency,
		CreatedAt: acc.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateAccount handles POST /accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc := &account.Account{
		Name:     req.Name,
		Currency: req.Currency,
	}

	created, err := h.accountService.Create(r.Context(), acc)
	if err != nil {
		respondAccountError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toAccountResponse(created))
}

// GetAccounts handles GET /accounts
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	accounts, err := h.accountService.List(r.Context(), limit, offset)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		response = append(response, toAccountResponse(acc))
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"accounts": response})
}

// GetAccount handles GET /accounts/{id}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account ID")
		return
	}

	acc, err := h.accountService.Get(r.Context(), id)
	if err != nil {
		respondAccountError(w, err)
		return
	}

	resp := toAccountResponse(acc)
	if balance, err := h.balances.AccountBalance(r.Context(), id); err == nil {
		resp.TotalBalance = &balance
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GetAccountBalance handles GET /accounts/{id}/balance
func (h *AccountHandler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account ID")
		return
	}

	if _, err := h.accountService.Get(r.Context(), id); err != nil {
		respondAccountError(w, err)
		return
	}

	balance, err := h.balances.AccountBalance(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	respondWithJSON(w, http.StatusOK, AccountBalanceResponse{
		AccountID: id.String(),
		Balance:   balance,
	})
}

// UpdateAccount handles PUT /accounts/{id}
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account ID")
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.accountService.Update(r.Context(), id, account.UpdateInput{
		Name:     req.Name,
		Currency: req.Currency,
	})
	if err != nil {
		respondAccountError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toAccountResponse(updated))
}

// DeleteAccount handles DELETE /accounts/{id}
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account ID")
		return
	}

	if err := h.accountService.Delete(r.Context(), id); err != nil {
		respondAccountError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrAccountNotFound):
		respondWithError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, account.ErrNameRequired),
		errors.Is(err, account.ErrCurrencyRequired),
		errors.Is(err, account.ErrInvalidCurrency):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
