package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/foliotrack/foliotrack/internal/module/valuation"
	"github.com/foliotrack/foliotrack/internal/platform/portfolio"
)

// PortfolioServiceInterface defines the interface for portfolio operations
type PortfolioServiceInterface interface {
	Create(ctx context.Context, p *portfolio.Portfolio) (*portfolio.Portfolio, error)
	Get(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error)
	List(ctx context.Context, limit, offset int) ([]*portfolio.Portfolio, error)
	Update(ctx context.Context, id uuid.UUID, input portfolio.UpdateInput) (*portfolio.Portfolio, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PortfolioSummarySource computes the aggregated view of a portfolio
type PortfolioSummarySource interface {
	PortfolioSummary(ctx context.Context, portfolioID uuid.UUID) (*valuation.PortfolioSummary, error)
}

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService PortfolioServiceInterface
	summaries        PortfolioSummarySource
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(portfolioService PortfolioServiceInterface, summaries PortfolioSummarySource) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		summaries:        summaries,
	}
}

// CreatePortfolioRequest represents the portfolio creation request
type CreatePortfolioRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	AccountIDs  []string `json:"account_ids"`
}

// UpdatePortfolioRequest represents the portfolio update request
type UpdatePortfolioRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	AccountIDs  *[]string `json:"account_ids"`
}

// PortfolioResponse represents a portfolio response
type PortfolioResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	AccountIDs  []string `json:"account_ids"`
	CreatedAt   string   `json:"created_at"`
}

func toPortfolioResponse(p *portfolio.Portfolio) PortfolioResponse {
	accountIDs := make([]string, 0, len(p.AccountIDs))
	for _, id := range p.AccountIDs {
		accountIDs = append(accountIDs, id.String())
	}

	return PortfolioResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		AccountIDs:  accountIDs,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func parseAccountIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreatePortfolio handles POST /portfolios
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accountIDs, err := parseAccountIDs(req.AccountIDs)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account ID")
		return
	}

	p := &portfolio.Portfolio{
		Name:        req.Name,
		Description: req.Description,
		AccountIDs:  accountIDs,
	}

	created, err := h.portfolioService.Create(r.Context(), p)
	if err != nil {
		respondPortfolioError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toPortfolioResponse(created))
}

// GetPortfolios handles GET /portfolios
func (h *PortfolioHandler) GetPortfolios(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	portfolios, err := h.portfolioService.List(r.Context(), limit, offset)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list portfolios")
		return
	}

	response := make([]PortfolioResponse, 0, len(portfolios))
	for _, p := range portfolios {
		response = append(response, toPortfolioResponse(p))
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"portfolios": response})
}

// GetPortfolio handles GET /portfolios/{id}
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid portfolio ID")
		return
	}

	p, err := h.portfolioService.Get(r.Context(), id)
	if err != nil {
		respondPortfolioError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPortfolioResponse(p))
}

// GetPortfolioSummary handles GET /portfolios/{id}/summary
func (h *PortfolioHandler) GetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid portfolio ID")
		return
	}

	summary, err := h.summaries.PortfolioSummary(r.Context(), id)
	if err != nil {
		respondPortfolioError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// UpdatePortfolio handles PUT /portfolios/{id}
func (h *PortfolioHandler) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid portfolio ID")
		return
	}

	var req UpdatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := portfolio.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.AccountIDs != nil {
		accountIDs, err := parseAccountIDs(*req.AccountIDs)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid account ID")
			return
		}
		input.AccountIDs = &accountIDs
	}

	updated, err := h.portfolioService.Update(r.Context(), id, input)
	if err != nil {
		respondPortfolioError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPortfolioResponse(updated))
}

// DeletePortfolio handles DELETE /portfolios/{id}
func (h *PortfolioHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid portfolio ID")
		return
	}

	if err := h.portfolioService.Delete(r.Context(), id); err != nil {
		respondPortfolioError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondPortfolioError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, portfolio.ErrPortfolioNotFound):
		respondWithError(w, http.StatusNotFound, "portfolio not found")
	case errors.Is(err, portfolio.ErrNameRequired):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
