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

	"github.com/foliotrack/foliotrack/internal/platform/asset"
)

// AssetServiceInterface defines the interface for asset operations
type AssetServiceInterface interface {
	Create(ctx context.Context, a *asset.Asset) (*asset.Asset, error)
	Get(ctx context.Context, id uuid.UUID) (*asset.Asset, error)
	List(ctx context.Context, limit, offset int) ([]*asset.Asset, error)
	Update(ctx context.Context, id uuid.UUID, input asset.UpdateInput) (*asset.Asset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CurrentPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

// PriceRefresher triggers an on-demand refresh of stored asset prices
type PriceRefresher interface {
	RefreshAll(ctx context.Context) error
}

// AssetHandler handles asset-related HTTP requests
type AssetHandler struct {
	assetService AssetServiceInterface
	refresher    PriceRefresher
}

// NewAssetHandler creates a new asset handler. The refresher may be nil when
// no quote provider is configured; the refresh endpoint then reports the
// feature as unavailable.
func NewAssetHandler(assetService AssetServiceInterface, refresher PriceRefresher) *AssetHandler {
	return &AssetHandler{assetService: assetService, refresher: refresher}
}

// CreateAssetRequest represents the asset creation request
type CreateAssetRequest struct {
	Ticker       string           `json:"ticker"`
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	Currency     string           `json:"currency"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
}

// UpdateAssetRequest represents the asset update request
type UpdateAssetRequest struct {
	Ticker       *string          `json:"ticker"`
	Name         *string          `json:"name"`
	Type         *string          `json:"type"`
	Currency     *string          `json:"currency"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
}

// AssetResponse represents an asset response
type AssetResponse struct {
	ID           string          `json:"id"`
	Ticker       string          `json:"ticker"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Currency     string          `json:"currency"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	LastUpdated  string          `json:"last_updated"`
	CreatedAt    string          `json:"created_at"`
}

// AssetPriceResponse represents a single price response
type AssetPriceResponse struct {
	AssetID string          `json:"asset_id"`
	Ticker  string          `json:"ticker"`
	Price   decimal.Decimal `json:"price"`
}

func toAssetResponse(a *asset.Asset) AssetResponse {
	return AssetResponse{
		ID:           a.ID.String(),
		Ticker:       a.Ticker,
		Name:         a.Name,
		Type:         string(a.Type),
		Currency:     a.Currency,
		CurrentPrice: a.CurrentPrice,
		LastUpdated:  a.LastUpdated.UTC().Format(time.RFC3339),
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateAsset handles POST /assets
func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a := &asset.Asset{
		Ticker:   req.Ticker,
		Name:     req.Name,
		Type:     asset.AssetType(req.Type),
		Currency: req.Currency,
	}
	if req.CurrentPrice != nil {
		a.CurrentPrice = *req.CurrentPrice
	}

	created, err := h.assetService.Create(r.Context(), a)
	if err != nil {
		respondAssetError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toAssetResponse(created))
}

// ListAssets handles GET /assets
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	assets, err := h.assetService.List(r.Context(), limit, offset)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}

	response := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		response = append(response, toAssetResponse(a))
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"assets": response})
}

// GetAsset handles GET /assets/{id}
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid asset ID")
		return
	}

	a, err := h.assetService.Get(r.Context(), id)
	if err != nil {
		respondAssetError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toAssetResponse(a))
}

// GetAssetPrice handles GET /assets/{id}/price
func (h *AssetHandler) GetAssetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid asset ID")
		return
	}

	a, err := h.assetService.Get(r.Context(), id)
	if err != nil {
		respondAssetError(w, err)
		return
	}

	price, err := h.assetService.CurrentPrice(r.Context(), id)
	if err != nil {
		respondAssetError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AssetPriceResponse{
		AssetID: a.ID.String(),
		Ticker:  a.Ticker,
		Price:   price,
	})
}

// UpdatePrices handles POST /assets/update_prices. It runs a full quote
// refresh synchronously; assets without a fresh quote keep their stored price.
func (h *AssetHandler) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		respondWithError(w, http.StatusServiceUnavailable, "price updates are not configured")
		return
	}

	if err := h.refresher.RefreshAll(r.Context()); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to refresh prices")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "prices updated"})
}

// UpdateAsset handles PUT /assets/{id}
func (h *AssetHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid asset ID")
		return
	}

	var req UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := asset.UpdateInput{
		Ticker:       req.Ticker,
		Name:         req.Name,
		Currency:     req.Currency,
		CurrentPrice: req.CurrentPrice,
	}
	if req.Type != nil {
		t := asset.AssetType(*req.Type)
		input.Type = &t
	}

	updated, err := h.assetService.Update(r.Context(), id, input)
	if err != nil {
		respondAssetError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toAssetResponse(updated))
}

// DeleteAsset handles DELETE /assets/{id}
func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid asset ID")
		return
	}

	if err := h.assetService.Delete(r.Context(), id); err != nil {
		respondAssetError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondAssetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, asset.ErrAssetNotFound):
		respondWithError(w, http.StatusNotFound, "asset not found")
	case errors.Is(err, asset.ErrAssetInUse):
		respondWithError(w, http.StatusConflict, "asset is referenced by transactions")
	case errors.Is(err, asset.ErrTickerTaken):
		respondWithError(w, http.StatusConflict, "asset ticker already exists")
	case errors.Is(err, asset.ErrTickerRequired),
		errors.Is(err, asset.ErrTickerTooLong),
		errors.Is(err, asset.ErrNameRequired),
		errors.Is(err, asset.ErrInvalidAssetType),
		errors.Is(err, asset.ErrNegativePrice):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
