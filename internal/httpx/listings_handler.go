package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/donasaurs/p2p-market/internal/auth"
	"github.com/donasaurs/p2p-market/internal/market"
	"github.com/donasaurs/p2p-market/internal/redisx"
)

type ListingsHandler struct {
	Service *market.Service
	Redis   *redis.Client
	Log     *zap.Logger
}

type CreateListingReq struct {
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	PriceMin    decimal.Decimal `json:"price_min"`
}

func (h *ListingsHandler) Register(r *chi.Mux, authmw func(http.Handler) http.Handler) {
	r.Get("/listings", h.listListings)
	r.Get("/listings/{id}", h.getListing)
	r.With(authmw).Post("/listings", h.createListing)
}

func (h *ListingsHandler) listListings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Short-lived index cache; the reserve path invalidates nothing, so the
	// TTL is kept small.
	if s, err := h.Redis.Get(ctx, redisx.KeyListingsAll).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	listings, err := h.Service.GetAllListings(ctx)
	if err != nil {
		writeDomainErr(w, h.Log, err)
		return
	}
	if listings == nil {
		listings = []market.Listing{}
	}
	if b, err := json.Marshal(listings); err == nil {
		_ = h.Redis.Set(ctx, redisx.KeyListingsAll, b, redisx.TTLListings).Err()
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *ListingsHandler) getListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	listing, err := h.Service.GetListingByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, h.Log, err)
		return
	}
	if listing == nil {
		writeErr(w, http.StatusNotFound, "listing not found")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingsHandler) createListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateListingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Title) == 0 || len(req.Title) > 200 {
		writeErr(w, http.StatusBadRequest, "title must be 1-200 characters")
		return
	}
	if req.Description != nil && len(*req.Description) > 2000 {
		writeErr(w, http.StatusBadRequest, "description must be at most 2000 characters")
		return
	}
	if !req.PriceMin.IsPositive() {
		writeErr(w, http.StatusBadRequest, "price_min must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	listing, err := h.Service.CreateListing(ctx, actor.ID, actor.Email, market.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		PriceMin:    req.PriceMin,
	})
	if err != nil {
		writeDomainErr(w, h.Log, err)
		return
	}
	_ = h.Redis.Del(ctx, redisx.KeyListingsAll).Err()
	writeJSON(w, http.StatusCreated, listing)
}
