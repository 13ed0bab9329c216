package httpx

import (
	"context"
	"encoding/json"
	"fmt"
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

type OrdersHandler struct {
	Service *market.Service
	Redis   *redis.Client
	Log     *zap.Logger
}

type ReserveReq struct {
	ListingID   string          `json:"listing_id"`
	AgreedPrice decimal.Decimal `json:"agreed_price"`
}

type ConfirmEscrowReq struct {
	EscrowReference string `json:"escrow_reference"`
}

func (h *OrdersHandler) Register(r *chi.Mux, authmw func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authmw)
		r.Get("/orders/mine", h.myOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/reserve", h.reserve)
		r.Post("/orders/{id}/confirm-escrow", h.confirmEscrow)
		r.Post("/orders/{id}/ship", h.ship)
		r.Post("/orders/{id}/complete", h.complete)
	})
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Service.GetOrdersByUser(ctx, actor.ID)
	if err != nil {
		writeDomainErr(w, h.Log, err)
		return
	}
	if orders == nil {
		orders = []market.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Read-through cache; the party check still runs on cache hits.
	key := fmt.Sprintf(redisx.KeyOrder, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		var cached market.Order
		if json.Unmarshal([]byte(s), &cached) == nil {
			if cached.BuyerID != actor.ID && cached.SellerID != actor.ID {
				writeErr(w, http.StatusForbidden, "not authorized to view this order")
				return
			}
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	order, err := h.Service.GetOrderByID(ctx, orderID)
	if err != nil {
		writeDomainErr(w, h.Log, err)
		return
	}
	if order == nil {
		writeErr(w, http.StatusNotFound, "order not found")
		return
	}
	if order.BuyerID != actor.ID && order.SellerID != actor.ID {
		writeErr(w, http.StatusForbidden, "not authorized to view this order")
		return
	}
	h.cacheOrder(ctx, order)
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) reserve(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())

	var req ReserveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ListingID == "" {
		writeErr(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	if !req.AgreedPrice.IsPositive() {
		writeErr(w, http.StatusBadRequest, "agreed_price must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Service.ReserveListing(ctx, actor.ID, actor.Email, market.ReserveListingInput{
		ListingID:   req.ListingID,
		AgreedPrice: req.AgreedPrice,
	})
	if err != nil {
		writeDomainErr(w, h.Log, err)
		return
	}
	h.cacheOrder(ctx, order)
	_ = h.Redis.Del(ctx, redisx.KeyListingsAll).Err()
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) confirmEscrow(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())

	var req ConfirmEscrowReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.EscrowReference) == 0 || len(req.EscrowReference) > 500 {
		writeErr(w, http.StatusBadRequest, "escrow_reference must be 1-500 characters")
		return
	}

	h.transition(w, r, func(ctx context.Context, orderID string) (*market.Order, error) {
		return h.Service.ConfirmEscrow(ctx, orderID, actor.ID, req.EscrowReference)
	})
}

func (h *OrdersHandler) ship(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	h.transition(w, r, func(ctx context.Context, orderID string) (*market.Order, error) {
		return h.Service.ShipOrder(ctx, orderID, actor.ID)
	})
}

func (h *OrdersHandler) complete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	h.transition(w, r, func(ctx context.Context, orderID string) (*market.Order, error) {
		return h.Service.CompleteOrder(ctx, orderID, actor.ID)
	})
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, orderID string) (*market.Order, error)) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeErr(w, http.StatusBadRequest, "missing order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := fn(ctx, orderID)
	if err != nil {
		writeDomainErr(w, h.Log, err)
		return
	}
	h.cacheOrder(ctx, order)
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) cacheOrder(ctx context.Context, order *market.Order) {
	b, err := json.Marshal(order)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrder, order.ID)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLOrder).Err()
}
