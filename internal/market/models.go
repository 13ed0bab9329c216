package market

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	ReputationScore int        `json:"reputation_score"`
	Verified        bool       `json:"verified"`
	BannedAt        *time.Time `json:"banned_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Listing struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	PriceMin    decimal.Decimal `json:"price_min"`
	Status      ListingStatus   `json:"status"`
	ReservedBy  *string         `json:"reserved_by"`
	ReservedAt  *time.Time      `json:"reserved_at"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Order struct {
	ID                string          `json:"id"`
	ListingID         string          `json:"listing_id"`
	BuyerID           string          `json:"buyer_id"`
	SellerID          string          `json:"seller_id"`
	AgreedPrice       decimal.Decimal `json:"agreed_price"`
	Status            OrderStatus     `json:"status"`
	EscrowReference   *string         `json:"escrow_reference"`
	EscrowConfirmedAt *time.Time      `json:"escrow_confirmed_at"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderStateTransition is append-only: one row per committed transition.
type OrderStateTransition struct {
	ID            string         `json:"id"`
	OrderID       string         `json:"order_id"`
	PreviousState *OrderStatus   `json:"previous_state"`
	NewState      OrderStatus    `json:"new_state"`
	ActorID       *string        `json:"actor_id"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
}

type AuditLog struct {
	ID         string         `json:"id"`
	ActorID    *string        `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *string        `json:"entity_id"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}
