package market

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated    = "OrderCreated"
	EventEscrowConfirmed = "EscrowConfirmed"
	EventOrderShipped    = "OrderShipped"
	EventOrderCompleted  = "OrderCompleted"
)

// Envelope wraps every published lifecycle event. CorrelationID is the
// order id, so all events for one order share a partition key.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderEventPayload struct {
	OrderID     string          `json:"order_id"`
	ListingID   string          `json:"listing_id"`
	BuyerID     string          `json:"buyer_id"`
	SellerID    string          `json:"seller_id"`
	Status      OrderStatus     `json:"status"`
	AgreedPrice decimal.Decimal `json:"agreed_price"`
}
