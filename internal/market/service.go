package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/donasaurs/p2p-market/internal/postgres"
)

type role int

const (
	roleBuyer role = iota
	roleSeller
)

// TxRunner scopes a function to a single database transaction: commit when
// fn returns nil, rollback otherwise.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q postgres.DBTX) error) error
}

type ListingStore interface {
	Create(ctx context.Context, sellerID, title string, description *string, priceMin decimal.Decimal) (*Listing, error)
	FindAll(ctx context.Context) ([]Listing, error)
	FindByID(ctx context.Context, id string) (*Listing, error)
	ReserveAtomically(ctx context.Context, q postgres.DBTX, listingID, buyerID string) (*Listing, error)
	UpdateStatus(ctx context.Context, q postgres.DBTX, listingID string, status ListingStatus) (*Listing, error)
}

type OrderStore interface {
	Create(ctx context.Context, q postgres.DBTX, listingID, buyerID, sellerID string, agreedPrice decimal.Decimal) (*Order, error)
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByIDForUpdate(ctx context.Context, q postgres.DBTX, id string) (*Order, error)
	FindByUserID(ctx context.Context, userID string) ([]Order, error)
	UpdateStatus(ctx context.Context, q postgres.DBTX, orderID string, status OrderStatus, extra *StatusExtra) (*Order, error)
	InsertTransition(ctx context.Context, q postgres.DBTX, orderID string, previous *OrderStatus, next OrderStatus, actorID string, metadata map[string]any) error
	InsertAuditLog(ctx context.Context, q postgres.DBTX, actorID, action, entityType, entityID string, metadata map[string]any) error
}

type UserStore interface {
	EnsureUser(ctx context.Context, id, email string) (*User, error)
}

// EventPublisher is fire-and-forget; a publish failure never fails the
// operation that produced the event.
type EventPublisher interface {
	Publish(topic string, key, value []byte, eventType string)
}

type CreateListingInput struct {
	Title       string
	Description *string
	PriceMin    decimal.Decimal
}

type ReserveListingInput struct {
	ListingID   string
	AgreedPrice decimal.Decimal
}

// Service owns every write to orders, transitions and the audit log. It is
// stateless: any number of operations may run concurrently, correctness
// rests on the reservation CAS and the FOR UPDATE row lock.
type Service struct {
	db       TxRunner
	listings ListingStore
	orders   OrderStore
	users    UserStore
	events   EventPublisher
	log      *zap.Logger
	producer string
}

func NewService(db TxRunner, listings ListingStore, orders OrderStore, users UserStore, events EventPublisher, log *zap.Logger, producer string) *Service {
	return &Service{
		db:       db,
		listings: listings,
		orders:   orders,
		users:    users,
		events:   events,
		log:      log,
		producer: producer,
	}
}

func (s *Service) CreateListing(ctx context.Context, sellerID, email string, in CreateListingInput) (*Listing, error) {
	if _, err := s.users.EnsureUser(ctx, sellerID, email); err != nil {
		return nil, err
	}
	return s.listings.Create(ctx, sellerID, in.Title, in.Description, in.PriceMin)
}

func (s *Service) GetAllListings(ctx context.Context) ([]Listing, error) {
	return s.listings.FindAll(ctx)
}

func (s *Service) GetListingByID(ctx context.Context, id string) (*Listing, error) {
	return s.listings.FindByID(ctx, id)
}

func (s *Service) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *Service) GetOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.FindByUserID(ctx, userID)
}

// ReserveListing reserves a listing and creates its order in one
// transaction. The guarded UPDATE in ReserveAtomically is the only
// double-reserve defense; the self-reservation check runs after it, so a
// failed check rolls the transient RESERVED flip back with the transaction.
func (s *Service) ReserveListing(ctx context.Context, buyerID, email string, in ReserveListingInput) (*Order, error) {
	if _, err := s.users.EnsureUser(ctx, buyerID, email); err != nil {
		return nil, err
	}

	var out *Order
	err := s.db.WithTx(ctx, func(q postgres.DBTX) error {
		reserved, err := s.listings.ReserveAtomically(ctx, q, in.ListingID, buyerID)
		if err != nil {
			return err
		}
		if reserved == nil {
			return conflict("listing is not available for reservation")
		}
		if reserved.SellerID == buyerID {
			return badRequest("cannot reserve your own listing")
		}

		order, err := s.orders.Create(ctx, q, in.ListingID, buyerID, reserved.SellerID, in.AgreedPrice)
		if err != nil {
			return err
		}
		updated, err := s.orders.UpdateStatus(ctx, q, order.ID, OrderAwaitingEscrow, nil)
		if err != nil {
			return err
		}

		prev := OrderCreated
		if err := s.orders.InsertTransition(ctx, q, order.ID, &prev, OrderAwaitingEscrow, buyerID, map[string]any{
			"listing_id":   in.ListingID,
			"agreed_price": in.AgreedPrice.String(),
		}); err != nil {
			return err
		}
		if err := s.orders.InsertAuditLog(ctx, q, buyerID, "ORDER_CREATED", "order", order.ID, map[string]any{
			"listing_id": in.ListingID,
		}); err != nil {
			return err
		}

		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(TopicOrderCreated, EventOrderCreated, out)
	return out, nil
}

func (s *Service) ConfirmEscrow(ctx context.Context, orderID, buyerID, escrowReference string) (*Order, error) {
	order, err := s.transitionOrder(ctx, orderID, buyerID,
		OrderAwaitingEscrow, OrderEscrowConfirmed, "ESCROW_CONFIRMED", roleBuyer,
		&StatusExtra{EscrowReference: escrowReference})
	if err != nil {
		return nil, err
	}
	s.emit(TopicEscrowConfirmed, EventEscrowConfirmed, order)
	return order, nil
}

func (s *Service) ShipOrder(ctx context.Context, orderID, sellerID string) (*Order, error) {
	order, err := s.transitionOrder(ctx, orderID, sellerID,
		OrderEscrowConfirmed, OrderShipped, "ORDER_SHIPPED", roleSeller, nil)
	if err != nil {
		return nil, err
	}
	s.emit(TopicOrderShipped, EventOrderShipped, order)
	return order, nil
}

func (s *Service) CompleteOrder(ctx context.Context, orderID, buyerID string) (*Order, error) {
	order, err := s.transitionOrder(ctx, orderID, buyerID,
		OrderShipped, OrderCompleted, "ORDER_COMPLETED", roleBuyer, nil)
	if err != nil {
		return nil, err
	}
	s.emit(TopicOrderCompleted, EventOrderCompleted, order)
	return order, nil
}

// transitionOrder is the shared engine behind ConfirmEscrow, ShipOrder and
// CompleteOrder. The FOR UPDATE read serializes concurrent attempts on one
// order, so the expectedState comparison is race-free: a second caller
// blocks on the lock, then sees the moved state and fails with Conflict.
func (s *Service) transitionOrder(ctx context.Context, orderID, actorID string, expected, next OrderStatus, auditAction string, required role, extra *StatusExtra) (*Order, error) {
	var out *Order
	err := s.db.WithTx(ctx, func(q postgres.DBTX) error {
		order, err := s.orders.FindByIDForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return notFound("order not found")
		}

		if required == roleBuyer && order.BuyerID != actorID {
			return forbidden("only the buyer can perform this action")
		}
		if required == roleSeller && order.SellerID != actorID {
			return forbidden("only the seller can perform this action")
		}

		if order.Status != expected {
			return conflict("order is in state %q, expected %q", order.Status, expected)
		}
		if !CanTransition(order.Status, next) {
			return conflict("transition %s -> %s is not allowed", order.Status, next)
		}

		updated, err := s.orders.UpdateStatus(ctx, q, orderID, next, extra)
		if err != nil {
			return err
		}

		// Mirror terminal shipping states onto the listing.
		switch next {
		case OrderShipped:
			if _, err := s.listings.UpdateStatus(ctx, q, order.ListingID, ListingShipped); err != nil {
				return err
			}
		case OrderCompleted:
			if _, err := s.listings.UpdateStatus(ctx, q, order.ListingID, ListingCompleted); err != nil {
				return err
			}
		}

		var metadata map[string]any
		if extra != nil && extra.EscrowReference != "" {
			metadata = map[string]any{"escrow_reference": extra.EscrowReference}
		}
		if err := s.orders.InsertTransition(ctx, q, orderID, &expected, next, actorID, metadata); err != nil {
			return err
		}
		if err := s.orders.InsertAuditLog(ctx, q, actorID, auditAction, "order", orderID, map[string]any{
			"previous_state": string(expected),
			"new_state":      string(next),
		}); err != nil {
			return err
		}

		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) emit(topic, eventType string, order *Order) {
	if s.events == nil || order == nil {
		return
	}
	payload, err := json.Marshal(OrderEventPayload{
		OrderID:     order.ID,
		ListingID:   order.ListingID,
		BuyerID:     order.BuyerID,
		SellerID:    order.SellerID,
		Status:      order.Status,
		AgreedPrice: order.AgreedPrice,
	})
	if err != nil {
		s.log.Warn("marshal event payload", zap.String("event", eventType), zap.Error(err))
		return
	}
	value, err := json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.producer,
		CorrelationID: order.ID,
		Payload:       payload,
	})
	if err != nil {
		s.log.Warn("marshal event envelope", zap.String("event", eventType), zap.Error(err))
		return
	}
	s.events.Publish(topic, PartitionKey(order.ID), value, eventType)
}
