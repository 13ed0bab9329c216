package market

type ListingStatus string

const (
	ListingActive    ListingStatus = "ACTIVE"
	ListingReserved  ListingStatus = "RESERVED"
	ListingInEscrow  ListingStatus = "IN_ESCROW"
	ListingShipped   ListingStatus = "SHIPPED"
	ListingCompleted ListingStatus = "COMPLETED"
	ListingCancelled ListingStatus = "CANCELLED"
	ListingDisputed  ListingStatus = "DISPUTED"
)

type OrderStatus string

const (
	OrderCreated         OrderStatus = "CREATED"
	OrderAwaitingEscrow  OrderStatus = "AWAITING_ESCROW"
	OrderEscrowConfirmed OrderStatus = "ESCROW_CONFIRMED"
	OrderShipped         OrderStatus = "SHIPPED"
	OrderDelivered       OrderStatus = "DELIVERED"
	OrderCompleted       OrderStatus = "COMPLETED"
	OrderCancelled       OrderStatus = "CANCELLED"
	OrderDisputed        OrderStatus = "DISPUTED"
	OrderFailed          OrderStatus = "FAILED"
)

// validNext is the canonical linear lifecycle. Terminal states map to
// nothing; CANCELLED/DISPUTED/FAILED are reachable only outside this table.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderCreated:         {OrderAwaitingEscrow: true},
	OrderAwaitingEscrow:  {OrderEscrowConfirmed: true},
	OrderEscrowConfirmed: {OrderShipped: true},
	OrderShipped:         {OrderDelivered: true, OrderCompleted: true},
	OrderDelivered:       {OrderCompleted: true},
	OrderCompleted:       {},
	OrderCancelled:       {},
	OrderFailed:          {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}
