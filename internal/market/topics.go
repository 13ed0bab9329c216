package market

const (
	TopicOrderCreated    = "order.created"
	TopicEscrowConfirmed = "order.escrow.confirmed"
	TopicOrderShipped    = "order.shipped"
	TopicOrderCompleted  = "order.completed"
)

// Partition key = order id, so events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
