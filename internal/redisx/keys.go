package redisx

import "time"

const (
	// Cached order body: order:{order_id} -> JSON order response
	KeyOrder = "order:%s"

	// Cached listing index: listings:all -> JSON array
	KeyListingsAll = "listings:all"
)

var (
	TTLOrder    = 5 * time.Minute
	TTLListings = 30 * time.Second
)
