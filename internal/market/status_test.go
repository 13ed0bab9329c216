package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_LinearLifecycle(t *testing.T) {
	allowed := [][2]OrderStatus{
		{OrderCreated, OrderAwaitingEscrow},
		{OrderAwaitingEscrow, OrderEscrowConfirmed},
		{OrderEscrowConfirmed, OrderShipped},
		{OrderShipped, OrderDelivered},
		{OrderShipped, OrderCompleted},
		{OrderDelivered, OrderCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc[0], tc[1]), "%s -> %s should be allowed", tc[0], tc[1])
	}
}

func TestCanTransition_NoSkippingOrReversing(t *testing.T) {
	denied := [][2]OrderStatus{
		{OrderCreated, OrderEscrowConfirmed},
		{OrderCreated, OrderShipped},
		{OrderAwaitingEscrow, OrderShipped},
		{OrderEscrowConfirmed, OrderAwaitingEscrow},
		{OrderShipped, OrderEscrowConfirmed},
		{OrderCompleted, OrderShipped},
		{OrderCancelled, OrderCompleted},
		{OrderFailed, OrderCreated},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc[0], tc[1]), "%s -> %s should be denied", tc[0], tc[1])
	}
}

func TestCanTransition_TerminalStatesFreeze(t *testing.T) {
	all := []OrderStatus{
		OrderCreated, OrderAwaitingEscrow, OrderEscrowConfirmed,
		OrderShipped, OrderDelivered, OrderCompleted, OrderCancelled, OrderFailed,
	}
	for _, terminal := range []OrderStatus{OrderCompleted, OrderCancelled, OrderFailed} {
		for _, to := range all {
			assert.False(t, CanTransition(terminal, to), "%s is terminal", terminal)
		}
	}
}
