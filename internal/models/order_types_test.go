package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOrder(t *testing.T) {
	allowed := []struct{ from, to string }{
		{OrderPending, OrderProcessing},
		{OrderPending, OrderCancelled},
		{OrderProcessing, OrderShipped},
		{OrderProcessing, OrderCancelled},
		{OrderShipped, OrderDelivered},
		{OrderDelivered, OrderRefunded},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransitionOrder(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to string }{
		{OrderPending, OrderShipped},    // cannot skip processing
		{OrderPending, OrderDelivered},
		{OrderShipped, OrderProcessing}, // no going backwards
		{OrderDelivered, OrderPending},
		{OrderCancelled, OrderProcessing}, // terminal
		{OrderRefunded, OrderPending},     // terminal
	}
	for _, tc := range denied {
		assert.False(t, CanTransitionOrder(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}

	assert.False(t, CanTransitionOrder("bogus", OrderPending))
	assert.False(t, CanTransitionOrder(OrderPending, "bogus"))
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentPaid))
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentFailed))
	assert.True(t, CanTransitionPayment(PaymentFailed, PaymentPaid)) // retry after failure
	assert.True(t, CanTransitionPayment(PaymentPaid, PaymentRefunded))

	assert.False(t, CanTransitionPayment(PaymentPaid, PaymentPending))
	assert.False(t, CanTransitionPayment(PaymentRefunded, PaymentPaid))
	assert.False(t, CanTransitionPayment(PaymentPending, PaymentRefunded)) // nothing to refund
}

func TestValidStatuses(t *testing.T) {
	for _, s := range []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded} {
		assert.True(t, ValidOrderStatus(s))
	}
	assert.False(t, ValidOrderStatus("shipped_back"))

	for _, s := range []string{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded} {
		assert.True(t, ValidPaymentStatus(s))
	}
	assert.False(t, ValidPaymentStatus("chargeback"))
}
