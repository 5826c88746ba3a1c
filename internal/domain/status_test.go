package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanAdvanceToShipped(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		expected bool
	}{
		{OrderStatusPaymentReceived, true},
		{OrderStatusSupplierOrderPlaced, true},
		{OrderStatusSupplierConfirmed, true},
		{OrderStatusShipped, true},
		{OrderStatusDelivered, false},
		// Терминальные и исключительные статусы не продвигаются отгрузкой
		{OrderStatusCancelled, false},
		{OrderStatusRefunded, false},
		{OrderStatusRequiresReview, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.CanAdvanceToShipped())
		})
	}
}

func TestOrderStatus_ForwardRank(t *testing.T) {
	t.Run("Linear progression is ordered", func(t *testing.T) {
		sequence := []OrderStatus{
			OrderStatusPaymentReceived,
			OrderStatusSupplierOrderPlaced,
			OrderStatusSupplierConfirmed,
			OrderStatusShipped,
			OrderStatusDelivered,
		}

		prev := -1
		for _, status := range sequence {
			rank, ok := status.ForwardRank()
			assert.True(t, ok, "status %s", status)
			assert.Greater(t, rank, prev)
			prev = rank
		}
	})

	t.Run("Exception states have no rank", func(t *testing.T) {
		for _, status := range []OrderStatus{OrderStatusCancelled, OrderStatusRefunded, OrderStatusRequiresReview} {
			_, ok := status.ForwardRank()
			assert.False(t, ok, "status %s", status)
		}
	})
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusPaymentReceived.Valid())
	assert.True(t, OrderStatusRequiresReview.Valid())
	assert.False(t, OrderStatus("TELEPORTED").Valid())
	assert.False(t, OrderStatus("").Valid())
}
