package service

import (
	"context"
	"testing"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("Collects all counters", func(t *testing.T) {
		orderRepo := &fakeOrderRepo{
			countReviewFn: func(_ context.Context) (int64, error) {
				return 2, nil
			},
			countOrdersFn: func(_ context.Context, status domain.OrderStatus) (int64, error) {
				switch status {
				case domain.OrderStatusPaymentReceived:
					return 5, nil
				case domain.OrderStatusShipped:
					return 3, nil
				}
				return 0, nil
			},
			countItemsFn: func(_ context.Context, status domain.ShipmentStatus) (int64, error) {
				switch status {
				case domain.ShipmentStatusPending:
					return 7, nil
				case domain.ShipmentStatusDelayed:
					return 2, nil
				}
				return 0, nil
			},
		}
		returnRepo := &fakeReturnRepo{
			countFn: func(_ context.Context, status domain.ReturnStatus) (int64, error) {
				assert.Equal(t, domain.ReturnStatusRequested, status)
				return 1, nil
			},
		}
		reconRepo := &fakeReconRepo{
			countFn: func(_ context.Context, from, to time.Time) (int64, error) {
				assert.Equal(t, 24*time.Hour, to.Sub(from))
				return 4, nil
			},
		}

		svc := NewDashboardService(orderRepo, returnRepo, reconRepo, "America/New_York")

		snapshot, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), snapshot.OrdersAwaitingReview)
		assert.Len(t, snapshot.OrdersByStatus, len(domain.AllOrderStatuses()))
		assert.Equal(t, int64(5), snapshot.OrdersByStatus[domain.OrderStatusPaymentReceived])
		assert.Equal(t, int64(3), snapshot.OrdersByStatus[domain.OrderStatusShipped])
		assert.Equal(t, int64(0), snapshot.OrdersByStatus[domain.OrderStatusCancelled])
		assert.Equal(t, int64(7), snapshot.ItemsPendingShipment)
		assert.Equal(t, int64(2), snapshot.DelayedShipments)
		assert.Equal(t, int64(1), snapshot.ReturnsRequested)
		assert.Equal(t, int64(4), snapshot.ReconciledToday)
	})

	t.Run("Invalid timezone", func(t *testing.T) {
		svc := NewDashboardService(&fakeOrderRepo{}, &fakeReturnRepo{
			countFn: func(_ context.Context, _ domain.ReturnStatus) (int64, error) {
				return 0, nil
			},
		}, &fakeReconRepo{}, "Atlantis/Sunken_City")

		snapshot, err := svc.Snapshot(ctx)
		assert.Error(t, err)
		assert.Nil(t, snapshot)
	})
}
