package service

import (
	"context"
	"errors"
	"testing"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReturnService(returns *fakeReturnRepo, orders *fakeOrderRepo, payments *fakePaymentRepo, processor *fakeProcessor, audit *fakeAudit) *ReturnService {
	return NewReturnService(returns, orders, payments, processor, audit, zap.NewNop())
}

func TestReturnService_InitiateReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		orders := &fakeOrderRepo{
			getItemFn: func(ctx context.Context, id int64) (*domain.OrderItem, error) {
				return &domain.OrderItem{ID: id, OrderID: 1}, nil
			},
		}
		returns := &fakeReturnRepo{
			createFn: func(ctx context.Context, ret *domain.ReturnRequest) (*domain.ReturnRequest, error) {
				ret.ID = 1
				return ret, nil
			},
		}
		audit := &fakeAudit{}
		svc := newTestReturnService(returns, orders, &fakePaymentRepo{}, &fakeProcessor{}, audit)

		ret, err := svc.InitiateReturn(ctx, 10, "damaged on arrival", nil)
		require.NoError(t, err)

		assert.Equal(t, domain.ReturnStatusRequested, ret.ReturnStatus)
		assert.Contains(t, audit.actions(), "RETURN_REQUESTED")
	})

	t.Run("Unknown item rejected", func(t *testing.T) {
		orders := &fakeOrderRepo{
			getItemFn: func(ctx context.Context, id int64) (*domain.OrderItem, error) {
				return nil, domain.ErrOrderItemNotFound
			},
		}
		svc := newTestReturnService(&fakeReturnRepo{}, orders, &fakePaymentRepo{}, &fakeProcessor{}, &fakeAudit{})

		_, err := svc.InitiateReturn(ctx, 999, "lost", nil)
		assert.True(t, errors.Is(err, domain.ErrOrderItemNotFound))
	})
}

func TestReturnService_ProcessRefund(t *testing.T) {
	ctx := context.Background()

	setup := func(processor *fakeProcessor) (*ReturnService, *fakeReturnRepo, *fakeAudit) {
		state := &domain.ReturnRequest{
			ID:           1,
			OrderItemID:  10,
			ReturnReason: "damaged",
			ReturnStatus: domain.ReturnStatusReceived,
		}
		returns := &fakeReturnRepo{
			getFn: func(ctx context.Context, id int64) (*domain.ReturnRequest, error) {
				return state, nil
			},
			updateFn: func(ctx context.Context, ret *domain.ReturnRequest) error {
				state = ret
				return nil
			},
		}
		orders := &fakeOrderRepo{
			getItemFn: func(ctx context.Context, id int64) (*domain.OrderItem, error) {
				return &domain.OrderItem{ID: id, OrderID: 5}, nil
			},
		}
		payments := &fakePaymentRepo{
			firstByOrder: func(ctx context.Context, orderID int64) (*domain.Payment, error) {
				return &domain.Payment{ID: 3, ChargeID: strPtr("ch_1")}, nil
			},
			updateStatus: func(ctx context.Context, id int64, status domain.PaymentStatus) error {
				return nil
			},
		}
		audit := &fakeAudit{}
		return newTestReturnService(returns, orders, payments, processor, audit), returns, audit
	}

	t.Run("Success", func(t *testing.T) {
		processor := &fakeProcessor{}
		svc, _, audit := setup(processor)

		ret, err := svc.ProcessRefund(ctx, 1, decimal.RequireFromString("25.50"), nil)
		require.NoError(t, err)

		assert.Equal(t, []int64{2550}, processor.calls)
		assert.Equal(t, domain.ReturnStatusRefunded, ret.ReturnStatus)
		require.NotNil(t, ret.RefundStatus)
		assert.Equal(t, domain.RefundStatusCompleted, *ret.RefundStatus)
		assert.NotNil(t, ret.ProcessedAt)
		assert.Contains(t, audit.actions(), "RETURN_REFUNDED")
	})

	t.Run("Processor failure marks refund failed", func(t *testing.T) {
		processor := &fakeProcessor{err: errors.New("card network unavailable")}
		svc, _, _ := setup(processor)

		_, err := svc.ProcessRefund(ctx, 1, decimal.RequireFromString("25.50"), nil)
		require.Error(t, err)

		// Заявка остается в RECEIVED со статусом возврата FAILED
		ret, getErr := svc.returnRepo.GetReturnByID(ctx, 1)
		require.NoError(t, getErr)
		assert.Equal(t, domain.ReturnStatusReceived, ret.ReturnStatus)
		require.NotNil(t, ret.RefundStatus)
		assert.Equal(t, domain.RefundStatusFailed, *ret.RefundStatus)
	})
}

func TestReturnService_MarkReceived(t *testing.T) {
	ctx := context.Background()

	state := &domain.ReturnRequest{ID: 1, OrderItemID: 10, ReturnStatus: domain.ReturnStatusRequested}
	returns := &fakeReturnRepo{
		getFn: func(ctx context.Context, id int64) (*domain.ReturnRequest, error) {
			return state, nil
		},
		updateFn: func(ctx context.Context, ret *domain.ReturnRequest) error {
			state = ret
			return nil
		},
	}
	svc := newTestReturnService(returns, &fakeOrderRepo{}, &fakePaymentRepo{}, &fakeProcessor{}, &fakeAudit{})

	tracking := "RET-TRACK-1"
	ret, err := svc.MarkReceived(ctx, 1, &tracking, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ReturnStatusReceived, ret.ReturnStatus)
	assert.NotNil(t, ret.ReceivedAt)
	require.NotNil(t, ret.TrackingNumber)
	assert.Equal(t, tracking, *ret.TrackingNumber)
}

func TestReturnService_Analytics(t *testing.T) {
	ctx := context.Background()

	counts := map[domain.ReturnStatus]int64{
		domain.ReturnStatusRequested: 4,
		domain.ReturnStatusReceived:  2,
		domain.ReturnStatusRefunded:  7,
		domain.ReturnStatusRejected:  1,
	}
	returns := &fakeReturnRepo{
		countFn: func(ctx context.Context, status domain.ReturnStatus) (int64, error) {
			return counts[status], nil
		},
	}
	svc := newTestReturnService(returns, &fakeOrderRepo{}, &fakePaymentRepo{}, &fakeProcessor{}, &fakeAudit{})

	analytics, err := svc.Analytics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(4), analytics.Requested)
	assert.Equal(t, int64(2), analytics.Received)
	assert.Equal(t, int64(7), analytics.Refunded)
	assert.Equal(t, int64(1), analytics.Rejected)
}
