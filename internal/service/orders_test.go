package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOrderService(orderRepo *fakeOrderRepo, catalog *fakeCatalogRepo, guard *fakeGuard, audit *fakeAudit, cutoff *CutoffScheduler) *OrderService {
	profitRepo := &fakeProfitRepo{
		saveFn: func(ctx context.Context, analysis *domain.ProfitAnalysis) (*domain.ProfitAnalysis, error) {
			return analysis, nil
		},
	}
	profit := newTestProfitCalculator(orderRepo, catalog, profitRepo)
	if cutoff == nil {
		cutoff = NewCutoffScheduler("14:00", "America/New_York")
	}
	return NewOrderService(orderRepo, catalog, guard, cutoff, profit, audit,
		decimal.NewFromInt(500), "America/New_York", zap.NewNop())
}

func testCatalog() *fakeCatalogRepo {
	supplierID := int64(7)
	return &fakeCatalogRepo{
		customers: map[int64]*domain.Customer{
			1: {ID: 1, Email: "buyer@example.com"},
		},
		products: map[int64]*domain.Product{
			100: {ID: 100, SupplierID: &supplierID, SupplierPrice: decimal.RequireFromString("10.00"), SellingPrice: decimal.RequireFromString("25.50")},
			200: {ID: 200, SupplierPrice: decimal.RequireFromString("300.00"), SellingPrice: decimal.RequireFromString("600.00")},
		},
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success below review threshold", func(t *testing.T) {
		var persisted *domain.Order
		orderRepo := &fakeOrderRepo{
			createFn: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
				order.ID = 42
				persisted = order
				return order, nil
			},
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return persisted, nil
			},
		}
		guard := &fakeGuard{}
		audit := &fakeAudit{}
		svc := newTestOrderService(orderRepo, testCatalog(), guard, audit, nil)

		order, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID:     1,
			TaxAmount:      decimal.RequireFromString("2.00"),
			ShippingAmount: decimal.RequireFromString("5.00"),
			Items:          []CreateOrderItemInput{{ProductID: 100, Quantity: 2}},
		})
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusPaymentReceived, order.Status)
		assert.False(t, order.RequiresReview)
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("51.00")))
		assert.True(t, order.NetAmount.Equal(decimal.RequireFromString("58.00")))
		assert.NotNil(t, order.CutOffTime)
		assert.Contains(t, order.OrderNumber, "ORD-")
		assert.Len(t, guard.acquired, 1)
		assert.Empty(t, guard.released)
		assert.Contains(t, audit.actions(), "ORDER_CREATED")
	})

	t.Run("High value order requires review", func(t *testing.T) {
		orderRepo := &fakeOrderRepo{
			createFn: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
				order.ID = 43
				return order, nil
			},
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return &domain.Order{ID: 43}, nil
			},
		}
		svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, &fakeAudit{}, nil)

		order, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID: 1,
			Items:      []CreateOrderItemInput{{ProductID: 200, Quantity: 1}},
		})
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusRequiresReview, order.Status)
		assert.True(t, order.RequiresReview)
		require.NotNil(t, order.ReviewReason)
		assert.Equal(t, "High-value order exceeds threshold 500", *order.ReviewReason)
	})

	t.Run("Item supplier override wins over product default", func(t *testing.T) {
		var persisted *domain.Order
		orderRepo := &fakeOrderRepo{
			createFn: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
				order.ID = 45
				persisted = order
				return order, nil
			},
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return persisted, nil
			},
		}
		guard := &fakeGuard{}
		svc := newTestOrderService(orderRepo, testCatalog(), guard, &fakeAudit{}, nil)

		override := int64(99)
		order, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID: 1,
			Items:      []CreateOrderItemInput{{ProductID: 100, SupplierID: &override, Quantity: 1}},
		})
		require.NoError(t, err)

		require.Len(t, order.Items, 1)
		require.NotNil(t, order.Items[0].SupplierID)
		assert.Equal(t, override, *order.Items[0].SupplierID)
		// Ключ защиты от дублей считается по переопределенному поставщику
		assert.Equal(t, []string{guardTestKey(1, 100, 99)}, guard.acquired)
	})

	t.Run("Client supplied order number is kept", func(t *testing.T) {
		var persisted *domain.Order
		orderRepo := &fakeOrderRepo{
			createFn: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
				order.ID = 46
				persisted = order
				return order, nil
			},
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return persisted, nil
			},
		}
		svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, &fakeAudit{}, nil)

		order, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID:  1,
			OrderNumber: "SHOP-2024-0001",
			Items:       []CreateOrderItemInput{{ProductID: 100, Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, "SHOP-2024-0001", order.OrderNumber)
	})

	t.Run("Empty item list rejected", func(t *testing.T) {
		svc := newTestOrderService(&fakeOrderRepo{}, testCatalog(), &fakeGuard{}, &fakeAudit{}, nil)

		_, err := svc.CreateOrder(ctx, CreateOrderInput{CustomerID: 1})
		assert.ErrorIs(t, err, ErrInvalidOrderItems)
	})

	t.Run("Duplicate releases prior acquisitions", func(t *testing.T) {
		guard := &fakeGuard{
			existing: map[string]bool{
				guardTestKey(1, 200, NoSupplierID): true,
			},
		}
		svc := newTestOrderService(&fakeOrderRepo{}, testCatalog(), guard, &fakeAudit{}, nil)

		_, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID: 1,
			Items: []CreateOrderItemInput{
				{ProductID: 100, Quantity: 1},
				{ProductID: 200, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrDuplicateOrder)

		// Первая позиция успела захватить ключ, он должен быть снят
		assert.Equal(t, []string{guardTestKey(1, 100, 7)}, guard.released)
	})

	t.Run("Persistence failure releases guards", func(t *testing.T) {
		orderRepo := &fakeOrderRepo{
			createFn: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
				return nil, errors.New("connection lost")
			},
		}
		guard := &fakeGuard{}
		svc := newTestOrderService(orderRepo, testCatalog(), guard, &fakeAudit{}, nil)

		_, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID: 1,
			Items:      []CreateOrderItemInput{{ProductID: 100, Quantity: 1}},
		})
		assert.Error(t, err)
		assert.Equal(t, guard.acquired, guard.released)
	})

	t.Run("Cutoff failure is not fatal", func(t *testing.T) {
		orderRepo := &fakeOrderRepo{
			createFn: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
				order.ID = 44
				return order, nil
			},
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return &domain.Order{ID: 44}, nil
			},
		}
		broken := NewCutoffScheduler("14:00", "Mars/Olympus_Mons")
		svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, &fakeAudit{}, broken)

		order, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID: 1,
			Items:      []CreateOrderItemInput{{ProductID: 100, Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Nil(t, order.CutOffTime)
	})

	t.Run("Unknown customer rejected", func(t *testing.T) {
		svc := newTestOrderService(&fakeOrderRepo{}, testCatalog(), &fakeGuard{}, &fakeAudit{}, nil)

		_, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerID: 999,
			Items:      []CreateOrderItemInput{{ProductID: 100, Quantity: 1}},
		})
		assert.True(t, errors.Is(err, domain.ErrCustomerNotFound))
	})
}

func TestOrderService_ReviewDecision(t *testing.T) {
	ctx := context.Background()
	actorID := int64(5)

	reviewOrder := func() *domain.Order {
		reason := "High-value order exceeds threshold 500"
		return &domain.Order{
			ID:             1,
			Status:         domain.OrderStatusRequiresReview,
			RequiresReview: true,
			ReviewReason:   &reason,
		}
	}

	t.Run("Approve moves to payment received", func(t *testing.T) {
		state := reviewOrder()
		orderRepo := &fakeOrderRepo{
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return state, nil
			},
			updateReviewFn: func(ctx context.Context, id int64, status domain.OrderStatus, requiresReview bool, reason *string) error {
				assert.Nil(t, reason)
				state = &domain.Order{ID: 1, Status: status, RequiresReview: requiresReview, ReviewReason: reason}
				return nil
			},
		}
		audit := &fakeAudit{}
		svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, audit, nil)

		order, err := svc.ReviewDecision(ctx, 1, true, nil, &actorID)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusPaymentReceived, order.Status)
		assert.False(t, order.RequiresReview)
		assert.Nil(t, order.ReviewReason)
		assert.Contains(t, audit.actions(), "ORDER_REVIEW_APPROVED")
	})

	t.Run("Reject cancels the order", func(t *testing.T) {
		state := reviewOrder()
		orderRepo := &fakeOrderRepo{
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return state, nil
			},
			updateReviewFn: func(ctx context.Context, id int64, status domain.OrderStatus, requiresReview bool, reason *string) error {
				require.NotNil(t, reason)
				assert.Equal(t, "Customer unreachable for verification", *reason)
				state = &domain.Order{ID: 1, Status: status, RequiresReview: requiresReview, ReviewReason: reason}
				return nil
			},
		}
		audit := &fakeAudit{}
		svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, audit, nil)

		rejectReason := "Customer unreachable for verification"
		order, err := svc.ReviewDecision(ctx, 1, false, &rejectReason, &actorID)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusCancelled, order.Status)
		require.NotNil(t, order.ReviewReason)
		assert.Equal(t, rejectReason, *order.ReviewReason)
		assert.Contains(t, audit.actions(), "ORDER_REVIEW_REJECTED")
	})

	t.Run("No-op when review not required", func(t *testing.T) {
		plain := &domain.Order{ID: 2, Status: domain.OrderStatusShipped}
		orderRepo := &fakeOrderRepo{
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return plain, nil
			},
		}
		audit := &fakeAudit{}
		svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, audit, nil)

		order, err := svc.ReviewDecision(ctx, 2, true, nil, &actorID)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusShipped, order.Status)
		assert.Empty(t, audit.entries)
	})
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown status rejected", func(t *testing.T) {
		svc := newTestOrderService(&fakeOrderRepo{}, testCatalog(), &fakeGuard{}, &fakeAudit{}, nil)

		_, err := svc.UpdateOrderStatus(ctx, 1, domain.OrderStatus("TELEPORTED"), nil)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("Audit carries before and after state", func(t *testing.T) {
		state := &domain.Order{ID: 1, Status: domain.OrderStatusPaymentReceived}
		orderRepo := &fakeOrderRepo{
			getFn: func(ctx context.Context, id int64) (*domain.Order, error) {
				return state, nil
			},
			updateStatusFn: func(ctx context.Context, id int64, status domain.OrderStatus) error {
				state = &domain.Order{ID: 1, Status: status}
				return nil
			},
		}
		audit := &fakeAudit{}
		svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, audit, nil)

		order, err := svc.UpdateOrderStatus(ctx, 1, domain.OrderStatusSupplierConfirmed, nil)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusSupplierConfirmed, order.Status)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, "ORDER_STATUS_UPDATED", audit.entries[0].Action)
		assert.NotEmpty(t, audit.entries[0].BeforeState)
		assert.NotEmpty(t, audit.entries[0].AfterState)
		assert.Nil(t, audit.entries[0].ActorID)
	})
}

func TestOrderService_SupplierBuyList(t *testing.T) {
	ctx := context.Background()

	rows := []*domain.SupplierBuyRow{
		{SupplierID: 2, SupplierName: "Zenith Goods", OrderNumber: "ORD-1", Quantity: 1, TotalPrice: decimal.RequireFromString("30.00"), Purchased: true},
		{SupplierID: 1, SupplierName: "Acme Supply", OrderNumber: "ORD-2", Quantity: 2, TotalPrice: decimal.RequireFromString("40.00")},
		{SupplierID: 1, SupplierName: "Acme Supply", OrderNumber: "ORD-3", Quantity: 1, TotalPrice: decimal.RequireFromString("15.50")},
	}

	orderRepo := &fakeOrderRepo{
		buyRowsFn: func(ctx context.Context, from, to time.Time) ([]*domain.SupplierBuyRow, error) {
			assert.Equal(t, 24*time.Hour, to.Sub(from))
			return rows, nil
		},
	}
	svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, &fakeAudit{}, nil)

	groups, err := svc.SupplierBuyList(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Группы отсортированы по имени поставщика
	assert.Equal(t, "Acme Supply", groups[0].SupplierName)
	assert.True(t, groups[0].TotalCost.Equal(decimal.RequireFromString("55.50")))
	assert.Equal(t, 0, groups[0].PurchasedCount)
	assert.Equal(t, 2, groups[0].PendingCount)

	assert.Equal(t, "Zenith Goods", groups[1].SupplierName)
	assert.Equal(t, 1, groups[1].PurchasedCount)
}

func TestOrderService_UpdateItemTracking(t *testing.T) {
	ctx := context.Background()
	tracking := "TRACK-123"

	orderRepo := &fakeOrderRepo{
		updateTrackingFn: func(ctx context.Context, itemID int64, trackingNumber string) (*domain.OrderItem, bool, error) {
			return &domain.OrderItem{
				ID:             itemID,
				OrderID:        1,
				ShipmentStatus: domain.ShipmentStatusShipped,
				TrackingNumber: &trackingNumber,
			}, true, nil
		},
	}
	audit := &fakeAudit{}
	svc := newTestOrderService(orderRepo, testCatalog(), &fakeGuard{}, audit, nil)

	item, err := svc.UpdateItemTracking(ctx, 10, tracking, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ShipmentStatusShipped, item.ShipmentStatus)
	require.NotNil(t, item.TrackingNumber)
	assert.Equal(t, tracking, *item.TrackingNumber)
	assert.Contains(t, audit.actions(), "ORDER_ITEM_TRACKING_UPDATED")
}
