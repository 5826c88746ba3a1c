package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/avc/dropship-backend/internal/repository/postgres"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateOrderItemInput описывает позицию в запросе на создание заказа.
// SupplierID переопределяет поставщика по умолчанию из карточки товара
type CreateOrderItemInput struct {
	ProductID  int64
	SupplierID *int64
	Quantity   int
}

// CreateOrderInput описывает запрос на создание заказа.
// Пустой OrderNumber означает, что номер генерируется сервером
type CreateOrderInput struct {
	CustomerID      int64
	OrderNumber     string
	TaxAmount       decimal.Decimal
	ShippingAmount  decimal.Decimal
	ShippingAddress json.RawMessage
	BillingAddress  json.RawMessage
	Items           []CreateOrderItemInput
}

// SupplierBuyGroup представляет дневной список закупки у одного поставщика
type SupplierBuyGroup struct {
	SupplierID     int64                   `json:"supplier_id"`
	SupplierName   string                  `json:"supplier_name"`
	Rows           []*domain.SupplierBuyRow `json:"rows"`
	TotalCost      decimal.Decimal         `json:"total_cost"`
	PurchasedCount int                     `json:"purchased_count"`
	PendingCount   int                     `json:"pending_count"`
}

// OrderService реализует жизненный цикл заказа
type OrderService struct {
	orderRepo   domain.OrderRepository
	catalogRepo domain.CatalogRepository
	dupGuard    domain.DuplicateGuard
	cutoff      *CutoffScheduler
	profit      *ProfitCalculator
	audit       domain.AuditRecorder

	reviewThreshold decimal.Decimal
	timezone        string // Бизнес-зона для дневных окон списка закупки
	logger          *zap.Logger
}

// NewOrderService создает новый OrderService
func NewOrderService(
	orderRepo domain.OrderRepository,
	catalogRepo domain.CatalogRepository,
	dupGuard domain.DuplicateGuard,
	cutoff *CutoffScheduler,
	profit *ProfitCalculator,
	audit domain.AuditRecorder,
	reviewThreshold decimal.Decimal,
	timezone string,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:       orderRepo,
		catalogRepo:     catalogRepo,
		dupGuard:        dupGuard,
		cutoff:          cutoff,
		profit:          profit,
		audit:           audit,
		reviewThreshold: reviewThreshold,
		timezone:        timezone,
		logger:          logger,
	}
}

type guardTriple struct {
	customerID, productID, supplierID int64
}

// CreateOrder создает заказ вместе с позициями.
// Защита от дублей захватывается на каждую позицию до записи; при любом
// последующем сбое захваченные ключи снимаются, чтобы легитимный повтор
// не ждал истечения TTL
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrInvalidOrderItems
	}

	if _, err := s.catalogRepo.GetCustomerByID(ctx, input.CustomerID); err != nil {
		return nil, fmt.Errorf("order service: failed to resolve customer %d: %w", input.CustomerID, err)
	}

	var acquired []guardTriple
	releaseAcquired := func() {
		for _, g := range acquired {
			if err := s.dupGuard.Release(ctx, g.customerID, g.productID, g.supplierID); err != nil {
				s.logger.Error("failed to release duplicate guard",
					zap.Int64("customer_id", g.customerID),
					zap.Int64("product_id", g.productID),
					zap.Error(err))
			}
		}
	}

	total := decimal.Zero
	items := make([]*domain.OrderItem, 0, len(input.Items))

	for _, in := range input.Items {
		product, err := s.catalogRepo.GetProductByID(ctx, in.ProductID)
		if err != nil {
			releaseAcquired()
			return nil, fmt.Errorf("order service: failed to resolve product %d: %w", in.ProductID, err)
		}

		supplierID := product.SupplierID
		if in.SupplierID != nil {
			supplierID = in.SupplierID
		}

		guardSupplierID := NoSupplierID
		if supplierID != nil {
			guardSupplierID = *supplierID
		}

		duplicate, err := s.dupGuard.TryAcquire(ctx, input.CustomerID, product.ID, guardSupplierID)
		if err != nil {
			releaseAcquired()
			return nil, fmt.Errorf("order service: duplicate guard failed: %w", err)
		}
		if duplicate {
			releaseAcquired()
			return nil, ErrDuplicateOrder
		}
		acquired = append(acquired, guardTriple{input.CustomerID, product.ID, guardSupplierID})

		qty := in.Quantity
		if qty <= 0 {
			qty = 1
		}
		totalPrice := product.SellingPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
		total = total.Add(totalPrice)

		items = append(items, &domain.OrderItem{
			ProductID:      product.ID,
			SupplierID:     supplierID,
			Quantity:       qty,
			UnitPrice:      product.SellingPrice,
			TotalPrice:     totalPrice,
			ShipmentStatus: domain.ShipmentStatusPending,
		})
	}

	netAmount := total.Add(input.TaxAmount).Add(input.ShippingAmount).Round(2)

	orderNumber := input.OrderNumber
	if orderNumber == "" {
		orderNumber = fmt.Sprintf("ORD-%d", time.Now().UnixMilli())
	}

	order := &domain.Order{
		OrderNumber:     orderNumber,
		CustomerID:      input.CustomerID,
		Status:          domain.OrderStatusPaymentReceived,
		TotalAmount:     total,
		TaxAmount:       input.TaxAmount,
		ShippingAmount:  input.ShippingAmount,
		NetAmount:       netAmount,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Items:           items,
	}

	if requires, reason := EvaluateReview(netAmount, s.reviewThreshold); requires {
		order.Status = domain.OrderStatusRequiresReview
		order.RequiresReview = true
		order.ReviewReason = &reason
	}

	// Сбой расчета cut-off не фатален, поле остается пустым
	if cutoff, err := s.cutoff.TodayCutoff(time.Now()); err != nil {
		s.logger.Warn("failed to compute order cutoff", zap.Error(err))
	} else {
		order.CutOffTime = &cutoff
	}

	created, err := s.orderRepo.CreateOrderWithItems(ctx, order)
	if err != nil {
		releaseAcquired()
		if errors.Is(err, postgres.ErrOrderNumberTaken) {
			return nil, ErrOrderNumberTaken
		}
		return nil, fmt.Errorf("order service: failed to create order: %w", err)
	}

	s.recordOrderAudit(ctx, created, nil, "ORDER_CREATED", nil)

	// Снимок прибыли best-effort: цена поставщика может быть еще не финальной
	if _, err := s.profit.ComputeAndSaveForOrder(ctx, created.ID); err != nil {
		s.logger.Warn("failed to compute profit for new order",
			zap.Int64("order_id", created.ID),
			zap.Error(err))
	}

	return created, nil
}

// GetOrder получает заказ с позициями
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get order %d: %w", id, err)
	}
	return order, nil
}

// ListOrders получает страницу заказов, опционально по статусу
func (s *OrderService) ListOrders(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	orders, err := s.orderRepo.ListOrders(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to list orders: %w", err)
	}
	return orders, nil
}

// OrdersRequiringReview получает очередь заказов на ручное ревью
func (s *OrderService) OrdersRequiringReview(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListOrdersRequiringReview(ctx)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to list review queue: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus переводит заказ в новый статус
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, actorID *int64) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	before, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get order %d: %w", id, err)
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("order service: failed to update status for order %d: %w", id, err)
	}

	after, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to reload order %d: %w", id, err)
	}

	s.recordOrderAudit(ctx, after, before, "ORDER_STATUS_UPDATED", actorID)
	return after, nil
}

// ReviewDecision применяет решение ручного ревью.
// Решение по заказу, не требующему ревью, возвращает заказ без изменений.
// При одобрении причина ревью сбрасывается в NULL; при отклонении
// сохраняется причина оператора, если она указана
func (s *OrderService) ReviewDecision(ctx context.Context, id int64, approve bool, reason *string, actorID *int64) (*domain.Order, error) {
	before, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get order %d: %w", id, err)
	}

	if !before.RequiresReview {
		return before, nil
	}

	status := domain.OrderStatusPaymentReceived
	action := "ORDER_REVIEW_APPROVED"
	var storedReason *string
	if !approve {
		status = domain.OrderStatusCancelled
		action = "ORDER_REVIEW_REJECTED"
		storedReason = reason
	}

	if err := s.orderRepo.UpdateOrderReview(ctx, id, status, false, storedReason); err != nil {
		return nil, fmt.Errorf("order service: failed to apply review decision for order %d: %w", id, err)
	}

	after, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to reload order %d: %w", id, err)
	}

	s.recordOrderAudit(ctx, after, before, action, actorID)
	return after, nil
}

// UpdateItemTracking проставляет трек-номер позиции и, если все позиции
// заказа отгружены, продвигает заказ в SHIPPED
func (s *OrderService) UpdateItemTracking(ctx context.Context, itemID int64, trackingNumber string, actorID *int64) (*domain.OrderItem, error) {
	item, advanced, err := s.orderRepo.UpdateItemTracking(ctx, itemID, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to update tracking for item %d: %w", itemID, err)
	}

	afterState, _ := json.Marshal(item)
	s.audit.Record(ctx, domain.AuditEntry{
		EntityType: "order_item",
		EntityID:   item.ID,
		ActorID:    actorID,
		Action:     "ORDER_ITEM_TRACKING_UPDATED",
		AfterState: afterState,
	})

	if advanced {
		s.logger.Info("order advanced to shipped",
			zap.Int64("order_id", item.OrderID),
			zap.Int64("item_id", item.ID))
	}

	return item, nil
}

// SupplierBuyList строит дневной список закупки, сгруппированный по
// поставщикам. Дата интерпретируется в бизнес-зоне
func (s *OrderService) SupplierBuyList(ctx context.Context, date time.Time) ([]*SupplierBuyGroup, error) {
	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to load timezone %q: %w", s.timezone, err)
	}

	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	to := from.Add(24 * time.Hour)

	rows, err := s.orderRepo.ListSupplierBuyRows(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("order service: failed to build supplier buy list: %w", err)
	}

	bySupplier := make(map[int64]*SupplierBuyGroup)
	for _, row := range rows {
		group, ok := bySupplier[row.SupplierID]
		if !ok {
			group = &SupplierBuyGroup{
				SupplierID:   row.SupplierID,
				SupplierName: row.SupplierName,
				TotalCost:    decimal.Zero,
			}
			bySupplier[row.SupplierID] = group
		}
		group.Rows = append(group.Rows, row)
		group.TotalCost = group.TotalCost.Add(row.TotalPrice)
		if row.Purchased {
			group.PurchasedCount++
		} else {
			group.PendingCount++
		}
	}

	groups := make([]*SupplierBuyGroup, 0, len(bySupplier))
	for _, group := range bySupplier {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].SupplierName < groups[j].SupplierName
	})

	return groups, nil
}

func (s *OrderService) recordOrderAudit(ctx context.Context, after, before *domain.Order, action string, actorID *int64) {
	var beforeState, afterState json.RawMessage
	if before != nil {
		beforeState, _ = json.Marshal(orderAuditState(before))
	}
	if after != nil {
		afterState, _ = json.Marshal(orderAuditState(after))
	}

	s.audit.Record(ctx, domain.AuditEntry{
		EntityType:  "order",
		EntityID:    after.ID,
		ActorID:     actorID,
		Action:      action,
		BeforeState: beforeState,
		AfterState:  afterState,
	})
}

// orderAuditState оставляет в снимке аудита только значимые поля
func orderAuditState(o *domain.Order) map[string]any {
	return map[string]any{
		"order_number":    o.OrderNumber,
		"status":          o.Status,
		"net_amount":      o.NetAmount,
		"requires_review": o.RequiresReview,
		"review_reason":   o.ReviewReason,
	}
}
