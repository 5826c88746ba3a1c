package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
)

// DashboardSnapshot — операционные счетчики бэк-офиса
type DashboardSnapshot struct {
	OrdersAwaitingReview int64                        `json:"orders_awaiting_review"`
	OrdersByStatus       map[domain.OrderStatus]int64 `json:"orders_by_status"`
	ItemsPendingShipment int64                        `json:"items_pending_shipment"`
	DelayedShipments     int64                        `json:"delayed_shipments"`
	ReturnsRequested     int64                        `json:"returns_requested"`
	ReconciledToday      int64                        `json:"reconciled_today"`
}

// DashboardService собирает снимок операционных показателей
type DashboardService struct {
	orderRepo  domain.OrderRepository
	returnRepo domain.ReturnRepository
	reconRepo  domain.ReconciliationRepository
	timezone   string
}

// NewDashboardService создает новый DashboardService
func NewDashboardService(
	orderRepo domain.OrderRepository,
	returnRepo domain.ReturnRepository,
	reconRepo domain.ReconciliationRepository,
	timezone string,
) *DashboardService {
	return &DashboardService{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		reconRepo:  reconRepo,
		timezone:   timezone,
	}
}

// Snapshot собирает текущие счетчики
func (s *DashboardService) Snapshot(ctx context.Context) (*DashboardSnapshot, error) {
	snapshot := &DashboardSnapshot{}
	var err error

	if snapshot.OrdersAwaitingReview, err = s.orderRepo.CountOrdersRequiringReview(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: failed to count review queue: %w", err)
	}
	snapshot.OrdersByStatus = make(map[domain.OrderStatus]int64)
	for _, status := range domain.AllOrderStatuses() {
		count, err := s.orderRepo.CountOrdersByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("dashboard: failed to count orders in %s: %w", status, err)
		}
		snapshot.OrdersByStatus[status] = count
	}
	if snapshot.ItemsPendingShipment, err = s.orderRepo.CountItemsByShipmentStatus(ctx, domain.ShipmentStatusPending); err != nil {
		return nil, fmt.Errorf("dashboard: failed to count items: %w", err)
	}
	if snapshot.DelayedShipments, err = s.orderRepo.CountItemsByShipmentStatus(ctx, domain.ShipmentStatusDelayed); err != nil {
		return nil, fmt.Errorf("dashboard: failed to count items: %w", err)
	}
	if snapshot.ReturnsRequested, err = s.returnRepo.CountReturnsByStatus(ctx, domain.ReturnStatusRequested); err != nil {
		return nil, fmt.Errorf("dashboard: failed to count returns: %w", err)
	}

	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return nil, fmt.Errorf("dashboard: failed to load timezone %q: %w", s.timezone, err)
	}
	now := time.Now().In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	to := from.Add(24 * time.Hour)

	if snapshot.ReconciledToday, err = s.reconRepo.CountAuditsBetween(ctx, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("dashboard: failed to count reconciliations: %w", err)
	}

	return snapshot, nil
}
