package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnAnalytics — счетчики заявок на возврат по статусам
type ReturnAnalytics struct {
	Requested int64 `json:"requested"`
	Received  int64 `json:"received"`
	Refunded  int64 `json:"refunded"`
	Rejected  int64 `json:"rejected"`
}

// ReturnService ведет заявки на возврат позиций заказа
type ReturnService struct {
	returnRepo  domain.ReturnRepository
	orderRepo   domain.OrderRepository
	paymentRepo domain.PaymentRepository
	processor   domain.ProcessorClient
	audit       domain.AuditRecorder
	logger      *zap.Logger
}

// NewReturnService создает новый ReturnService
func NewReturnService(
	returnRepo domain.ReturnRepository,
	orderRepo domain.OrderRepository,
	paymentRepo domain.PaymentRepository,
	processor domain.ProcessorClient,
	audit domain.AuditRecorder,
	logger *zap.Logger,
) *ReturnService {
	return &ReturnService{
		returnRepo:  returnRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		processor:   processor,
		audit:       audit,
		logger:      logger,
	}
}

// InitiateReturn создает заявку на возврат позиции заказа
func (s *ReturnService) InitiateReturn(ctx context.Context, orderItemID int64, reason string, actorID *int64) (*domain.ReturnRequest, error) {
	if _, err := s.orderRepo.GetOrderItemByID(ctx, orderItemID); err != nil {
		return nil, fmt.Errorf("return service: failed to resolve order item %d: %w", orderItemID, err)
	}

	created, err := s.returnRepo.CreateReturn(ctx, &domain.ReturnRequest{
		OrderItemID:  orderItemID,
		ReturnReason: reason,
		ReturnStatus: domain.ReturnStatusRequested,
	})
	if err != nil {
		return nil, fmt.Errorf("return service: failed to create return: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		EntityType: "return_request",
		EntityID:   created.ID,
		ActorID:    actorID,
		Action:     "RETURN_REQUESTED",
	})

	return created, nil
}

// MarkReceived отмечает физическое получение возвращенного товара
func (s *ReturnService) MarkReceived(ctx context.Context, id int64, trackingNumber *string, actorID *int64) (*domain.ReturnRequest, error) {
	ret, err := s.returnRepo.GetReturnByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("return service: failed to get return %d: %w", id, err)
	}

	now := time.Now().UTC()
	ret.ReturnStatus = domain.ReturnStatusReceived
	ret.TrackingNumber = trackingNumber
	ret.ReceivedAt = &now

	if err := s.returnRepo.UpdateReturn(ctx, ret); err != nil {
		return nil, fmt.Errorf("return service: failed to update return %d: %w", id, err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		EntityType: "return_request",
		EntityID:   ret.ID,
		ActorID:    actorID,
		Action:     "RETURN_RECEIVED",
	})

	return ret, nil
}

// ProcessRefund выполняет возврат средств по полученной заявке.
// Сбой процессора фиксируется статусом FAILED, заявка остается в RECEIVED
// для повторной попытки
func (s *ReturnService) ProcessRefund(ctx context.Context, id int64, amount decimal.Decimal, actorID *int64) (*domain.ReturnRequest, error) {
	ret, err := s.returnRepo.GetReturnByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("return service: failed to get return %d: %w", id, err)
	}

	item, err := s.orderRepo.GetOrderItemByID(ctx, ret.OrderItemID)
	if err != nil {
		return nil, fmt.Errorf("return service: failed to resolve order item %d: %w", ret.OrderItemID, err)
	}

	payment, err := s.paymentRepo.GetFirstPaymentByOrderID(ctx, item.OrderID)
	if err != nil {
		return nil, fmt.Errorf("return service: failed to find payment for order %d: %w", item.OrderID, err)
	}

	chargeID := ""
	if payment.ChargeID != nil {
		chargeID = *payment.ChargeID
	}
	intentID := ""
	if payment.PaymentIntentID != nil {
		intentID = *payment.PaymentIntentID
	}

	rounded := amount.Round(2)
	ret.RefundAmount = &rounded

	if err := s.processor.CreateRefund(ctx, chargeID, intentID, ToMinorUnits(rounded), ret.ReturnReason); err != nil {
		failed := domain.RefundStatusFailed
		ret.RefundStatus = &failed
		if updErr := s.returnRepo.UpdateReturn(ctx, ret); updErr != nil {
			s.logger.Error("failed to persist failed refund state",
				zap.Int64("return_id", ret.ID), zap.Error(updErr))
		}
		return nil, fmt.Errorf("return service: processor refund failed for return %d: %w", id, err)
	}

	now := time.Now().UTC()
	completed := domain.RefundStatusCompleted
	ret.ReturnStatus = domain.ReturnStatusRefunded
	ret.RefundStatus = &completed
	ret.ProcessedAt = &now

	if err := s.returnRepo.UpdateReturn(ctx, ret); err != nil {
		return nil, fmt.Errorf("return service: failed to update return %d: %w", id, err)
	}

	if err := s.paymentRepo.UpdatePaymentStatus(ctx, payment.ID, domain.PaymentStatusRefunded); err != nil {
		s.logger.Error("failed to mark payment refunded",
			zap.Int64("payment_id", payment.ID), zap.Error(err))
	}

	s.audit.Record(ctx, domain.AuditEntry{
		EntityType: "return_request",
		EntityID:   ret.ID,
		ActorID:    actorID,
		Action:     "RETURN_REFUNDED",
	})

	return ret, nil
}

// Analytics возвращает счетчики заявок на возврат по статусам
func (s *ReturnService) Analytics(ctx context.Context) (*ReturnAnalytics, error) {
	analytics := &ReturnAnalytics{}

	counts := []struct {
		status domain.ReturnStatus
		target *int64
	}{
		{domain.ReturnStatusRequested, &analytics.Requested},
		{domain.ReturnStatusReceived, &analytics.Received},
		{domain.ReturnStatusRefunded, &analytics.Refunded},
		{domain.ReturnStatusRejected, &analytics.Rejected},
	}

	for _, c := range counts {
		n, err := s.returnRepo.CountReturnsByStatus(ctx, c.status)
		if err != nil {
			return nil, fmt.Errorf("return service: failed to count returns %s: %w", c.status, err)
		}
		*c.target = n
	}

	return analytics, nil
}
