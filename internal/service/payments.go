package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService регистрирует платежи и события платежного шлюза
type PaymentService struct {
	paymentRepo domain.PaymentRepository
	orderRepo   domain.OrderRepository
	processor   domain.ProcessorClient
	fees        *FeeEstimator
	audit       domain.AuditRecorder
	logger      *zap.Logger
}

// NewPaymentService создает новый PaymentService
func NewPaymentService(
	paymentRepo domain.PaymentRepository,
	orderRepo domain.OrderRepository,
	processor domain.ProcessorClient,
	fees *FeeEstimator,
	audit domain.AuditRecorder,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		processor:   processor,
		fees:        fees,
		audit:       audit,
		logger:      logger,
	}
}

// RegisterPaymentIntent сохраняет ожидающий платеж по созданному intent.
// Повторная регистрация того же intent идемпотентна
func (s *PaymentService) RegisterPaymentIntent(ctx context.Context, orderID int64, intentID string, amount decimal.Decimal, currency string) (*domain.Payment, error) {
	if existing, err := s.paymentRepo.GetPaymentByIntentID(ctx, intentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, fmt.Errorf("payment service: failed to check intent %q: %w", intentID, err)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("payment service: failed to resolve order %d: %w", orderID, err)
	}

	payment := &domain.Payment{
		OrderID:         &order.ID,
		PaymentIntentID: &intentID,
		Amount:          amount.Round(2),
		Currency:        currency,
		Status:          domain.PaymentStatusPending,
		FeeAmount:       decimal.Zero,
		NetAmount:       amount.Round(2),
		Gateway:         "stripe",
	}

	created, err := s.paymentRepo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("payment service: failed to create payment for intent %q: %w", intentID, err)
	}

	return created, nil
}

// RecordChargeEvent обрабатывает событие успешного списания от шлюза.
// Повторная доставка того же charge идемпотентна. Заказ ищется сначала по
// метаданным события, затем по ранее зарегистрированному intent; события
// без заказа сохраняются непривязанными и попадают в ночную сверку
func (s *PaymentService) RecordChargeEvent(ctx context.Context, event domain.GatewayChargeEvent) (*domain.Payment, error) {
	if existing, err := s.paymentRepo.GetPaymentByChargeID(ctx, event.ChargeID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, fmt.Errorf("payment service: failed to check charge %q: %w", event.ChargeID, err)
	}

	amount := FromMinorUnits(event.AmountMinor)
	fee := s.fees.EstimateOrReported(amount, event.FeeMinor)
	net := amount.Sub(fee)
	if net.IsNegative() {
		net = decimal.Zero
	}

	orderID := s.resolveOrderID(ctx, event)

	if prior, err := s.findIntentPayment(ctx, event.PaymentIntentID); err != nil {
		return nil, err
	} else if prior != nil {
		// Intent уже зарегистрирован: завершаем существующий платеж
		if err := s.paymentRepo.CompletePayment(ctx, prior.ID, event.ChargeID, fee, net); err != nil {
			return nil, fmt.Errorf("payment service: failed to complete payment %d: %w", prior.ID, err)
		}
		prior.ChargeID = &event.ChargeID
		prior.Status = domain.PaymentStatusCompleted
		prior.FeeAmount = fee
		prior.NetAmount = net
		s.recordPaymentAudit(ctx, prior, "PAYMENT_COMPLETED")
		return prior, nil
	}

	payment := &domain.Payment{
		OrderID:       orderID,
		ChargeID:      &event.ChargeID,
		Amount:        amount,
		Currency:      event.Currency,
		Status:        domain.PaymentStatusCompleted,
		FeeAmount:     fee,
		NetAmount:     net,
		PaymentMethod: event.PaymentMethodType,
		Gateway:       "stripe",
	}
	if event.PaymentIntentID != "" {
		intentID := event.PaymentIntentID
		payment.PaymentIntentID = &intentID
	}

	created, err := s.paymentRepo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("payment service: failed to record charge %q: %w", event.ChargeID, err)
	}

	if orderID == nil {
		s.logger.Warn("recorded unattached charge", zap.String("charge_id", event.ChargeID))
	}

	s.recordPaymentAudit(ctx, created, "PAYMENT_COMPLETED")
	return created, nil
}

// Refund инициирует возврат средств по платежу через процессор
func (s *PaymentService) Refund(ctx context.Context, paymentID int64, amount decimal.Decimal, reason string, actorID *int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment service: failed to get payment %d: %w", paymentID, err)
	}

	chargeID := ""
	if payment.ChargeID != nil {
		chargeID = *payment.ChargeID
	}
	intentID := ""
	if payment.PaymentIntentID != nil {
		intentID = *payment.PaymentIntentID
	}

	if err := s.processor.CreateRefund(ctx, chargeID, intentID, ToMinorUnits(amount), reason); err != nil {
		return nil, fmt.Errorf("payment service: processor refund failed for payment %d: %w", paymentID, err)
	}

	if err := s.paymentRepo.UpdatePaymentStatus(ctx, payment.ID, domain.PaymentStatusRefunded); err != nil {
		return nil, fmt.Errorf("payment service: failed to mark payment %d refunded: %w", paymentID, err)
	}
	payment.Status = domain.PaymentStatusRefunded

	s.audit.Record(ctx, domain.AuditEntry{
		EntityType: "payment",
		EntityID:   payment.ID,
		ActorID:    actorID,
		Action:     "PAYMENT_REFUNDED",
	})

	return payment, nil
}

// GetPayment получает платеж по id
func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("payment service: failed to get payment %d: %w", id, err)
	}
	return payment, nil
}

func (s *PaymentService) resolveOrderID(ctx context.Context, event domain.GatewayChargeEvent) *int64 {
	if raw, ok := event.Metadata["orderId"]; ok {
		var id int64
		if _, err := fmt.Sscanf(raw, "%d", &id); err == nil {
			if order, err := s.orderRepo.GetOrderByID(ctx, id); err == nil {
				return &order.ID
			}
			s.logger.Warn("charge metadata references unknown order",
				zap.String("charge_id", event.ChargeID),
				zap.Int64("order_id", id))
		}
	}
	return nil
}

func (s *PaymentService) findIntentPayment(ctx context.Context, intentID string) (*domain.Payment, error) {
	if intentID == "" {
		return nil, nil
	}
	payment, err := s.paymentRepo.GetPaymentByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("payment service: failed to look up intent %q: %w", intentID, err)
	}
	return payment, nil
}

func (s *PaymentService) recordPaymentAudit(ctx context.Context, payment *domain.Payment, action string) {
	entityID := payment.ID
	s.audit.Record(ctx, domain.AuditEntry{
		EntityType: "payment",
		EntityID:   entityID,
		Action:     action,
	})
}
