package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Причины расхождения в записях сверки
const (
	ReasonMatched    = "Matched"
	ReasonMismatch   = "Amount mismatch"
	ReasonUnattached = "Unattached charge (no linked order)"
	ReasonNoItems    = "No order items found"
)

// matchTolerance — допустимое расхождение сумм, считающееся совпадением
var matchTolerance = decimal.NewFromFloat(0.01)

// ReconciliationReport — итог одного запуска сверки
type ReconciliationReport struct {
	Date       string `json:"date"`
	Payments   int    `json:"payments"`
	Matched    int    `json:"matched"`
	Mismatched int    `json:"mismatched"`
	Unattached int    `json:"unattached"`
	NoItems    int    `json:"no_items"`
	Failed     int    `json:"failed"`
}

// ReconciliationService сверяет дневные платежи покупателей с чеками
// поставщиков и пишет по записи аудита на каждый платеж
type ReconciliationService struct {
	paymentRepo domain.PaymentRepository
	orderRepo   domain.OrderRepository
	receiptRepo domain.ReceiptRepository
	reconRepo   domain.ReconciliationRepository
	locker      domain.RunLocker
	timezone    string
	logger      *zap.Logger
}

// NewReconciliationService создает новый ReconciliationService
func NewReconciliationService(
	paymentRepo domain.PaymentRepository,
	orderRepo domain.OrderRepository,
	receiptRepo domain.ReceiptRepository,
	reconRepo domain.ReconciliationRepository,
	locker domain.RunLocker,
	timezone string,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		receiptRepo: receiptRepo,
		reconRepo:   reconRepo,
		locker:      locker,
		timezone:    timezone,
		logger:      logger,
	}
}

// ReconcileForDate запускает сверку за календарный день date в бизнес-зоне.
// Повторный запуск за тот же день во время работающего возвращает
// domain.ErrReconciliationRunning. Сбой одного платежа изолируется и не
// мешает записям по остальным
func (s *ReconciliationService) ReconcileForDate(ctx context.Context, date time.Time) (*ReconciliationReport, error) {
	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return nil, fmt.Errorf("reconciliation: failed to load timezone %q: %w", s.timezone, err)
	}

	dateKey := date.In(loc).Format("2006-01-02")
	lock, err := s.locker.Obtain(ctx, "reconcile:"+dateKey, time.Hour)
	if err != nil {
		return nil, fmt.Errorf("reconciliation: failed to obtain run lock for %s: %w", dateKey, err)
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			s.logger.Warn("failed to release reconciliation lock",
				zap.String("date", dateKey), zap.Error(err))
		}
	}()

	local := date.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	to := from.Add(24 * time.Hour)

	payments, err := s.paymentRepo.ListCompletedBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("reconciliation: failed to list payments for %s: %w", dateKey, err)
	}

	// Дата чеков сравнивается как календарный день
	receiptDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	report := &ReconciliationReport{Date: dateKey, Payments: len(payments)}
	for _, payment := range payments {
		audit, err := s.reconcilePayment(ctx, payment, receiptDate)
		if err != nil {
			report.Failed++
			s.logger.Error("failed to reconcile payment",
				zap.Int64("payment_id", payment.ID), zap.Error(err))
			continue
		}

		audit.ReconciledAt = time.Now().UTC()
		if _, err := s.reconRepo.SaveAudit(ctx, audit); err != nil {
			report.Failed++
			s.logger.Error("failed to save reconciliation audit",
				zap.Int64("payment_id", payment.ID), zap.Error(err))
			continue
		}

		switch audit.DiscrepancyReason {
		case ReasonMatched:
			report.Matched++
		case ReasonMismatch:
			report.Mismatched++
		case ReasonUnattached:
			report.Unattached++
		case ReasonNoItems:
			report.NoItems++
		}
	}

	s.logger.Info("reconciliation run finished",
		zap.String("date", dateKey),
		zap.Int("payments", report.Payments),
		zap.Int("matched", report.Matched),
		zap.Int("mismatched", report.Mismatched),
		zap.Int("unattached", report.Unattached),
		zap.Int("failed", report.Failed))

	return report, nil
}

// ReportForDate строит отчет по ранее сохраненным записям сверки за день
func (s *ReconciliationService) ReportForDate(ctx context.Context, date time.Time) ([]*domain.ReconciliationAudit, error) {
	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return nil, fmt.Errorf("reconciliation: failed to load timezone %q: %w", s.timezone, err)
	}

	local := date.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	to := from.Add(24 * time.Hour)

	audits, err := s.reconRepo.ListAuditsBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("reconciliation: failed to list audits: %w", err)
	}
	return audits, nil
}

func (s *ReconciliationService) reconcilePayment(ctx context.Context, payment *domain.Payment, receiptDate time.Time) (*domain.ReconciliationAudit, error) {
	chargeID := ""
	if payment.ChargeID != nil {
		chargeID = *payment.ChargeID
	}

	if payment.OrderID == nil {
		return &domain.ReconciliationAudit{
			ChargeID:          chargeID,
			CustomerAmount:    payment.Amount,
			DiscrepancyReason: ReasonUnattached,
		}, nil
	}

	order, err := s.orderRepo.GetOrderByID(ctx, *payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", *payment.OrderID, err)
	}

	if len(order.Items) == 0 {
		supplier := decimal.Zero
		discrepancy := payment.Amount.Sub(supplier)
		return &domain.ReconciliationAudit{
			ChargeID:          chargeID,
			CustomerAmount:    payment.Amount,
			SupplierAmount:    &supplier,
			DiscrepancyAmount: &discrepancy,
			DiscrepancyReason: ReasonNoItems,
		}, nil
	}

	supplier := decimal.Zero
	for _, item := range order.Items {
		receipts, err := s.receiptRepo.ListReceiptsByOrderItemOnDate(ctx, item.ID, receiptDate)
		if err != nil {
			return nil, fmt.Errorf("failed to load receipts for item %d: %w", item.ID, err)
		}
		for _, receipt := range receipts {
			supplier = supplier.Add(receipt.Amount)
		}
	}

	discrepancy := payment.Amount.Sub(supplier)
	reason := ReasonMatched
	if discrepancy.Abs().GreaterThan(matchTolerance) {
		reason = ReasonMismatch
	}

	return &domain.ReconciliationAudit{
		ChargeID:          chargeID,
		CustomerAmount:    payment.Amount,
		SupplierAmount:    &supplier,
		DiscrepancyAmount: &discrepancy,
		DiscrepancyReason: reason,
	}, nil
}
