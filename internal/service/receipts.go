package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// RegisterReceiptInput описывает запрос на регистрацию чека поставщика
type RegisterReceiptInput struct {
	SupplierID    int64
	OrderItemID   int64
	ReceiptNumber string
	Amount        decimal.Decimal
	Currency      string
	ReceiptDate   time.Time
}

// ReceiptService регистрирует чеки поставщиков для ночной сверки
type ReceiptService struct {
	receiptRepo domain.ReceiptRepository
	catalogRepo domain.CatalogRepository
	orderRepo   domain.OrderRepository
	audit       domain.AuditRecorder
}

// NewReceiptService создает новый ReceiptService
func NewReceiptService(
	receiptRepo domain.ReceiptRepository,
	catalogRepo domain.CatalogRepository,
	orderRepo domain.OrderRepository,
	audit domain.AuditRecorder,
) *ReceiptService {
	return &ReceiptService{
		receiptRepo: receiptRepo,
		catalogRepo: catalogRepo,
		orderRepo:   orderRepo,
		audit:       audit,
	}
}

// RegisterReceipt сохраняет чек поставщика по позиции заказа
func (s *ReceiptService) RegisterReceipt(ctx context.Context, input RegisterReceiptInput, actorID *int64) (*domain.SupplierReceipt, error) {
	if _, err := s.catalogRepo.GetSupplierByID(ctx, input.SupplierID); err != nil {
		return nil, fmt.Errorf("receipt service: failed to resolve supplier %d: %w", input.SupplierID, err)
	}
	if _, err := s.orderRepo.GetOrderItemByID(ctx, input.OrderItemID); err != nil {
		return nil, fmt.Errorf("receipt service: failed to resolve order item %d: %w", input.OrderItemID, err)
	}

	d := input.ReceiptDate
	receipt := &domain.SupplierReceipt{
		SupplierID:    input.SupplierID,
		OrderItemID:   input.OrderItemID,
		ReceiptNumber: input.ReceiptNumber,
		Amount:        input.Amount.Round(2),
		Currency:      input.Currency,
		ReceiptDate:   time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
	}

	created, err := s.receiptRepo.CreateReceipt(ctx, receipt)
	if err != nil {
		return nil, fmt.Errorf("receipt service: failed to create receipt: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		EntityType: "supplier_receipt",
		EntityID:   created.ID,
		ActorID:    actorID,
		Action:     "SUPPLIER_RECEIPT_REGISTERED",
	})

	return created, nil
}
