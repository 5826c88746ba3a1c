package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
)

// ReceiptRepository реализует domain.ReceiptRepository
type ReceiptRepository struct {
	db DBTX
}

// NewReceiptRepository создает новый ReceiptRepository
func NewReceiptRepository(db DBTX) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// CreateReceipt сохраняет чек поставщика
func (r *ReceiptRepository) CreateReceipt(ctx context.Context, receipt *domain.SupplierReceipt) (*domain.SupplierReceipt, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO supplier_receipts (supplier_id, order_item_id, receipt_number, amount, currency, receipt_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		receipt.SupplierID, receipt.OrderItemID, receipt.ReceiptNumber, receipt.Amount,
		receipt.Currency, receipt.ReceiptDate,
	).Scan(&receipt.ID, &receipt.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to create receipt %q: %w", receipt.ReceiptNumber, err)
	}

	return receipt, nil
}

// ListReceiptsByOrderItemOnDate получает чеки позиции заказа за календарный день
func (r *ReceiptRepository) ListReceiptsByOrderItemOnDate(ctx context.Context, orderItemID int64, date time.Time) ([]*domain.SupplierReceipt, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, supplier_id, order_item_id, receipt_number, amount, currency, receipt_date, created_at
		 FROM supplier_receipts
		 WHERE order_item_id = $1 AND receipt_date = $2`,
		orderItemID, date,
	)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to list receipts for item %d: %w", orderItemID, err)
	}
	defer rows.Close()

	var receipts []*domain.SupplierReceipt
	for rows.Next() {
		receipt := &domain.SupplierReceipt{}
		err := rows.Scan(&receipt.ID, &receipt.SupplierID, &receipt.OrderItemID,
			&receipt.ReceiptNumber, &receipt.Amount, &receipt.Currency,
			&receipt.ReceiptDate, &receipt.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating receipts: %w", err)
	}

	return receipts, nil
}
