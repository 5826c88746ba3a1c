package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ReturnRepository реализует domain.ReturnRepository
type ReturnRepository struct {
	db DBTX
}

// NewReturnRepository создает новый ReturnRepository
func NewReturnRepository(db DBTX) *ReturnRepository {
	return &ReturnRepository{db: db}
}

// CreateReturn сохраняет заявку на возврат
func (r *ReturnRepository) CreateReturn(ctx context.Context, ret *domain.ReturnRequest) (*domain.ReturnRequest, error) {
	var refundAmount decimal.NullDecimal
	if ret.RefundAmount != nil {
		refundAmount = decimal.NullDecimal{Decimal: *ret.RefundAmount, Valid: true}
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO return_requests (order_item_id, return_reason, return_status, refund_amount)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		ret.OrderItemID, ret.ReturnReason, ret.ReturnStatus, refundAmount,
	).Scan(&ret.ID, &ret.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to create return for item %d: %w", ret.OrderItemID, err)
	}

	return ret, nil
}

// GetReturnByID получает заявку на возврат
func (r *ReturnRepository) GetReturnByID(ctx context.Context, id int64) (*domain.ReturnRequest, error) {
	ret := &domain.ReturnRequest{}
	var refundAmount decimal.NullDecimal
	var refundStatus *string

	err := r.db.QueryRow(ctx,
		`SELECT id, order_item_id, COALESCE(return_reason, ''), return_status, refund_amount,
		        refund_status, tracking_number, received_at, processed_at, created_at
		 FROM return_requests WHERE id = $1`, id,
	).Scan(&ret.ID, &ret.OrderItemID, &ret.ReturnReason, &ret.ReturnStatus, &refundAmount,
		&refundStatus, &ret.TrackingNumber, &ret.ReceivedAt, &ret.ProcessedAt, &ret.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReturnNotFound
		}
		return nil, fmt.Errorf("repository: failed to get return %d: %w", id, err)
	}

	if refundAmount.Valid {
		ret.RefundAmount = &refundAmount.Decimal
	}
	if refundStatus != nil {
		status := domain.RefundStatus(*refundStatus)
		ret.RefundStatus = &status
	}

	return ret, nil
}

// UpdateReturn обновляет изменяемые поля заявки на возврат
func (r *ReturnRepository) UpdateReturn(ctx context.Context, ret *domain.ReturnRequest) error {
	var refundAmount decimal.NullDecimal
	if ret.RefundAmount != nil {
		refundAmount = decimal.NullDecimal{Decimal: *ret.RefundAmount, Valid: true}
	}

	result, err := r.db.Exec(ctx,
		`UPDATE return_requests
		 SET return_status = $1, refund_amount = $2, refund_status = $3,
		     tracking_number = $4, received_at = $5, processed_at = $6
		 WHERE id = $7`,
		ret.ReturnStatus, refundAmount, ret.RefundStatus,
		ret.TrackingNumber, ret.ReceivedAt, ret.ProcessedAt, ret.ID,
	)

	if err != nil {
		return fmt.Errorf("repository: failed to update return %d: %w", ret.ID, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrReturnNotFound
	}

	return nil
}

// CountReturnsByStatus считает заявки в указанном статусе
func (r *ReturnRepository) CountReturnsByStatus(ctx context.Context, status domain.ReturnStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM return_requests WHERE return_status = $1`, status,
	).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("repository: failed to count returns by status: %w", err)
	}

	return count, nil
}
