package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, order_id, payment_intent_id, charge_id, amount, currency,
	 status, fee_amount, net_amount, payment_method, gateway, created_at, updated_at`

// PaymentRepository реализует domain.PaymentRepository
type PaymentRepository struct {
	db DBTX
}

// NewPaymentRepository создает новый PaymentRepository
func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreatePayment сохраняет платеж
func (r *PaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO payments (order_id, payment_intent_id, charge_id, amount, currency,
		     status, fee_amount, net_amount, payment_method, gateway)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		payment.OrderID, payment.PaymentIntentID, payment.ChargeID, payment.Amount,
		payment.Currency, payment.Status, payment.FeeAmount, payment.NetAmount,
		payment.PaymentMethod, payment.Gateway,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrPaymentExists
		}
		return nil, fmt.Errorf("repository: failed to create payment: %w", err)
	}

	return payment, nil
}

// GetPaymentByID получает платеж по id
func (r *PaymentRepository) GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.getPayment(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// GetPaymentByIntentID получает платеж по идентификатору intent процессора
func (r *PaymentRepository) GetPaymentByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	return r.getPayment(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id = $1`, intentID)
}

// GetPaymentByChargeID получает платеж по идентификатору charge процессора
func (r *PaymentRepository) GetPaymentByChargeID(ctx context.Context, chargeID string) (*domain.Payment, error) {
	return r.getPayment(ctx, `SELECT `+paymentColumns+` FROM payments WHERE charge_id = $1`, chargeID)
}

// GetFirstPaymentByOrderID получает самый ранний платеж заказа
func (r *PaymentRepository) GetFirstPaymentByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	return r.getPayment(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at ASC LIMIT 1`,
		orderID)
}

func (r *PaymentRepository) getPayment(ctx context.Context, query string, arg any) (*domain.Payment, error) {
	payment := &domain.Payment{}

	err := r.db.QueryRow(ctx, query, arg).Scan(
		&payment.ID, &payment.OrderID, &payment.PaymentIntentID, &payment.ChargeID,
		&payment.Amount, &payment.Currency, &payment.Status, &payment.FeeAmount,
		&payment.NetAmount, &payment.PaymentMethod, &payment.Gateway,
		&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to get payment: %w", err)
	}

	return payment, nil
}

// UpdatePaymentStatus обновляет статус платежа
func (r *PaymentRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	result, err := r.db.Exec(ctx,
		`UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)

	if err != nil {
		return fmt.Errorf("repository: failed to update payment %d status: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}

	return nil
}

// CompletePayment привязывает charge и фиксирует комиссию и нетто платежа
func (r *PaymentRepository) CompletePayment(ctx context.Context, id int64, chargeID string, fee, net decimal.Decimal) error {
	result, err := r.db.Exec(ctx,
		`UPDATE payments
		 SET charge_id = $1, status = $2, fee_amount = $3, net_amount = $4, updated_at = NOW()
		 WHERE id = $5`,
		chargeID, domain.PaymentStatusCompleted, fee, net, id,
	)

	if err != nil {
		return fmt.Errorf("repository: failed to complete payment %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}

	return nil
}

// ListCompletedBetween получает завершенные платежи, созданные в интервале [from, to)
func (r *PaymentRepository) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*domain.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE status = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at ASC`,
		domain.PaymentStatusCompleted, from, to,
	)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to list completed payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment := &domain.Payment{}
		err := rows.Scan(&payment.ID, &payment.OrderID, &payment.PaymentIntentID,
			&payment.ChargeID, &payment.Amount, &payment.Currency, &payment.Status,
			&payment.FeeAmount, &payment.NetAmount, &payment.PaymentMethod,
			&payment.Gateway, &payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating payments: %w", err)
	}

	return payments, nil
}
