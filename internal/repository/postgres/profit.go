package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ProfitRepository реализует domain.ProfitRepository
type ProfitRepository struct {
	db DBTX
}

// NewProfitRepository создает новый ProfitRepository
func NewProfitRepository(db DBTX) *ProfitRepository {
	return &ProfitRepository{db: db}
}

// SaveAnalysis сохраняет снимок расчета прибыли
func (r *ProfitRepository) SaveAnalysis(ctx context.Context, analysis *domain.ProfitAnalysis) (*domain.ProfitAnalysis, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO profit_analyses (order_id, selling_price, supplier_price, processor_fee,
		     platform_cost, transaction_cost, refund_reserve, shipping_insurance, net_profit, profit_margin)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, calculated_at`,
		analysis.OrderID, analysis.SellingPrice, analysis.SupplierPrice, analysis.ProcessorFee,
		analysis.PlatformCost, analysis.TransactionCost, analysis.RefundReserve,
		analysis.ShippingInsurance, analysis.NetProfit, analysis.ProfitMargin,
	).Scan(&analysis.ID, &analysis.CalculatedAt)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to save profit analysis for order %d: %w", analysis.OrderID, err)
	}

	return analysis, nil
}

// GetLatestAnalysisByOrderID получает последний снимок прибыли заказа
func (r *ProfitRepository) GetLatestAnalysisByOrderID(ctx context.Context, orderID int64) (*domain.ProfitAnalysis, error) {
	analysis := &domain.ProfitAnalysis{}

	err := r.db.QueryRow(ctx,
		`SELECT id, order_id, selling_price, supplier_price, processor_fee, platform_cost,
		        transaction_cost, refund_reserve, shipping_insurance, net_profit, profit_margin, calculated_at
		 FROM profit_analyses
		 WHERE order_id = $1
		 ORDER BY calculated_at DESC
		 LIMIT 1`,
		orderID,
	).Scan(&analysis.ID, &analysis.OrderID, &analysis.SellingPrice, &analysis.SupplierPrice,
		&analysis.ProcessorFee, &analysis.PlatformCost, &analysis.TransactionCost,
		&analysis.RefundReserve, &analysis.ShippingInsurance, &analysis.NetProfit,
		&analysis.ProfitMargin, &analysis.CalculatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to get profit analysis for order %d: %w", orderID, err)
	}

	return analysis, nil
}
