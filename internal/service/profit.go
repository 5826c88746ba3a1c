package service

import (
	"context"
	"fmt"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ProfitCosts содержит внешние константы стоимости для расчета прибыли
type ProfitCosts struct {
	RefundReservePercent decimal.Decimal
	PlatformCostPerOrder decimal.Decimal
	ShippingInsurance    decimal.Decimal
	TransactionCost      decimal.Decimal
}

// ProfitCalculator считает прибыль и маржу заказа.
// Расчет при создании заказа best-effort: вызывающий логирует ошибку
// и не проваливает создание, цена поставщика может быть еще не известна
type ProfitCalculator struct {
	orderRepo   domain.OrderRepository
	catalogRepo domain.CatalogRepository
	profitRepo  domain.ProfitRepository
	feeEstimator *FeeEstimator
	costs       ProfitCosts
}

// NewProfitCalculator создает новый ProfitCalculator
func NewProfitCalculator(
	orderRepo domain.OrderRepository,
	catalogRepo domain.CatalogRepository,
	profitRepo domain.ProfitRepository,
	feeEstimator *FeeEstimator,
	costs ProfitCosts,
) *ProfitCalculator {
	return &ProfitCalculator{
		orderRepo:    orderRepo,
		catalogRepo:  catalogRepo,
		profitRepo:   profitRepo,
		feeEstimator: feeEstimator,
		costs:        costs,
	}
}

// ComputeAndSaveForOrder считает снимок прибыли заказа и сохраняет его
func (c *ProfitCalculator) ComputeAndSaveForOrder(ctx context.Context, orderID int64) (*domain.ProfitAnalysis, error) {
	order, err := c.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("profit calculator: failed to load order %d: %w", orderID, err)
	}

	selling := decimal.Zero
	supplierCost := decimal.Zero

	for _, item := range order.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		selling = selling.Add(item.UnitPrice.Mul(qty))

		product, err := c.catalogRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("profit calculator: failed to load product %d: %w", item.ProductID, err)
		}
		supplierCost = supplierCost.Add(product.SupplierPrice.Mul(qty))
	}

	// Комиссия процессора считается от списанной суммы (netAmount включает
	// налог и доставку)
	processorFee := c.feeEstimator.Estimate(order.NetAmount)
	refundReserve := selling.Mul(c.costs.RefundReservePercent).Round(2)

	netProfit := selling.Sub(supplierCost).
		Sub(processorFee).
		Sub(c.costs.PlatformCostPerOrder).
		Sub(c.costs.TransactionCost).
		Sub(refundReserve).
		Sub(c.costs.ShippingInsurance).
		Round(2)

	profitMargin := decimal.Zero
	if !selling.IsZero() {
		// Промежуточная точность 4 знака до масштабирования в проценты
		profitMargin = netProfit.DivRound(selling, 4).Mul(decimal.NewFromInt(100)).Round(2)
	}

	analysis := &domain.ProfitAnalysis{
		OrderID:           order.ID,
		SellingPrice:      selling.Round(2),
		SupplierPrice:     supplierCost.Round(2),
		ProcessorFee:      processorFee,
		PlatformCost:      c.costs.PlatformCostPerOrder,
		TransactionCost:   c.costs.TransactionCost,
		RefundReserve:     refundReserve,
		ShippingInsurance: c.costs.ShippingInsurance,
		NetProfit:         netProfit,
		ProfitMargin:      profitMargin,
	}

	saved, err := c.profitRepo.SaveAnalysis(ctx, analysis)
	if err != nil {
		return nil, fmt.Errorf("profit calculator: failed to save analysis for order %d: %w", orderID, err)
	}

	return saved, nil
}

// GetLatestForOrder получает последний снимок прибыли заказа
func (c *ProfitCalculator) GetLatestForOrder(ctx context.Context, orderID int64) (*domain.ProfitAnalysis, error) {
	analysis, err := c.profitRepo.GetLatestAnalysisByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("profit calculator: failed to get analysis for order %d: %w", orderID, err)
	}
	return analysis, nil
}
