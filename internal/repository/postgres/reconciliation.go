package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ReconciliationRepository реализует domain.ReconciliationRepository
type ReconciliationRepository struct {
	db DBTX
}

// NewReconciliationRepository создает новый ReconciliationRepository
func NewReconciliationRepository(db DBTX) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

// SaveAudit сохраняет запись сверки
func (r *ReconciliationRepository) SaveAudit(ctx context.Context, audit *domain.ReconciliationAudit) (*domain.ReconciliationAudit, error) {
	var supplierAmount, discrepancyAmount decimal.NullDecimal
	if audit.SupplierAmount != nil {
		supplierAmount = decimal.NullDecimal{Decimal: *audit.SupplierAmount, Valid: true}
	}
	if audit.DiscrepancyAmount != nil {
		discrepancyAmount = decimal.NullDecimal{Decimal: *audit.DiscrepancyAmount, Valid: true}
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO reconciliation_audits (charge_id, customer_amount, supplier_amount,
		     discrepancy_amount, discrepancy_reason, reconciled_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		audit.ChargeID, audit.CustomerAmount, supplierAmount, discrepancyAmount,
		audit.DiscrepancyReason, audit.ReconciledAt,
	).Scan(&audit.ID)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to save reconciliation audit for charge %q: %w", audit.ChargeID, err)
	}

	return audit, nil
}

// ListAuditsBetween получает записи сверки, созданные в интервале [from, to)
func (r *ReconciliationRepository) ListAuditsBetween(ctx context.Context, from, to time.Time) ([]*domain.ReconciliationAudit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, charge_id, customer_amount, supplier_amount, discrepancy_amount,
		        discrepancy_reason, reconciled_at
		 FROM reconciliation_audits
		 WHERE created_at >= $1 AND created_at < $2
		 ORDER BY id ASC`,
		from, to,
	)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to list reconciliation audits: %w", err)
	}
	defer rows.Close()

	var audits []*domain.ReconciliationAudit
	for rows.Next() {
		audit := &domain.ReconciliationAudit{}
		var supplierAmount, discrepancyAmount decimal.NullDecimal
		err := rows.Scan(&audit.ID, &audit.ChargeID, &audit.CustomerAmount,
			&supplierAmount, &discrepancyAmount, &audit.DiscrepancyReason, &audit.ReconciledAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan reconciliation audit: %w", err)
		}
		if supplierAmount.Valid {
			audit.SupplierAmount = &supplierAmount.Decimal
		}
		if discrepancyAmount.Valid {
			audit.DiscrepancyAmount = &discrepancyAmount.Decimal
		}
		audits = append(audits, audit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating reconciliation audits: %w", err)
	}

	return audits, nil
}

// CountAuditsBetween считает записи сверки, созданные в интервале [from, to)
func (r *ReconciliationRepository) CountAuditsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reconciliation_audits WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("repository: failed to count reconciliation audits: %w", err)
	}

	return count, nil
}
