package postgres

import (
	"context"
	"fmt"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// AuditRepository реализует domain.AuditRepository
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository создает новый AuditRepository
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record сохраняет событие аудита
func (r *AuditRepository) Record(ctx context.Context, entry *domain.AuditEntry) error {
	var sellingPrice, profitMargin decimal.NullDecimal
	if entry.SellingPrice != nil {
		sellingPrice = decimal.NullDecimal{Decimal: *entry.SellingPrice, Valid: true}
	}
	if entry.ProfitMargin != nil {
		profitMargin = decimal.NullDecimal{Decimal: *entry.ProfitMargin, Valid: true}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_trail (entity_type, entity_id, actor_id, action, before_state,
		     after_state, selling_price, profit_margin, source_ip)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.EntityType, entry.EntityID, entry.ActorID, entry.Action, entry.BeforeState,
		entry.AfterState, sellingPrice, profitMargin, entry.SourceIP,
	)

	if err != nil {
		return fmt.Errorf("repository: failed to record audit event %q: %w", entry.Action, err)
	}

	return nil
}
