package service

import (
	"context"

	"github.com/avc/dropship-backend/internal/domain"
	"go.uber.org/zap"
)

// AuditService пишет события в журнал аудита. Запись не должна ломать
// бизнес-операцию, поэтому ошибки только логируются
type AuditService struct {
	repo   domain.AuditRepository
	logger *zap.Logger
}

// NewAuditService создает новый AuditService
func NewAuditService(repo domain.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record сохраняет событие аудита
func (s *AuditService) Record(ctx context.Context, entry domain.AuditEntry) {
	if err := s.repo.Record(ctx, &entry); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.String("entity_type", entry.EntityType),
			zap.Int64("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}
