package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/avc/dropship-backend/internal/service"
	"go.uber.org/zap"
)

// Scheduler запускает ночную сверку раз в день в заданное локальное время
type Scheduler struct {
	recon     *service.ReconciliationService
	timeOfDay string // "HH:mm" (24ч)
	timezone  string // IANA id
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewScheduler создает новый Scheduler
func NewScheduler(recon *service.ReconciliationService, timeOfDay, timezone string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		recon:     recon,
		timeOfDay: timeOfDay,
		timezone:  timezone,
		logger:    logger,
	}
}

// Start запускает планировщик
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop дожидается остановки планировщика
func (s *Scheduler) Stop() {
	s.wg.Wait()
}

// loop ждет очередного времени запуска и выполняет сверку за текущий день
func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		next, err := s.nextRun(time.Now())
		if err != nil {
			s.logger.Error("invalid reconciliation schedule", zap.Error(err))
			return
		}

		s.logger.Info("reconciliation scheduled", zap.Time("next_run", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("reconciliation scheduler stopping")
			return
		case runAt := <-timer.C:
			s.runOnce(ctx, runAt)
		}
	}
}

// runOnce выполняет один запуск сверки за день runAt
func (s *Scheduler) runOnce(ctx context.Context, runAt time.Time) {
	report, err := s.recon.ReconcileForDate(ctx, runAt)
	if err != nil {
		// Ручной запуск мог опередить плановый, это не сбой
		if errors.Is(err, domain.ErrReconciliationRunning) {
			s.logger.Warn("reconciliation already running, skipping scheduled run")
			return
		}
		s.logger.Error("scheduled reconciliation failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled reconciliation completed",
		zap.String("date", report.Date),
		zap.Int("payments", report.Payments))
}

// nextRun вычисляет ближайший момент запуска строго после now
func (s *Scheduler) nextRun(now time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", s.timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler: failed to parse time %q: %w", s.timeOfDay, err)
	}

	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler: failed to load timezone %q: %w", s.timezone, err)
	}

	localNow := now.In(loc)
	next := time.Date(localNow.Year(), localNow.Month(), localNow.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, loc)
	if !next.After(localNow) {
		next = next.AddDate(0, 0, 1)
	}

	return next, nil
}
