package app

import (
	"github.com/avc/dropship-backend/internal/config"
	"github.com/avc/dropship-backend/internal/domain"
	"github.com/avc/dropship-backend/internal/handlers"
	"github.com/avc/dropship-backend/internal/repository/postgres"
	"github.com/avc/dropship-backend/internal/service"
	"github.com/avc/dropship-backend/internal/utils/jwt"
	"github.com/avc/dropship-backend/internal/utils/password"
	"github.com/avc/dropship-backend/internal/worker"
	"github.com/bsm/redislock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// repositories содержит все репозитории приложения
type repositories struct {
	user     domain.UserRepository
	catalog  domain.CatalogRepository
	order    domain.OrderRepository
	payment  domain.PaymentRepository
	receipt  domain.ReceiptRepository
	profit   domain.ProfitRepository
	recon    domain.ReconciliationRepository
	returns  domain.ReturnRepository
	auditRec domain.AuditRepository
}

// services содержит все сервисы приложения
type services struct {
	auth      *service.AuthService
	orders    *service.OrderService
	payments  *service.PaymentService
	returns   *service.ReturnService
	receipts  *service.ReceiptService
	profit    *service.ProfitCalculator
	recon     *service.ReconciliationService
	dashboard *service.DashboardService
}

// handlerSet содержит все хендлеры приложения
type handlerSet struct {
	auth     *handlers.AuthHandler
	orders   *handlers.OrdersHandler
	payments *handlers.PaymentsHandler
	returns  *handlers.ReturnsHandler
	admin    *handlers.AdminHandler
	health   *handlers.HealthHandler
}

// dependencies содержит все зависимости приложения
type dependencies struct {
	repos      *repositories
	services   *services
	handlers   *handlerSet
	jwtManager *jwt.Manager
	scheduler  *worker.Scheduler
}

// initDependencies создает все зависимости приложения
func initDependencies(cfg *config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client, logger *zap.Logger) *dependencies {
	// Создание репозиториев
	repos := &repositories{
		user:     postgres.NewUserRepository(dbPool),
		catalog:  postgres.NewCatalogRepository(dbPool),
		order:    postgres.NewOrderRepository(dbPool),
		payment:  postgres.NewPaymentRepository(dbPool),
		receipt:  postgres.NewReceiptRepository(dbPool),
		profit:   postgres.NewProfitRepository(dbPool),
		recon:    postgres.NewReconciliationRepository(dbPool),
		returns:  postgres.NewReturnRepository(dbPool),
		auditRec: postgres.NewAuditRepository(dbPool),
	}

	// Создание утилит и внешних клиентов
	passwordHasher := password.NewBCryptHasher(password.DefaultCost)
	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.JWTTokenTTL)
	dupGuard := service.NewRedisDuplicateGuard(redisClient, cfg.DuplicateWindow)
	runLocker := service.NewRedisRunLocker(redislock.New(redisClient))
	processor := service.NewProcessorClient(cfg.ProcessorBaseURL, cfg.ProcessorAPIKey)

	// Создание сервисов
	audit := service.NewAuditService(repos.auditRec, logger)
	feeEstimator := service.NewFeeEstimator(cfg.FeePercent, cfg.FeeFixed)
	cutoff := service.NewCutoffScheduler(cfg.CutoffTime, cfg.CutoffTimezone)
	profit := service.NewProfitCalculator(repos.order, repos.catalog, repos.profit, feeEstimator, service.ProfitCosts{
		RefundReservePercent: cfg.RefundReservePercent,
		PlatformCostPerOrder: cfg.PlatformCostPerOrder,
		ShippingInsurance:    cfg.ShippingInsurance,
		TransactionCost:      cfg.TransactionCost,
	})

	svcs := &services{
		auth:     service.NewAuthService(repos.user, passwordHasher, jwtManager, cfg.MinPasswordLength),
		orders:   service.NewOrderService(repos.order, repos.catalog, dupGuard, cutoff, profit, audit, cfg.ReviewThreshold, cfg.CutoffTimezone, logger),
		payments: service.NewPaymentService(repos.payment, repos.order, processor, feeEstimator, audit, logger),
		returns:  service.NewReturnService(repos.returns, repos.order, repos.payment, processor, audit, logger),
		receipts: service.NewReceiptService(repos.receipt, repos.catalog, repos.order, audit),
		profit:   profit,
		recon: service.NewReconciliationService(repos.payment, repos.order, repos.receipt, repos.recon,
			runLocker, cfg.ReconciliationTimezone, logger),
		dashboard: service.NewDashboardService(repos.order, repos.returns, repos.recon, cfg.ReconciliationTimezone),
	}

	// Создание handlers
	hdlrs := &handlerSet{
		auth:     handlers.NewAuthHandler(svcs.auth, logger),
		orders:   handlers.NewOrdersHandler(svcs.orders, logger),
		payments: handlers.NewPaymentsHandler(svcs.payments, logger),
		returns:  handlers.NewReturnsHandler(svcs.returns, logger),
		admin:    handlers.NewAdminHandler(svcs.recon, svcs.receipts, svcs.profit, svcs.dashboard, logger),
		health:   handlers.NewHealthHandler(dbPool, redisClient, logger),
	}

	// Планировщик ночной сверки
	scheduler := worker.NewScheduler(svcs.recon, cfg.ReconciliationTime, cfg.ReconciliationTimezone, logger)

	return &dependencies{
		repos:      repos,
		services:   svcs,
		handlers:   hdlrs,
		jwtManager: jwtManager,
		scheduler:  scheduler,
	}
}
