package app

import (
	"github.com/avc/dropship-backend/internal/handlers"
	"github.com/avc/dropship-backend/internal/utils/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// setupRouter создает и настраивает роутер
func setupRouter(deps *dependencies, jwtManager *jwt.Manager, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	setupMiddleware(r, logger)

	// Маршруты
	setupRoutes(r, deps, jwtManager)

	return r
}

// setupMiddleware настраивает middleware для роутера
func setupMiddleware(r *chi.Mux, logger *zap.Logger) {
	r.Use(handlers.RequestIDMiddleware())
	r.Use(handlers.LoggingMiddleware(logger))
	r.Use(handlers.RecoveryMiddleware(logger))
	r.Use(middleware.Compress(5))
}

// setupRoutes настраивает маршруты приложения
func setupRoutes(r *chi.Mux, deps *dependencies, jwtManager *jwt.Manager) {
	// Health check эндпоинты
	r.Get("/health", deps.handlers.health.Health)
	r.Get("/ready", deps.handlers.health.Ready)

	// Публичные эндпоинты
	r.Post("/api/user/register", deps.handlers.auth.Register)
	r.Post("/api/user/login", deps.handlers.auth.Login)

	// События платежного шлюза: подпись проверяется на транспортном уровне
	// шлюза, не JWT
	r.Post("/api/webhooks/charges", deps.handlers.payments.ChargeEvent)

	// Защищенные эндпоинты
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(jwtManager))

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", deps.handlers.orders.CreateOrder)
			r.Get("/", deps.handlers.orders.ListOrders)
			r.Get("/review", deps.handlers.orders.ReviewQueue)
			r.Get("/{orderID}", deps.handlers.orders.GetOrder)
			r.Patch("/{orderID}/status", deps.handlers.orders.UpdateStatus)
			r.Post("/{orderID}/review", deps.handlers.orders.ReviewDecision)
			r.Get("/{orderID}/profit", deps.handlers.admin.OrderProfit)
			r.Post("/items/{itemID}/tracking", deps.handlers.orders.UpdateTracking)
		})

		r.Route("/api/payments", func(r chi.Router) {
			r.Post("/intents", deps.handlers.payments.RegisterIntent)
			r.Get("/{paymentID}", deps.handlers.payments.GetPayment)
			r.Post("/{paymentID}/refund", deps.handlers.payments.Refund)
		})

		r.Route("/api/returns", func(r chi.Router) {
			r.Post("/", deps.handlers.returns.Initiate)
			r.Get("/analytics", deps.handlers.returns.Analytics)
			r.Post("/{returnID}/receive", deps.handlers.returns.MarkReceived)
			r.Post("/{returnID}/refund", deps.handlers.returns.ProcessRefund)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/dashboard", deps.handlers.admin.Dashboard)
			r.Get("/supplier-buy-list", deps.handlers.orders.SupplierBuyList)
			r.Post("/receipts", deps.handlers.admin.RegisterReceipt)
			r.Post("/reconciliation/run", deps.handlers.admin.RunReconciliation)
			r.Get("/reconciliation/report", deps.handlers.admin.ReconciliationReport)
		})
	})
}
