package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/avc/dropship-backend/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReconciliationService определяет методы ночной сверки.
type ReconciliationService interface {
	ReconcileForDate(ctx context.Context, date time.Time) (*service.ReconciliationReport, error)
	ReportForDate(ctx context.Context, date time.Time) ([]*domain.ReconciliationAudit, error)
}

// ReceiptService определяет регистрацию чеков поставщиков.
type ReceiptService interface {
	RegisterReceipt(ctx context.Context, input service.RegisterReceiptInput, actorID *int64) (*domain.SupplierReceipt, error)
}

// ProfitService определяет доступ к снимкам прибыли.
type ProfitService interface {
	GetLatestForOrder(ctx context.Context, orderID int64) (*domain.ProfitAnalysis, error)
}

// DashboardService определяет снимок операционных показателей.
type DashboardService interface {
	Snapshot(ctx context.Context) (*service.DashboardSnapshot, error)
}

type AdminHandler struct {
	recon     ReconciliationService
	receipts  ReceiptService
	profit    ProfitService
	dashboard DashboardService
	logger    *zap.Logger
}

func NewAdminHandler(
	recon ReconciliationService,
	receipts ReceiptService,
	profit ProfitService,
	dashboard DashboardService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		recon:     recon,
		receipts:  receipts,
		profit:    profit,
		dashboard: dashboard,
		logger:    logger,
	}
}

// RunReconciliation запускает сверку вручную за указанный день
func (h *AdminHandler) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	report, err := h.recon.ReconcileForDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, domain.ErrReconciliationRunning) {
			http.Error(w, "Conflict", http.StatusConflict)
			return
		}
		h.logger.Error("failed to run reconciliation", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, report)
}

// ReconciliationReport возвращает записи сверки за день
func (h *AdminHandler) ReconciliationReport(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	audits, err := h.recon.ReportForDate(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to build reconciliation report", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if len(audits) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, audits)
}

type registerReceiptRequest struct {
	SupplierID    int64  `json:"supplier_id"`
	OrderItemID   int64  `json:"order_item_id"`
	ReceiptNumber string `json:"receipt_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ReceiptDate   string `json:"receipt_date"`
}

// RegisterReceipt регистрирует чек поставщика для ночной сверки
func (h *AdminHandler) RegisterReceipt(w http.ResponseWriter, r *http.Request) {
	var req registerReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReceiptNumber == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	receiptDate, err := time.Parse("2006-01-02", req.ReceiptDate)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	receipt, err := h.receipts.RegisterReceipt(r.Context(), service.RegisterReceiptInput{
		SupplierID:    req.SupplierID,
		OrderItemID:   req.OrderItemID,
		ReceiptNumber: req.ReceiptNumber,
		Amount:        amount,
		Currency:      req.Currency,
		ReceiptDate:   receiptDate,
	}, actorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrSupplierNotFound) || errors.Is(err, domain.ErrOrderItemNotFound) {
			http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("failed to register receipt", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, receipt)
}

// OrderProfit возвращает последний снимок прибыли заказа
func (h *AdminHandler) OrderProfit(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	analysis, err := h.profit.GetLatestForOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get order profit", zap.Int64("order_id", orderID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, analysis)
}

// Dashboard возвращает операционные счетчики
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.dashboard.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, snapshot)
}

// dateParam разбирает query-параметр date, по умолчанию сегодня
func dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), true
	}

	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return time.Time{}, false
	}
	return date, true
}
