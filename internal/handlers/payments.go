package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService определяет методы регистрации платежей.
type PaymentService interface {
	RegisterPaymentIntent(ctx context.Context, orderID int64, intentID string, amount decimal.Decimal, currency string) (*domain.Payment, error)
	RecordChargeEvent(ctx context.Context, event domain.GatewayChargeEvent) (*domain.Payment, error)
	Refund(ctx context.Context, paymentID int64, amount decimal.Decimal, reason string, actorID *int64) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
}

type PaymentsHandler struct {
	paymentService PaymentService
	logger         *zap.Logger
}

func NewPaymentsHandler(paymentService PaymentService, logger *zap.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

type registerIntentRequest struct {
	OrderID  int64  `json:"order_id"`
	IntentID string `json:"payment_intent_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (h *PaymentsHandler) RegisterIntent(w http.ResponseWriter, r *http.Request) {
	var req registerIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IntentID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	payment, err := h.paymentService.RegisterPaymentIntent(r.Context(), req.OrderID, req.IntentID, amount, req.Currency)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("failed to register payment intent", zap.String("intent_id", req.IntentID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payment)
}

// ChargeEvent принимает событие успешного списания от платежного шлюза.
// Подпись события проверяет транспортный слой шлюза до вызова
func (h *PaymentsHandler) ChargeEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.GatewayChargeEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil || event.ChargeID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	payment, err := h.paymentService.RecordChargeEvent(r.Context(), event)
	if err != nil {
		h.logger.Error("failed to record charge event", zap.String("charge_id", event.ChargeID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payment)
}

type refundRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

func (h *PaymentsHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := paymentIDParam(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil || amount.IsZero() {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	payment, err := h.paymentService.Refund(r.Context(), id, amount, req.Reason, actorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to refund payment", zap.Int64("payment_id", id), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payment)
}

func (h *PaymentsHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := paymentIDParam(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	payment, err := h.paymentService.GetPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get payment", zap.Int64("payment_id", id), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payment)
}

func paymentIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
}
