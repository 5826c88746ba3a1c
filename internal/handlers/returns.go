package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/avc/dropship-backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnService определяет методы обработки возвратов.
type ReturnService interface {
	InitiateReturn(ctx context.Context, orderItemID int64, reason string, actorID *int64) (*domain.ReturnRequest, error)
	MarkReceived(ctx context.Context, id int64, trackingNumber *string, actorID *int64) (*domain.ReturnRequest, error)
	ProcessRefund(ctx context.Context, id int64, amount decimal.Decimal, actorID *int64) (*domain.ReturnRequest, error)
	Analytics(ctx context.Context) (*service.ReturnAnalytics, error)
}

type ReturnsHandler struct {
	returnService ReturnService
	logger        *zap.Logger
}

func NewReturnsHandler(returnService ReturnService, logger *zap.Logger) *ReturnsHandler {
	return &ReturnsHandler{
		returnService: returnService,
		logger:        logger,
	}
}

type initiateReturnRequest struct {
	OrderItemID int64  `json:"order_item_id"`
	Reason      string `json:"reason"`
}

func (h *ReturnsHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ret, err := h.returnService.InitiateReturn(r.Context(), req.OrderItemID, req.Reason, actorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrOrderItemNotFound) {
			http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("failed to initiate return", zap.Int64("item_id", req.OrderItemID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, ret)
}

type markReceivedRequest struct {
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

func (h *ReturnsHandler) MarkReceived(w http.ResponseWriter, r *http.Request) {
	id, err := returnIDParam(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req markReceivedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ret, err := h.returnService.MarkReceived(r.Context(), id, req.TrackingNumber, actorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrReturnNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to mark return received", zap.Int64("return_id", id), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ret)
}

type processRefundRequest struct {
	Amount string `json:"amount"`
}

func (h *ReturnsHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	id, err := returnIDParam(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req processRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil || amount.IsZero() {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ret, err := h.returnService.ProcessRefund(r.Context(), id, amount, actorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrReturnNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to process refund", zap.Int64("return_id", id), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ret)
}

func (h *ReturnsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.returnService.Analytics(r.Context())
	if err != nil {
		h.logger.Error("failed to build return analytics", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, analytics)
}

func returnIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "returnID"), 10, 64)
}
