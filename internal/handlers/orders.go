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

// OrderService определяет методы жизненного цикла заказа.
type OrderService interface {
	CreateOrder(ctx context.Context, input service.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	OrdersRequiringReview(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, actorID *int64) (*domain.Order, error)
	ReviewDecision(ctx context.Context, id int64, approve bool, reason *string, actorID *int64) (*domain.Order, error)
	UpdateItemTracking(ctx context.Context, itemID int64, trackingNumber string, actorID *int64) (*domain.OrderItem, error)
	SupplierBuyList(ctx context.Context, date time.Time) ([]*service.SupplierBuyGroup, error)
}

type OrdersHandler struct {
	orderService OrderService
	logger       *zap.Logger
}

func NewOrdersHandler(orderService OrderService, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orderService: orderService,
		logger:       logger,
	}
}

type createOrderItemRequest struct {
	ProductID  int64  `json:"product_id"`
	SupplierID *int64 `json:"supplier_id,omitempty"`
	Quantity   int    `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID      int64                    `json:"customer_id"`
	OrderNumber     string                   `json:"order_number,omitempty"`
	TaxAmount       string                   `json:"tax_amount"`
	ShippingAmount  string                   `json:"shipping_amount"`
	ShippingAddress json.RawMessage          `json:"shipping_address,omitempty"`
	BillingAddress  json.RawMessage          `json:"billing_address,omitempty"`
	Items           []createOrderItemRequest `json:"items"`
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	tax, err := parseAmount(req.TaxAmount)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	shipping, err := parseAmount(req.ShippingAmount)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	input := service.CreateOrderInput{
		CustomerID:      req.CustomerID,
		OrderNumber:     req.OrderNumber,
		TaxAmount:       tax,
		ShippingAmount:  shipping,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.CreateOrderItemInput{
			ProductID:  item.ProductID,
			SupplierID: item.SupplierID,
			Quantity:   item.Quantity,
		})
	}

	order, err := h.orderService.CreateOrder(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderItems):
			http.Error(w, "Bad Request", http.StatusBadRequest)
		case errors.Is(err, service.ErrDuplicateOrder), errors.Is(err, service.ErrOrderNumberTaken):
			http.Error(w, "Conflict", http.StatusConflict)
		case errors.Is(err, domain.ErrCustomerNotFound), errors.Is(err, domain.ErrProductNotFound):
			http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		default:
			h.logger.Error("failed to create order", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, order)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get order", zap.Int64("order_id", id), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, order)
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.OrderStatus(raw)
		status = &s
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	orders, err := h.orderService.ListOrders(r.Context(), status, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to list orders", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, orders)
}

func (h *OrdersHandler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.OrdersRequiringReview(r.Context())
	if err != nil {
		h.logger.Error("failed to list review queue", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), id, domain.OrderStatus(req.Status), actorFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			http.Error(w, "Bad Request", http.StatusBadRequest)
		case errors.Is(err, domain.ErrOrderNotFound):
			http.Error(w, "Not Found", http.StatusNotFound)
		default:
			h.logger.Error("failed to update order status", zap.Int64("order_id", id), zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, order)
}

type reviewDecisionRequest struct {
	Approve bool    `json:"approve"`
	Reason  *string `json:"reason,omitempty"`
}

func (h *OrdersHandler) ReviewDecision(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req reviewDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	order, err := h.orderService.ReviewDecision(r.Context(), id, req.Approve, req.Reason, actorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to apply review decision", zap.Int64("order_id", id), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, order)
}

type updateTrackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *OrdersHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req updateTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackingNumber == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	item, err := h.orderService.UpdateItemTracking(r.Context(), itemID, req.TrackingNumber, actorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrOrderItemNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update tracking", zap.Int64("item_id", itemID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, item)
}

func (h *OrdersHandler) SupplierBuyList(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	groups, err := h.orderService.SupplierBuyList(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to build supplier buy list", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if len(groups) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, groups)
}
