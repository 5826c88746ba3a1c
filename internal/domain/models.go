package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus представляет статус заказа
type OrderStatus string

const (
	OrderStatusPaymentReceived     OrderStatus = "PAYMENT_RECEIVED"
	OrderStatusSupplierOrderPlaced OrderStatus = "SUPPLIER_ORDER_PLACED"
	OrderStatusSupplierConfirmed   OrderStatus = "SUPPLIER_CONFIRMED"
	OrderStatusShipped             OrderStatus = "SHIPPED"
	OrderStatusDelivered           OrderStatus = "DELIVERED"
	OrderStatusCancelled           OrderStatus = "CANCELLED"
	OrderStatusRefunded            OrderStatus = "REFUNDED"
	OrderStatusRequiresReview      OrderStatus = "REQUIRES_MANUAL_REVIEW"
)

// ShipmentStatus представляет статус отгрузки позиции заказа
type ShipmentStatus string

const (
	ShipmentStatusPending    ShipmentStatus = "PENDING"
	ShipmentStatusProcessing ShipmentStatus = "PROCESSING"
	ShipmentStatusShipped    ShipmentStatus = "SHIPPED"
	ShipmentStatusDelivered  ShipmentStatus = "DELIVERED"
	ShipmentStatusDelayed    ShipmentStatus = "DELAYED"
	ShipmentStatusReturned   ShipmentStatus = "RETURNED"
)

// PaymentStatus представляет статус платежа
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusDisputed  PaymentStatus = "DISPUTED"
)

// ReturnStatus представляет статус возврата
type ReturnStatus string

const (
	ReturnStatusRequested ReturnStatus = "REQUESTED"
	ReturnStatusReceived  ReturnStatus = "RECEIVED"
	ReturnStatusRefunded  ReturnStatus = "REFUNDED"
	ReturnStatusRejected  ReturnStatus = "REJECTED"
)

// RefundStatus представляет статус возврата средств
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusCompleted RefundStatus = "COMPLETED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

// User представляет оператора бэк-офиса
type User struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"` // Не отправляем хеш в JSON
	CreatedAt    time.Time `json:"created_at"`
}

// Customer представляет покупателя
type Customer struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product представляет товар каталога
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	SupplierID    *int64          `json:"supplier_id,omitempty"`
	SupplierPrice decimal.Decimal `json:"supplier_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	IsActive      bool            `json:"is_active"`
}

// Supplier представляет поставщика
type Supplier struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// Order представляет заказ
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      int64           `json:"customer_id"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	RequiresReview  bool            `json:"requires_review"`
	ReviewReason    *string         `json:"review_reason,omitempty"`
	ShippingAddress json.RawMessage `json:"shipping_address,omitempty"`
	BillingAddress  json.RawMessage `json:"billing_address,omitempty"`
	DeliveryStart   *time.Time      `json:"estimated_delivery_start,omitempty"`
	DeliveryEnd     *time.Time      `json:"estimated_delivery_end,omitempty"`
	CutOffTime      *time.Time      `json:"cut_off_time,omitempty"`
	Items           []*OrderItem    `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem представляет позицию заказа
type OrderItem struct {
	ID                     int64           `json:"id"`
	OrderID                int64           `json:"-"`
	ProductID              int64           `json:"product_id"`
	SupplierID             *int64          `json:"supplier_id,omitempty"`
	Quantity               int             `json:"quantity"`
	UnitPrice              decimal.Decimal `json:"unit_price"`
	TotalPrice             decimal.Decimal `json:"total_price"`
	ShipmentStatus         ShipmentStatus  `json:"shipment_status"`
	SupplierConfirmationID *string         `json:"supplier_confirmation_id,omitempty"`
	TrackingNumber         *string         `json:"tracking_number,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
}

// Payment представляет платеж покупателя
type Payment struct {
	ID              int64           `json:"id"`
	OrderID         *int64          `json:"order_id,omitempty"` // Может быть не привязан к заказу
	PaymentIntentID *string         `json:"payment_intent_id,omitempty"`
	ChargeID        *string         `json:"charge_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          PaymentStatus   `json:"status"`
	FeeAmount       decimal.Decimal `json:"fee_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	PaymentMethod   string          `json:"payment_method"`
	Gateway         string          `json:"gateway"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProfitAnalysis представляет снимок расчета прибыли по заказу
type ProfitAnalysis struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	SupplierPrice     decimal.Decimal `json:"supplier_price"`
	ProcessorFee      decimal.Decimal `json:"processor_fee"`
	PlatformCost      decimal.Decimal `json:"platform_cost"`
	TransactionCost   decimal.Decimal `json:"transaction_cost"`
	RefundReserve     decimal.Decimal `json:"refund_reserve"`
	ShippingInsurance decimal.Decimal `json:"shipping_insurance"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	CalculatedAt      time.Time       `json:"calculated_at"`
}

// SupplierReceipt представляет чек поставщика по позиции заказа
type SupplierReceipt struct {
	ID            int64           `json:"id"`
	SupplierID    int64           `json:"supplier_id"`
	OrderItemID   int64           `json:"order_item_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ReceiptDate   time.Time       `json:"receipt_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReconciliationAudit представляет результат сверки одного платежа
type ReconciliationAudit struct {
	ID                int64            `json:"id"`
	ChargeID          string           `json:"charge_id"`
	CustomerAmount    decimal.Decimal  `json:"customer_amount"`
	SupplierAmount    *decimal.Decimal `json:"supplier_amount,omitempty"` // null для непривязанных платежей
	DiscrepancyAmount *decimal.Decimal `json:"discrepancy_amount,omitempty"`
	DiscrepancyReason string           `json:"discrepancy_reason"`
	ReconciledAt      time.Time        `json:"reconciled_at"`
}

// ReturnRequest представляет заявку на возврат позиции заказа
type ReturnRequest struct {
	ID             int64            `json:"id"`
	OrderItemID    int64            `json:"order_item_id"`
	ReturnReason   string           `json:"return_reason"`
	ReturnStatus   ReturnStatus     `json:"return_status"`
	RefundAmount   *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundStatus   *RefundStatus    `json:"refund_status,omitempty"`
	TrackingNumber *string          `json:"tracking_number,omitempty"`
	ReceivedAt     *time.Time       `json:"received_at,omitempty"`
	ProcessedAt    *time.Time       `json:"processed_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SupplierBuyRow представляет позицию дневного списка закупки у поставщика
type SupplierBuyRow struct {
	SupplierID      int64           `json:"supplier_id"`
	SupplierName    string          `json:"supplier_name"`
	OrderNumber     string          `json:"order_number"`
	SKU             string          `json:"sku"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	ShippingAddress json.RawMessage `json:"shipping_address,omitempty"`
	Purchased       bool            `json:"purchased"`
}

// AuditEntry представляет событие для журнала аудита
type AuditEntry struct {
	EntityType   string           `json:"entity_type"`
	EntityID     int64            `json:"entity_id"`
	ActorID      *int64           `json:"actor_id,omitempty"` // null для системных действий
	Action       string           `json:"action"`
	BeforeState  json.RawMessage  `json:"before_state,omitempty"`
	AfterState   json.RawMessage  `json:"after_state,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	ProfitMargin *decimal.Decimal `json:"profit_margin,omitempty"`
	SourceIP     *string          `json:"source_ip,omitempty"`
}

// GatewayChargeEvent представляет проверенное событие платежного шлюза.
// Подпись события проверяет внешний коллаборатор до попадания сюда.
type GatewayChargeEvent struct {
	ChargeID          string            `json:"charge_id"`
	PaymentIntentID   string            `json:"payment_intent_id"`
	AmountMinor       int64             `json:"amount"` // В минорных единицах валюты (центах)
	Currency          string            `json:"currency"`
	FeeMinor          *int64            `json:"fee,omitempty"` // Комиссия процессора, если известна
	PaymentMethodType string            `json:"payment_method_type"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}
