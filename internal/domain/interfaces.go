package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UserRepository определяет методы для работы с операторами
type UserRepository interface {
	CreateUser(ctx context.Context, login, passwordHash string) (*User, error)
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// CatalogRepository определяет поиск справочных сущностей по id
type CatalogRepository interface {
	GetCustomerByID(ctx context.Context, id int64) (*Customer, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	GetSupplierByID(ctx context.Context, id int64) (*Supplier, error)
}

// OrderRepository определяет методы для работы с заказами
type OrderRepository interface {
	// CreateOrderWithItems сохраняет заказ вместе с позициями в одной транзакции
	CreateOrderWithItems(ctx context.Context, order *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, status *OrderStatus, limit, offset int) ([]*Order, error)
	ListOrdersRequiringReview(ctx context.Context) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error
	UpdateOrderReview(ctx context.Context, id int64, status OrderStatus, requiresReview bool, reason *string) error
	GetOrderItemByID(ctx context.Context, id int64) (*OrderItem, error)
	// UpdateItemTracking проставляет трек-номер и статус SHIPPED позиции и,
	// если все позиции заказа отгружены, продвигает заказ в SHIPPED в той же
	// транзакции. Возвращает обновленную позицию и признак продвижения заказа.
	UpdateItemTracking(ctx context.Context, itemID int64, trackingNumber string) (*OrderItem, bool, error)
	ListSupplierBuyRows(ctx context.Context, from, to time.Time) ([]*SupplierBuyRow, error)
	CountItemsByShipmentStatus(ctx context.Context, status ShipmentStatus) (int64, error)
	CountOrdersByStatus(ctx context.Context, status OrderStatus) (int64, error)
	CountOrdersRequiringReview(ctx context.Context) (int64, error)
}

// PaymentRepository определяет методы для работы с платежами
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *Payment) (*Payment, error)
	GetPaymentByID(ctx context.Context, id int64) (*Payment, error)
	GetPaymentByIntentID(ctx context.Context, intentID string) (*Payment, error)
	GetPaymentByChargeID(ctx context.Context, chargeID string) (*Payment, error)
	GetFirstPaymentByOrderID(ctx context.Context, orderID int64) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) error
	// CompletePayment привязывает charge и фиксирует комиссию и нетто
	// при завершении платежа, начатого через intent
	CompletePayment(ctx context.Context, id int64, chargeID string, fee, net decimal.Decimal) error
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*Payment, error)
}

// ReceiptRepository определяет методы для работы с чеками поставщиков
type ReceiptRepository interface {
	CreateReceipt(ctx context.Context, receipt *SupplierReceipt) (*SupplierReceipt, error)
	ListReceiptsByOrderItemOnDate(ctx context.Context, orderItemID int64, date time.Time) ([]*SupplierReceipt, error)
}

// ProfitRepository определяет методы для работы со снимками прибыли
type ProfitRepository interface {
	SaveAnalysis(ctx context.Context, analysis *ProfitAnalysis) (*ProfitAnalysis, error)
	GetLatestAnalysisByOrderID(ctx context.Context, orderID int64) (*ProfitAnalysis, error)
}

// ReconciliationRepository определяет методы для записей сверки
type ReconciliationRepository interface {
	SaveAudit(ctx context.Context, audit *ReconciliationAudit) (*ReconciliationAudit, error)
	ListAuditsBetween(ctx context.Context, from, to time.Time) ([]*ReconciliationAudit, error)
	CountAuditsBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// ReturnRepository определяет методы для заявок на возврат
type ReturnRepository interface {
	CreateReturn(ctx context.Context, ret *ReturnRequest) (*ReturnRequest, error)
	GetReturnByID(ctx context.Context, id int64) (*ReturnRequest, error)
	UpdateReturn(ctx context.Context, ret *ReturnRequest) error
	CountReturnsByStatus(ctx context.Context, status ReturnStatus) (int64, error)
}

// AuditRepository сохраняет события аудита
type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
}

// AuditRecorder определяет сток аудита для сервисов.
// Запись не возвращает ошибку: сбой аудита не должен ломать основную операцию.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// DuplicateGuard определяет атомарную защиту от повторной подачи заказа
type DuplicateGuard interface {
	// TryAcquire возвращает true, если ключ уже существовал (дубликат),
	// и false, если блокировка успешно захвачена этим вызовом
	TryAcquire(ctx context.Context, customerID, productID, supplierID int64) (bool, error)
	// Release снимает блокировку, чтобы повторная легитимная попытка
	// не ждала истечения TTL
	Release(ctx context.Context, customerID, productID, supplierID int64) error
}

// ProcessorClient определяет операции платежного процессора, нужные ядру
type ProcessorClient interface {
	CreateRefund(ctx context.Context, chargeID, paymentIntentID string, amountMinor int64, reason string) error
}

// RunLock представляет захваченный токен взаимного исключения
type RunLock interface {
	Release(ctx context.Context) error
}

// RunLocker выдает токены взаимного исключения для батчевых запусков
type RunLocker interface {
	// Obtain возвращает ErrReconciliationRunning, если токен уже занят
	Obtain(ctx context.Context, key string, ttl time.Duration) (RunLock, error)
}
