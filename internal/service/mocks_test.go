package service

import (
	"context"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Ручные фейки зависимостей сервисов. Поле-функция nil означает,
// что вызов в тесте не ожидается

type fakeOrderRepo struct {
	createFn         func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	getFn            func(ctx context.Context, id int64) (*domain.Order, error)
	listFn           func(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	listReviewFn     func(ctx context.Context) ([]*domain.Order, error)
	updateStatusFn   func(ctx context.Context, id int64, status domain.OrderStatus) error
	updateReviewFn   func(ctx context.Context, id int64, status domain.OrderStatus, requiresReview bool, reason *string) error
	getItemFn        func(ctx context.Context, id int64) (*domain.OrderItem, error)
	updateTrackingFn func(ctx context.Context, itemID int64, trackingNumber string) (*domain.OrderItem, bool, error)
	buyRowsFn        func(ctx context.Context, from, to time.Time) ([]*domain.SupplierBuyRow, error)
	countItemsFn     func(ctx context.Context, status domain.ShipmentStatus) (int64, error)
	countOrdersFn    func(ctx context.Context, status domain.OrderStatus) (int64, error)
	countReviewFn    func(ctx context.Context) (int64, error)
}

func (f *fakeOrderRepo) CreateOrderWithItems(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return f.createFn(ctx, order)
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	return f.getFn(ctx, id)
}

func (f *fakeOrderRepo) ListOrders(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	return f.listFn(ctx, status, limit, offset)
}

func (f *fakeOrderRepo) ListOrdersRequiringReview(ctx context.Context) ([]*domain.Order, error) {
	return f.listReviewFn(ctx)
}

func (f *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	return f.updateStatusFn(ctx, id, status)
}

func (f *fakeOrderRepo) UpdateOrderReview(ctx context.Context, id int64, status domain.OrderStatus, requiresReview bool, reason *string) error {
	return f.updateReviewFn(ctx, id, status, requiresReview, reason)
}

func (f *fakeOrderRepo) GetOrderItemByID(ctx context.Context, id int64) (*domain.OrderItem, error) {
	return f.getItemFn(ctx, id)
}

func (f *fakeOrderRepo) UpdateItemTracking(ctx context.Context, itemID int64, trackingNumber string) (*domain.OrderItem, bool, error) {
	return f.updateTrackingFn(ctx, itemID, trackingNumber)
}

func (f *fakeOrderRepo) ListSupplierBuyRows(ctx context.Context, from, to time.Time) ([]*domain.SupplierBuyRow, error) {
	return f.buyRowsFn(ctx, from, to)
}

func (f *fakeOrderRepo) CountItemsByShipmentStatus(ctx context.Context, status domain.ShipmentStatus) (int64, error) {
	if f.countItemsFn == nil {
		return 0, nil
	}
	return f.countItemsFn(ctx, status)
}

func (f *fakeOrderRepo) CountOrdersByStatus(ctx context.Context, status domain.OrderStatus) (int64, error) {
	if f.countOrdersFn == nil {
		return 0, nil
	}
	return f.countOrdersFn(ctx, status)
}

func (f *fakeOrderRepo) CountOrdersRequiringReview(ctx context.Context) (int64, error) {
	if f.countReviewFn == nil {
		return 0, nil
	}
	return f.countReviewFn(ctx)
}

type fakeCatalogRepo struct {
	customers map[int64]*domain.Customer
	products  map[int64]*domain.Product
	suppliers map[int64]*domain.Supplier
}

func (f *fakeCatalogRepo) GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCustomerNotFound
}

func (f *fakeCatalogRepo) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (f *fakeCatalogRepo) GetSupplierByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	if s, ok := f.suppliers[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSupplierNotFound
}

type fakePaymentRepo struct {
	createFn      func(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	byIDFn        func(ctx context.Context, id int64) (*domain.Payment, error)
	byIntentFn    func(ctx context.Context, intentID string) (*domain.Payment, error)
	byChargeFn    func(ctx context.Context, chargeID string) (*domain.Payment, error)
	firstByOrder  func(ctx context.Context, orderID int64) (*domain.Payment, error)
	updateStatus  func(ctx context.Context, id int64, status domain.PaymentStatus) error
	completeFn    func(ctx context.Context, id int64, chargeID string, fee, net decimal.Decimal) error
	listCompleted func(ctx context.Context, from, to time.Time) ([]*domain.Payment, error)
}

func (f *fakePaymentRepo) CreatePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	return f.createFn(ctx, payment)
}

func (f *fakePaymentRepo) GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return f.byIDFn(ctx, id)
}

func (f *fakePaymentRepo) GetPaymentByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	return f.byIntentFn(ctx, intentID)
}

func (f *fakePaymentRepo) GetPaymentByChargeID(ctx context.Context, chargeID string) (*domain.Payment, error) {
	return f.byChargeFn(ctx, chargeID)
}

func (f *fakePaymentRepo) GetFirstPaymentByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	return f.firstByOrder(ctx, orderID)
}

func (f *fakePaymentRepo) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return f.updateStatus(ctx, id, status)
}

func (f *fakePaymentRepo) CompletePayment(ctx context.Context, id int64, chargeID string, fee, net decimal.Decimal) error {
	return f.completeFn(ctx, id, chargeID, fee, net)
}

func (f *fakePaymentRepo) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*domain.Payment, error) {
	return f.listCompleted(ctx, from, to)
}

type fakeReceiptRepo struct {
	createFn func(ctx context.Context, receipt *domain.SupplierReceipt) (*domain.SupplierReceipt, error)
	listFn   func(ctx context.Context, orderItemID int64, date time.Time) ([]*domain.SupplierReceipt, error)
}

func (f *fakeReceiptRepo) CreateReceipt(ctx context.Context, receipt *domain.SupplierReceipt) (*domain.SupplierReceipt, error) {
	return f.createFn(ctx, receipt)
}

func (f *fakeReceiptRepo) ListReceiptsByOrderItemOnDate(ctx context.Context, orderItemID int64, date time.Time) ([]*domain.SupplierReceipt, error) {
	return f.listFn(ctx, orderItemID, date)
}

type fakeProfitRepo struct {
	saveFn      func(ctx context.Context, analysis *domain.ProfitAnalysis) (*domain.ProfitAnalysis, error)
	getLatestFn func(ctx context.Context, orderID int64) (*domain.ProfitAnalysis, error)
}

func (f *fakeProfitRepo) SaveAnalysis(ctx context.Context, analysis *domain.ProfitAnalysis) (*domain.ProfitAnalysis, error) {
	return f.saveFn(ctx, analysis)
}

func (f *fakeProfitRepo) GetLatestAnalysisByOrderID(ctx context.Context, orderID int64) (*domain.ProfitAnalysis, error) {
	return f.getLatestFn(ctx, orderID)
}

type fakeReconRepo struct {
	saveFn  func(ctx context.Context, audit *domain.ReconciliationAudit) (*domain.ReconciliationAudit, error)
	listFn  func(ctx context.Context, from, to time.Time) ([]*domain.ReconciliationAudit, error)
	countFn func(ctx context.Context, from, to time.Time) (int64, error)
}

func (f *fakeReconRepo) SaveAudit(ctx context.Context, audit *domain.ReconciliationAudit) (*domain.ReconciliationAudit, error) {
	return f.saveFn(ctx, audit)
}

func (f *fakeReconRepo) ListAuditsBetween(ctx context.Context, from, to time.Time) ([]*domain.ReconciliationAudit, error) {
	return f.listFn(ctx, from, to)
}

func (f *fakeReconRepo) CountAuditsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return f.countFn(ctx, from, to)
}

type fakeReturnRepo struct {
	createFn func(ctx context.Context, ret *domain.ReturnRequest) (*domain.ReturnRequest, error)
	getFn    func(ctx context.Context, id int64) (*domain.ReturnRequest, error)
	updateFn func(ctx context.Context, ret *domain.ReturnRequest) error
	countFn  func(ctx context.Context, status domain.ReturnStatus) (int64, error)
}

func (f *fakeReturnRepo) CreateReturn(ctx context.Context, ret *domain.ReturnRequest) (*domain.ReturnRequest, error) {
	return f.createFn(ctx, ret)
}

func (f *fakeReturnRepo) GetReturnByID(ctx context.Context, id int64) (*domain.ReturnRequest, error) {
	return f.getFn(ctx, id)
}

func (f *fakeReturnRepo) UpdateReturn(ctx context.Context, ret *domain.ReturnRequest) error {
	return f.updateFn(ctx, ret)
}

func (f *fakeReturnRepo) CountReturnsByStatus(ctx context.Context, status domain.ReturnStatus) (int64, error) {
	return f.countFn(ctx, status)
}

// fakeAudit собирает записи аудита для проверки действий
type fakeAudit struct {
	entries []domain.AuditEntry
}

func (f *fakeAudit) Record(ctx context.Context, entry domain.AuditEntry) {
	f.entries = append(f.entries, entry)
}

func (f *fakeAudit) actions() []string {
	actions := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// fakeGuard отслеживает захваты и снятия ключей защиты от дублей
type fakeGuard struct {
	existing map[string]bool
	acquired []string
	released []string
	err      error
}

func guardTestKey(customerID, productID, supplierID int64) string {
	return guardKey(customerID, productID, supplierID)
}

func (f *fakeGuard) TryAcquire(ctx context.Context, customerID, productID, supplierID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := guardTestKey(customerID, productID, supplierID)
	if f.existing[key] {
		return true, nil
	}
	f.acquired = append(f.acquired, key)
	return false, nil
}

func (f *fakeGuard) Release(ctx context.Context, customerID, productID, supplierID int64) error {
	f.released = append(f.released, guardTestKey(customerID, productID, supplierID))
	return nil
}

type fakeProcessor struct {
	err   error
	calls []int64 // amountMinor каждого вызова
}

func (f *fakeProcessor) CreateRefund(ctx context.Context, chargeID, paymentIntentID string, amountMinor int64, reason string) error {
	f.calls = append(f.calls, amountMinor)
	return f.err
}

type fakeLock struct {
	released bool
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.released = true
	return nil
}

type fakeLocker struct {
	err  error
	lock *fakeLock
	keys []string
}

func (f *fakeLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (domain.RunLock, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	if f.lock == nil {
		f.lock = &fakeLock{}
	}
	return f.lock, nil
}
