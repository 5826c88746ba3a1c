package domain

import "errors"

// Ошибки сущностей
var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrSupplierNotFound  = errors.New("supplier not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrReturnNotFound    = errors.New("return request not found")
)

// Ошибки сверки
var (
	ErrReconciliationRunning = errors.New("reconciliation already running for date")
)
