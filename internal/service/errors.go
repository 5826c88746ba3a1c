package service

import "errors"

// Ошибки аутентификации и ввода
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Ошибки заказов
var (
	ErrDuplicateOrder    = errors.New("duplicate order detected for customer/product/supplier within dedup window")
	ErrOrderNumberTaken  = errors.New("order number already exists")
	ErrInvalidOrderItems = errors.New("order must contain at least one item")
	ErrInvalidStatus     = errors.New("unknown order status")
)

// Ошибки сверки
var (
	ErrReconciliationRunning = errors.New("reconciliation already running for date")
)
