package postgres

import "errors"

// Ошибки операторов
var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// Ошибки заказов
var (
	ErrOrderNumberTaken = errors.New("order number already exists")
)

// Ошибки платежей
var (
	ErrPaymentExists = errors.New("payment already exists")
)
