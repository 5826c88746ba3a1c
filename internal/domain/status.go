package domain

// forwardRank задает явный порядок прямой прогрессии заказа.
// Терминальные и исключительные статусы (CANCELLED, REFUNDED,
// REQUIRES_MANUAL_REVIEW) в таблицу не входят и прогрессией не перезаписываются.
var forwardRank = map[OrderStatus]int{
	OrderStatusPaymentReceived:     0,
	OrderStatusSupplierOrderPlaced: 1,
	OrderStatusSupplierConfirmed:   2,
	OrderStatusShipped:             3,
	OrderStatusDelivered:           4,
}

// ForwardRank возвращает позицию статуса в прямой прогрессии.
// Для статусов вне прогрессии возвращает false.
func (s OrderStatus) ForwardRank() (int, bool) {
	rank, ok := forwardRank[s]
	return rank, ok
}

// CanAdvanceToShipped сообщает, можно ли перевести заказ в SHIPPED
// после отгрузки всех позиций. Разрешено только из статусов прогрессии
// не позже SHIPPED; DELIVERED и статусы вне прогрессии не откатываются.
func (s OrderStatus) CanAdvanceToShipped() bool {
	rank, ok := forwardRank[s]
	return ok && rank <= forwardRank[OrderStatusShipped]
}

// AllOrderStatuses возвращает все известные статусы заказа
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPaymentReceived,
		OrderStatusSupplierOrderPlaced,
		OrderStatusSupplierConfirmed,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRefunded,
		OrderStatusRequiresReview,
	}
}

// Valid сообщает, известен ли статус заказа
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPaymentReceived, OrderStatusSupplierOrderPlaced,
		OrderStatusSupplierConfirmed, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRefunded, OrderStatusRequiresReview:
		return true
	}
	return false
}
