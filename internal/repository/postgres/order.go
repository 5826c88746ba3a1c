package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const orderColumns = `id, order_number, customer_id, status, total_amount, tax_amount,
	 shipping_amount, net_amount, requires_review, review_reason, shipping_address,
	 billing_address, delivery_start, delivery_end, cut_off_time, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, supplier_id, quantity, unit_price,
	 total_price, shipment_status, supplier_confirmation_id, tracking_number, created_at`

// OrderRepository реализует domain.OrderRepository
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository создает новый OrderRepository
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrderWithItems сохраняет заказ и его позиции в одной транзакции
func (r *OrderRepository) CreateOrderWithItems(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction for order %q: %w", order.OrderNumber, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback после Commit безопасен

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (order_number, customer_id, status, total_amount, tax_amount,
		     shipping_amount, net_amount, requires_review, review_reason, shipping_address,
		     billing_address, cut_off_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		order.OrderNumber, order.CustomerID, order.Status, order.TotalAmount, order.TaxAmount,
		order.ShippingAmount, order.NetAmount, order.RequiresReview, order.ReviewReason,
		order.ShippingAddress, order.BillingAddress, order.CutOffTime,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrOrderNumberTaken
		}
		return nil, fmt.Errorf("repository: failed to create order %q: %w", order.OrderNumber, err)
	}

	for _, item := range order.Items {
		item.OrderID = order.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, supplier_id, quantity, unit_price,
			     total_price, shipment_status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at`,
			item.OrderID, item.ProductID, item.SupplierID, item.Quantity, item.UnitPrice,
			item.TotalPrice, item.ShipmentStatus,
		).Scan(&item.ID, &item.CreatedAt)

		if err != nil {
			return nil, fmt.Errorf("repository: failed to create item for order %q: %w", order.OrderNumber, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit order %q: %w", order.OrderNumber, err)
	}

	return order, nil
}

// GetOrderByID получает заказ с позициями
func (r *OrderRepository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.OrderNumber, &order.CustomerID, &order.Status,
		&order.TotalAmount, &order.TaxAmount, &order.ShippingAmount, &order.NetAmount,
		&order.RequiresReview, &order.ReviewReason, &order.ShippingAddress,
		&order.BillingAddress, &order.DeliveryStart, &order.DeliveryEnd,
		&order.CutOffTime, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to get order %d: %w", id, err)
	}

	items, err := r.listItemsByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// listItemsByOrderID получает позиции заказа
func (r *OrderRepository) listItemsByOrderID(ctx context.Context, orderID int64) ([]*domain.OrderItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to get items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []*domain.OrderItem
	for rows.Next() {
		item := &domain.OrderItem{}
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SupplierID,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.ShipmentStatus,
			&item.SupplierConfirmationID, &item.TrackingNumber, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return items, nil
}

// ListOrders получает заказы с опциональным фильтром по статусу
func (r *OrderRepository) ListOrders(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, *status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// ListOrdersRequiringReview получает заказы, ожидающие ручного ревью
func (r *OrderRepository) ListOrdersRequiringReview(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE requires_review ORDER BY created_at ASC`)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to list orders requiring review: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// scanOrders читает заказы из результата запроса (без позиций)
func scanOrders(rows pgx.Rows) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(&order.ID, &order.OrderNumber, &order.CustomerID, &order.Status,
			&order.TotalAmount, &order.TaxAmount, &order.ShippingAmount, &order.NetAmount,
			&order.RequiresReview, &order.ReviewReason, &order.ShippingAddress,
			&order.BillingAddress, &order.DeliveryStart, &order.DeliveryEnd,
			&order.CutOffTime, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus обновляет статус заказа
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	result, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)

	if err != nil {
		return fmt.Errorf("repository: failed to update order %d status: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// UpdateOrderReview применяет решение ревью: статус, флаг и причину одним апдейтом.
// Nil-причина записывает NULL
func (r *OrderRepository) UpdateOrderReview(ctx context.Context, id int64, status domain.OrderStatus, requiresReview bool, reason *string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE orders
		 SET status = $1, requires_review = $2, review_reason = $3, updated_at = NOW()
		 WHERE id = $4`,
		status, requiresReview, reason, id,
	)

	if err != nil {
		return fmt.Errorf("repository: failed to update review for order %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// GetOrderItemByID получает позицию заказа
func (r *OrderRepository) GetOrderItemByID(ctx context.Context, id int64) (*domain.OrderItem, error) {
	item := &domain.OrderItem{}

	err := r.db.QueryRow(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE id = $1`, id,
	).Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SupplierID,
		&item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.ShipmentStatus,
		&item.SupplierConfirmationID, &item.TrackingNumber, &item.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to get order item %d: %w", id, err)
	}

	return item, nil
}

// UpdateItemTracking проставляет трек-номер позиции и при полной отгрузке
// продвигает заказ в SHIPPED в той же транзакции. Advisory lock по заказу
// защищает от гонки параллельных обновлений позиций одного заказа.
func (r *OrderRepository) UpdateItemTracking(ctx context.Context, itemID int64, trackingNumber string) (*domain.OrderItem, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("repository: failed to begin transaction for item %d: %w", itemID, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback после Commit безопасен

	var orderID int64
	err = tx.QueryRow(ctx, `SELECT order_id FROM order_items WHERE id = $1`, itemID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrOrderItemNotFound
		}
		return nil, false, fmt.Errorf("repository: failed to resolve order for item %d: %w", itemID, err)
	}

	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, orderID)
	if err != nil {
		return nil, false, fmt.Errorf("repository: failed to acquire lock for order %d: %w", orderID, err)
	}

	item := &domain.OrderItem{}
	err = tx.QueryRow(ctx,
		`UPDATE order_items
		 SET tracking_number = $1, shipment_status = $2
		 WHERE id = $3
		 RETURNING `+orderItemColumns,
		trackingNumber, domain.ShipmentStatusShipped, itemID,
	).Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SupplierID,
		&item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.ShipmentStatus,
		&item.SupplierConfirmationID, &item.TrackingNumber, &item.CreatedAt)

	if err != nil {
		return nil, false, fmt.Errorf("repository: failed to update tracking for item %d: %w", itemID, err)
	}

	var notShipped int64
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM order_items WHERE order_id = $1 AND shipment_status <> $2`,
		orderID, domain.ShipmentStatusShipped,
	).Scan(&notShipped)

	if err != nil {
		return nil, false, fmt.Errorf("repository: failed to count unshipped items for order %d: %w", orderID, err)
	}

	advanced := false
	if notShipped == 0 {
		var status domain.OrderStatus
		err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
		if err != nil {
			return nil, false, fmt.Errorf("repository: failed to get status of order %d: %w", orderID, err)
		}

		// Продвигаем только заказы в прямой прогрессии не позже SHIPPED;
		// терминальные и исключительные статусы не трогаем
		if status != domain.OrderStatusShipped && status.CanAdvanceToShipped() {
			_, err = tx.Exec(ctx,
				`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
				domain.OrderStatusShipped, orderID,
			)
			if err != nil {
				return nil, false, fmt.Errorf("repository: failed to advance order %d to shipped: %w", orderID, err)
			}
			advanced = true
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("repository: failed to commit tracking update for item %d: %w", itemID, err)
	}

	return item, advanced, nil
}

// ListSupplierBuyRows получает позиции за период для списка закупки у поставщиков
func (r *OrderRepository) ListSupplierBuyRows(ctx context.Context, from, to time.Time) ([]*domain.SupplierBuyRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.name, o.order_number, p.sku, p.name, oi.quantity, oi.unit_price,
		        oi.total_price, o.shipping_address,
		        COALESCE(oi.supplier_confirmation_id, '') <> '' AS purchased
		 FROM order_items oi
		 JOIN suppliers s ON s.id = oi.supplier_id
		 JOIN orders o ON o.id = oi.order_id
		 JOIN products p ON p.id = oi.product_id
		 WHERE oi.created_at >= $1 AND oi.created_at < $2
		 ORDER BY s.name, o.order_number`,
		from, to,
	)

	if err != nil {
		return nil, fmt.Errorf("repository: failed to list supplier buy rows: %w", err)
	}
	defer rows.Close()

	var result []*domain.SupplierBuyRow
	for rows.Next() {
		row := &domain.SupplierBuyRow{}
		err := rows.Scan(&row.SupplierID, &row.SupplierName, &row.OrderNumber, &row.SKU,
			&row.ProductName, &row.Quantity, &row.UnitPrice, &row.TotalPrice,
			&row.ShippingAddress, &row.Purchased)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan supplier buy row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating supplier buy rows: %w", err)
	}

	return result, nil
}

// CountItemsByShipmentStatus считает позиции по статусу отгрузки
func (r *OrderRepository) CountItemsByShipmentStatus(ctx context.Context, status domain.ShipmentStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM order_items WHERE shipment_status = $1`, status,
	).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("repository: failed to count items by shipment status: %w", err)
	}

	return count, nil
}

// CountOrdersByStatus считает заказы в указанном статусе
func (r *OrderRepository) CountOrdersByStatus(ctx context.Context, status domain.OrderStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = $1`, status,
	).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("repository: failed to count orders by status: %w", err)
	}

	return count, nil
}

// CountOrdersRequiringReview считает заказы, ожидающие ревью
func (r *OrderRepository) CountOrdersRequiringReview(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE requires_review`,
	).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("repository: failed to count orders requiring review: %w", err)
	}

	return count, nil
}
