package db

import (
	"context"
	"fmt"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/models"
)

type OrderRepo struct {
	db core.IDB
}

func NewOrderRepo(db core.IDB) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = `order_id, bill_id, table_number, user_name, status, created_at, updated_at`

// Create inserts the order, its lines and one unit-status row per requested
// unit in a single transaction. The caller has already resolved prices and
// merged duplicate lines.
func (or *OrderRepo) Create(ctx context.Context, order models.Order) (models.Order, error) {
	tx, err := or.db.Pool().Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var billStatus models.BillStatus
	err = tx.QueryRow(ctx, `SELECT status FROM bills WHERE bill_id = $1`, order.BillID).Scan(&billStatus)
	if err != nil {
		return models.Order{}, mapError(err)
	}
	if !billStatus.Active() {
		return models.Order{}, fmt.Errorf("%w: bill is not open for orders", core.ErrInvalidState)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (bill_id, table_number, user_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING order_id, created_at, updated_at
	`, order.BillID, order.TableNumber, order.UserName, models.OrderPending).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return models.Order{}, mapError(err)
	}
	order.Status = models.OrderPending

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		item.Status = models.UnitPending

		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, item_id, name, count, price_cents, observation, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING order_item_id
		`, order.ID, item.ItemID, item.Name, item.Count, item.PriceCents,
			nullIfEmpty(item.Observation), models.UnitPending).Scan(&item.ID)
		if err != nil {
			return models.Order{}, mapError(err)
		}

		item.Units = make([]models.ItemUnitStatus, 0, item.Count)
		for unit := 0; unit < item.Count; unit++ {
			var u models.ItemUnitStatus
			u.UnitIndex = unit
			u.Status = models.UnitPending
			err = tx.QueryRow(ctx, `
				INSERT INTO order_item_statuses (order_item_id, unit_index, status)
				VALUES ($1, $2, $3)
				RETURNING updated_at
			`, item.ID, unit, models.UnitPending).Scan(&u.UpdatedAt)
			if err != nil {
				return models.Order{}, mapError(err)
			}
			item.Units = append(item.Units, u)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

func (or *OrderRepo) GetByID(ctx context.Context, orderID int) (models.Order, error) {
	orders, err := or.loadOrders(ctx, or.db.Pool(),
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if len(orders) == 0 {
		return models.Order{}, core.ErrNotFound
	}
	return orders[0], nil
}

func (or *OrderRepo) ListByBill(ctx context.Context, billID int) ([]models.Order, error) {
	return or.loadOrders(ctx, or.db.Pool(),
		`SELECT `+orderColumns+` FROM orders WHERE bill_id = $1 ORDER BY created_at`, billID)
}

// ListActiveKitchen returns orders that still have at least one unit moving
// through the production chain.
func (or *OrderRepo) ListActiveKitchen(ctx context.Context) ([]models.Order, error) {
	q := `
	SELECT ` + orderColumns + `
	FROM orders o
	WHERE o.status = $1
	  AND EXISTS (
		SELECT 1
		FROM order_items oi
		JOIN order_item_statuses ous ON ous.order_item_id = oi.order_item_id
		WHERE oi.order_id = o.order_id
		  AND oi.status <> $2
		  AND ous.status NOT IN ($3, $2)
	  )
	ORDER BY o.created_at`
	return or.loadOrders(ctx, or.db.Pool(), q,
		models.OrderPending, models.UnitCanceled, models.UnitDelivered)
}

func (or *OrderRepo) ListDeliveredKitchen(ctx context.Context) ([]models.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders o WHERE o.status = $1 ORDER BY o.updated_at DESC`
	return or.loadOrders(ctx, or.db.Pool(), q, models.OrderDelivered)
}

// UpdateUnitStatus writes one unit's status after validating the transition
// against the stored value, then recomputes the item and order rollups, all
// in one transaction.
func (or *OrderRepo) UpdateUnitStatus(ctx context.Context, orderID, itemID, unitIndex int, status models.ItemStatus, actor string) (models.Order, error) {
	tx, err := or.db.Pool().Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderItemID int
	err = tx.QueryRow(ctx, `
		SELECT order_item_id FROM order_items WHERE order_id = $1 AND item_id = $2
	`, orderID, itemID).Scan(&orderItemID)
	if err != nil {
		return models.Order{}, mapError(err)
	}

	var current models.ItemStatus
	err = tx.QueryRow(ctx, `
		SELECT status FROM order_item_statuses
		WHERE order_item_id = $1 AND unit_index = $2
		FOR UPDATE
	`, orderItemID, unitIndex).Scan(&current)
	if err != nil {
		return models.Order{}, mapError(err)
	}

	if !current.CanTransitionTo(status) {
		return models.Order{}, fmt.Errorf("%w: unit is %s and cannot become %s",
			core.ErrInvalidState, current, status)
	}

	_, err = tx.Exec(ctx, `
		UPDATE order_item_statuses
		SET status = $3, updated_at = NOW(), updated_by = $4
		WHERE order_item_id = $1 AND unit_index = $2
	`, orderItemID, unitIndex, status, actor)
	if err != nil {
		return models.Order{}, mapError(err)
	}

	if err := or.recomputeAggregates(ctx, tx, orderID); err != nil {
		return models.Order{}, err
	}

	order, err := or.loadOrderTx(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

// MarkItemDelivered bulk-delivers the item's remaining non-canceled units.
func (or *OrderRepo) MarkItemDelivered(ctx context.Context, orderID, itemID int, actor string) (models.Order, error) {
	return or.bulkDeliver(ctx, orderID, &itemID, actor)
}

// MarkOrderDelivered bulk-delivers every remaining non-canceled unit of the
// order.
func (or *OrderRepo) MarkOrderDelivered(ctx context.Context, orderID int, actor string) (models.Order, error) {
	return or.bulkDeliver(ctx, orderID, nil, actor)
}

func (or *OrderRepo) bulkDeliver(ctx context.Context, orderID int, itemID *int, actor string) (models.Order, error) {
	tx, err := or.db.Pool().Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderStatus models.OrderStatus
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE order_id = $1 FOR UPDATE`, orderID).Scan(&orderStatus)
	if err != nil {
		return models.Order{}, mapError(err)
	}
	if orderStatus == models.OrderCanceled {
		return models.Order{}, fmt.Errorf("%w: order is canceled", core.ErrInvalidState)
	}

	q := `
	UPDATE order_item_statuses ous
	SET status = $2, updated_at = NOW(), updated_by = $3
	FROM order_items oi
	WHERE ous.order_item_id = oi.order_item_id
	  AND oi.order_id = $1
	  AND ous.status NOT IN ($4, $2)`
	args := []any{orderID, models.UnitDelivered, actor, models.UnitCanceled}
	if itemID != nil {
		q += ` AND oi.item_id = $5`
		args = append(args, *itemID)

		var exists int
		err = tx.QueryRow(ctx, `
			SELECT 1 FROM order_items WHERE order_id = $1 AND item_id = $2
		`, orderID, *itemID).Scan(&exists)
		if err != nil {
			return models.Order{}, mapError(err)
		}
	}

	if _, err := tx.Exec(ctx, q, args...); err != nil {
		return models.Order{}, mapError(err)
	}

	if err := or.recomputeAggregates(ctx, tx, orderID); err != nil {
		return models.Order{}, err
	}

	order, err := or.loadOrderTx(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

// recomputeAggregates rederives each item's status from its unit rows and
// the order's status from its items, so the stored rollups are never stale
// relative to the unit writes in the same transaction.
func (or *OrderRepo) recomputeAggregates(ctx context.Context, tx querier, orderID int) error {
	items, err := or.loadItems(ctx, tx, orderID)
	if err != nil {
		return err
	}

	for i := range items {
		rollup := models.RollupUnits(items[i].Units)
		if rollup != items[i].Status {
			_, err = tx.Exec(ctx, `UPDATE order_items SET status = $2 WHERE order_item_id = $1`,
				items[i].ID, rollup)
			if err != nil {
				return mapError(err)
			}
			items[i].Status = rollup
		}
	}

	orderStatus := models.RollupItems(items)
	_, err = tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE order_id = $1`,
		orderID, orderStatus)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (or *OrderRepo) loadOrderTx(ctx context.Context, q querier, orderID int) (models.Order, error) {
	orders, err := or.loadOrders(ctx, q,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if len(orders) == 0 {
		return models.Order{}, core.ErrNotFound
	}
	return orders[0], nil
}

func (or *OrderRepo) loadOrders(ctx context.Context, q querier, query string, args ...any) ([]models.Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.BillID, &o.TableNumber, &o.UserName, &o.Status, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, mapError(err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range orders {
		items, err := or.loadItems(ctx, q, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (or *OrderRepo) loadItems(ctx context.Context, q querier, orderID int) ([]models.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT order_item_id, order_id, item_id, name, count, price_cents, COALESCE(observation, ''), status
		FROM order_items
		WHERE order_id = $1
		ORDER BY order_item_id
	`, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.Name, &it.Count,
			&it.PriceCents, &it.Observation, &it.Status)
		if err != nil {
			return nil, mapError(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range items {
		units, err := or.loadUnits(ctx, q, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Units = units
	}
	return items, nil
}

func (or *OrderRepo) loadUnits(ctx context.Context, q querier, orderItemID int) ([]models.ItemUnitStatus, error) {
	rows, err := q.Query(ctx, `
		SELECT unit_index, status, updated_at, COALESCE(updated_by, '')
		FROM order_item_statuses
		WHERE order_item_id = $1
		ORDER BY unit_index
	`, orderItemID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var units []models.ItemUnitStatus
	for rows.Next() {
		var u models.ItemUnitStatus
		if err := rows.Scan(&u.UnitIndex, &u.Status, &u.UpdatedAt, &u.UpdatedBy); err != nil {
			return nil, mapError(err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
