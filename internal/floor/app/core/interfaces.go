package core

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"comanda-api/internal/floor/domain/models"
)

type IDB interface {
	Pool() *pgxpool.Pool
	IsAlive(ctx context.Context) error
	Close() error
}

type ITableRepo interface {
	GetByID(ctx context.Context, id int) (models.Table, error)
	List(ctx context.Context) ([]models.Table, error)
	UpdateStatus(ctx context.Context, id int, status models.TableStatus, billID *int) (models.Table, error)
	// Migrate moves the active bill from origin to destination atomically,
	// revalidating both table statuses inside the transaction.
	Migrate(ctx context.Context, originID, destinationID int) (models.Table, models.Table, error)
}

type IBillRepo interface {
	// Open creates an OPEN bill for the table and marks it OCCUPIED in one
	// transaction. A unique-violation on the active-bill index surfaces as
	// ErrConflict.
	Open(ctx context.Context, tableID int) (models.Bill, error)
	GetByID(ctx context.Context, id int) (models.Bill, error)
	GetActiveByTable(ctx context.Context, tableID int) (models.Bill, error)
	// Finalize marks the bill PAID with the finalizing actor and frees the
	// table in one transaction. The remaining balance is recomputed inside
	// the transaction and must be zero.
	Finalize(ctx context.Context, tableID, finalizedBy int) (models.Bill, error)

	CreatePartialPayment(ctx context.Context, payment models.PartialPayment) (models.PartialPayment, error)
	CancelPartialPayment(ctx context.Context, paymentID int) error
	ListPartialPayments(ctx context.Context, tableID int) ([]models.PartialPayment, error)
	GetPartialPayment(ctx context.Context, paymentID int) (models.PartialPayment, error)
}

type IOrderRepo interface {
	// Create inserts the order, its items and one unit-status row per
	// requested unit in a single transaction.
	Create(ctx context.Context, order models.Order) (models.Order, error)
	GetByID(ctx context.Context, orderID int) (models.Order, error)
	ListByBill(ctx context.Context, billID int) ([]models.Order, error)
	// ListActiveKitchen returns orders with at least one unit still moving
	// through the production chain; ListDeliveredKitchen returns orders whose
	// non-canceled units are all delivered.
	ListActiveKitchen(ctx context.Context) ([]models.Order, error)
	ListDeliveredKitchen(ctx context.Context) ([]models.Order, error)

	// UpdateUnitStatus validates the transition against the stored unit
	// status, writes it, and recomputes the item and order rollups in the
	// same transaction. The refreshed order is returned for broadcasting.
	UpdateUnitStatus(ctx context.Context, orderID, itemID, unitIndex int, status models.ItemStatus, actor string) (models.Order, error)
	MarkItemDelivered(ctx context.Context, orderID, itemID int, actor string) (models.Order, error)
	MarkOrderDelivered(ctx context.Context, orderID int, actor string) (models.Order, error)
}

type IMenuRepo interface {
	List(ctx context.Context) ([]models.MenuItem, error)
	GetByIDs(ctx context.Context, ids []int) (map[int]models.MenuItem, error)
}

// IBroadcaster fans committed deltas out to connected observers. Publication
// is best-effort and must never block the mutating caller.
type IBroadcaster interface {
	PublishKitchen(orders []models.Order)
	PublishTable(tableNumber int, orders []models.Order)
}
