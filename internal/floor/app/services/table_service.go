package services

import (
	"context"
	"errors"
	"fmt"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

// TableService drives the table lifecycle: FREE -> OCCUPIED (open) ->
// ON_PAYMENT (close) -> FREE (finalize, via BillingService), plus reopen and
// migration.
type TableService struct {
	tableRepo   core.ITableRepo
	billRepo    core.IBillRepo
	orderRepo   core.IOrderRepo
	broadcaster core.IBroadcaster
	mylog       mylogger.Logger
}

func NewTableService(
	tableRepo core.ITableRepo,
	billRepo core.IBillRepo,
	orderRepo core.IOrderRepo,
	broadcaster core.IBroadcaster,
	mylog mylogger.Logger,
) *TableService {
	return &TableService{
		tableRepo:   tableRepo,
		billRepo:    billRepo,
		orderRepo:   orderRepo,
		broadcaster: broadcaster,
		mylog:       mylog,
	}
}

func (ts *TableService) List(ctx context.Context) ([]models.Table, error) {
	return ts.tableRepo.List(ctx)
}

func (ts *TableService) Get(ctx context.Context, tableID int) (models.Table, error) {
	return ts.tableRepo.GetByID(ctx, tableID)
}

// Open creates a new bill for the table. The check here is advisory; the
// storage layer's unique active-bill index is what makes two concurrent
// opens impossible.
func (ts *TableService) Open(ctx context.Context, tableID int) (models.Bill, error) {
	mylog := ts.mylog.Action("open_table").With("table_id", tableID)

	if _, err := ts.billRepo.GetActiveByTable(ctx, tableID); err == nil {
		mylog.Warn("Rejected open: table already has an active bill")
		return models.Bill{}, fmt.Errorf("%w: table already has an active bill", core.ErrConflict)
	} else if !errors.Is(err, core.ErrNotFound) {
		return models.Bill{}, err
	}

	bill, err := ts.billRepo.Open(ctx, tableID)
	if err != nil {
		mylog.Error("Failed to open table", err)
		return models.Bill{}, err
	}

	ts.broadcaster.PublishTable(bill.TableNumber, []models.Order{})
	mylog.Info("Table opened", "bill_id", bill.ID)
	return bill, nil
}

// Close moves an occupied table into billing review. Nothing is finalized
// yet; Reopen undoes this.
func (ts *TableService) Close(ctx context.Context, tableID int) (models.Table, error) {
	table, err := ts.tableRepo.GetByID(ctx, tableID)
	if err != nil {
		return models.Table{}, err
	}
	if table.Status != models.TableOccupied {
		return models.Table{}, fmt.Errorf("%w: table is not occupied", core.ErrInvalidState)
	}

	updated, err := ts.tableRepo.UpdateStatus(ctx, tableID, models.TableOnPayment, table.BillID)
	if err != nil {
		return models.Table{}, err
	}
	ts.mylog.Action("close_table").Info("Table moved to payment review", "table_id", tableID)
	return updated, nil
}

// Reopen reverses Close while the bill is still unsettled.
func (ts *TableService) Reopen(ctx context.Context, tableID int) (models.Table, error) {
	table, err := ts.tableRepo.GetByID(ctx, tableID)
	if err != nil {
		return models.Table{}, err
	}
	if table.Status != models.TableOnPayment {
		return models.Table{}, fmt.Errorf("%w: table is not on payment review", core.ErrInvalidState)
	}

	updated, err := ts.tableRepo.UpdateStatus(ctx, tableID, models.TableOccupied, table.BillID)
	if err != nil {
		return models.Table{}, err
	}
	ts.mylog.Action("reopen_table").Info("Table reopened", "table_id", tableID)
	return updated, nil
}

// Migrate moves the active bill to a free table. The repo revalidates both
// preconditions under row locks, so the check-then-move cannot be raced.
func (ts *TableService) Migrate(ctx context.Context, originID, destinationID int) (models.Table, models.Table, error) {
	mylog := ts.mylog.Action("migrate_table").With("origin_id", originID, "destination_id", destinationID)

	if originID == destinationID {
		return models.Table{}, models.Table{}, fmt.Errorf("%w: origin and destination are the same table", core.ErrValidation)
	}

	origin, destination, err := ts.tableRepo.Migrate(ctx, originID, destinationID)
	if err != nil {
		mylog.Error("Failed to migrate table", err)
		return origin, destination, err
	}

	if destination.BillID != nil {
		orders, loadErr := ts.orderRepo.ListByBill(ctx, *destination.BillID)
		if loadErr == nil {
			ts.broadcaster.PublishTable(destination.Number, orders)
		}
	}
	ts.broadcaster.PublishTable(origin.Number, []models.Order{})
	ts.publishKitchen(ctx)

	mylog.Info("Table migrated")
	return origin, destination, nil
}

func (ts *TableService) publishKitchen(ctx context.Context) {
	orders, err := ts.orderRepo.ListActiveKitchen(ctx)
	if err != nil {
		ts.mylog.Action("kitchen_snapshot_failed").Error("Failed to load kitchen snapshot", err)
		return
	}
	ts.broadcaster.PublishKitchen(orders)
}
