package db

import (
	"context"
	"fmt"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/models"
)

type TableRepo struct {
	db core.IDB
}

func NewTableRepo(db core.IDB) *TableRepo {
	return &TableRepo{db: db}
}

const tableColumns = `table_id, number, status, bill_id, created_at`

func (tr *TableRepo) GetByID(ctx context.Context, id int) (models.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM tables WHERE table_id = $1`
	return scanTable(tr.db.Pool().QueryRow(ctx, q, id))
}

func (tr *TableRepo) List(ctx context.Context) ([]models.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM tables ORDER BY number`

	rows, err := tr.db.Pool().Query(ctx, q)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (tr *TableRepo) UpdateStatus(ctx context.Context, id int, status models.TableStatus, billID *int) (models.Table, error) {
	q := `
	UPDATE tables
	SET status = $2, bill_id = $3
	WHERE table_id = $1
	RETURNING ` + tableColumns
	return scanTable(tr.db.Pool().QueryRow(ctx, q, id, status, billID))
}

// Migrate moves the active bill from origin to destination in one
// transaction. Both table rows are locked and revalidated under the lock so
// the bill can never end up referenced by two tables.
func (tr *TableRepo) Migrate(ctx context.Context, originID, destinationID int) (models.Table, models.Table, error) {
	var origin, destination models.Table

	tx, err := tr.db.Pool().Begin(ctx)
	if err != nil {
		return origin, destination, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock in a fixed order to avoid deadlocking with a concurrent migrate
	// in the opposite direction.
	firstID, secondID := originID, destinationID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	lockQ := `SELECT ` + tableColumns + ` FROM tables WHERE table_id = $1 FOR UPDATE`
	for _, id := range []int{firstID, secondID} {
		t, err := scanTable(tx.QueryRow(ctx, lockQ, id))
		if err != nil {
			return origin, destination, err
		}
		switch id {
		case originID:
			origin = t
		case destinationID:
			destination = t
		}
	}

	if origin.Status != models.TableOccupied || origin.BillID == nil {
		return origin, destination, fmt.Errorf("%w: origin table is not occupied", core.ErrInvalidState)
	}
	if destination.Status != models.TableFree {
		return origin, destination, fmt.Errorf("%w: destination table is not free", core.ErrConflict)
	}

	billID := *origin.BillID
	if _, err := tx.Exec(ctx, `UPDATE bills SET table_id = $1 WHERE bill_id = $2`, destinationID, billID); err != nil {
		return origin, destination, mapError(err)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET table_number = $1 WHERE bill_id = $2`, destination.Number, billID); err != nil {
		return origin, destination, mapError(err)
	}
	if _, err := tx.Exec(ctx, `UPDATE partial_payments SET table_id = $1 WHERE bill_id = $2`, destinationID, billID); err != nil {
		return origin, destination, mapError(err)
	}

	updQ := `UPDATE tables SET status = $2, bill_id = $3 WHERE table_id = $1 RETURNING ` + tableColumns
	origin, err = scanTable(tx.QueryRow(ctx, updQ, originID, models.TableFree, nil))
	if err != nil {
		return origin, destination, err
	}
	destination, err = scanTable(tx.QueryRow(ctx, updQ, destinationID, models.TableOccupied, billID))
	if err != nil {
		return origin, destination, err
	}

	if err := tx.Commit(ctx); err != nil {
		return origin, destination, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return origin, destination, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTable(row rowScanner) (models.Table, error) {
	var t models.Table
	err := row.Scan(&t.ID, &t.Number, &t.Status, &t.BillID, &t.CreatedAt)
	if err != nil {
		return models.Table{}, mapError(err)
	}
	return t, nil
}
