package db

import (
	"context"
	"fmt"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/models"
)

type BillRepo struct {
	db core.IDB
}

func NewBillRepo(db core.IDB) *BillRepo {
	return &BillRepo{db: db}
}

const billColumns = `b.bill_id, b.table_id, t.number, b.status, b.finalized_by, b.created_at`

const billSelect = `
	SELECT ` + billColumns + `
	FROM bills b
	JOIN tables t ON t.table_id = b.table_id`

// Open creates an OPEN bill and occupies the table in one transaction. The
// table row is locked first so two concurrent opens serialize; the partial
// unique index on bills backs this up at the storage layer and surfaces as
// ErrConflict if the in-process check is ever raced past.
func (br *BillRepo) Open(ctx context.Context, tableID int) (models.Bill, error) {
	var bill models.Bill

	tx, err := br.db.Pool().Begin(ctx)
	if err != nil {
		return bill, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockQ := `SELECT ` + tableColumns + ` FROM tables WHERE table_id = $1 FOR UPDATE`
	table, err := scanTable(tx.QueryRow(ctx, lockQ, tableID))
	if err != nil {
		return bill, err
	}
	if table.Status != models.TableFree || table.BillID != nil {
		return bill, fmt.Errorf("%w: table already has an active bill", core.ErrConflict)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bills (table_id, status)
		VALUES ($1, $2)
		RETURNING bill_id, created_at
	`, tableID, models.BillOpen).Scan(&bill.ID, &bill.CreatedAt)
	if err != nil {
		return bill, mapError(err)
	}

	_, err = tx.Exec(ctx, `UPDATE tables SET status = $2, bill_id = $3 WHERE table_id = $1`,
		tableID, models.TableOccupied, bill.ID)
	if err != nil {
		return bill, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return bill, fmt.Errorf("failed to commit transaction: %w", err)
	}

	bill.TableID = tableID
	bill.TableNumber = table.Number
	bill.Status = models.BillOpen
	return bill, nil
}

func (br *BillRepo) GetByID(ctx context.Context, id int) (models.Bill, error) {
	return scanBill(br.db.Pool().QueryRow(ctx, billSelect+` WHERE b.bill_id = $1`, id))
}

func (br *BillRepo) GetActiveByTable(ctx context.Context, tableID int) (models.Bill, error) {
	q := billSelect + ` WHERE b.table_id = $1 AND b.status IN ($2, $3)`
	return scanBill(br.db.Pool().QueryRow(ctx, q, tableID, models.BillOpen, models.BillPartiallyPaid))
}

// Finalize settles the table's active bill: bill goes PAID with the
// finalizing actor recorded, the table goes FREE with its bill reference
// cleared, atomically. The remaining balance is recomputed under the bill
// lock and must be zero; a bill can never go PAID while money is still owed.
func (br *BillRepo) Finalize(ctx context.Context, tableID, finalizedBy int) (models.Bill, error) {
	var bill models.Bill

	tx, err := br.db.Pool().Begin(ctx)
	if err != nil {
		return bill, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := billSelect + ` WHERE b.table_id = $1 AND b.status IN ($2, $3) FOR UPDATE OF b`
	bill, err = scanBill(tx.QueryRow(ctx, q, tableID, models.BillOpen, models.BillPartiallyPaid))
	if err != nil {
		return bill, err
	}

	total, paid, err := billBalance(ctx, tx, bill.ID)
	if err != nil {
		return bill, err
	}
	if total-paid > 0 {
		return bill, fmt.Errorf("%w: bill is not fully paid, remaining balance is %d",
			core.ErrInvalidState, total-paid)
	}

	_, err = tx.Exec(ctx, `UPDATE bills SET status = $2, finalized_by = $3 WHERE bill_id = $1`,
		bill.ID, models.BillPaid, finalizedBy)
	if err != nil {
		return bill, mapError(err)
	}

	_, err = tx.Exec(ctx, `UPDATE tables SET status = $2, bill_id = NULL WHERE table_id = $1`,
		tableID, models.TableFree)
	if err != nil {
		return bill, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return bill, fmt.Errorf("failed to commit transaction: %w", err)
	}

	bill.Status = models.BillPaid
	bill.FinalizedBy = &finalizedBy
	return bill, nil
}

// CreatePartialPayment records a payment after recomputing the remaining
// balance from source rows inside the same transaction, so two concurrent
// payments cannot jointly overshoot the total.
func (br *BillRepo) CreatePartialPayment(ctx context.Context, payment models.PartialPayment) (models.PartialPayment, error) {
	tx, err := br.db.Pool().Begin(ctx)
	if err != nil {
		return payment, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status models.BillStatus
	err = tx.QueryRow(ctx, `SELECT status FROM bills WHERE bill_id = $1 FOR UPDATE`, payment.BillID).Scan(&status)
	if err != nil {
		return payment, mapError(err)
	}
	if !status.Active() {
		return payment, fmt.Errorf("%w: bill is not open for payments", core.ErrInvalidState)
	}

	total, paid, err := billBalance(ctx, tx, payment.BillID)
	if err != nil {
		return payment, err
	}

	if payment.AmountCents > total-paid {
		return payment, fmt.Errorf("%w: remaining balance is %d", core.ErrOverpayment, total-paid)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO partial_payments (bill_id, table_id, paid_by, amount_cents, description, payment_method, received_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING payment_id, created_at
	`,
		payment.BillID,
		payment.TableID,
		payment.PaidBy,
		payment.AmountCents,
		nullIfEmpty(payment.Description),
		nullIfEmpty(payment.Method),
		payment.ReceivedBy,
		models.PaymentPaid,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return payment, mapError(err)
	}

	if status == models.BillOpen {
		_, err = tx.Exec(ctx, `UPDATE bills SET status = $2 WHERE bill_id = $1`,
			payment.BillID, models.BillPartiallyPaid)
		if err != nil {
			return payment, mapError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return payment, fmt.Errorf("failed to commit transaction: %w", err)
	}

	payment.Status = models.PaymentPaid
	return payment, nil
}

func (br *BillRepo) CancelPartialPayment(ctx context.Context, paymentID int) error {
	tag, err := br.db.Pool().Exec(ctx, `
		UPDATE partial_payments SET status = $2 WHERE payment_id = $1 AND status = $3
	`, paymentID, models.PaymentCanceled, models.PaymentPaid)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		// Either absent or already canceled; tell the caller which.
		var status models.PaymentStatus
		err := br.db.Pool().QueryRow(ctx, `SELECT status FROM partial_payments WHERE payment_id = $1`, paymentID).Scan(&status)
		if err != nil {
			return mapError(err)
		}
		return fmt.Errorf("%w: payment is already canceled", core.ErrInvalidState)
	}
	return nil
}

// billBalance recomputes the bill's total and paid sums from source rows
// inside the caller's transaction, so payment and finalize decisions never
// trust a cached figure.
func billBalance(ctx context.Context, tx querier, billID int) (total, paid int64, err error) {
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(oi.price_cents * oi.count), 0)
		FROM order_items oi
		JOIN orders o ON o.order_id = oi.order_id
		WHERE o.bill_id = $1 AND o.status <> $2 AND oi.status <> $3
	`, billID, models.OrderCanceled, models.UnitCanceled).Scan(&total)
	if err != nil {
		return 0, 0, mapError(err)
	}
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM partial_payments
		WHERE bill_id = $1 AND status = $2
	`, billID, models.PaymentPaid).Scan(&paid)
	if err != nil {
		return 0, 0, mapError(err)
	}
	return total, paid, nil
}

const paymentColumns = `payment_id, bill_id, table_id, paid_by, amount_cents,
	COALESCE(description, ''), COALESCE(payment_method, ''), received_by, status, created_at`

func (br *BillRepo) ListPartialPayments(ctx context.Context, tableID int) ([]models.PartialPayment, error) {
	q := `
	SELECT ` + paymentColumns + `
	FROM partial_payments
	WHERE bill_id = (
		SELECT bill_id FROM bills WHERE table_id = $1 AND status IN ($2, $3)
	)
	ORDER BY created_at`

	rows, err := br.db.Pool().Query(ctx, q, tableID, models.BillOpen, models.BillPartiallyPaid)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var payments []models.PartialPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (br *BillRepo) GetPartialPayment(ctx context.Context, paymentID int) (models.PartialPayment, error) {
	q := `SELECT ` + paymentColumns + ` FROM partial_payments WHERE payment_id = $1`
	return scanPayment(br.db.Pool().QueryRow(ctx, q, paymentID))
}

func scanBill(row rowScanner) (models.Bill, error) {
	var b models.Bill
	err := row.Scan(&b.ID, &b.TableID, &b.TableNumber, &b.Status, &b.FinalizedBy, &b.CreatedAt)
	if err != nil {
		return models.Bill{}, mapError(err)
	}
	return b, nil
}

func scanPayment(row rowScanner) (models.PartialPayment, error) {
	var p models.PartialPayment
	err := row.Scan(&p.ID, &p.BillID, &p.TableID, &p.PaidBy, &p.AmountCents,
		&p.Description, &p.Method, &p.ReceivedBy, &p.Status, &p.CreatedAt)
	if err != nil {
		return models.PartialPayment{}, mapError(err)
	}
	return p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
