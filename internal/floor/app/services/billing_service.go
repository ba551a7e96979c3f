package services

import (
	"context"
	"fmt"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/dto"
	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

// BillingService reconciles payments against a bill. Totals are always
// recomputed from source orders and payments; a canceled payment simply
// stops counting on the next read.
type BillingService struct {
	billRepo    core.IBillRepo
	orderRepo   core.IOrderRepo
	tableRepo   core.ITableRepo
	broadcaster core.IBroadcaster
	mylog       mylogger.Logger
}

func NewBillingService(
	billRepo core.IBillRepo,
	orderRepo core.IOrderRepo,
	tableRepo core.ITableRepo,
	broadcaster core.IBroadcaster,
	mylog mylogger.Logger,
) *BillingService {
	return &BillingService{
		billRepo:    billRepo,
		orderRepo:   orderRepo,
		tableRepo:   tableRepo,
		broadcaster: broadcaster,
		mylog:       mylog,
	}
}

// CreatePartialPayment records a payment against the table's active bill.
// Overpayment is rejected: the repo recomputes the remaining balance inside
// the insert transaction, so concurrent payments cannot jointly overshoot.
func (bs *BillingService) CreatePartialPayment(ctx context.Context, tableID int, req dto.PartialPaymentRequest) (models.PartialPayment, error) {
	mylog := bs.mylog.Action("create_partial_payment").With("table_id", tableID)

	if req.AmountCents <= 0 {
		return models.PartialPayment{}, fmt.Errorf("%w: amount must be positive", core.ErrValidation)
	}

	bill, err := bs.billRepo.GetActiveByTable(ctx, tableID)
	if err != nil {
		return models.PartialPayment{}, err
	}

	paidBy := req.PaidBy
	if paidBy == "" {
		paidBy = core.DefaultPaidBy
	}

	payment := models.PartialPayment{
		BillID:      bill.ID,
		TableID:     tableID,
		PaidBy:      paidBy,
		AmountCents: req.AmountCents,
		Description: req.Description,
		Method:      req.Method,
		ReceivedBy:  req.ReceivedBy,
		Status:      models.PaymentPaid,
	}

	created, err := bs.billRepo.CreatePartialPayment(ctx, payment)
	if err != nil {
		mylog.Error("Failed to create partial payment", err)
		return models.PartialPayment{}, err
	}

	mylog.Info("Partial payment recorded", "payment_id", created.ID, "amount_cents", created.AmountCents)
	return created, nil
}

// CancelPartialPayment voids a payment without deleting it.
func (bs *BillingService) CancelPartialPayment(ctx context.Context, paymentID int) error {
	if err := bs.billRepo.CancelPartialPayment(ctx, paymentID); err != nil {
		bs.mylog.Action("cancel_partial_payment").Error("Failed to cancel partial payment", err, "payment_id", paymentID)
		return err
	}
	bs.mylog.Action("cancel_partial_payment").Info("Partial payment canceled", "payment_id", paymentID)
	return nil
}

func (bs *BillingService) ListPartialPayments(ctx context.Context, tableID int) ([]models.PartialPayment, error) {
	return bs.billRepo.ListPartialPayments(ctx, tableID)
}

func (bs *BillingService) PartialPaymentDetails(ctx context.Context, paymentID int) (models.PartialPayment, error) {
	return bs.billRepo.GetPartialPayment(ctx, paymentID)
}

// Summary reconciles the table's active bill from source rows.
func (bs *BillingService) Summary(ctx context.Context, tableID int) (models.PaymentSummary, error) {
	bill, err := bs.billRepo.GetActiveByTable(ctx, tableID)
	if err != nil {
		return models.PaymentSummary{}, err
	}

	orders, err := bs.orderRepo.ListByBill(ctx, bill.ID)
	if err != nil {
		return models.PaymentSummary{}, err
	}

	payments, err := bs.billRepo.ListPartialPayments(ctx, tableID)
	if err != nil {
		return models.PaymentSummary{}, err
	}

	return models.Summarize(bill.TableNumber, orders, payments), nil
}

// Finalize settles the bill. An explicit finalizing actor is required and
// the remaining balance must be zero: a fully paid balance alone never
// finalizes anything, and an unpaid bill can never be finalized. The repo
// recomputes the balance under the bill lock.
func (bs *BillingService) Finalize(ctx context.Context, tableID, finalizedBy int) (models.Bill, error) {
	mylog := bs.mylog.Action("finalize_bill").With("table_id", tableID)

	if finalizedBy <= 0 {
		return models.Bill{}, fmt.Errorf("%w: finalizing actor is required", core.ErrValidation)
	}

	bill, err := bs.billRepo.Finalize(ctx, tableID, finalizedBy)
	if err != nil {
		mylog.Error("Failed to finalize bill", err)
		return models.Bill{}, err
	}

	bs.broadcaster.PublishTable(bill.TableNumber, []models.Order{})
	mylog.Info("Bill finalized", "bill_id", bill.ID, "finalized_by", finalizedBy)
	return bill, nil
}
