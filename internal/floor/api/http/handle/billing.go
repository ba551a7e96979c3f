package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"comanda-api/internal/floor/app/services"
	"comanda-api/internal/floor/domain/dto"
	"comanda-api/internal/mylogger"
)

type BillingHandler struct {
	billingService *services.BillingService
	mylog          mylogger.Logger
}

func NewBillingHandler(billingService *services.BillingService, mylog mylogger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		mylog:          mylog,
	}
}

func (bh *BillingHandler) CreatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.PartialPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		payment, err := bh.billingService.CreatePartialPayment(ctx, tableID, req)
		if err != nil {
			serviceError(w, err)
			return
		}

		bh.mylog.Action("payment_created").Debug("Partial payment recorded",
			"payment_id", payment.ID, "table_id", tableID, "amount_cents", payment.AmountCents)
		jsonResponse(w, http.StatusCreated, payment)
	}
}

func (bh *BillingHandler) CancelPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		if err := bh.billingService.CancelPartialPayment(ctx, paymentID); err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]bool{"canceled": true})
	}
}

func (bh *BillingHandler) ListPayments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		payments, err := bh.billingService.ListPartialPayments(ctx, tableID)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, payments)
	}
}

func (bh *BillingHandler) PaymentDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		payment, err := bh.billingService.PartialPaymentDetails(ctx, paymentID)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, payment)
	}
}

func (bh *BillingHandler) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		summary, err := bh.billingService.Summary(ctx, tableID)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, summary)
	}
}

func (bh *BillingHandler) Finalize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.FinalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		bill, err := bh.billingService.Finalize(ctx, tableID, req.FinalizedBy)
		if err != nil {
			serviceError(w, err)
			return
		}

		bh.mylog.Action("bill_finalized").Info("Bill finalized",
			"bill_id", bill.ID, "table_id", tableID)
		jsonResponse(w, http.StatusOK, bill)
	}
}
