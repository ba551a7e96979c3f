package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"comanda-api/internal/floor/app/services"
	"comanda-api/internal/floor/domain/dto"
	"comanda-api/internal/mylogger"
)

type OrderHandler struct {
	orderService *services.OrderService
	mylog        mylogger.Logger
}

func NewOrderHandler(orderService *services.OrderService, mylog mylogger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		mylog:        mylog,
	}
}

func (oh *OrderHandler) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		billID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			oh.mylog.Action("parse_failed").Error("Failed to parse order", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		order, err := oh.orderService.Submit(ctx, billID, req)
		if err != nil {
			serviceError(w, err)
			return
		}

		oh.mylog.Action("order_submitted").Debug("Order accepted",
			"order_id", order.ID, "bill_id", billID, "number_of_items", len(order.Items))
		jsonResponse(w, http.StatusCreated, order)
	}
}

func (oh *OrderHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		order, err := oh.orderService.Get(ctx, orderID)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}
