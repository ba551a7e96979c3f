package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"comanda-api/internal/floor/app/services"
	"comanda-api/internal/floor/domain/dto"
	"comanda-api/internal/mylogger"
)

type KitchenHandler struct {
	kitchenService *services.KitchenService
	mylog          mylogger.Logger
}

func NewKitchenHandler(kitchenService *services.KitchenService, mylog mylogger.Logger) *KitchenHandler {
	return &KitchenHandler{
		kitchenService: kitchenService,
		mylog:          mylog,
	}
}

func (kh *KitchenHandler) ActiveOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext()
		defer cancel()

		orders, err := kh.kitchenService.ActiveOrders(ctx)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, orders)
	}
}

func (kh *KitchenHandler) DeliveredOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext()
		defer cancel()

		orders, err := kh.kitchenService.DeliveredOrders(ctx)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, orders)
	}
}

func (kh *KitchenHandler) UpdateUnitStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		itemID, err := pathID(r, "itemID")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		unitIndex, err := pathIndex(r, "unitIndex")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.UnitStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		order, err := kh.kitchenService.UpdateUnitStatus(ctx, orderID, itemID, unitIndex, req.Status, req.UpdatedBy)
		if err != nil {
			serviceError(w, err)
			return
		}

		kh.mylog.Action("unit_status_updated").Debug("Unit status updated",
			"order_id", orderID, "item_id", itemID, "unit_index", unitIndex, "status", req.Status)
		jsonResponse(w, http.StatusOK, order)
	}
}

func (kh *KitchenHandler) DeliverOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.DeliverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		order, err := kh.kitchenService.MarkOrderDelivered(ctx, orderID, req.UpdatedBy)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

func (kh *KitchenHandler) DeliverItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		itemID, err := pathID(r, "itemID")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.DeliverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		order, err := kh.kitchenService.MarkItemDelivered(ctx, orderID, itemID, req.UpdatedBy)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}
