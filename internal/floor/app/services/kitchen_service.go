package services

import (
	"context"
	"fmt"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

// KitchenService tracks fulfillment at unit granularity. Whole-item and
// whole-order statuses are always rollups recomputed by the repo in the same
// transaction as the unit write.
type KitchenService struct {
	orderRepo   core.IOrderRepo
	broadcaster core.IBroadcaster
	mylog       mylogger.Logger
}

func NewKitchenService(orderRepo core.IOrderRepo, broadcaster core.IBroadcaster, mylog mylogger.Logger) *KitchenService {
	return &KitchenService{
		orderRepo:   orderRepo,
		broadcaster: broadcaster,
		mylog:       mylog,
	}
}

// ActiveOrders returns orders with units still moving through production.
func (ks *KitchenService) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	return ks.orderRepo.ListActiveKitchen(ctx)
}

// DeliveredOrders returns fully delivered orders, newest first.
func (ks *KitchenService) DeliveredOrders(ctx context.Context) ([]models.Order, error) {
	return ks.orderRepo.ListDeliveredKitchen(ctx)
}

// UpdateUnitStatus moves one unit along the production chain and broadcasts
// the refreshed order.
func (ks *KitchenService) UpdateUnitStatus(ctx context.Context, orderID, itemID, unitIndex int, rawStatus, actor string) (models.Order, error) {
	mylog := ks.mylog.Action("update_unit_status").
		With("order_id", orderID, "item_id", itemID, "unit_index", unitIndex)

	status, err := models.ParseItemStatus(rawStatus)
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	if actor == "" {
		return models.Order{}, fmt.Errorf("%w: updating actor is required", core.ErrValidation)
	}
	if unitIndex < 0 {
		return models.Order{}, fmt.Errorf("%w: unit index must not be negative", core.ErrValidation)
	}

	order, err := ks.orderRepo.UpdateUnitStatus(ctx, orderID, itemID, unitIndex, status, actor)
	if err != nil {
		mylog.Error("Failed to update unit status", err)
		return models.Order{}, err
	}

	ks.publishDelta(ctx, order)
	mylog.Info("Unit status updated", "status", status, "order_status", order.Status)
	return order, nil
}

// MarkOrderDelivered bulk-delivers every remaining unit of the order.
func (ks *KitchenService) MarkOrderDelivered(ctx context.Context, orderID int, actor string) (models.Order, error) {
	if actor == "" {
		return models.Order{}, fmt.Errorf("%w: updating actor is required", core.ErrValidation)
	}

	order, err := ks.orderRepo.MarkOrderDelivered(ctx, orderID, actor)
	if err != nil {
		ks.mylog.Action("mark_order_delivered").Error("Failed to mark order delivered", err, "order_id", orderID)
		return models.Order{}, err
	}

	ks.publishDelta(ctx, order)
	ks.mylog.Action("mark_order_delivered").Info("Order delivered", "order_id", orderID)
	return order, nil
}

// MarkItemDelivered bulk-delivers every remaining unit of one item.
func (ks *KitchenService) MarkItemDelivered(ctx context.Context, orderID, itemID int, actor string) (models.Order, error) {
	if actor == "" {
		return models.Order{}, fmt.Errorf("%w: updating actor is required", core.ErrValidation)
	}

	order, err := ks.orderRepo.MarkItemDelivered(ctx, orderID, itemID, actor)
	if err != nil {
		ks.mylog.Action("mark_item_delivered").Error("Failed to mark item delivered", err,
			"order_id", orderID, "item_id", itemID)
		return models.Order{}, err
	}

	ks.publishDelta(ctx, order)
	ks.mylog.Action("mark_item_delivered").Info("Item delivered", "order_id", orderID, "item_id", itemID)
	return order, nil
}

func (ks *KitchenService) publishDelta(ctx context.Context, order models.Order) {
	if tableOrders, err := ks.orderRepo.ListByBill(ctx, order.BillID); err == nil {
		ks.broadcaster.PublishTable(order.TableNumber, tableOrders)
	}
	if kitchenOrders, err := ks.orderRepo.ListActiveKitchen(ctx); err == nil {
		ks.broadcaster.PublishKitchen(kitchenOrders)
	}
}
