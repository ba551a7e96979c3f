package services

import (
	"context"
	"fmt"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/dto"
	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

// OrderService turns submitted carts into orders. Each line expands into one
// unit-status row per requested unit so the kitchen can fulfill units
// independently.
type OrderService struct {
	orderRepo   core.IOrderRepo
	billRepo    core.IBillRepo
	menuRepo    core.IMenuRepo
	broadcaster core.IBroadcaster
	mylog       mylogger.Logger
}

func NewOrderService(
	orderRepo core.IOrderRepo,
	billRepo core.IBillRepo,
	menuRepo core.IMenuRepo,
	broadcaster core.IBroadcaster,
	mylog mylogger.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		billRepo:    billRepo,
		menuRepo:    menuRepo,
		broadcaster: broadcaster,
		mylog:       mylog,
	}
}

// Submit validates the cart, resolves menu prices, and creates the order
// with all its unit rows in one transaction.
func (os *OrderService) Submit(ctx context.Context, billID int, req dto.OrderRequest) (models.Order, error) {
	mylog := os.mylog.Action("submit_order").With("bill_id", billID)

	if err := validateOrderRequest(req); err != nil {
		mylog.Warn("Rejected order request", "reason", err.Error())
		return models.Order{}, err
	}

	bill, err := os.billRepo.GetByID(ctx, billID)
	if err != nil {
		return models.Order{}, err
	}
	if !bill.Status.Active() {
		return models.Order{}, fmt.Errorf("%w: bill is not open for orders", core.ErrInvalidState)
	}

	lines := mergeLines(req.Items)

	ids := make([]int, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	menu, err := os.menuRepo.GetByIDs(ctx, ids)
	if err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		BillID:      billID,
		TableNumber: bill.TableNumber,
		UserName:    req.UserName,
		Status:      models.OrderPending,
	}
	for _, line := range lines {
		menuItem, ok := menu[line.ItemID]
		if !ok {
			return models.Order{}, fmt.Errorf("%w: menu item %d", core.ErrNotFound, line.ItemID)
		}
		order.Items = append(order.Items, models.OrderItem{
			ItemID:      line.ItemID,
			Name:        menuItem.Name,
			Count:       line.Count,
			PriceCents:  menuItem.PriceCents,
			Observation: line.Observation,
			Status:      models.UnitPending,
		})
	}

	created, err := os.orderRepo.Create(ctx, order)
	if err != nil {
		mylog.Error("Failed to create order", err)
		return models.Order{}, err
	}

	os.publishDelta(ctx, created.BillID, created.TableNumber)
	mylog.Info("Order submitted", "order_id", created.ID, "items", len(created.Items))
	return created, nil
}

func (os *OrderService) Get(ctx context.Context, orderID int) (models.Order, error) {
	return os.orderRepo.GetByID(ctx, orderID)
}

func (os *OrderService) ListByBill(ctx context.Context, billID int) ([]models.Order, error) {
	return os.orderRepo.ListByBill(ctx, billID)
}

// publishDelta pushes fresh snapshots to the table queue and the kitchen
// feed after a committed mutation. Failures are logged, never surfaced: the
// mutation already committed.
func (os *OrderService) publishDelta(ctx context.Context, billID, tableNumber int) {
	if tableOrders, err := os.orderRepo.ListByBill(ctx, billID); err == nil {
		os.broadcaster.PublishTable(tableNumber, tableOrders)
	} else {
		os.mylog.Action("table_snapshot_failed").Error("Failed to load table snapshot", err, "bill_id", billID)
	}

	if kitchenOrders, err := os.orderRepo.ListActiveKitchen(ctx); err == nil {
		os.broadcaster.PublishKitchen(kitchenOrders)
	} else {
		os.mylog.Action("kitchen_snapshot_failed").Error("Failed to load kitchen snapshot", err)
	}
}

func validateOrderRequest(req dto.OrderRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order has no items", core.ErrValidation)
	}
	if len(req.Items) > core.MaxItemsPerOrder {
		return fmt.Errorf("%w: order exceeds %d items", core.ErrValidation, core.MaxItemsPerOrder)
	}
	if len(req.UserName) > core.MaxUserNameLen {
		return fmt.Errorf("%w: user name too long", core.ErrValidation)
	}
	for i, item := range req.Items {
		if item.ItemID <= 0 {
			return fmt.Errorf("%w: item %d: missing menu item id", core.ErrValidation, i+1)
		}
		if item.Count < 1 {
			return fmt.Errorf("%w: item %d: count must be at least 1", core.ErrValidation, i+1)
		}
		if len(item.Observation) > core.MaxObservation {
			return fmt.Errorf("%w: item %d: observation too long", core.ErrValidation, i+1)
		}
	}
	return nil
}

// mergeLines collapses duplicate menu items into a single line so unit
// indexes stay unambiguous per (order, menu item).
func mergeLines(items []dto.ItemRequest) []dto.ItemRequest {
	merged := make([]dto.ItemRequest, 0, len(items))
	index := make(map[int]int)

	for _, item := range items {
		if at, ok := index[item.ItemID]; ok {
			merged[at].Count += item.Count
			if item.Observation != "" {
				if merged[at].Observation != "" && merged[at].Observation != item.Observation {
					merged[at].Observation += "; " + item.Observation
				} else if merged[at].Observation == "" {
					merged[at].Observation = item.Observation
				}
			}
			continue
		}
		index[item.ItemID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
