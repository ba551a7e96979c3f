package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

// memStore is an in-memory stand-in for the Postgres repos. It enforces the
// same preconditions under one mutex, so the concurrency guarantees the
// services rely on (single active bill, transition checks, in-transaction
// balance recompute) hold here too.
type memStore struct {
	mu       sync.Mutex
	tables   map[int]*models.Table
	bills    map[int]*models.Bill
	orders   map[int]*models.Order
	payments map[int]*models.PartialPayment
	menu     map[int]models.MenuItem
	nextID   int
}

func newMemStore(tableCount int, menu ...models.MenuItem) *memStore {
	s := &memStore{
		tables:   make(map[int]*models.Table),
		bills:    make(map[int]*models.Bill),
		orders:   make(map[int]*models.Order),
		payments: make(map[int]*models.PartialPayment),
		menu:     make(map[int]models.MenuItem),
	}
	for i := 1; i <= tableCount; i++ {
		s.tables[i] = &models.Table{ID: i, Number: i, Status: models.TableFree, CreatedAt: time.Now()}
	}
	for _, m := range menu {
		s.menu[m.ID] = m
	}
	return s
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func copyOrder(o models.Order) models.Order {
	out := o
	out.Items = make([]models.OrderItem, len(o.Items))
	for i, it := range o.Items {
		out.Items[i] = it
		out.Items[i].Units = append([]models.ItemUnitStatus(nil), it.Units...)
	}
	return out
}

// ITableRepo

func (s *memStore) GetByID(_ context.Context, id int) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return models.Table{}, fmt.Errorf("%w: table %d", core.ErrNotFound, id)
	}
	return *t, nil
}

func (s *memStore) List(_ context.Context) ([]models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id int, status models.TableStatus, billID *int) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return models.Table{}, fmt.Errorf("%w: table %d", core.ErrNotFound, id)
	}
	t.Status = status
	t.BillID = billID
	return *t, nil
}

func (s *memStore) Migrate(_ context.Context, originID, destinationID int) (models.Table, models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	origin, ok := s.tables[originID]
	if !ok {
		return models.Table{}, models.Table{}, fmt.Errorf("%w: table %d", core.ErrNotFound, originID)
	}
	destination, ok := s.tables[destinationID]
	if !ok {
		return models.Table{}, models.Table{}, fmt.Errorf("%w: table %d", core.ErrNotFound, destinationID)
	}
	if origin.Status == models.TableFree || origin.BillID == nil {
		return models.Table{}, models.Table{}, fmt.Errorf("%w: origin table is not occupied", core.ErrInvalidState)
	}
	if destination.Status != models.TableFree {
		return models.Table{}, models.Table{}, fmt.Errorf("%w: destination table is not free", core.ErrConflict)
	}

	bill := s.bills[*origin.BillID]
	bill.TableID = destination.ID
	bill.TableNumber = destination.Number
	for _, o := range s.orders {
		if o.BillID == bill.ID {
			o.TableNumber = destination.Number
		}
	}
	for _, p := range s.payments {
		if p.BillID == bill.ID {
			p.TableID = destination.ID
		}
	}

	destination.Status = origin.Status
	destination.BillID = origin.BillID
	origin.Status = models.TableFree
	origin.BillID = nil

	return *origin, *destination, nil
}

// IBillRepo

func (s *memStore) Open(_ context.Context, tableID int) (models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[tableID]
	if !ok {
		return models.Bill{}, fmt.Errorf("%w: table %d", core.ErrNotFound, tableID)
	}
	if t.Status != models.TableFree {
		return models.Bill{}, fmt.Errorf("%w: table already has an active bill", core.ErrConflict)
	}
	for _, b := range s.bills {
		if b.TableID == tableID && b.Status.Active() {
			return models.Bill{}, fmt.Errorf("%w: table already has an active bill", core.ErrConflict)
		}
	}

	bill := &models.Bill{
		ID:          s.id(),
		TableID:     tableID,
		TableNumber: t.Number,
		Status:      models.BillOpen,
		CreatedAt:   time.Now(),
	}
	s.bills[bill.ID] = bill
	t.Status = models.TableOccupied
	t.BillID = &bill.ID
	return *bill, nil
}

func (s *memStore) billByID(id int) (models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok {
		return models.Bill{}, fmt.Errorf("%w: bill %d", core.ErrNotFound, id)
	}
	return *b, nil
}

func (s *memStore) GetActiveByTable(_ context.Context, tableID int) (models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.activeBillLocked(tableID)
	if b == nil {
		return models.Bill{}, fmt.Errorf("%w: no active bill for table %d", core.ErrNotFound, tableID)
	}
	return *b, nil
}

func (s *memStore) activeBillLocked(tableID int) *models.Bill {
	for _, b := range s.bills {
		if b.TableID == tableID && b.Status.Active() {
			return b
		}
	}
	return nil
}

func (s *memStore) Finalize(_ context.Context, tableID, finalizedBy int) (models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.activeBillLocked(tableID)
	if b == nil {
		return models.Bill{}, fmt.Errorf("%w: no active bill for table %d", core.ErrNotFound, tableID)
	}
	total, paid := s.balanceLocked(b.ID)
	if total-paid > 0 {
		return models.Bill{}, fmt.Errorf("%w: bill is not fully paid, remaining balance is %d",
			core.ErrInvalidState, total-paid)
	}
	b.Status = models.BillPaid
	b.FinalizedBy = &finalizedBy

	t := s.tables[tableID]
	t.Status = models.TableFree
	t.BillID = nil
	return *b, nil
}

func (s *memStore) CreatePartialPayment(_ context.Context, payment models.PartialPayment) (models.PartialPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[payment.BillID]
	if !ok {
		return models.PartialPayment{}, fmt.Errorf("%w: bill %d", core.ErrNotFound, payment.BillID)
	}
	if !b.Status.Active() {
		return models.PartialPayment{}, fmt.Errorf("%w: bill is not open for payments", core.ErrInvalidState)
	}

	total, paid := s.balanceLocked(b.ID)
	if payment.AmountCents > total-paid {
		return models.PartialPayment{}, fmt.Errorf("%w: amount exceeds remaining balance", core.ErrOverpayment)
	}

	payment.ID = s.id()
	payment.Status = models.PaymentPaid
	payment.CreatedAt = time.Now()
	stored := payment
	s.payments[payment.ID] = &stored

	if b.Status == models.BillOpen {
		b.Status = models.BillPartiallyPaid
	}
	return payment, nil
}

func (s *memStore) balanceLocked(billID int) (total, paid int64) {
	for _, o := range s.orders {
		if o.BillID != billID || o.Status == models.OrderCanceled {
			continue
		}
		for _, it := range o.Items {
			if it.Status == models.UnitCanceled {
				continue
			}
			total += it.Total()
		}
	}
	for _, p := range s.payments {
		if p.BillID == billID && p.Status == models.PaymentPaid {
			paid += p.AmountCents
		}
	}
	return total, paid
}

func (s *memStore) CancelPartialPayment(_ context.Context, paymentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return fmt.Errorf("%w: payment %d", core.ErrNotFound, paymentID)
	}
	if p.Status != models.PaymentPaid {
		return fmt.Errorf("%w: payment is already canceled", core.ErrInvalidState)
	}
	p.Status = models.PaymentCanceled
	return nil
}

func (s *memStore) ListPartialPayments(_ context.Context, tableID int) ([]models.PartialPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.activeBillLocked(tableID)
	if b == nil {
		return []models.PartialPayment{}, nil
	}
	out := make([]models.PartialPayment, 0)
	for _, p := range s.payments {
		if p.BillID == b.ID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetPartialPayment(_ context.Context, paymentID int) (models.PartialPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return models.PartialPayment{}, fmt.Errorf("%w: payment %d", core.ErrNotFound, paymentID)
	}
	return *p, nil
}

// IOrderRepo

func (s *memStore) Create(_ context.Context, order models.Order) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[order.BillID]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: bill %d", core.ErrNotFound, order.BillID)
	}
	if !b.Status.Active() {
		return models.Order{}, fmt.Errorf("%w: bill is not open for orders", core.ErrInvalidState)
	}

	order.ID = s.id()
	order.Status = models.OrderPending
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = s.id()
		order.Items[i].OrderID = order.ID
		order.Items[i].Status = models.UnitPending
		units := make([]models.ItemUnitStatus, order.Items[i].Count)
		for u := range units {
			units[u] = models.ItemUnitStatus{UnitIndex: u, Status: models.UnitPending, UpdatedAt: order.CreatedAt}
		}
		order.Items[i].Units = units
	}

	stored := copyOrder(order)
	s.orders[order.ID] = &stored
	return copyOrder(order), nil
}

func (s *memStore) orderByID(orderID int) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: order %d", core.ErrNotFound, orderID)
	}
	return copyOrder(*o), nil
}

func (s *memStore) ListByBill(_ context.Context, billID int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if o.BillID == billID {
			out = append(out, copyOrder(*o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListActiveKitchen(_ context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if hasActiveUnits(o) {
			out = append(out, copyOrder(*o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListDeliveredKitchen(_ context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if o.Status == models.OrderDelivered {
			out = append(out, copyOrder(*o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func hasActiveUnits(o *models.Order) bool {
	for _, it := range o.Items {
		for _, u := range it.Units {
			if u.Status != models.UnitDelivered && u.Status != models.UnitCanceled {
				return true
			}
		}
	}
	return false
}

func (s *memStore) UpdateUnitStatus(_ context.Context, orderID, itemID, unitIndex int, status models.ItemStatus, actor string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: order %d", core.ErrNotFound, orderID)
	}
	var item *models.OrderItem
	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			item = &o.Items[i]
			break
		}
	}
	if item == nil {
		return models.Order{}, fmt.Errorf("%w: item %d in order %d", core.ErrNotFound, itemID, orderID)
	}
	if unitIndex >= len(item.Units) {
		return models.Order{}, fmt.Errorf("%w: unit %d of item %d", core.ErrNotFound, unitIndex, itemID)
	}

	unit := &item.Units[unitIndex]
	if !unit.Status.CanTransitionTo(status) {
		return models.Order{}, fmt.Errorf("%w: unit is %s and cannot become %s", core.ErrInvalidState, unit.Status, status)
	}
	unit.Status = status
	unit.UpdatedBy = actor
	unit.UpdatedAt = time.Now()

	s.rollupLocked(o)
	return copyOrder(*o), nil
}

func (s *memStore) MarkItemDelivered(_ context.Context, orderID, itemID int, actor string) (models.Order, error) {
	return s.bulkDeliver(orderID, &itemID, actor)
}

func (s *memStore) MarkOrderDelivered(_ context.Context, orderID int, actor string) (models.Order, error) {
	return s.bulkDeliver(orderID, nil, actor)
}

func (s *memStore) bulkDeliver(orderID int, itemID *int, actor string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: order %d", core.ErrNotFound, orderID)
	}

	found := itemID == nil
	for i := range o.Items {
		if itemID != nil && o.Items[i].ItemID != *itemID {
			continue
		}
		found = true
		for u := range o.Items[i].Units {
			unit := &o.Items[i].Units[u]
			if unit.Status.Terminal() {
				continue
			}
			unit.Status = models.UnitDelivered
			unit.UpdatedBy = actor
			unit.UpdatedAt = time.Now()
		}
	}
	if !found {
		return models.Order{}, fmt.Errorf("%w: item %d in order %d", core.ErrNotFound, *itemID, orderID)
	}

	s.rollupLocked(o)
	return copyOrder(*o), nil
}

func (s *memStore) rollupLocked(o *models.Order) {
	for i := range o.Items {
		o.Items[i].Status = models.RollupUnits(o.Items[i].Units)
	}
	o.Status = models.RollupItems(o.Items)
	o.UpdatedAt = time.Now()
}

// IMenuRepo

func (s *memStore) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MenuItem, 0, len(s.menu))
	for _, m := range s.menu {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetByIDs(_ context.Context, ids []int) (map[int]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]models.MenuItem, len(ids))
	for _, id := range ids {
		if m, ok := s.menu[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

// fakeBroadcaster records every published snapshot so tests can assert on
// what observers would have seen.
type fakeBroadcaster struct {
	mu      sync.Mutex
	kitchen [][]models.Order
	tables  map[int][][]models.Order
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{tables: make(map[int][][]models.Order)}
}

func (b *fakeBroadcaster) PublishKitchen(orders []models.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kitchen = append(b.kitchen, orders)
}

func (b *fakeBroadcaster) PublishTable(tableNumber int, orders []models.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables[tableNumber] = append(b.tables[tableNumber], orders)
}

func (b *fakeBroadcaster) lastTable(tableNumber int) ([]models.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	snaps := b.tables[tableNumber]
	if len(snaps) == 0 {
		return nil, false
	}
	return snaps[len(snaps)-1], true
}

func (b *fakeBroadcaster) kitchenPublishes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.kitchen)
}

// repo interface adapters: memStore has clashing method names across repos,
// so each repo facet is a thin wrapper.
type memBills struct{ *memStore }

func (m memBills) GetByID(ctx context.Context, id int) (models.Bill, error) {
	return m.billByID(id)
}

type memOrders struct{ *memStore }

func (m memOrders) GetByID(ctx context.Context, orderID int) (models.Order, error) {
	return m.orderByID(orderID)
}

type memMenu struct{ *memStore }

func (m memMenu) List(ctx context.Context) ([]models.MenuItem, error) {
	return m.ListMenu(ctx)
}

// fixture wires every service over one shared store.
type fixture struct {
	store *memStore
	cast  *fakeBroadcaster

	tables  *TableService
	orders  *OrderService
	billing *BillingService
	kitchen *KitchenService
}

func newFixture(tableCount int, menu ...models.MenuItem) *fixture {
	store := newMemStore(tableCount, menu...)
	cast := newFakeBroadcaster()
	nop := mylogger.Nop()

	bills := memBills{store}
	orders := memOrders{store}
	menuRepo := memMenu{store}

	return &fixture{
		store:   store,
		cast:    cast,
		tables:  NewTableService(store, bills, orders, cast, nop),
		orders:  NewOrderService(orders, bills, menuRepo, cast, nop),
		billing: NewBillingService(bills, orders, store, cast, nop),
		kitchen: NewKitchenService(orders, cast, nop),
	}
}

var _ core.ITableRepo = (*memStore)(nil)
var _ core.IBillRepo = memBills{}
var _ core.IOrderRepo = memOrders{}
var _ core.IMenuRepo = memMenu{}
var _ core.IBroadcaster = (*fakeBroadcaster)(nil)
