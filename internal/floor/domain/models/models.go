package models

import "time"

// Table is one physical table on the floor. BillID points at the active bill
// while the table is occupied; it is nil for a free table.
type Table struct {
	ID        int         `json:"id"`
	Number    int         `json:"number"`
	Status    TableStatus `json:"status"`
	BillID    *int        `json:"bill_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Bill is the running tab for one table-occupancy period.
type Bill struct {
	ID          int        `json:"id"`
	TableID     int        `json:"table_id"`
	TableNumber int        `json:"table_number"`
	Status      BillStatus `json:"status"`
	Orders      []Order    `json:"orders,omitempty"`
	FinalizedBy *int       `json:"finalized_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Order is one submitted batch of items within a bill. TableNumber is carried
// redundantly for display.
type Order struct {
	ID          int         `json:"id"`
	BillID      int         `json:"bill_id"`
	TableNumber int         `json:"table_number"`
	UserName    string      `json:"user_name"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order. Each line expands into Count units, each
// tracked independently by the kitchen. PriceCents is captured from the menu
// at order time.
type OrderItem struct {
	ID          int              `json:"id"`
	OrderID     int              `json:"order_id"`
	ItemID      int              `json:"item_id"`
	Name        string           `json:"name"`
	Count       int              `json:"count"`
	PriceCents  int64            `json:"price_cents"`
	Observation string           `json:"observation,omitempty"`
	Status      ItemStatus       `json:"status"`
	Units       []ItemUnitStatus `json:"unit_statuses,omitempty"`
}

// ItemUnitStatus tracks one physical unit of an order item.
type ItemUnitStatus struct {
	UnitIndex int        `json:"unit_index"`
	Status    ItemStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy string     `json:"updated_by,omitempty"`
}

// PartialPayment is a discrete payment applied against a bill. Amounts are
// integer minor units; canceled payments are kept but excluded from balances.
type PartialPayment struct {
	ID          int           `json:"id"`
	BillID      int           `json:"bill_id"`
	TableID     int           `json:"table_id"`
	PaidBy      string        `json:"paid_by"`
	AmountCents int64         `json:"amount_cents"`
	Description string        `json:"description,omitempty"`
	Method      string        `json:"payment_method,omitempty"`
	ReceivedBy  *int          `json:"received_by,omitempty"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// MenuItem is a catalog entry. Prices are resolved from here at order time.
type MenuItem struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Category   string `json:"category,omitempty"`
}

// Total is the line total for the item across all its units.
func (oi OrderItem) Total() int64 {
	return oi.PriceCents * int64(oi.Count)
}
