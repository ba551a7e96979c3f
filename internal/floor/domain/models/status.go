package models

import "fmt"

type TableStatus string

const (
	TableFree      TableStatus = "FREE"
	TableOccupied  TableStatus = "OCCUPIED"
	TableOnPayment TableStatus = "ON_PAYMENT"
)

type BillStatus string

const (
	BillOpen          BillStatus = "OPEN"
	BillPartiallyPaid BillStatus = "PARTIALLY_PAID"
	BillPaid          BillStatus = "PAID"
	BillCanceled      BillStatus = "CANCELED"
)

// Active reports whether the bill still accepts orders and payments.
func (s BillStatus) Active() bool {
	return s == BillOpen || s == BillPartiallyPaid
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCanceled  OrderStatus = "CANCELED"
)

// ItemStatus is the per-unit kitchen status. The whole-item and whole-order
// statuses are always derived from unit statuses, never written directly.
type ItemStatus string

const (
	UnitPending      ItemStatus = "PENDING"
	UnitInProduction ItemStatus = "IN_PRODUCTION"
	UnitCompleted    ItemStatus = "COMPLETED"
	UnitDelivered    ItemStatus = "DELIVERED"
	UnitCanceled     ItemStatus = "CANCELED"
)

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "PAID"
	PaymentCanceled PaymentStatus = "CANCELED"
)

// unitRank orders the production chain for rollup purposes. Terminal CANCELED
// has no rank; canceled units are excluded from rollups.
var unitRank = map[ItemStatus]int{
	UnitPending:      0,
	UnitInProduction: 1,
	UnitCompleted:    2,
	UnitDelivered:    3,
}

func ParseItemStatus(s string) (ItemStatus, error) {
	switch ItemStatus(s) {
	case UnitPending, UnitInProduction, UnitCompleted, UnitDelivered, UnitCanceled:
		return ItemStatus(s), nil
	}
	return "", fmt.Errorf("unknown item status %q", s)
}

// Terminal reports whether no further transition may leave the status.
func (s ItemStatus) Terminal() bool {
	return s == UnitDelivered || s == UnitCanceled
}

// CanTransitionTo validates a unit status change. The production chain runs
// PENDING -> IN_PRODUCTION -> COMPLETED -> DELIVERED and only moves forward;
// steps may be skipped (bulk delivery) and any non-terminal unit may be
// canceled. DELIVERED and CANCELED admit no exit. A mistaken unit is
// corrected by canceling it and ordering a replacement, never by rewinding.
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	if s.Terminal() {
		return false
	}
	if target == UnitCanceled {
		return true
	}
	targetRank, ok := unitRank[target]
	if !ok {
		return false
	}
	return targetRank > unitRank[s]
}

// RollupUnits derives the whole-item status from its unit statuses: CANCELED
// when every unit is canceled, DELIVERED when every non-canceled unit is
// delivered, otherwise the least-complete non-canceled unit status.
func RollupUnits(units []ItemUnitStatus) ItemStatus {
	if len(units) == 0 {
		return UnitPending
	}

	least := -1
	active := 0
	for _, u := range units {
		if u.Status == UnitCanceled {
			continue
		}
		active++
		rank, ok := unitRank[u.Status]
		if !ok {
			rank = 0
		}
		if least == -1 || rank < least {
			least = rank
		}
	}

	if active == 0 {
		return UnitCanceled
	}
	switch least {
	case unitRank[UnitDelivered]:
		return UnitDelivered
	case unitRank[UnitCompleted]:
		return UnitCompleted
	case unitRank[UnitInProduction]:
		return UnitInProduction
	default:
		return UnitPending
	}
}

// RollupItems derives the order status from its items' rolled-up statuses.
// The order is DELIVERED only when every non-canceled item is DELIVERED.
func RollupItems(items []OrderItem) OrderStatus {
	if len(items) == 0 {
		return OrderPending
	}

	active := 0
	delivered := 0
	for _, it := range items {
		if it.Status == UnitCanceled {
			continue
		}
		active++
		if it.Status == UnitDelivered {
			delivered++
		}
	}

	if active == 0 {
		return OrderCanceled
	}
	if delivered == active {
		return OrderDelivered
	}
	return OrderPending
}
