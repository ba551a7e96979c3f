package models

import "testing"

func orderWith(items ...OrderItem) Order {
	return Order{Status: OrderPending, Items: items}
}

func paid(amount int64) PartialPayment {
	return PartialPayment{AmountCents: amount, Status: PaymentPaid}
}

func TestSummarizeTotals(t *testing.T) {
	t.Parallel()

	orders := []Order{
		orderWith(
			OrderItem{Name: "Pizza", Count: 2, PriceCents: 3500, Status: UnitPending},
			OrderItem{Name: "Soda", Count: 3, PriceCents: 1000, Status: UnitDelivered},
		),
	}

	sum := Summarize(7, orders, []PartialPayment{paid(4000)})

	if sum.TableNumber != 7 {
		t.Fatalf("table number = %d", sum.TableNumber)
	}
	if sum.TotalCents != 10000 {
		t.Fatalf("total = %d, want 10000", sum.TotalCents)
	}
	if sum.PaidCents != 4000 {
		t.Fatalf("paid = %d, want 4000", sum.PaidCents)
	}
	if sum.RemainingCents != 6000 {
		t.Fatalf("remaining = %d, want 6000", sum.RemainingCents)
	}
	if sum.FullyPaid {
		t.Fatal("bill with a remaining balance reported fully paid")
	}
	if got := sum.PaidCents + sum.RemainingCents; got != sum.TotalCents {
		t.Fatalf("paid+remaining = %d, total = %d", got, sum.TotalCents)
	}
}

func TestSummarizeCanceledExcluded(t *testing.T) {
	t.Parallel()

	orders := []Order{
		orderWith(
			OrderItem{Name: "Pizza", Count: 1, PriceCents: 3500, Status: UnitPending},
			OrderItem{Name: "Burger", Count: 2, PriceCents: 2000, Status: UnitCanceled},
		),
		{
			Status: OrderCanceled,
			Items:  []OrderItem{{Name: "Soda", Count: 5, PriceCents: 1000, Status: UnitPending}},
		},
	}
	payments := []PartialPayment{
		paid(1000),
		{AmountCents: 9000, Status: PaymentCanceled},
	}

	sum := Summarize(1, orders, payments)

	if sum.TotalCents != 3500 {
		t.Fatalf("total = %d, want 3500 (canceled items and orders excluded)", sum.TotalCents)
	}
	if sum.PaidCents != 1000 {
		t.Fatalf("paid = %d, want 1000 (canceled payments excluded)", sum.PaidCents)
	}
	if sum.RemainingCents != 2500 {
		t.Fatalf("remaining = %d, want 2500", sum.RemainingCents)
	}
	if len(sum.LineItems) != 1 || sum.LineItems[0].Name != "Pizza" {
		t.Fatalf("line items = %+v, want just Pizza", sum.LineItems)
	}
}

func TestSummarizeCancelingPaymentRestoresBalance(t *testing.T) {
	t.Parallel()

	orders := []Order{
		orderWith(OrderItem{Name: "Pizza", Count: 2, PriceCents: 5000, Status: UnitPending}),
	}
	payments := []PartialPayment{paid(4000), paid(6000)}

	sum := Summarize(2, orders, payments)
	if !sum.FullyPaid || sum.RemainingCents != 0 {
		t.Fatalf("expected fully paid, got remaining=%d", sum.RemainingCents)
	}

	payments[1].Status = PaymentCanceled
	sum = Summarize(2, orders, payments)
	if sum.FullyPaid {
		t.Fatal("canceled payment still counted toward balance")
	}
	if sum.RemainingCents != 6000 {
		t.Fatalf("remaining = %d, want 6000 after cancellation", sum.RemainingCents)
	}
}

func TestSummarizeRemainingFloorsAtZero(t *testing.T) {
	t.Parallel()

	orders := []Order{
		orderWith(OrderItem{Name: "Soda", Count: 1, PriceCents: 1000, Status: UnitDelivered}),
	}

	sum := Summarize(3, orders, []PartialPayment{paid(1500)})
	if sum.RemainingCents != 0 {
		t.Fatalf("remaining = %d, want 0", sum.RemainingCents)
	}
	if !sum.FullyPaid {
		t.Fatal("expected fully paid")
	}
}

func TestSummarizeGroupsLinesByName(t *testing.T) {
	t.Parallel()

	orders := []Order{
		orderWith(OrderItem{Name: "Pizza", Count: 1, PriceCents: 3500, Status: UnitPending, Observation: "no onions"}),
		orderWith(
			OrderItem{Name: "Pizza", Count: 2, PriceCents: 3500, Status: UnitPending, Observation: "extra cheese"},
			OrderItem{Name: "Soda", Count: 1, PriceCents: 1000, Status: UnitPending},
		),
	}

	sum := Summarize(4, orders, nil)

	if len(sum.LineItems) != 2 {
		t.Fatalf("line items = %d, want 2", len(sum.LineItems))
	}
	pizza := sum.LineItems[0]
	if pizza.Name != "Pizza" {
		t.Fatalf("lines not sorted by name: %+v", sum.LineItems)
	}
	if pizza.Quantity != 3 || pizza.TotalCents != 10500 {
		t.Fatalf("pizza line = %+v, want quantity 3 total 10500", pizza)
	}
	if pizza.Observation != "no onions; extra cheese" {
		t.Fatalf("observation = %q", pizza.Observation)
	}
	if sum.TotalCents != 11500 {
		t.Fatalf("total = %d, want 11500", sum.TotalCents)
	}
}

func TestOrderItemTotal(t *testing.T) {
	t.Parallel()

	item := OrderItem{Count: 3, PriceCents: 2599}
	if got := item.Total(); got != 7797 {
		t.Fatalf("Total() = %d, want 7797", got)
	}
}
