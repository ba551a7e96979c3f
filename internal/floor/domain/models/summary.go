package models

import (
	"sort"
	"strings"
)

// PaymentSummary is the reconciled view of a bill. Every field is recomputed
// from source orders and payments; nothing here is a trusted cached total.
type PaymentSummary struct {
	TableNumber    int           `json:"table_number"`
	TotalCents     int64         `json:"total_cents"`
	PaidCents      int64         `json:"paid_cents"`
	RemainingCents int64         `json:"remaining_cents"`
	FullyPaid      bool          `json:"fully_paid"`
	LineItems      []SummaryLine `json:"line_items"`
}

// SummaryLine is one display row, merged across orders by menu-item name.
type SummaryLine struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
	TotalCents  int64  `json:"total_cents"`
	Observation string `json:"observation,omitempty"`
}

// Summarize reconciles a bill: total over non-canceled items of non-canceled
// orders, paid over PAID payments, remaining floored at zero. Line items are
// grouped by name with distinct observations joined.
func Summarize(tableNumber int, orders []Order, payments []PartialPayment) PaymentSummary {
	type group struct {
		line SummaryLine
		obs  []string
	}
	groups := make(map[string]*group)
	names := make([]string, 0)

	var total int64
	for _, o := range orders {
		if o.Status == OrderCanceled {
			continue
		}
		for _, it := range o.Items {
			if it.Status == UnitCanceled {
				continue
			}
			total += it.Total()

			g, ok := groups[it.Name]
			if !ok {
				g = &group{line: SummaryLine{Name: it.Name, PriceCents: it.PriceCents}}
				groups[it.Name] = g
				names = append(names, it.Name)
			}
			g.line.Quantity += it.Count
			g.line.TotalCents += it.Total()
			if obs := strings.TrimSpace(it.Observation); obs != "" && !contains(g.obs, obs) {
				g.obs = append(g.obs, obs)
			}
		}
	}

	var paid int64
	for _, p := range payments {
		if p.Status != PaymentPaid {
			continue
		}
		paid += p.AmountCents
	}

	remaining := total - paid
	if remaining < 0 {
		remaining = 0
	}

	sort.Strings(names)
	lines := make([]SummaryLine, 0, len(names))
	for _, name := range names {
		g := groups[name]
		g.line.Observation = strings.Join(g.obs, "; ")
		lines = append(lines, g.line)
	}

	return PaymentSummary{
		TableNumber:    tableNumber,
		TotalCents:     total,
		PaidCents:      paid,
		RemainingCents: remaining,
		FullyPaid:      remaining == 0,
		LineItems:      lines,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
