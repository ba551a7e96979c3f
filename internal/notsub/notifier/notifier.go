package notifier

import (
	"fmt"
	"time"

	"comanda-api/internal/floor/broadcast"
	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

type Notifier struct {
	mylog mylogger.Logger
}

func New(mylog mylogger.Logger) *Notifier {
	return &Notifier{mylog: mylog}
}

// Display renders one delta on the console.
func (n *Notifier) Display(topic string, ev broadcast.Event) {
	if ev.Type != broadcast.EventOrdersUpdate {
		return
	}

	pending := 0
	delivered := 0
	for _, order := range ev.Orders {
		switch order.Status {
		case models.OrderDelivered:
			delivered++
		case models.OrderPending:
			pending++
		}
	}

	at := time.UnixMilli(ev.Timestamp).Format(time.RFC3339)
	fmt.Printf("[%s] %s: %d orders (%d pending, %d delivered)\n",
		at, topic, len(ev.Orders), pending, delivered)
}
