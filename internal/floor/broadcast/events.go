package broadcast

import (
	"time"

	"comanda-api/internal/floor/domain/models"
)

type EventType string

const (
	EventConnected    EventType = "connected"
	EventOrdersUpdate EventType = "orders_update"
	EventHeartbeat    EventType = "heartbeat"
	EventError        EventType = "error"
)

// Event is the tagged union pushed to every subscriber. Orders is set for
// orders_update, Message for error; the other variants carry only the type.
type Event struct {
	Type      EventType      `json:"type"`
	Orders    []models.Order `json:"orders,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func newEvent(t EventType) Event {
	return Event{Type: t, Timestamp: time.Now().UnixMilli()}
}

func ordersEvent(orders []models.Order) Event {
	ev := newEvent(EventOrdersUpdate)
	if orders == nil {
		orders = []models.Order{}
	}
	ev.Orders = orders
	return ev
}
