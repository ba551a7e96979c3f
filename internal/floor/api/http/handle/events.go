package handle

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"comanda-api/internal/floor/app/services"
	"comanda-api/internal/floor/broadcast"
	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

// EventsHandler serves the server-sent event streams. Each connection gets a
// hub subscription seeded with a full snapshot, then receives pushes until
// the client goes away.
type EventsHandler struct {
	hub            *broadcast.Hub
	tableService   *services.TableService
	orderService   *services.OrderService
	kitchenService *services.KitchenService
	mylog          mylogger.Logger
}

func NewEventsHandler(
	hub *broadcast.Hub,
	tableService *services.TableService,
	orderService *services.OrderService,
	kitchenService *services.KitchenService,
	mylog mylogger.Logger,
) *EventsHandler {
	return &EventsHandler{
		hub:            hub,
		tableService:   tableService,
		orderService:   orderService,
		kitchenService: kitchenService,
		mylog:          mylog,
	}
}

// KitchenFeed streams every active order to kitchen displays.
func (eh *EventsHandler) KitchenFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eh.stream(w, r, broadcast.TopicKitchen, func() ([]models.Order, error) {
			return eh.kitchenService.ActiveOrders(r.Context())
		})
	}
}

// TableFeed streams one table's order queue.
func (eh *EventsHandler) TableFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		table, err := eh.tableService.Get(r.Context(), tableID)
		if err != nil {
			serviceError(w, err)
			return
		}

		eh.stream(w, r, broadcast.TableTopic(table.Number), func() ([]models.Order, error) {
			if table.BillID == nil {
				return []models.Order{}, nil
			}
			return eh.orderService.ListByBill(r.Context(), *table.BillID)
		})
	}
}

// stream subscribes before writing any response bytes so a snapshot failure
// still surfaces as a proper error status. The hub runs the loader under its
// lock, closing the window between the snapshot read and the registration.
func (eh *EventsHandler) stream(w http.ResponseWriter, r *http.Request, topic string, load func() ([]models.Order, error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	sub, err := eh.hub.Subscribe(topic, load)
	if err != nil {
		serviceError(w, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	mylog := eh.mylog.Action("sse_stream").With("topic", topic)
	mylog.Debug("SSE connection established")

	for {
		select {
		case <-r.Context().Done():
			mylog.Debug("SSE client disconnected")
			return
		case ev, open := <-sub.C:
			if !open {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				mylog.Debug("SSE write failed, dropping subscriber", "error", err.Error())
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev broadcast.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
