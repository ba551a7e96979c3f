package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

// TopicKitchen feeds the kitchen display with every active order.
const TopicKitchen = "kitchen"

// TableTopic names the per-table order queue feed.
func TableTopic(number int) string {
	return fmt.Sprintf("table.%d", number)
}

// Mirror forwards published deltas to an external broker so out-of-process
// displays can follow along. Mirror failures never reach subscribers.
type Mirror interface {
	PublishEvent(ctx context.Context, topic string, ev Event) error
}

// Subscription is one observer's view of a topic. C yields connected, an
// initial snapshot, then incremental updates and heartbeats until Close.
type Subscription struct {
	C <-chan Event

	hub   *Hub
	topic string
	id    int
	once  sync.Once
}

// Close unregisters the subscription and releases its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s.topic, s.id)
	})
}

// Hub is the in-process change distributor: a registry of per-topic
// subscriber channels. Sends are non-blocking; a subscriber that stops
// draining loses events instead of stalling publishers.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan Event
	nextID int
	buffer int
	mirror Mirror
	mylog  mylogger.Logger
}

func New(mylog mylogger.Logger, buffer int) *Hub {
	if buffer < 4 {
		buffer = 4
	}
	return &Hub{
		subs:   make(map[string]map[int]chan Event),
		buffer: buffer,
		mylog:  mylog,
	}
}

// SetMirror attaches an external fan-out target. Must be called before the
// hub starts publishing.
func (h *Hub) SetMirror(m Mirror) {
	h.mirror = m
}

// Subscribe registers an observer on a topic. The loaded snapshot is queued
// as the first orders_update so a new client starts from full current state.
// load runs under the hub lock: an update committed while the snapshot is
// being read blocks in broadcast and lands in the channel after it, so no
// delta is ever lost between the read and the registration. load must not
// call back into the hub.
func (h *Hub) Subscribe(topic string, load func() ([]models.Order, error)) (*Subscription, error) {
	ch := make(chan Event, h.buffer)
	ch <- newEvent(EventConnected)

	h.mu.Lock()
	snapshot, err := load()
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}
	ch <- ordersEvent(snapshot)
	h.nextID++
	id := h.nextID
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan Event)
	}
	h.subs[topic][id] = ch
	h.mu.Unlock()

	h.mylog.Action("subscriber_added").Debug("Subscriber registered", "topic", topic, "subscriber_id", id)
	return &Subscription{C: ch, hub: h, topic: topic, id: id}, nil
}

func (h *Hub) unsubscribe(topic string, id int) {
	h.mu.Lock()
	ch, ok := h.subs[topic][id]
	if ok {
		delete(h.subs[topic], id)
		if len(h.subs[topic]) == 0 {
			delete(h.subs, topic)
		}
	}
	h.mu.Unlock()

	if ok {
		close(ch)
		h.mylog.Action("subscriber_removed").Debug("Subscriber unregistered", "topic", topic, "subscriber_id", id)
	}
}

// Publish pushes a fresh order snapshot to every subscriber of the topic and
// mirrors it to the broker when one is attached.
func (h *Hub) Publish(topic string, orders []models.Order) {
	h.broadcast(topic, ordersEvent(orders))
}

// PublishKitchen pushes a fresh snapshot to the kitchen feed.
func (h *Hub) PublishKitchen(orders []models.Order) {
	h.Publish(TopicKitchen, orders)
}

// PublishTable pushes a fresh snapshot to one table's queue feed.
func (h *Hub) PublishTable(number int, orders []models.Order) {
	h.Publish(TableTopic(number), orders)
}

// PublishError pushes a recoverable error event to the topic's subscribers.
func (h *Hub) PublishError(topic, message string) {
	ev := newEvent(EventError)
	ev.Message = message
	h.broadcast(topic, ev)
}

func (h *Hub) broadcast(topic string, ev Event) {
	h.mu.Lock()
	dropped := 0
	for _, ch := range h.subs[topic] {
		select {
		case ch <- ev:
		default:
			// Best effort: a stalled subscriber loses this event rather
			// than blocking the mutation that produced it.
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		h.mylog.Action("event_dropped").Warn("Dropped event for slow subscribers", "topic", topic, "count", dropped)
	}

	if h.mirror != nil && ev.Type == EventOrdersUpdate {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.mirror.PublishEvent(ctx, topic, ev); err != nil {
				h.mylog.Action("mirror_publish_failed").Error("Failed to mirror event to broker", err, "topic", topic)
			}
		}()
	}
}

// Run emits heartbeats to every subscriber until the context is canceled, so
// consumers can tell a quiet stream from a dead one.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.heartbeat()
		}
	}
}

func (h *Hub) heartbeat() {
	ev := newEvent(EventHeartbeat)
	h.mu.Lock()
	for _, topicSubs := range h.subs {
		for _, ch := range topicSubs {
			select {
			case ch <- ev:
			default:
			}
		}
	}
	h.mu.Unlock()
}

// SubscriberCount reports how many observers a topic currently has.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}
