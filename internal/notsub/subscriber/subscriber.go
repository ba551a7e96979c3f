package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	brokermessage "comanda-api/internal/floor/adapter/broker_message"
	"comanda-api/internal/mylogger"
	"comanda-api/internal/notsub/notifier"
	"comanda-api/internal/xpkg/config"
)

// Subscriber follows the floor_events fanout exchange and renders each delta
// as a console notification. Stream failures are recoverable: the consume
// loop is restarted after a fixed backoff until the context is canceled.
type Subscriber struct {
	cfg      *config.Config
	mylog    mylogger.Logger
	notifier *notifier.Notifier
}

func New(cfg *config.Config, mylog mylogger.Logger) *Subscriber {
	return &Subscriber{
		cfg:      cfg,
		mylog:    mylog,
		notifier: notifier.New(mylog),
	}
}

// Start consumes until the context is canceled. Every exit from the inner
// consume loop other than cancellation schedules a resubscribe after the
// configured backoff; canceling the context drops any pending retry.
func (s *Subscriber) Start(ctx context.Context) error {
	backoff := s.cfg.Events.Reconnect()

	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			s.mylog.Action("subscriber_stopped").Info("Subscriber stopped")
			return nil
		}
		s.mylog.Action("stream_interrupted").Error("Event stream interrupted, reconnecting", err,
			"backoff_seconds", int(backoff.Seconds()))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
	}
}

func (s *Subscriber) consume(ctx context.Context) error {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/%s",
		s.cfg.RMQ.User, s.cfg.RMQ.Password, s.cfg.RMQ.Host, s.cfg.RMQ.Port, s.cfg.RMQ.VHost)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	err = channel.ExchangeDeclare(
		brokermessage.ExchangeName, // name
		"fanout",                   // type
		true,                       // durable
		false,                      // auto-deleted
		false,                      // internal
		false,                      // no-wait
		nil,                        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := channel.QueueDeclare(
		"",    // name (let server generate)
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		q.Name,                     // queue name
		"",                         // routing key
		brokermessage.ExchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	messages, err := channel.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	s.mylog.Action("subscriber_started").Info("Subscribed to floor events", "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			if err := s.processMessage(msg.Body); err != nil {
				s.mylog.Action("process_failed").Error("Failed to process message", err)
			}
		}
	}
}

func (s *Subscriber) processMessage(body []byte) error {
	var envelope brokermessage.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse event envelope: %w", err)
	}
	s.notifier.Display(envelope.Topic, envelope.Event)
	return nil
}
