package brokermessage

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/broadcast"
	"comanda-api/internal/mylogger"
	"comanda-api/internal/xpkg/config"
)

// ExchangeName is the durable fanout exchange every committed delta is
// mirrored to for out-of-process consumers.
const ExchangeName = "floor_events"

// Envelope wraps a hub event with its topic for broker transport; a fanout
// exchange has no routing key to carry it.
type Envelope struct {
	Topic string          `json:"topic"`
	Event broadcast.Event `json:"event"`
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mylog   mylogger.Logger
}

// New dials the broker and declares the fanout exchange.
func New(cfg config.RabbitMQ, mylog mylogger.Logger) (*RabbitMQ, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMBConn, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrMBConn, err)
	}

	err = channel.ExchangeDeclare(
		ExchangeName, // name
		"fanout",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrMBConn, err)
	}

	mylog.Action("mb_connected").Info("Connected to RabbitMQ", "exchange", ExchangeName)
	return &RabbitMQ{
		conn:    conn,
		channel: channel,
		mylog:   mylog,
	}, nil
}

// PublishEvent mirrors one hub event onto the fanout exchange.
func (r *RabbitMQ) PublishEvent(ctx context.Context, topic string, ev broadcast.Event) error {
	body, err := json.Marshal(Envelope{Topic: topic, Event: ev})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return r.channel.PublishWithContext(ctx,
		ExchangeName, // exchange
		"",           // routing key (fanout ignores it)
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
