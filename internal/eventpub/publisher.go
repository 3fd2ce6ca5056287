// Package eventpub publishes committed ledger operations to a message broker.
package eventpub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/go-petr/ledger-bank/internal/domain"
)

// channel is the part of *amqp.Channel used to publish events.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends operation events to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
}

// Dial connects to the broker and declares a durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()

		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	p := newPublisher(ch, exchange)
	p.conn = conn

	return p, nil
}

func newPublisher(ch channel, exchange string) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
	}
}

// RoutingKey returns the routing key of events for the operation type.
func RoutingKey(t domain.OperationType) string {
	return "operation." + strings.ToLower(string(t))
}

// Notify publishes one persistent message per operation.
//
// Every operation is attempted and the failures are joined.
func (p *Publisher) Notify(ctx context.Context, ops ...domain.Operation) error {
	l := zerolog.Ctx(ctx)

	var errs []error

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		body, err := json.Marshal(op)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to marshal operation %d: %w", op.ID, err))
			continue
		}

		key := RoutingKey(op.Type)

		p.mu.Lock()
		err = p.ch.Publish(
			p.exchange, // exchange
			key,        // routing key
			false,      // mandatory
			false,      // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    fmt.Sprintf("%d", op.ID),
				Timestamp:    op.CreatedAt,
				Body:         body,
			})
		p.mu.Unlock()

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to publish operation %d: %w", op.ID, err))
			continue
		}

		l.Debug().Int64("operation_id", op.ID).Str("routing_key", key).Msg("operation published")
	}

	return errors.Join(errs...)
}

// Close closes the channel and the broker connection.
func (p *Publisher) Close() error {
	err := p.ch.Close()

	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// Nop discards every operation.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, ...domain.Operation) error {
	return nil
}
