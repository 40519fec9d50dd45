package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Топология фида результатов.
const (
	// ExchangeResults — события выполнения действий.
	ExchangeResults Exchange = "boostgram.results"

	// QueueResultsFeed — очередь для внешних потребителей фида
	// (биллинг, нотификации).
	QueueResultsFeed Queue = "results.feed"

	RoutingKeyResult RoutingKey = "result"
)

// SetupTopology объявляет обменник, очередь и binding фида результатов.
// Идемпотентно: повторный вызов на существующей топологии — no-op.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeResults), // name
			"direct",                // type
			true,                    // durable
			false,                   // auto-deleted
			false,                   // internal
			false,                   // no-wait
			nil,                     // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeResults, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueResultsFeed), // name
			true,                     // durable
			false,                    // delete when unused
			false,                    // exclusive
			false,                    // no-wait
			nil,                      // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueResultsFeed, err)
		}

		err = ch.QueueBind(
			string(QueueResultsFeed),
			string(RoutingKeyResult),
			string(ExchangeResults),
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueResultsFeed, ExchangeResults, err)
		}

		return nil
	})
}
