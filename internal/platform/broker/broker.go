// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package broker publishes account domain events to RabbitMQ.

Events are JSON bodies on a durable queue, delivered with persistent mode so
they survive a broker restart. Callers treat a publish failure as non-fatal:
the state change it describes has already been committed.

Usage:

	publisher, err := broker.Dial(cfg.AMQPURL, cfg.AMQPQueue, logger)
	defer publisher.Close()
	_ = publisher.Publish(ctx, broker.NewEvent("user.registered", payload))
*/
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// # Events

// Event is the envelope written to the queue.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// NewEvent stamps an event of the given type with the current UTC time.
func NewEvent(eventType string, payload any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher is implemented by every event sink.
type Publisher interface {
	Publish(context context.Context, event Event) error
	Close() error
}

// # No-op Sink

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// # RabbitMQ Sink

// AMQPPublisher publishes to a single durable queue over one long-lived
// connection. The channel is re-opened lazily after a failure.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *slog.Logger

	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
}

// Dial connects to the broker and declares the queue.
func Dial(url, queue string, logger *slog.Logger) (*AMQPPublisher, error) {
	publisher := &AMQPPublisher{url: url, queue: queue, logger: logger}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	if err := publisher.connectLocked(); err != nil {
		return nil, err
	}

	logger.Info("amqp publisher connected", slog.String("queue", queue))
	return publisher, nil
}

func (publisher *AMQPPublisher) connectLocked() error {
	if publisher.connection == nil || publisher.connection.IsClosed() {
		connection, err := amqp.Dial(publisher.url)
		if err != nil {
			return fmt.Errorf("broker: dial failed: %w", err)
		}
		publisher.connection = connection
	}

	channel, err := publisher.connection.Channel()
	if err != nil {
		return fmt.Errorf("broker: channel open failed: %w", err)
	}

	if _, err := channel.QueueDeclare(
		publisher.queue, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	); err != nil {
		_ = channel.Close()
		return fmt.Errorf("broker: queue declare failed: %w", err)
	}

	publisher.channel = channel
	return nil
}

// Publish implements Publisher.
func (publisher *AMQPPublisher) Publish(context context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("broker: marshal event failed: %w", err)
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	if publisher.channel == nil || publisher.channel.IsClosed() {
		if err := publisher.connectLocked(); err != nil {
			return err
		}
	}

	message := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	}

	if err := publisher.channel.PublishWithContext(context,
		"",              // default exchange
		publisher.queue, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		message,
	); err != nil {
		return fmt.Errorf("broker: publish failed: %w", err)
	}

	return nil
}

// Close releases the channel and connection.
func (publisher *AMQPPublisher) Close() error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	if publisher.channel != nil {
		_ = publisher.channel.Close()
	}
	if publisher.connection != nil && !publisher.connection.IsClosed() {
		return publisher.connection.Close()
	}
	return nil
}
