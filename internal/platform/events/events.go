// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
Package events publishes activity events to a RabbitMQ broker.

Domain services emit events (post created, comment added, like toggled) for
downstream consumers such as notification workers. Publishing is best-effort:
a broker failure is logged and never fails the user-facing request.

The publisher is optional. When no broker is configured, a nil *Publisher is
used and every Publish call is a no-op.
*/
package events

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/streadway/amqp"
)

// queueName is the durable queue activity events are routed to.
const queueName = "pulse_activity"

// Well-known event types emitted by the domain services.
const (
	EventUserRegistered = "user.registered"
	EventPostCreated    = "post.created"
	EventPostLiked      = "post.liked"
	EventCommentAdded   = "comment.added"
)

// Event is the envelope published to the broker.
type Event struct {
	Type       string         `json:"type"`
	ActorID    string         `json:"actor_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Publisher holds the broker connection and channel.
type Publisher struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	logger     *slog.Logger
}

// NewPublisher connects to the broker and declares the activity queue.
//
// # Parameters
//   - amqpURL: AMQP connection URL.
//   - logger: Structured logger for broker events.
func NewPublisher(amqpURL string, logger *slog.Logger) (*Publisher, error) {
	connection, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("events: failed to connect to broker: %w", err)
	}

	channel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("events: failed to open channel: %w", err)
	}

	// Durable queue so events survive broker restarts.
	_, err = channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		_ = channel.Close()
		_ = connection.Close()
		return nil, fmt.Errorf("events: failed to declare queue: %w", err)
	}

	logger.Info("events publisher connected", slog.String("queue", queueName))

	return &Publisher{
		connection: connection,
		channel:    channel,
		logger:     logger,
	}, nil
}

// Publish sends one activity event to the queue. Safe on a nil receiver.
func (publisher *Publisher) Publish(context stdctx.Context, eventType string, actorID string, payload map[string]any) {
	if publisher == nil {
		return
	}

	event := Event{
		Type:       eventType,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		publisher.logger.Error("event_marshal_failed",
			slog.String("event_type", eventType),
			slog.Any("error", err),
		)
		return
	}

	err = publisher.channel.Publish("", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
	})
	if err != nil {
		// Best-effort delivery. The request that triggered the event succeeds
		// regardless of broker health.
		publisher.logger.Error("event_publish_failed",
			slog.String("event_type", eventType),
			slog.Any("error", err),
		)
	}
}

// Close releases the channel and connection. Safe on a nil receiver.
func (publisher *Publisher) Close() {
	if publisher == nil {
		return
	}
	if publisher.channel != nil {
		_ = publisher.channel.Close()
	}
	if publisher.connection != nil {
		_ = publisher.connection.Close()
	}
}
