package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/autovisite/reportsvc/internal/observability/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrNotConnected = errors.New("broker not connected")

// Publisher publishes enveloped events as persistent JSON messages.
type Publisher struct {
	client  *Client
	log     *zap.Logger
	metrics *metrics.Pipeline
}

func NewPublisher(client *Client, log *zap.Logger, pipeline *metrics.Pipeline) *Publisher {
	return &Publisher{
		client:  client,
		log:     log.Named("publisher"),
		metrics: pipeline,
	}
}

// Publish wraps payload in the event envelope and publishes it. The result
// is synchronous; there is no buffering or retry.
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now().UTC()
	body, err := json.Marshal(events.Envelope{
		Event:     routingKey,
		Timestamp: now,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ch := p.client.Channel()
	if ch == nil {
		p.metrics.ObserveEventPublished(exchange, routingKey, metrics.OutcomeError)
		return ErrNotConnected
	}

	err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	})
	if err != nil {
		p.metrics.ObserveEventPublished(exchange, routingKey, metrics.OutcomeError)
		return fmt.Errorf("publish %s to %s: %w", routingKey, exchange, err)
	}

	p.metrics.ObserveEventPublished(exchange, routingKey, metrics.OutcomeOK)
	p.log.Debug("event published",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
	)
	return nil
}

var _ events.Publisher = (*Publisher)(nil)
