package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/autovisite/reportsvc/internal/observability/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Decision is the handler's verdict on a delivery.
type Decision int

const (
	// Ack removes the message from the queue.
	Ack Decision = iota
	// RequeueNack puts the message back for redelivery.
	RequeueNack
)

// Handler processes one decoded envelope.
type Handler func(ctx context.Context, env events.Envelope) Decision

// Subscribe consumes a queue in its own goroutine. Messages are handled
// serially. The consume loop survives reconnects: when the delivery channel
// closes it picks up the fresh channel handle and re-subscribes.
func (c *Client) Subscribe(queue string, handler Handler) {
	go c.consume(queue, handler)
}

func (c *Client) consume(queue string, handler Handler) {
	log := c.log.With(zap.String("queue", queue))
	for {
		select {
		case <-c.done:
			return
		default:
		}

		ch := c.Channel()
		if ch == nil {
			time.Sleep(c.cfg.ReconnectDelay)
			continue
		}

		deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
		if err != nil {
			if c.closing.Load() {
				return
			}
			log.Warn("consume failed, retrying", zap.Error(err))
			time.Sleep(c.cfg.ReconnectDelay)
			continue
		}
		log.Info("consuming")

		for d := range deliveries {
			if c.closing.Load() {
				// Unacked deliveries go back to the queue on close.
				return
			}
			c.inflight.Add(1)
			c.handleDelivery(log, queue, d, handler)
			c.inflight.Done()
		}

		// Delivery channel closed: either shutdown or connection loss.
		if c.closing.Load() {
			return
		}
		log.Warn("delivery channel closed, re-subscribing")
	}
}

func (c *Client) handleDelivery(log *zap.Logger, queue string, d amqp.Delivery, handler Handler) {
	var env events.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		// Malformed payloads keep getting redelivered; surface
		// the redelivered flag so operators can spot the loop.
		log.Warn("malformed message requeued",
			zap.Error(err),
			zap.Bool("redelivered", d.Redelivered),
		)
		_ = d.Nack(false, true)
		c.metrics.ObserveEventConsumed(queue, metrics.OutcomeRequeued)
		return
	}

	switch handler(context.Background(), env) {
	case Ack:
		_ = d.Ack(false)
		c.metrics.ObserveEventConsumed(queue, metrics.OutcomeAcked)
	case RequeueNack:
		if d.Redelivered {
			log.Warn("redelivered message requeued again",
				zap.String("event", env.Event),
			)
		}
		_ = d.Nack(false, true)
		c.metrics.ObserveEventConsumed(queue, metrics.OutcomeRequeued)
	}
}
