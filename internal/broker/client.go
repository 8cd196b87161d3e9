package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/autovisite/reportsvc/internal/config"
	"github.com/autovisite/reportsvc/internal/events"
	"github.com/autovisite/reportsvc/internal/observability/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Config configures the broker connection.
type Config struct {
	URL             string
	ConnectAttempts int
	ConnectBackoff  time.Duration
	ReconnectDelay  time.Duration
}

func NewConfig(cfg config.Config) Config {
	return Config{
		URL:             cfg.BrokerURL,
		ConnectAttempts: 10,
		ConnectBackoff:  3 * time.Second,
		ReconnectDelay:  5 * time.Second,
	}
}

// Client owns the AMQP connection and channel. The handle is swapped under a
// mutex on reconnect; callers always go through Channel().
type Client struct {
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Pipeline

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel

	closing  atomic.Bool
	done     chan struct{}
	inflight sync.WaitGroup

	// attempt is swappable for tests.
	attempt func(ctx context.Context) error
}

func New(cfg Config, log *zap.Logger, pipeline *metrics.Pipeline) *Client {
	c := &Client{
		cfg:     cfg,
		log:     log.Named("broker"),
		metrics: pipeline,
		done:    make(chan struct{}),
	}
	c.attempt = c.dialAndSetup
	return c
}

// Connect dials the broker, retrying a bounded number of times before
// giving up. Topology is declared on every successful dial.
func (c *Client) Connect(ctx context.Context) error {
	attempts := c.cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := c.attempt(ctx); err == nil {
			c.log.Info("connected", zap.Int("attempt", i))
			return nil
		} else {
			lastErr = err
			c.log.Warn("connect failed",
				zap.Int("attempt", i),
				zap.Int("max_attempts", attempts),
				zap.Error(err),
			)
		}

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ConnectBackoff):
		}
	}
	return fmt.Errorf("broker unreachable after %d attempts: %w", attempts, lastErr)
}

func (c *Client) dialAndSetup(ctx context.Context) error {
	_ = ctx

	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	// Prefetch 1: handlers process one message at a time per queue.
	if err := ch.Qos(1, 0, false); err != nil {
		_ = conn.Close()
		return err
	}

	if err := declareTopology(ch); err != nil {
		_ = conn.Close()
		return fmt.Errorf("declare topology: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.ch = ch
	c.mu.Unlock()

	go c.watch(conn)
	return nil
}

// watch blocks until the connection drops, then reconnects forever.
func (c *Client) watch(conn *amqp.Connection) {
	errCh := conn.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-c.done:
		return
	case closeErr := <-errCh:
		if c.closing.Load() {
			return
		}
		c.log.Error("connection lost", zap.Error(closeErr))
	}

	for {
		if c.closing.Load() {
			return
		}
		c.metrics.ObserveBrokerReconnect()
		if err := c.attempt(context.Background()); err == nil {
			c.log.Info("reconnected")
			return
		} else {
			c.log.Warn("reconnect failed", zap.Error(err))
		}
		select {
		case <-c.done:
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

// Channel returns the current channel handle, or nil while disconnected.
func (c *Client) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ch
}

// Close stops consumers, waits for the in-flight handler to finish and ack,
// then closes the channel and connection.
func (c *Client) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.inflight.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func declareTopology(ch *amqp.Channel) error {
	for _, exchange := range []string{
		events.ExchangeInspection,
		events.ExchangePayment,
		events.ExchangeReport,
	} {
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}

	for _, queue := range []string{
		events.QueueReportGeneration,
		events.QueueInvoiceCreation,
		events.QueueEmailNotifications,
	} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}

	bindings := []struct {
		queue      string
		routingKey string
		exchange   string
	}{
		{events.QueueReportGeneration, events.InspectionCompleted, events.ExchangeInspection},
		{events.QueueInvoiceCreation, events.PaymentSucceeded, events.ExchangePayment},
	}
	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
