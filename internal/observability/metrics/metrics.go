package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries constant labels applied to every instrument.
type Config struct {
	ServiceName string
	Environment string
}

const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeAcked    = "acked"
	OutcomeRequeued = "requeued"
)

// Pipeline captures document pipeline health signals.
type Pipeline struct {
	eventsPublished    *prometheus.CounterVec
	eventsConsumed     *prometheus.CounterVec
	documentsGenerated *prometheus.CounterVec
	emailsSent         *prometheus.CounterVec
	brokerReconnects   prometheus.Counter
}

var (
	pipelineOnce sync.Once
	pipeline     *Pipeline
)

// PipelineWithConfig returns the singleton pipeline metrics registry using config labels.
func PipelineWithConfig(cfg Config) *Pipeline {
	pipelineOnce.Do(func() {
		pipeline = newPipeline(prometheus.DefaultRegisterer, cfg)
	})
	return pipeline
}

// ResetPipelineForTest resets the pipeline metrics singleton for tests.
func ResetPipelineForTest() {
	pipelineOnce = sync.Once{}
	pipeline = nil
}

func newPipeline(registerer prometheus.Registerer, cfg Config) *Pipeline {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "report-service"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "reportsvc_events_published_total",
		Help:        "Events published to the broker by exchange, routing key and outcome.",
		ConstLabels: constLabels,
	}, []string{"exchange", "routing_key", "outcome"})
	eventsConsumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "reportsvc_events_consumed_total",
		Help:        "Events consumed from queues by outcome.",
		ConstLabels: constLabels,
	}, []string{"queue", "outcome"})
	documentsGenerated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "reportsvc_documents_generated_total",
		Help:        "PDF documents generated by kind and outcome.",
		ConstLabels: constLabels,
	}, []string{"kind", "outcome"})
	emailsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "reportsvc_emails_sent_total",
		Help:        "Emails dispatched by template and outcome.",
		ConstLabels: constLabels,
	}, []string{"template", "outcome"})
	brokerReconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "reportsvc_broker_reconnects_total",
		Help:        "Broker connection losses followed by a reconnect attempt.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		eventsPublished,
		eventsConsumed,
		documentsGenerated,
		emailsSent,
		brokerReconnects,
	)

	return &Pipeline{
		eventsPublished:    eventsPublished,
		eventsConsumed:     eventsConsumed,
		documentsGenerated: documentsGenerated,
		emailsSent:         emailsSent,
		brokerReconnects:   brokerReconnects,
	}
}

// ObserveEventPublished records a publish attempt.
func (p *Pipeline) ObserveEventPublished(exchange, routingKey, outcome string) {
	if p == nil {
		return
	}
	p.eventsPublished.WithLabelValues(exchange, routingKey, outcome).Inc()
}

// ObserveEventConsumed records a consumed delivery by decision.
func (p *Pipeline) ObserveEventConsumed(queue, outcome string) {
	if p == nil {
		return
	}
	p.eventsConsumed.WithLabelValues(queue, outcome).Inc()
}

// ObserveDocumentGenerated records a render attempt by document kind.
func (p *Pipeline) ObserveDocumentGenerated(kind, outcome string) {
	if p == nil {
		return
	}
	p.documentsGenerated.WithLabelValues(kind, outcome).Inc()
}

// ObserveEmailSent records an email dispatch by template.
func (p *Pipeline) ObserveEmailSent(template, outcome string) {
	if p == nil {
		return
	}
	p.emailsSent.WithLabelValues(template, outcome).Inc()
}

// ObserveBrokerReconnect records a connection loss.
func (p *Pipeline) ObserveBrokerReconnect() {
	if p == nil {
		return
	}
	p.brokerReconnects.Inc()
}
