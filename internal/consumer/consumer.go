package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/autovisite/reportsvc/internal/broker"
	"github.com/autovisite/reportsvc/internal/events"
	invoicedomain "github.com/autovisite/reportsvc/internal/invoice/domain"
	reportdomain "github.com/autovisite/reportsvc/internal/report/domain"
	"go.uber.org/zap"
)

// Consumer wires the broker queues to the report and invoice services. It
// decides per delivery whether the message is done (ack) or worth another
// try (requeue).
type Consumer struct {
	reports  reportdomain.Service
	invoices invoicedomain.Service
	log      *zap.Logger
}

func New(reports reportdomain.Service, invoices invoicedomain.Service, log *zap.Logger) *Consumer {
	return &Consumer{
		reports:  reports,
		invoices: invoices,
		log:      log.Named("consumer"),
	}
}

// Start begins consuming both work queues.
func (c *Consumer) Start(client *broker.Client) {
	client.Subscribe(events.QueueReportGeneration, c.HandleInspectionCompleted)
	client.Subscribe(events.QueueInvoiceCreation, c.HandlePaymentSucceeded)
}

func (c *Consumer) HandleInspectionCompleted(ctx context.Context, env events.Envelope) broker.Decision {
	var data events.InspectionCompletedData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.log.Warn("undecodable inspection.completed payload", zap.Error(err))
		return broker.RequeueNack
	}

	report, err := c.reports.Generate(ctx, reportdomain.GenerateReportRequest{
		InspectionID: data.InspectionID,
		UserID:       data.UserID,
		ReportType:   reportdomain.ParseReportType(data.ReportType),
		Inspection:   data.InspectionData,
		SendEmail:    data.SendEmail,
	})
	if err != nil {
		if errors.Is(err, reportdomain.ErrInvalidRequest) {
			// Retrying an invalid payload never helps, but dropping it
			// silently hides producer bugs. Keep it visible in the queue.
			c.log.Warn("invalid inspection.completed payload requeued",
				zap.Int64("inspection_id", data.InspectionID),
				zap.Int64("user_id", data.UserID),
			)
			return broker.RequeueNack
		}
		c.log.Error("report generation failed",
			zap.Int64("inspection_id", data.InspectionID),
			zap.Error(err),
		)
		return broker.RequeueNack
	}

	c.log.Info("inspection.completed handled",
		zap.Int64("inspection_id", data.InspectionID),
		zap.String("file_name", report.FileName),
	)
	return broker.Ack
}

func (c *Consumer) HandlePaymentSucceeded(ctx context.Context, env events.Envelope) broker.Decision {
	var data events.PaymentSucceededData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.log.Warn("undecodable payment.succeeded payload", zap.Error(err))
		return broker.RequeueNack
	}

	invoice, err := c.invoices.CreateFromPayment(ctx, data)
	if err != nil {
		if errors.Is(err, invoicedomain.ErrInvalidRequest) {
			c.log.Warn("invalid payment.succeeded payload requeued",
				zap.Int64("payment_id", data.PaymentID),
				zap.Int64("user_id", data.UserID),
			)
			return broker.RequeueNack
		}
		c.log.Error("invoice creation failed",
			zap.Int64("payment_id", data.PaymentID),
			zap.Error(err),
		)
		return broker.RequeueNack
	}

	c.log.Info("payment.succeeded handled",
		zap.Int64("payment_id", data.PaymentID),
		zap.String("invoice_number", invoice.InvoiceNumber),
	)
	return broker.Ack
}
