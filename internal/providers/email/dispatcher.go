package email

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/autovisite/reportsvc/internal/config"
	"github.com/autovisite/reportsvc/internal/events"
	"github.com/autovisite/reportsvc/internal/observability/metrics"
	"go.uber.org/zap"
)

// InvoiceEmailData carries the invoice fields email bodies need. Callers map
// their domain rows into this type.
type InvoiceEmailData struct {
	Number      string
	TotalAmount float64
	DueDate     time.Time
	PaidAt      *time.Time
}

// Dispatcher sends the four customer-facing emails. Sends never roll back
// generation state: callers decide whether a failure matters.
type Dispatcher interface {
	SendCertificate(ctx context.Context, toEmail, toName, attachmentPath string, inspection events.InspectionData) error
	SendInvoice(ctx context.Context, toEmail, toName, attachmentPath string, invoice InvoiceEmailData) error
	SendReminder(ctx context.Context, toEmail, toName string, invoice InvoiceEmailData) error
	SendPaymentConfirmation(ctx context.Context, toEmail, toName string, invoice InvoiceEmailData) error
}

type dispatcher struct {
	provider  Provider
	branding  *config.BrandingHolder
	publisher events.Publisher
	log       *zap.Logger
	metrics   *metrics.Pipeline
}

func NewDispatcher(provider Provider, branding *config.BrandingHolder, publisher events.Publisher, log *zap.Logger, pipeline *metrics.Pipeline) Dispatcher {
	return &dispatcher{
		provider:  provider,
		branding:  branding,
		publisher: publisher,
		log:       log.Named("dispatcher"),
		metrics:   pipeline,
	}
}

func (d *dispatcher) SendCertificate(ctx context.Context, toEmail, toName, attachmentPath string, inspection events.InspectionData) error {
	branding := d.branding.Get()
	body, err := render(TemplateCertificate, map[string]any{
		"CompanyName":  branding.CompanyName,
		"Footer":       footerLine(branding),
		"Name":         displayName(toName),
		"Registration": inspection.VehicleRegistration,
		"Result":       resultLabel(inspection.Status),
	})
	if err != nil {
		return err
	}

	subject := "Votre certificat de contrôle technique"
	if inspection.VehicleRegistration != "" {
		subject += " - " + inspection.VehicleRegistration
	}

	return d.send(ctx, TemplateCertificate, toEmail, subject, body, attachments(attachmentPath))
}

func (d *dispatcher) SendInvoice(ctx context.Context, toEmail, toName, attachmentPath string, invoice InvoiceEmailData) error {
	branding := d.branding.Get()
	body, err := render(TemplateInvoice, map[string]any{
		"CompanyName":   branding.CompanyName,
		"Footer":        footerLine(branding),
		"Name":          displayName(toName),
		"InvoiceNumber": invoice.Number,
		"TotalAmount":   formatEuro(invoice.TotalAmount),
		"DueDate":       formatDate(invoice.DueDate),
	})
	if err != nil {
		return err
	}

	subject := "Votre facture " + invoice.Number
	return d.send(ctx, TemplateInvoice, toEmail, subject, body, attachments(attachmentPath))
}

func (d *dispatcher) SendReminder(ctx context.Context, toEmail, toName string, invoice InvoiceEmailData) error {
	branding := d.branding.Get()
	body, err := render(TemplateReminder, map[string]any{
		"CompanyName":   branding.CompanyName,
		"Footer":        footerLine(branding),
		"Name":          displayName(toName),
		"InvoiceNumber": invoice.Number,
		"TotalAmount":   formatEuro(invoice.TotalAmount),
		"DueDate":       formatDate(invoice.DueDate),
	})
	if err != nil {
		return err
	}

	subject := "Rappel: facture " + invoice.Number + " en attente de paiement"
	return d.send(ctx, TemplateReminder, toEmail, subject, body, nil)
}

func (d *dispatcher) SendPaymentConfirmation(ctx context.Context, toEmail, toName string, invoice InvoiceEmailData) error {
	branding := d.branding.Get()
	paidAt := ""
	if invoice.PaidAt != nil {
		paidAt = formatDate(*invoice.PaidAt)
	}
	body, err := render(TemplatePaymentConfirmation, map[string]any{
		"CompanyName":   branding.CompanyName,
		"Footer":        footerLine(branding),
		"Name":          displayName(toName),
		"InvoiceNumber": invoice.Number,
		"TotalAmount":   formatEuro(invoice.TotalAmount),
		"PaidAt":        paidAt,
	})
	if err != nil {
		return err
	}

	subject := "Confirmation de paiement - facture " + invoice.Number
	return d.send(ctx, TemplatePaymentConfirmation, toEmail, subject, body, nil)
}

func (d *dispatcher) send(ctx context.Context, template, toEmail, subject, body string, attachments []Attachment) error {
	if err := d.provider.Send(ctx, []string{toEmail}, subject, body, attachments...); err != nil {
		d.metrics.ObserveEmailSent(template, metrics.OutcomeError)
		d.log.Error("email send failed",
			zap.String("template", template),
			zap.String("recipient", toEmail),
			zap.Error(err),
		)
		return fmt.Errorf("send %s email: %w", template, err)
	}

	d.metrics.ObserveEmailSent(template, metrics.OutcomeOK)
	d.log.Info("email sent",
		zap.String("template", template),
		zap.String("recipient", toEmail),
	)

	if d.publisher != nil {
		if err := events.PublishEmailSent(ctx, d.publisher, events.EmailSentData{
			Template:  template,
			Recipient: toEmail,
		}); err != nil {
			d.log.Warn("email.sent event not published", zap.Error(err))
		}
	}
	return nil
}

func attachments(path string) []Attachment {
	if path == "" {
		return nil
	}
	return []Attachment{{Filename: filepath.Base(path), Path: path}}
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "cher client"
	}
	return name
}

func resultLabel(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "passed":
		return "FAVORABLE"
	case "failed":
		return "DÉFAVORABLE"
	case "conditional":
		return "FAVORABLE AVEC RÉSERVES"
	default:
		return ""
	}
}

func footerLine(branding config.Branding) string {
	parts := append([]string{}, branding.AddressLines...)
	if branding.Phone != "" {
		parts = append(parts, "Tél: "+branding.Phone)
	}
	if branding.Website != "" {
		parts = append(parts, branding.Website)
	}
	return strings.Join(parts, " - ")
}

func formatEuro(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}
