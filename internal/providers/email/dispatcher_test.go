package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/autovisite/reportsvc/internal/config"
	"github.com/autovisite/reportsvc/internal/events"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type captureProvider struct {
	to          []string
	subject     string
	body        string
	attachments []Attachment
	err         error
}

func (p *captureProvider) Send(ctx context.Context, to []string, subject string, htmlBody string, attachments ...Attachment) error {
	p.to = to
	p.subject = subject
	p.body = htmlBody
	p.attachments = attachments
	return p.err
}

type capturePublisher struct {
	exchange   string
	routingKey string
	payload    any
}

func (p *capturePublisher) Publish(ctx context.Context, exchange, routingKey string, payload any) error {
	p.exchange = exchange
	p.routingKey = routingKey
	p.payload = payload
	return nil
}

func newTestDispatcher(provider Provider, publisher events.Publisher) Dispatcher {
	branding := config.NewStaticBrandingHolder(config.DefaultBranding())
	return NewDispatcher(provider, branding, publisher, zap.NewNop(), nil)
}

func TestSendCertificate(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "certificate.pdf")
	assert.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	provider := &captureProvider{}
	publisher := &capturePublisher{}
	d := newTestDispatcher(provider, publisher)

	err := d.SendCertificate(context.Background(), "marie@example.fr", "Marie Dupont", pdfPath, events.InspectionData{
		VehicleRegistration: "AB-123-CD",
		Status:              "passed",
	})
	assert.NoError(t, err)

	assert.Equal(t, []string{"marie@example.fr"}, provider.to)
	assert.Equal(t, "Votre certificat de contrôle technique - AB-123-CD", provider.subject)
	assert.Contains(t, provider.body, "Marie Dupont")
	assert.Contains(t, provider.body, "FAVORABLE")
	assert.Contains(t, provider.body, "Auto Visite Tech")
	if assert.Len(t, provider.attachments, 1) {
		assert.Equal(t, "certificate.pdf", provider.attachments[0].Filename)
	}

	assert.Equal(t, events.ExchangeReport, publisher.exchange)
	assert.Equal(t, events.EmailSent, publisher.routingKey)
	sent, ok := publisher.payload.(events.EmailSentData)
	assert.True(t, ok)
	assert.Equal(t, TemplateCertificate, sent.Template)
	assert.Equal(t, "marie@example.fr", sent.Recipient)
}

func TestSendInvoice(t *testing.T) {
	provider := &captureProvider{}
	d := newTestDispatcher(provider, nil)

	err := d.SendInvoice(context.Background(), "marie@example.fr", "Marie Dupont", "", InvoiceEmailData{
		Number:      "INV-1700000000000",
		TotalAmount: 94.20,
		DueDate:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.Equal(t, "Votre facture INV-1700000000000", provider.subject)
	assert.Contains(t, provider.body, "94.20 €")
	assert.Contains(t, provider.body, "31/08/2026")
	assert.Empty(t, provider.attachments)
}

func TestSendReminder(t *testing.T) {
	provider := &captureProvider{}
	d := newTestDispatcher(provider, nil)

	err := d.SendReminder(context.Background(), "marie@example.fr", "", InvoiceEmailData{
		Number:      "INV-42",
		TotalAmount: 10,
		DueDate:     time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.Equal(t, "Rappel: facture INV-42 en attente de paiement", provider.subject)
	assert.Contains(t, provider.body, "cher client")
	assert.Contains(t, provider.body, "impayée")
}

func TestSendPaymentConfirmation(t *testing.T) {
	provider := &captureProvider{}
	d := newTestDispatcher(provider, nil)

	paidAt := time.Date(2026, 8, 15, 14, 0, 0, 0, time.UTC)
	err := d.SendPaymentConfirmation(context.Background(), "marie@example.fr", "Marie", InvoiceEmailData{
		Number:      "INV-42",
		TotalAmount: 94.20,
		PaidAt:      &paidAt,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Confirmation de paiement - facture INV-42", provider.subject)
	assert.Contains(t, provider.body, "15/08/2026")
}

func TestSend_ProviderFailureSurfaces(t *testing.T) {
	provider := &captureProvider{err: errors.New("smtp: connection refused")}
	publisher := &capturePublisher{}
	d := newTestDispatcher(provider, publisher)

	err := d.SendReminder(context.Background(), "marie@example.fr", "Marie", InvoiceEmailData{Number: "INV-1"})
	assert.Error(t, err)
	// No email.sent on failure.
	assert.Empty(t, publisher.routingKey)
}

func TestBuildMessage_Multipart(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "INV-1.pdf")
	assert.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	msg, err := buildMessage("noreply@autovisitetech.fr", []string{"marie@example.fr"}, "Sujet", "<p>corps</p>", []Attachment{
		{Filename: "INV-1.pdf", Path: pdfPath},
	})
	assert.NoError(t, err)

	body := string(msg)
	assert.Contains(t, body, "From: noreply@autovisitetech.fr")
	assert.Contains(t, body, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, body, `attachment; filename="INV-1.pdf"`)
	assert.Contains(t, body, "Content-Transfer-Encoding: base64")
	assert.Contains(t, body, "<p>corps</p>")
}

func TestBuildMessage_PlainHTML(t *testing.T) {
	msg, err := buildMessage("noreply@autovisitetech.fr", []string{"a@b.fr"}, "Sujet", "<p>corps</p>", nil)
	assert.NoError(t, err)
	assert.Contains(t, string(msg), `Content-Type: text/html; charset="UTF-8"`)
	assert.NotContains(t, string(msg), "multipart/mixed")
}
