package events

import (
	"context"
	"encoding/json"
	"time"
)

// Exchanges and queues declared on the broker.
const (
	ExchangeInspection = "inspection_events"
	ExchangePayment    = "payment_events"
	ExchangeReport     = "report_events"

	QueueReportGeneration   = "report_generation"
	QueueInvoiceCreation    = "invoice_creation"
	QueueEmailNotifications = "email_notifications"
)

// Routing keys. The envelope's event field always matches the routing key.
const (
	InspectionCompleted = "inspection.completed"
	PaymentSucceeded    = "payment.succeeded"
	ReportGenerated     = "report.generated"
	InvoiceCreated      = "invoice.created"
	InvoicePaid         = "invoice.paid"
	EmailSent           = "email.sent"
)

// Envelope is the wire format shared by every event.
type Envelope struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Publisher publishes an event envelope to an exchange.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, payload any) error
}

// Checkpoint is a single inspection check result.
type Checkpoint struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
	Result string `json:"result,omitempty"`
}

// InspectionData is the inspection snapshot carried on inspection.completed
// and stored alongside the generated report.
type InspectionData struct {
	InspectionNumber string `json:"inspection_number,omitempty"`
	InspectionDate   string `json:"inspection_date,omitempty"`

	VehicleRegistration string `json:"vehicle_registration,omitempty"`
	VehicleBrand        string `json:"vehicle_brand,omitempty"`
	VehicleModel        string `json:"vehicle_model,omitempty"`
	VehicleVIN          string `json:"vehicle_vin,omitempty"`
	VehicleYear         int    `json:"vehicle_year,omitempty"`
	Mileage             int64  `json:"mileage,omitempty"`

	OwnerName  string `json:"owner_name,omitempty"`
	OwnerEmail string `json:"owner_email,omitempty"`
	OwnerPhone string `json:"owner_phone,omitempty"`

	Status       string       `json:"status,omitempty"`
	Checkpoints  []Checkpoint `json:"checkpoints,omitempty"`
	Observations string       `json:"observations,omitempty"`

	InspectorName    string `json:"inspector_name,omitempty"`
	ValidityDate     string `json:"validity_date,omitempty"`
	TechnicalDetails string `json:"technical_details,omitempty"`
	Recommendations  string `json:"recommendations,omitempty"`
}

// CustomerData identifies the invoice recipient.
type CustomerData struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// InvoiceItem is a billed line item.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// InspectionCompletedData is the payload of inspection.completed.
type InspectionCompletedData struct {
	InspectionID   int64          `json:"inspection_id"`
	UserID         int64          `json:"user_id"`
	ReportType     string         `json:"report_type,omitempty"`
	SendEmail      bool           `json:"send_email,omitempty"`
	InspectionData InspectionData `json:"inspection_data"`
}

// PaymentSucceededData is the payload of payment.succeeded.
type PaymentSucceededData struct {
	UserID        int64         `json:"user_id"`
	PaymentID     int64         `json:"payment_id"`
	AppointmentID *int64        `json:"appointment_id,omitempty"`
	Amount        float64       `json:"amount"`
	TaxRate       *float64      `json:"tax_rate,omitempty"`
	SendEmail     bool          `json:"send_email,omitempty"`
	Customer      CustomerData  `json:"customer_data"`
	Items         []InvoiceItem `json:"items,omitempty"`
}

// ReportGeneratedData is the payload of report.generated.
type ReportGeneratedData struct {
	ReportID     int64  `json:"report_id,string"`
	InspectionID int64  `json:"inspection_id"`
	UserID       int64  `json:"user_id"`
	ReportType   string `json:"report_type"`
	FileURL      string `json:"file_url"`
}

// InvoiceCreatedData is the payload of invoice.created.
type InvoiceCreatedData struct {
	InvoiceID     int64   `json:"invoice_id,string"`
	InvoiceNumber string  `json:"invoice_number"`
	UserID        int64   `json:"user_id"`
	TotalAmount   float64 `json:"total_amount"`
}

// InvoicePaidData is the payload of invoice.paid.
type InvoicePaidData struct {
	InvoiceID     int64     `json:"invoice_id,string"`
	InvoiceNumber string    `json:"invoice_number"`
	UserID        int64     `json:"user_id"`
	TotalAmount   float64   `json:"total_amount"`
	PaidAt        time.Time `json:"paid_at"`
}

// EmailSentData is the payload of email.sent.
type EmailSentData struct {
	Template  string `json:"template"`
	Recipient string `json:"recipient"`
}

func PublishReportGenerated(ctx context.Context, p Publisher, data ReportGeneratedData) error {
	return p.Publish(ctx, ExchangeReport, ReportGenerated, data)
}

func PublishInvoiceCreated(ctx context.Context, p Publisher, data InvoiceCreatedData) error {
	return p.Publish(ctx, ExchangeReport, InvoiceCreated, data)
}

func PublishInvoicePaid(ctx context.Context, p Publisher, data InvoicePaidData) error {
	return p.Publish(ctx, ExchangeReport, InvoicePaid, data)
}

func PublishEmailSent(ctx context.Context, p Publisher, data EmailSentData) error {
	return p.Publish(ctx, ExchangeReport, EmailSent, data)
}
