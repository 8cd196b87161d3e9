package domain

import (
	"context"
	"errors"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/bwmarrin/snowflake"
)

type ListInvoiceFilter struct {
	UserID int64
	Status InvoiceStatus
}

type CreateInvoiceRequest struct {
	UserID        int64
	AppointmentID *int64
	PaymentID     *int64
	Amount        float64
	TaxRate       *float64
	Customer      events.CustomerData
	Items         []events.InvoiceItem
	SendEmail     bool
}

type ResendInvoiceRequest struct {
	ID    snowflake.ID
	Email string
	Name  string
}

type Service interface {
	List(ctx context.Context, filter ListInvoiceFilter) ([]Invoice, error)
	GetByID(ctx context.Context, id snowflake.ID) (Invoice, error)
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	// CreateFromPayment is the payment.succeeded entry point. Redeliveries of
	// an already-invoiced payment return the existing row, regenerating its
	// PDF if the file went missing.
	CreateFromPayment(ctx context.Context, data events.PaymentSucceededData) (Invoice, error)
	// UpdateStatus accepts pending, paid and cancelled. Overdue is derived
	// and rejected. Marking paid stamps paid_at and announces the payment.
	UpdateStatus(ctx context.Context, id snowflake.ID, status InvoiceStatus) (Invoice, error)
	FindOverdue(ctx context.Context) ([]Invoice, error)
	SendReminder(ctx context.Context, id snowflake.ID) error
	Resend(ctx context.Context, req ResendInvoiceRequest) error
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrNotFound       = errors.New("not_found")
	ErrFileNotFound   = errors.New("file_not_found")
	ErrAlreadyPaid    = errors.New("already_paid")
)
