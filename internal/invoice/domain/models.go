package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"

	// InvoiceStatusOverdue is derived from pending + due date, never stored.
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID        int64         `gorm:"not null;index" json:"user_id"`
	AppointmentID *int64        `json:"appointment_id,omitempty"`
	PaymentID     *int64        `json:"payment_id,omitempty"`
	InvoiceNumber string        `gorm:"not null;uniqueIndex" json:"invoice_number"`
	Amount        float64       `gorm:"not null;type:numeric(10,2)" json:"amount"`
	TaxAmount     float64       `gorm:"not null;type:numeric(10,2)" json:"tax_amount"`
	TotalAmount   float64       `gorm:"not null;type:numeric(10,2)" json:"total_amount"`
	Status        InvoiceStatus `gorm:"not null;default:'pending';index" json:"status"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	FileName      string        `json:"file_name,omitempty"`
	FilePath      string        `json:"file_path,omitempty"`
	FileURL       string        `json:"file_url,omitempty"`
	DueDate       time.Time     `gorm:"not null" json:"due_date"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// EffectiveStatus reports the status clients see: a pending invoice past its
// due date reads as overdue.
func (i Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceStatusPending && now.After(i.DueDate) {
		return InvoiceStatusOverdue
	}
	return i.Status
}

// ValidStoredStatus reports whether a status may be written to the row.
func ValidStoredStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}
