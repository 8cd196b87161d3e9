package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/autovisite/reportsvc/internal/events"
)

// InvoiceData carries everything the invoice layout needs. Callers map their
// domain rows into this type.
type InvoiceData struct {
	Number   string
	IssuedAt time.Time
	DueDate  time.Time
	Status   string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	Items []events.InvoiceItem

	Amount         float64
	TaxRatePercent float64
	TaxAmount      float64
	TotalAmount    float64
}

// Provider renders the three document kinds to PDF bytes.
type Provider interface {
	Certificate(ctx context.Context, data events.InspectionData) ([]byte, error)
	DetailedReport(ctx context.Context, data events.InspectionData) ([]byte, error)
	Invoice(ctx context.Context, data InvoiceData) ([]byte, error)
}

func formatEuro(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// formatDate renders upstream date strings as dd/mm/yyyy, passing through
// anything it cannot parse.
func formatDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return s
}
