package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/autovisite/reportsvc/internal/config"
	"github.com/autovisite/reportsvc/internal/events"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/stretchr/testify/assert"
)

func newTestProvider() Provider {
	return New(config.NewStaticBrandingHolder(config.DefaultBranding()))
}

func sampleInspection() events.InspectionData {
	return events.InspectionData{
		InspectionNumber:    "CT-2026-000123",
		InspectionDate:      "2026-08-01T09:30:00Z",
		VehicleRegistration: "AB-123-CD",
		VehicleBrand:        "Renault",
		VehicleModel:        "Clio V",
		VehicleVIN:          "VF1RJA00066666666",
		VehicleYear:         2019,
		Mileage:             78500,
		OwnerName:           "Marie Dupont",
		OwnerEmail:          "marie.dupont@example.fr",
		OwnerPhone:          "06 12 34 56 78",
		Status:              "passed",
		Checkpoints: []events.Checkpoint{
			{Name: "Freinage", Result: "ok"},
			{Name: "Éclairage", Result: "ok"},
			{Name: "Pollution", Result: "nok"},
		},
		Observations:  "Plaquettes avant à surveiller.",
		InspectorName: "J. Martin",
		ValidityDate:  "2028-08-01",
	}
}

func TestCertificate_RendersPDF(t *testing.T) {
	data, err := newTestProvider().Certificate(context.Background(), sampleInspection())
	assert.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestDetailedReport_RendersPDF(t *testing.T) {
	inspection := sampleInspection()
	inspection.TechnicalDetails = "Usure pneus avant 40%."
	inspection.Recommendations = "Prévoir remplacement plaquettes."

	data, err := newTestProvider().DetailedReport(context.Background(), inspection)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestInvoice_RendersPDF(t *testing.T) {
	data, err := newTestProvider().Invoice(context.Background(), InvoiceData{
		Number:         "INV-1700000000000",
		IssuedAt:       time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		Status:         "pending",
		CustomerName:   "Marie Dupont",
		CustomerEmail:  "marie.dupont@example.fr",
		Amount:         78.50,
		TaxRatePercent: 20,
		TaxAmount:      15.70,
		TotalAmount:    94.20,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestResultBanner(t *testing.T) {
	label, color := resultBanner("passed")
	assert.Equal(t, "FAVORABLE", label)
	assert.Equal(t, colorPassed, color)

	label, color = resultBanner("failed")
	assert.Equal(t, "DÉFAVORABLE", label)
	assert.Equal(t, colorFailed, color)

	label, color = resultBanner("conditional")
	assert.Equal(t, "FAVORABLE AVEC RÉSERVES", label)
	assert.Equal(t, colorConditional, color)

	label, color = resultBanner("anything-else")
	assert.Equal(t, "EN ATTENTE", label)
	assert.Equal(t, colorPending, color)
}

func TestMarotoText(t *testing.T) {
	p := marotoText(10, align.Center)
	assert.Equal(t, float64(10), p.Size)
	assert.Equal(t, align.Center, p.Align)

	p = marotoText(9, align.Left)
	assert.Equal(t, align.Left, p.Align)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "78.50 €", formatEuro(78.5))
	assert.Equal(t, "01/08/2026", formatDate("2026-08-01"))
	assert.Equal(t, "01/08/2026", formatDate("2026-08-01T09:30:00Z"))
	assert.Equal(t, "demain", formatDate("demain"))
	assert.Equal(t, "", formatDate(""))
	assert.Equal(t, "31/08/2026", formatTime(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", formatTime(time.Time{}))
}
