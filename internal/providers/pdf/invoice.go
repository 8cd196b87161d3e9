package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Invoice renders the billing document.
func (p *MarotoProvider) Invoice(ctx context.Context, data InvoiceData) ([]byte, error) {
	_ = ctx
	m := newDocument()
	branding := p.branding.Get()

	m.AddRow(12,
		text.NewCol(6, branding.CompanyName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
		}),
		text.NewCol(6, "FACTURE", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	companyLines := append([]string{}, branding.AddressLines...)
	companyLines = append(companyLines,
		"Tél: "+branding.Phone,
		branding.Email,
		"SIRET: "+branding.SIRET,
		"TVA: "+branding.VATNumber,
	)
	m.AddRow(34,
		col.New(6).Add(textStack(companyLines, 0)...),
		col.New(6).Add(
			text.New("N° "+data.Number, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
			text.New("Date d'émission: "+formatTime(data.IssuedAt), props.Text{Size: 9, Top: 6, Align: align.Right}),
			text.New("Date d'échéance: "+formatTime(data.DueDate), props.Text{Size: 9, Top: 11, Align: align.Right}),
			text.New("Statut: "+invoiceStatusLabel(data.Status), props.Text{Size: 9, Top: 16, Align: align.Right}),
		),
	)

	addSectionTitle(m, "FACTURÉ À")
	customerLines := []string{data.CustomerName}
	if data.CustomerEmail != "" {
		customerLines = append(customerLines, data.CustomerEmail)
	}
	if data.CustomerPhone != "" {
		customerLines = append(customerLines, data.CustomerPhone)
	}
	m.AddRow(18,
		col.New(12).Add(textStack(customerLines, 0)...),
	)

	m.AddRow(8,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qté", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Prix unitaire", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Montant", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	items := data.Items
	if len(items) == 0 {
		items = defaultItems(data.Amount)
	}
	for _, item := range items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		m.AddRow(7,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatEuro(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatEuro(float64(qty)*item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Sous-total HT", props.Text{Size: 9}),
		text.NewCol(2, formatEuro(data.Amount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, fmt.Sprintf("TVA (%.0f%%)", data.TaxRatePercent), props.Text{Size: 9}),
		text.NewCol(2, formatEuro(data.TaxAmount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(9,
		col.New(8),
		text.NewCol(2, "Total TTC", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, formatEuro(data.TotalAmount), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	m.AddRow(14,
		text.NewCol(12, "Conditions de règlement: paiement à réception, au plus tard le "+formatTime(data.DueDate)+".", props.Text{
			Size: 8,
			Top:  6,
		}),
	)

	p.addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice: %w", err)
	}
	return doc.GetBytes(), nil
}

func defaultItems(amount float64) []events.InvoiceItem {
	return []events.InvoiceItem{
		{Description: "Contrôle technique véhicule", Quantity: 1, UnitPrice: amount},
	}
}

func invoiceStatusLabel(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid":
		return "PAYÉE"
	case "cancelled":
		return "ANNULÉE"
	case "overdue":
		return "EN RETARD"
	default:
		return "EN ATTENTE"
	}
}

func textStack(lines []string, size float64) []core.Component {
	if size == 0 {
		size = 9
	}
	components := make([]core.Component, 0, len(lines))
	top := 0.0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		components = append(components, text.New(line, props.Text{Size: size, Top: top}))
		top += 5
	}
	return components
}
