package pdf

import (
	"context"
	"fmt"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
)

// DetailedReport renders the long-form inspection report: the certificate
// content plus technical details and recommendations.
func (p *MarotoProvider) DetailedReport(ctx context.Context, data events.InspectionData) ([]byte, error) {
	_ = ctx
	m := newDocument()

	p.addHeader(m, "RAPPORT DÉTAILLÉ DE CONTRÔLE TECHNIQUE")

	m.AddRow(8,
		text.NewCol(12, "N° "+data.InspectionNumber, marotoText(10, align.Center)),
	)

	addResultBanner(m, data.Status)

	addKeyValueSection(m, "VÉHICULE", [][2]string{
		{"Immatriculation", data.VehicleRegistration},
		{"Marque", data.VehicleBrand},
		{"Modèle", data.VehicleModel},
		{"N° de série (VIN)", data.VehicleVIN},
		{"Année", intOrEmpty(data.VehicleYear)},
		{"Kilométrage", mileage(data.Mileage)},
	})

	addKeyValueSection(m, "PROPRIÉTAIRE", [][2]string{
		{"Nom", data.OwnerName},
		{"Email", data.OwnerEmail},
		{"Téléphone", data.OwnerPhone},
	})

	addCheckpointTable(m, data.Checkpoints)

	if data.TechnicalDetails != "" {
		addSectionTitle(m, "DÉTAILS TECHNIQUES")
		m.AddRow(18,
			text.NewCol(12, data.TechnicalDetails, marotoText(9, align.Left)),
		)
	}

	if data.Observations != "" {
		addSectionTitle(m, "OBSERVATIONS")
		m.AddRow(14,
			text.NewCol(12, data.Observations, marotoText(9, align.Left)),
		)
	}

	if data.Recommendations != "" {
		addSectionTitle(m, "RECOMMANDATIONS")
		m.AddRow(14,
			text.NewCol(12, data.Recommendations, marotoText(9, align.Left)),
		)
	}

	addKeyValueSection(m, "CONTRÔLE", [][2]string{
		{"Contrôleur", data.InspectorName},
		{"Date du contrôle", formatDate(data.InspectionDate)},
		{"Validité", formatDate(data.ValidityDate)},
	})

	p.addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate detailed report: %w", err)
	}
	return doc.GetBytes(), nil
}
