package pdf

import (
	"context"
	"fmt"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Certificate renders the inspection certificate.
func (p *MarotoProvider) Certificate(ctx context.Context, data events.InspectionData) ([]byte, error) {
	_ = ctx
	m := newDocument()

	p.addHeader(m, "CERTIFICAT DE CONTRÔLE TECHNIQUE")

	m.AddRow(8,
		text.NewCol(12, "N° "+data.InspectionNumber, props.Text{
			Size:  10,
			Align: align.Center,
		}),
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

	if data.Observations != "" {
		addSectionTitle(m, "OBSERVATIONS")
		m.AddRow(14,
			text.NewCol(12, data.Observations, props.Text{Size: 9}),
		)
	}

	m.AddRow(14,
		col.New(6).Add(
			text.New("Contrôleur: "+data.InspectorName, props.Text{Size: 9}),
			text.New("Date du contrôle: "+formatDate(data.InspectionDate), props.Text{Size: 9, Top: 5}),
		),
		col.New(6).Add(
			text.New("Validité: "+formatDate(data.ValidityDate), props.Text{Size: 9, Align: align.Right}),
		),
	)

	p.addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate certificate: %w", err)
	}
	return doc.GetBytes(), nil
}

func (p *MarotoProvider) addHeader(m core.Maroto, title string) {
	branding := p.branding.Get()
	m.AddRow(12,
		text.NewCol(12, branding.CompanyName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(10,
		text.NewCol(12, title, props.Text{
			Size:  13,
			Style: fontstyle.Bold,
			Align: align.Center,
			Top:   2,
		}),
	)
}

func (p *MarotoProvider) addFooter(m core.Maroto) {
	branding := p.branding.Get()
	footer := branding.CompanyName
	for _, line := range branding.AddressLines {
		footer += " - " + line
	}
	m.AddRow(10,
		text.NewCol(12, footer, props.Text{
			Size:  7,
			Align: align.Center,
			Top:   4,
		}),
	)
	m.AddRow(5,
		text.NewCol(12, "Tél: "+branding.Phone+" - "+branding.Email+" - "+branding.Website, props.Text{
			Size:  7,
			Align: align.Center,
		}),
	)
}

func addResultBanner(m core.Maroto, status string) {
	label, color := resultBanner(status)
	row := m.AddRow(12,
		text.NewCol(12, label, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Center,
			Color: &colorWhite,
			Top:   3,
		}),
	)
	row.WithStyle(&props.Cell{BackgroundColor: &color})
}

func addSectionTitle(m core.Maroto, title string) {
	m.AddRow(9,
		text.NewCol(12, title, props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Top:   2,
		}),
	)
}

func addKeyValueSection(m core.Maroto, title string, pairs [][2]string) {
	addSectionTitle(m, title)
	for _, pair := range pairs {
		if pair[1] == "" {
			continue
		}
		m.AddRow(6,
			text.NewCol(4, pair[0], props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(8, pair[1], props.Text{Size: 9}),
		)
	}
}

func addCheckpointTable(m core.Maroto, checkpoints []events.Checkpoint) {
	if len(checkpoints) == 0 {
		return
	}
	addSectionTitle(m, "POINTS DE CONTRÔLE")
	m.AddRow(7,
		text.NewCol(8, "Point de contrôle", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(4, "Résultat", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	for _, cp := range checkpoints {
		result := cp.Result
		if result == "" {
			result = cp.Status
		}
		m.AddRow(6,
			text.NewCol(8, cp.Name, props.Text{Size: 9}),
			text.NewCol(4, checkpointMark(result)+" "+result, props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func intOrEmpty(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

func mileage(v int64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d km", v)
}
