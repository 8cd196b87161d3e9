package pdf

import (
	"strings"

	"github.com/autovisite/reportsvc/internal/config"
	"github.com/johnfercher/maroto/v2"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// MarotoProvider renders documents with maroto. Layouts are deterministic
// and make no external calls.
type MarotoProvider struct {
	branding *config.BrandingHolder
}

func New(branding *config.BrandingHolder) Provider {
	return &MarotoProvider{branding: branding}
}

func newDocument() core.Maroto {
	cfg := marotoconfig.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	return maroto.New(cfg)
}

var (
	colorPassed      = props.Color{Red: 40, Green: 167, Blue: 69}   // #28a745
	colorFailed      = props.Color{Red: 220, Green: 53, Blue: 69}   // #dc3545
	colorConditional = props.Color{Red: 255, Green: 193, Blue: 7}   // #ffc107
	colorPending     = props.Color{Red: 108, Green: 117, Blue: 125} // #6c757d
	colorWhite       = props.Color{Red: 255, Green: 255, Blue: 255}
)

func resultBanner(status string) (string, props.Color) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "passed":
		return "FAVORABLE", colorPassed
	case "failed":
		return "DÉFAVORABLE", colorFailed
	case "conditional":
		return "FAVORABLE AVEC RÉSERVES", colorConditional
	default:
		return "EN ATTENTE", colorPending
	}
}

func marotoText(size float64, a align.Type) props.Text {
	return props.Text{Size: size, Align: a}
}

func checkpointMark(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "ok", "passed", "pass":
		return "✓"
	case "nok", "failed", "fail":
		return "✗"
	default:
		return "-"
	}
}
