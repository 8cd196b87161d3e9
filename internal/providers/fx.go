package providers

import (
	"github.com/autovisite/reportsvc/internal/providers/email"
	"github.com/autovisite/reportsvc/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
