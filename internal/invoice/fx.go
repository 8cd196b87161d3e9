package invoice

import (
	"github.com/autovisite/reportsvc/internal/invoice/repository"
	"github.com/autovisite/reportsvc/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
