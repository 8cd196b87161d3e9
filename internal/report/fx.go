package report

import (
	"github.com/autovisite/reportsvc/internal/report/repository"
	"github.com/autovisite/reportsvc/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
