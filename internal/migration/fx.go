package migration

import (
	"github.com/autovisite/reportsvc/internal/config"
	invoicedomain "github.com/autovisite/reportsvc/internal/invoice/domain"
	reportdomain "github.com/autovisite/reportsvc/internal/report/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The SQL migrations target postgres. Other dialects only show up
		// in local development, where AutoMigrate is good enough.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&reportdomain.Report{},
				&invoicedomain.Invoice{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
