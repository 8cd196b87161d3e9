package main

import (
	"github.com/autovisite/reportsvc/internal/broker"
	"github.com/autovisite/reportsvc/internal/config"
	"github.com/autovisite/reportsvc/internal/consumer"
	"github.com/autovisite/reportsvc/internal/invoice"
	"github.com/autovisite/reportsvc/internal/migration"
	"github.com/autovisite/reportsvc/internal/observability"
	"github.com/autovisite/reportsvc/internal/providers"
	"github.com/autovisite/reportsvc/internal/report"
	"github.com/autovisite/reportsvc/internal/scheduler"
	"github.com/autovisite/reportsvc/internal/server"
	"github.com/autovisite/reportsvc/internal/storage"
	"github.com/autovisite/reportsvc/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		broker.Module,
		storage.Module,

		// Functional domains
		providers.Module,
		report.Module,
		invoice.Module,
		consumer.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
