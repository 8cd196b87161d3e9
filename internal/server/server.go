package server

import (
	"context"
	"net/http"
	"time"

	"github.com/autovisite/reportsvc/internal/config"
	invoicedomain "github.com/autovisite/reportsvc/internal/invoice/domain"
	"github.com/autovisite/reportsvc/internal/observability"
	obsmiddleware "github.com/autovisite/reportsvc/internal/observability/logger"
	obsmetrics "github.com/autovisite/reportsvc/internal/observability/metrics"
	obstracing "github.com/autovisite/reportsvc/internal/observability/tracing"
	reportdomain "github.com/autovisite/reportsvc/internal/report/domain"
	"github.com/autovisite/reportsvc/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

type Server struct {
	engine     *gin.Engine
	reportSvc  reportdomain.Service
	invoiceSvc invoicedomain.Service
	store      *storage.Store
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	ReportSvc  reportdomain.Service
	InvoiceSvc invoicedomain.Service
	Store      *storage.Store
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		reportSvc:  p.ReportSvc,
		invoiceSvc: p.InvoiceSvc,
		store:      p.Store,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	reports := api.Group("/reports")
	reports.GET("", s.ListReports)
	reports.POST("", s.GenerateReport)
	reports.GET("/download/:filename", s.DownloadReport)
	reports.GET("/:id", s.GetReportByID)
	reports.POST("/:id/resend", s.ResendReport)
	reports.DELETE("/:id", s.DeleteReport)

	invoices := api.Group("/invoices")
	invoices.GET("", s.ListInvoices)
	invoices.POST("", s.CreateInvoice)
	invoices.GET("/overdue", s.ListOverdueInvoices)
	invoices.GET("/download/:filename", s.DownloadInvoice)
	invoices.GET("/:id", s.GetInvoiceByID)
	invoices.PATCH("/:id", s.UpdateInvoiceStatus)
	invoices.POST("/:id/reminder", s.SendInvoiceReminder)
	invoices.POST("/:id/resend", s.ResendInvoice)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
