package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/autovisite/reportsvc/internal/config"
	"github.com/autovisite/reportsvc/internal/events"
	"github.com/autovisite/reportsvc/internal/invoice/domain"
	"github.com/autovisite/reportsvc/internal/observability/metrics"
	"github.com/autovisite/reportsvc/internal/providers/email"
	"github.com/autovisite/reportsvc/internal/providers/pdf"
	"github.com/autovisite/reportsvc/internal/storage"
	pkgdb "github.com/autovisite/reportsvc/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const paymentTermDays = 30

type Params struct {
	fx.In

	DB         *gorm.DB
	Cfg        config.Config
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Renderer   pdf.Provider
	Store      *storage.Store
	Dispatcher email.Dispatcher
	Publisher  events.Publisher  `optional:"true"`
	Metrics    *metrics.Pipeline `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	renderer   pdf.Provider
	store      *storage.Store
	dispatcher email.Dispatcher
	publisher  events.Publisher
	metrics    *metrics.Pipeline
	taxRate    float64
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		renderer:   p.Renderer,
		store:      p.Store,
		dispatcher: p.Dispatcher,
		publisher:  p.Publisher,
		metrics:    p.Metrics,
		taxRate:    p.Cfg.TaxRate,
	}
}

func (s *Service) List(ctx context.Context, filter domain.ListInvoiceFilter) ([]domain.Invoice, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	if req.UserID == 0 || req.Amount <= 0 {
		return domain.Invoice{}, domain.ErrInvalidRequest
	}

	invoice, err := s.create(ctx, req)
	if err != nil {
		return domain.Invoice{}, err
	}

	if req.SendEmail && strings.TrimSpace(invoice.CustomerEmail) != "" {
		err := s.dispatcher.SendInvoice(ctx, invoice.CustomerEmail, invoice.CustomerName, invoice.FilePath, invoiceEmailData(invoice))
		if err != nil {
			s.log.Warn("invoice email not sent", zap.Error(err))
		}
	}

	return invoice, nil
}

func (s *Service) CreateFromPayment(ctx context.Context, data events.PaymentSucceededData) (domain.Invoice, error) {
	if data.UserID == 0 || data.PaymentID == 0 || data.Amount <= 0 {
		return domain.Invoice{}, domain.ErrInvalidRequest
	}

	// Redelivered payment events must not bill twice.
	existing, err := s.repo.FindByPaymentID(ctx, s.db, data.PaymentID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if existing != nil {
		if !s.store.Exists(existing.FilePath) {
			if err := s.regenerateFile(ctx, existing); err != nil {
				return domain.Invoice{}, err
			}
		}
		s.log.Debug("payment already invoiced", zap.Int64("payment_id", data.PaymentID))
		return *existing, nil
	}

	paymentID := data.PaymentID
	invoice, err := s.create(ctx, domain.CreateInvoiceRequest{
		UserID:        data.UserID,
		AppointmentID: data.AppointmentID,
		PaymentID:     &paymentID,
		Amount:        data.Amount,
		TaxRate:       data.TaxRate,
		Customer:      data.Customer,
		Items:         data.Items,
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// A concurrent delivery won the race; keep its row.
			winner, ferr := s.repo.FindByPaymentID(ctx, s.db, data.PaymentID)
			if ferr == nil && winner != nil {
				return *winner, nil
			}
		}
		return domain.Invoice{}, err
	}

	if data.SendEmail && strings.TrimSpace(invoice.CustomerEmail) != "" {
		err := s.dispatcher.SendInvoice(ctx, invoice.CustomerEmail, invoice.CustomerName, invoice.FilePath, invoiceEmailData(invoice))
		if err != nil {
			s.log.Warn("invoice email not sent", zap.Error(err))
		}
	}

	return invoice, nil
}

func (s *Service) create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	rate := s.taxRate
	if req.TaxRate != nil {
		rate = *req.TaxRate
	}

	now := time.Now().UTC()
	amount := round2(req.Amount)
	taxAmount := round2(amount * rate)
	invoice := domain.Invoice{
		ID:            s.genID.Generate(),
		UserID:        req.UserID,
		AppointmentID: req.AppointmentID,
		PaymentID:     req.PaymentID,
		InvoiceNumber: fmt.Sprintf("INV-%d", now.UnixMilli()),
		Amount:        amount,
		TaxAmount:     taxAmount,
		TotalAmount:   round2(amount + taxAmount),
		Status:        domain.InvoiceStatusPending,
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		DueDate:       now.AddDate(0, 0, paymentTermDays),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	data, err := s.renderer.Invoice(ctx, pdfData(invoice, rate, req.Items))
	if err != nil {
		s.metrics.ObserveDocumentGenerated("invoice", metrics.OutcomeError)
		return domain.Invoice{}, fmt.Errorf("render invoice: %w", err)
	}
	s.metrics.ObserveDocumentGenerated("invoice", metrics.OutcomeOK)

	invoice.FileName = invoice.InvoiceNumber + ".pdf"
	invoice.FilePath, err = s.store.SaveInvoice(invoice.FileName, data)
	if err != nil {
		return domain.Invoice{}, err
	}
	invoice.FileURL = s.store.InvoiceURL(invoice.FileName)

	if err := s.repo.Insert(ctx, s.db, &invoice); err != nil {
		_ = s.store.Remove(invoice.FilePath)
		return domain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("user_id", invoice.UserID),
		zap.Float64("total_amount", invoice.TotalAmount),
	)

	if s.publisher != nil {
		err := events.PublishInvoiceCreated(ctx, s.publisher, events.InvoiceCreatedData{
			InvoiceID:     int64(invoice.ID),
			InvoiceNumber: invoice.InvoiceNumber,
			UserID:        invoice.UserID,
			TotalAmount:   invoice.TotalAmount,
		})
		if err != nil {
			// The row is committed; the event is lost, not retried.
			s.log.Error("invoice.created event not published", zap.Error(err))
		}
	}

	return invoice, nil
}

// regenerateFile re-renders the PDF of an existing row whose file went
// missing, keeping the stored amounts.
func (s *Service) regenerateFile(ctx context.Context, invoice *domain.Invoice) error {
	rate := 0.0
	if invoice.Amount > 0 {
		rate = invoice.TaxAmount / invoice.Amount
	}

	data, err := s.renderer.Invoice(ctx, pdfData(*invoice, rate, nil))
	if err != nil {
		s.metrics.ObserveDocumentGenerated("invoice", metrics.OutcomeError)
		return fmt.Errorf("render invoice: %w", err)
	}
	s.metrics.ObserveDocumentGenerated("invoice", metrics.OutcomeOK)

	fileName := invoice.InvoiceNumber + ".pdf"
	filePath, err := s.store.SaveInvoice(fileName, data)
	if err != nil {
		return err
	}
	fileURL := s.store.InvoiceURL(fileName)

	if err := s.repo.UpdateFile(ctx, s.db, invoice.ID, fileName, filePath, fileURL); err != nil {
		return err
	}

	invoice.FileName = fileName
	invoice.FilePath = filePath
	invoice.FileURL = fileURL

	s.log.Info("invoice file regenerated", zap.String("invoice_number", invoice.InvoiceNumber))
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.InvoiceStatus) (domain.Invoice, error) {
	if !domain.ValidStoredStatus(status) {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	paidAt := invoice.PaidAt
	if status == domain.InvoiceStatusPaid {
		if invoice.PaidAt == nil {
			now := time.Now().UTC()
			paidAt = &now
		}
	} else {
		paidAt = nil
	}

	if err := s.repo.UpdateStatus(ctx, s.db, id, status, paidAt); err != nil {
		return domain.Invoice{}, err
	}

	becamePaid := status == domain.InvoiceStatusPaid && invoice.Status != domain.InvoiceStatusPaid
	invoice.Status = status
	invoice.PaidAt = paidAt

	if becamePaid {
		if s.publisher != nil {
			err := events.PublishInvoicePaid(ctx, s.publisher, events.InvoicePaidData{
				InvoiceID:     int64(invoice.ID),
				InvoiceNumber: invoice.InvoiceNumber,
				UserID:        invoice.UserID,
				TotalAmount:   invoice.TotalAmount,
				PaidAt:        *paidAt,
			})
			if err != nil {
				s.log.Error("invoice.paid event not published", zap.Error(err))
			}
		}

		if strings.TrimSpace(invoice.CustomerEmail) != "" {
			err := s.dispatcher.SendPaymentConfirmation(ctx, invoice.CustomerEmail, invoice.CustomerName, invoiceEmailData(*invoice))
			if err != nil {
				s.log.Warn("payment confirmation not sent", zap.Error(err))
			}
		}
	}

	return *invoice, nil
}

func (s *Service) FindOverdue(ctx context.Context) ([]domain.Invoice, error) {
	return s.repo.FindOverdue(ctx, s.db, time.Now().UTC())
}

func (s *Service) SendReminder(ctx context.Context, id snowflake.ID) error {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return domain.ErrNotFound
	}
	if invoice.Status == domain.InvoiceStatusPaid {
		return domain.ErrAlreadyPaid
	}
	if strings.TrimSpace(invoice.CustomerEmail) == "" {
		return domain.ErrInvalidRequest
	}

	return s.dispatcher.SendReminder(ctx, invoice.CustomerEmail, invoice.CustomerName, invoiceEmailData(*invoice))
}

func (s *Service) Resend(ctx context.Context, req domain.ResendInvoiceRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return domain.ErrInvalidRequest
	}

	invoice, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return domain.ErrNotFound
	}
	if !s.store.Exists(invoice.FilePath) {
		return domain.ErrFileNotFound
	}

	name := req.Name
	if name == "" {
		name = invoice.CustomerName
	}
	return s.dispatcher.SendInvoice(ctx, req.Email, name, invoice.FilePath, invoiceEmailData(*invoice))
}

func pdfData(invoice domain.Invoice, rate float64, items []events.InvoiceItem) pdf.InvoiceData {
	return pdf.InvoiceData{
		Number:         invoice.InvoiceNumber,
		IssuedAt:       invoice.CreatedAt,
		DueDate:        invoice.DueDate,
		Status:         string(invoice.EffectiveStatus(time.Now().UTC())),
		CustomerName:   invoice.CustomerName,
		CustomerEmail:  invoice.CustomerEmail,
		Items:          items,
		Amount:         invoice.Amount,
		TaxRatePercent: rate * 100,
		TaxAmount:      invoice.TaxAmount,
		TotalAmount:    invoice.TotalAmount,
	}
}

func invoiceEmailData(invoice domain.Invoice) email.InvoiceEmailData {
	return email.InvoiceEmailData{
		Number:      invoice.InvoiceNumber,
		TotalAmount: invoice.TotalAmount,
		DueDate:     invoice.DueDate,
		PaidAt:      invoice.PaidAt,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
