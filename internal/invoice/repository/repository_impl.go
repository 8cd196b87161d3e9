package repository

import (
	"context"
	"time"

	"github.com/autovisite/reportsvc/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (id, user_id, appointment_id, payment_id, invoice_number, amount, tax_amount, total_amount, status, customer_name, customer_email, file_name, file_path, file_url, due_date, paid_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.UserID,
		invoice.AppointmentID,
		invoice.PaymentID,
		invoice.InvoiceNumber,
		invoice.Amount,
		invoice.TaxAmount,
		invoice.TotalAmount,
		invoice.Status,
		invoice.CustomerName,
		invoice.CustomerEmail,
		invoice.FileName,
		invoice.FilePath,
		invoice.FileURL,
		invoice.DueDate,
		invoice.PaidAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID int64) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("payment_id = ?", paymentID).
		First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.UserID != 0 {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	switch filter.Status {
	case "":
	case domain.InvoiceStatusOverdue:
		stmt = stmt.Where("status = ? AND due_date < ?", domain.InvoiceStatusPending, time.Now().UTC())
	default:
		stmt = stmt.Where("status = ?", filter.Status)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) FindOverdue(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("status = ? AND due_date < ?", domain.InvoiceStatusPending, now).
		Order("due_date asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.InvoiceStatus, paidAt *time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"paid_at":    paidAt,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) UpdateFile(ctx context.Context, db *gorm.DB, id snowflake.ID, fileName, filePath, fileURL string) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"file_name":  fileName,
			"file_path":  filePath,
			"file_url":   fileURL,
			"updated_at": time.Now().UTC(),
		}).Error
}
