package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID int64) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter) ([]Invoice, error)
	FindOverdue(ctx context.Context, db *gorm.DB, now time.Time) ([]Invoice, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status InvoiceStatus, paidAt *time.Time) error
	UpdateFile(ctx context.Context, db *gorm.DB, id snowflake.ID, fileName, filePath, fileURL string) error
}
