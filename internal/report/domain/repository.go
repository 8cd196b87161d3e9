package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, report *Report) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Report, error)
	FindCompleted(ctx context.Context, db *gorm.DB, inspectionID int64, reportType ReportType) (*Report, error)
	List(ctx context.Context, db *gorm.DB, filter ListReportFilter) ([]Report, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
