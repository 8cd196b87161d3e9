package domain

import (
	"context"
	"errors"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/bwmarrin/snowflake"
)

type ListReportFilter struct {
	UserID       int64
	InspectionID int64
}

type GenerateReportRequest struct {
	InspectionID int64
	UserID       int64
	ReportType   ReportType
	Inspection   events.InspectionData
	SendEmail    bool
}

type ResendReportRequest struct {
	ID    snowflake.ID
	Email string
	Name  string
}

type Service interface {
	List(ctx context.Context, filter ListReportFilter) ([]Report, error)
	GetByID(ctx context.Context, id snowflake.ID) (Report, error)
	// Generate renders, stores and records the document. Redeliveries of an
	// already-completed (inspection, type) pair are no-ops returning the
	// existing row.
	Generate(ctx context.Context, req GenerateReportRequest) (Report, error)
	Resend(ctx context.Context, req ResendReportRequest) error
	Delete(ctx context.Context, id snowflake.ID) (Report, error)
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
	ErrFileNotFound   = errors.New("file_not_found")
)
