package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ReportType string

const (
	ReportTypeCertificate ReportType = "inspection_certificate"
	ReportTypeDetailed    ReportType = "detailed_report"
)

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// Report is a generated inspection document. The inspection snapshot is
// stored on the row so emails can be resent without the source system.
type Report struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	InspectionID   int64             `gorm:"not null;index" json:"inspection_id"`
	UserID         int64             `gorm:"not null;index" json:"user_id"`
	ReportType     ReportType        `gorm:"not null;default:'inspection_certificate'" json:"report_type"`
	FileName       string            `json:"file_name,omitempty"`
	FilePath       string            `json:"file_path,omitempty"`
	FileURL        string            `json:"file_url,omitempty"`
	Status         ReportStatus      `gorm:"not null;default:'pending'" json:"status"`
	InspectionData datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"inspection_data,omitempty"`
	GeneratedAt    *time.Time        `json:"generated_at,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

func ParseReportType(raw string) ReportType {
	switch raw {
	case string(ReportTypeDetailed):
		return ReportTypeDetailed
	default:
		return ReportTypeCertificate
	}
}
