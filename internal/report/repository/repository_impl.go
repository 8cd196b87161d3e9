package repository

import (
	"context"

	"github.com/autovisite/reportsvc/internal/report/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, report *domain.Report) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO reports (id, inspection_id, user_id, report_type, file_name, file_path, file_url, status, inspection_data, generated_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.InspectionID,
		report.UserID,
		report.ReportType,
		report.FileName,
		report.FilePath,
		report.FileURL,
		report.Status,
		report.InspectionData,
		report.GeneratedAt,
		report.CreatedAt,
		report.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Report, error) {
	var report domain.Report
	err := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repo) FindCompleted(ctx context.Context, db *gorm.DB, inspectionID int64, reportType domain.ReportType) (*domain.Report, error) {
	var report domain.Report
	err := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("inspection_id = ? AND report_type = ? AND status = ?", inspectionID, reportType, domain.ReportStatusCompleted).
		First(&report).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListReportFilter) ([]domain.Report, error) {
	var reports []domain.Report
	stmt := db.WithContext(ctx).Model(&domain.Report{})
	if filter.UserID != 0 {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	if filter.InspectionID != 0 {
		stmt = stmt.Where("inspection_id = ?", filter.InspectionID)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Report{}).Error
}
