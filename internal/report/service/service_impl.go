package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/autovisite/reportsvc/internal/observability/metrics"
	"github.com/autovisite/reportsvc/internal/providers/email"
	"github.com/autovisite/reportsvc/internal/providers/pdf"
	"github.com/autovisite/reportsvc/internal/report/domain"
	"github.com/autovisite/reportsvc/internal/storage"
	pkgdb "github.com/autovisite/reportsvc/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
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
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("report.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		renderer:   p.Renderer,
		store:      p.Store,
		dispatcher: p.Dispatcher,
		publisher:  p.Publisher,
		metrics:    p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, filter domain.ListReportFilter) ([]domain.Report, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Report, error) {
	report, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Report{}, err
	}
	if report == nil {
		return domain.Report{}, domain.ErrNotFound
	}
	return *report, nil
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateReportRequest) (domain.Report, error) {
	if req.InspectionID == 0 || req.UserID == 0 {
		return domain.Report{}, domain.ErrInvalidRequest
	}
	reportType := req.ReportType
	if reportType == "" {
		reportType = domain.ReportTypeCertificate
	}

	// Redelivered events must not produce a second document.
	existing, err := s.repo.FindCompleted(ctx, s.db, req.InspectionID, reportType)
	if err != nil {
		return domain.Report{}, err
	}
	if existing != nil {
		s.log.Debug("report already generated",
			zap.Int64("inspection_id", req.InspectionID),
			zap.String("report_type", string(reportType)),
		)
		return *existing, nil
	}

	var data []byte
	switch reportType {
	case domain.ReportTypeCertificate:
		data, err = s.renderer.Certificate(ctx, req.Inspection)
	case domain.ReportTypeDetailed:
		data, err = s.renderer.DetailedReport(ctx, req.Inspection)
	default:
		return domain.Report{}, domain.ErrInvalidRequest
	}
	if err != nil {
		s.metrics.ObserveDocumentGenerated(string(reportType), metrics.OutcomeError)
		return domain.Report{}, fmt.Errorf("render %s: %w", reportType, err)
	}
	s.metrics.ObserveDocumentGenerated(string(reportType), metrics.OutcomeOK)

	now := time.Now().UTC()
	fileName := fmt.Sprintf("%s_%d_%d.pdf", reportType, req.InspectionID, now.UnixMilli())

	// The row is only written once the file is durably on disk.
	filePath, err := s.store.SaveReport(fileName, data)
	if err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		ID:             s.genID.Generate(),
		InspectionID:   req.InspectionID,
		UserID:         req.UserID,
		ReportType:     reportType,
		FileName:       fileName,
		FilePath:       filePath,
		FileURL:        s.store.ReportURL(fileName),
		Status:         domain.ReportStatusCompleted,
		InspectionData: inspectionSnapshot(req.Inspection),
		GeneratedAt:    &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &report); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// A concurrent delivery won the race; keep its row and file.
			_ = s.store.Remove(filePath)
			winner, ferr := s.repo.FindCompleted(ctx, s.db, req.InspectionID, reportType)
			if ferr == nil && winner != nil {
				return *winner, nil
			}
		}
		return domain.Report{}, err
	}

	s.log.Info("report generated",
		zap.Int64("inspection_id", req.InspectionID),
		zap.String("report_type", string(reportType)),
		zap.String("file_name", fileName),
	)

	if s.publisher != nil {
		err := events.PublishReportGenerated(ctx, s.publisher, events.ReportGeneratedData{
			ReportID:     int64(report.ID),
			InspectionID: report.InspectionID,
			UserID:       report.UserID,
			ReportType:   string(reportType),
			FileURL:      report.FileURL,
		})
		if err != nil {
			// The row is committed; the event is lost, not retried.
			s.log.Error("report.generated event not published", zap.Error(err))
		}
	}

	if req.SendEmail && strings.TrimSpace(req.Inspection.OwnerEmail) != "" {
		err := s.dispatcher.SendCertificate(ctx, req.Inspection.OwnerEmail, req.Inspection.OwnerName, filePath, req.Inspection)
		if err != nil {
			s.log.Warn("certificate email not sent", zap.Error(err))
		}
	}

	return report, nil
}

func (s *Service) Resend(ctx context.Context, req domain.ResendReportRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return domain.ErrInvalidRequest
	}

	report, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return err
	}
	if report == nil {
		return domain.ErrNotFound
	}
	if !s.store.Exists(report.FilePath) {
		return domain.ErrFileNotFound
	}

	inspection := inspectionFromSnapshot(report.InspectionData)
	return s.dispatcher.SendCertificate(ctx, req.Email, req.Name, report.FilePath, inspection)
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) (domain.Report, error) {
	report, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Report{}, err
	}
	if report == nil {
		return domain.Report{}, domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return domain.Report{}, err
	}

	// Best effort; an orphan file is preferable to a failed delete.
	if err := s.store.Remove(report.FilePath); err != nil {
		s.log.Warn("report file not removed",
			zap.String("file_path", report.FilePath),
			zap.Error(err),
		)
	}

	return *report, nil
}

func inspectionSnapshot(data events.InspectionData) datatypes.JSONMap {
	raw, err := json.Marshal(data)
	if err != nil {
		return datatypes.JSONMap{}
	}
	snapshot := datatypes.JSONMap{}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return datatypes.JSONMap{}
	}
	return snapshot
}

func inspectionFromSnapshot(snapshot datatypes.JSONMap) events.InspectionData {
	var data events.InspectionData
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return data
	}
	_ = json.Unmarshal(raw, &data)
	return data
}
