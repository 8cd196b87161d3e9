package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/autovisite/reportsvc/internal/events"
	"github.com/autovisite/reportsvc/internal/providers/email"
	"github.com/autovisite/reportsvc/internal/providers/pdf"
	"github.com/autovisite/reportsvc/internal/report/domain"
	"github.com/autovisite/reportsvc/internal/report/repository"
	"github.com/autovisite/reportsvc/internal/storage"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRenderer struct {
	renderCalls int
	failWith    error
}

func (f *fakeRenderer) Certificate(ctx context.Context, data events.InspectionData) ([]byte, error) {
	f.renderCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return []byte("%PDF-1.4 certificate"), nil
}

func (f *fakeRenderer) DetailedReport(ctx context.Context, data events.InspectionData) ([]byte, error) {
	f.renderCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return []byte("%PDF-1.4 detailed"), nil
}

func (f *fakeRenderer) Invoice(ctx context.Context, data pdf.InvoiceData) ([]byte, error) {
	return []byte("%PDF-1.4 invoice"), nil
}

type stubDispatcher struct {
	certificates int
	lastEmail    string
	err          error
}

func (s *stubDispatcher) SendCertificate(ctx context.Context, toEmail, toName, attachmentPath string, inspection events.InspectionData) error {
	s.certificates++
	s.lastEmail = toEmail
	return s.err
}

func (s *stubDispatcher) SendInvoice(ctx context.Context, toEmail, toName, attachmentPath string, invoice email.InvoiceEmailData) error {
	return nil
}

func (s *stubDispatcher) SendReminder(ctx context.Context, toEmail, toName string, invoice email.InvoiceEmailData) error {
	return nil
}

func (s *stubDispatcher) SendPaymentConfirmation(ctx context.Context, toEmail, toName string, invoice email.InvoiceEmailData) error {
	return nil
}

type recordingPublisher struct {
	published []string
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, payload any) error {
	p.published = append(p.published, routingKey)
	return nil
}

type fixture struct {
	svc        domain.Service
	db         *gorm.DB
	renderer   *fakeRenderer
	dispatcher *stubDispatcher
	publisher  *recordingPublisher
	store      *storage.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, gdb.AutoMigrate(&domain.Report{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	store, err := storage.NewStoreAt(t.TempDir(), "http://localhost:8008", zap.NewNop())
	assert.NoError(t, err)

	renderer := &fakeRenderer{}
	dispatcher := &stubDispatcher{}
	publisher := &recordingPublisher{}

	svc := New(Params{
		DB:         gdb,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		Renderer:   renderer,
		Store:      store,
		Dispatcher: dispatcher,
		Publisher:  publisher,
	})

	return &fixture{
		svc:        svc,
		db:         gdb,
		renderer:   renderer,
		dispatcher: dispatcher,
		publisher:  publisher,
		store:      store,
	}
}

func generateRequest() domain.GenerateReportRequest {
	return domain.GenerateReportRequest{
		InspectionID: 42,
		UserID:       7,
		Inspection: events.InspectionData{
			VehicleRegistration: "AB-123-CD",
			OwnerName:           "Marie Dupont",
			OwnerEmail:          "marie@example.fr",
			Status:              "passed",
		},
	}
}

func TestGenerate_CreatesCompletedReport(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Generate(context.Background(), generateRequest())
	assert.NoError(t, err)

	assert.Equal(t, domain.ReportStatusCompleted, report.Status)
	assert.Equal(t, domain.ReportTypeCertificate, report.ReportType)
	assert.NotNil(t, report.GeneratedAt)
	assert.True(t, f.store.Exists(report.FilePath))
	assert.Contains(t, report.FileURL, "/api/reports/download/")
	assert.Contains(t, report.FileName, "inspection_certificate_42_")

	// Snapshot stored for later resends.
	assert.Equal(t, "AB-123-CD", report.InspectionData["vehicle_registration"])

	assert.Equal(t, []string{events.ReportGenerated}, f.publisher.published)
}

func TestGenerate_RedeliveryIsNoop(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Generate(context.Background(), generateRequest())
	assert.NoError(t, err)

	second, err := f.svc.Generate(context.Background(), generateRequest())
	assert.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.renderer.renderCalls)

	var count int64
	f.db.Model(&domain.Report{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// Only the first generation publishes.
	assert.Equal(t, []string{events.ReportGenerated}, f.publisher.published)
}

func TestGenerate_RenderFailureLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	f.renderer.failWith = errors.New("font missing")

	_, err := f.svc.Generate(context.Background(), generateRequest())
	assert.Error(t, err)

	var count int64
	f.db.Model(&domain.Report{}).Count(&count)
	assert.Equal(t, int64(0), count)
	assert.Empty(t, f.publisher.published)
}

func TestGenerate_SaveFailureLeavesNoRow(t *testing.T) {
	f := newFixture(t)

	// Rendering succeeds but the write target is gone, so no row may appear.
	baseDir := filepath.Join(t.TempDir(), "reports")
	store, err := storage.NewStoreAt(baseDir, "http://localhost:8008", zap.NewNop())
	assert.NoError(t, err)
	assert.NoError(t, os.RemoveAll(baseDir))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	svc := New(Params{
		DB:         f.db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		Renderer:   f.renderer,
		Store:      store,
		Dispatcher: f.dispatcher,
		Publisher:  f.publisher,
	})

	_, err = svc.Generate(context.Background(), generateRequest())
	assert.Error(t, err)
	assert.Equal(t, 1, f.renderer.renderCalls)

	var count int64
	f.db.Model(&domain.Report{}).Count(&count)
	assert.Equal(t, int64(0), count)
	assert.Empty(t, f.publisher.published)
}

func TestGenerate_ValidatesRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(context.Background(), domain.GenerateReportRequest{UserID: 7})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.svc.Generate(context.Background(), domain.GenerateReportRequest{InspectionID: 42})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestGenerate_SendsEmailWhenRequested(t *testing.T) {
	f := newFixture(t)

	req := generateRequest()
	req.SendEmail = true
	_, err := f.svc.Generate(context.Background(), req)
	assert.NoError(t, err)

	assert.Equal(t, 1, f.dispatcher.certificates)
	assert.Equal(t, "marie@example.fr", f.dispatcher.lastEmail)
}

func TestGenerate_EmailFailureDoesNotFailGeneration(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.err = errors.New("smtp down")

	req := generateRequest()
	req.SendEmail = true
	report, err := f.svc.Generate(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, domain.ReportStatusCompleted, report.Status)
}

func TestResend(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Generate(context.Background(), generateRequest())
	assert.NoError(t, err)

	err = f.svc.Resend(context.Background(), domain.ResendReportRequest{
		ID:    report.ID,
		Email: "autre@example.fr",
	})
	assert.NoError(t, err)
	assert.Equal(t, "autre@example.fr", f.dispatcher.lastEmail)

	// Missing email is a validation error.
	err = f.svc.Resend(context.Background(), domain.ResendReportRequest{ID: report.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	// Missing file surfaces as such.
	assert.NoError(t, f.store.Remove(report.FilePath))
	err = f.svc.Resend(context.Background(), domain.ResendReportRequest{ID: report.ID, Email: "a@b.fr"})
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Generate(context.Background(), generateRequest())
	assert.NoError(t, err)

	deleted, err := f.svc.Delete(context.Background(), report.ID)
	assert.NoError(t, err)
	assert.Equal(t, report.ID, deleted.ID)
	assert.False(t, f.store.Exists(report.FilePath))

	_, err = f.svc.GetByID(context.Background(), report.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Delete(context.Background(), report.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(context.Background(), generateRequest())
	assert.NoError(t, err)

	other := generateRequest()
	other.InspectionID = 43
	other.UserID = 8
	other.ReportType = domain.ReportTypeDetailed
	_, err = f.svc.Generate(context.Background(), other)
	assert.NoError(t, err)

	all, err := f.svc.List(context.Background(), domain.ListReportFilter{})
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	byUser, err := f.svc.List(context.Background(), domain.ListReportFilter{UserID: 7})
	assert.NoError(t, err)
	assert.Len(t, byUser, 1)

	byInspection, err := f.svc.List(context.Background(), domain.ListReportFilter{InspectionID: 43})
	assert.NoError(t, err)
	assert.Len(t, byInspection, 1)
	assert.Equal(t, domain.ReportTypeDetailed, byInspection[0].ReportType)
}
