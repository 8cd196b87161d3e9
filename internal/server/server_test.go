package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autovisite/reportsvc/internal/events"
	invoicedomain "github.com/autovisite/reportsvc/internal/invoice/domain"
	"github.com/autovisite/reportsvc/internal/observability"
	reportdomain "github.com/autovisite/reportsvc/internal/report/domain"
	"github.com/autovisite/reportsvc/internal/storage"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubReportService struct {
	reports    []reportdomain.Report
	generated  *reportdomain.GenerateReportRequest
	resent     *reportdomain.ResendReportRequest
	getErr     error
	generalErr error
}

func (s *stubReportService) List(ctx context.Context, filter reportdomain.ListReportFilter) ([]reportdomain.Report, error) {
	return s.reports, s.generalErr
}

func (s *stubReportService) GetByID(ctx context.Context, id snowflake.ID) (reportdomain.Report, error) {
	if s.getErr != nil {
		return reportdomain.Report{}, s.getErr
	}
	return reportdomain.Report{ID: id}, nil
}

func (s *stubReportService) Generate(ctx context.Context, req reportdomain.GenerateReportRequest) (reportdomain.Report, error) {
	s.generated = &req
	if s.generalErr != nil {
		return reportdomain.Report{}, s.generalErr
	}
	return reportdomain.Report{ID: 1, InspectionID: req.InspectionID, UserID: req.UserID, ReportType: req.ReportType}, nil
}

func (s *stubReportService) Resend(ctx context.Context, req reportdomain.ResendReportRequest) error {
	s.resent = &req
	return s.generalErr
}

func (s *stubReportService) Delete(ctx context.Context, id snowflake.ID) (reportdomain.Report, error) {
	if s.generalErr != nil {
		return reportdomain.Report{}, s.generalErr
	}
	return reportdomain.Report{ID: id}, nil
}

type stubInvoiceService struct {
	invoices    []invoicedomain.Invoice
	statusCalls []invoicedomain.InvoiceStatus
	reminderErr error
	generalErr  error
}

func (s *stubInvoiceService) List(ctx context.Context, filter invoicedomain.ListInvoiceFilter) ([]invoicedomain.Invoice, error) {
	return s.invoices, s.generalErr
}

func (s *stubInvoiceService) GetByID(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	if s.generalErr != nil {
		return invoicedomain.Invoice{}, s.generalErr
	}
	return invoicedomain.Invoice{ID: id, Status: invoicedomain.InvoiceStatusPending, DueDate: time.Now().Add(time.Hour)}, nil
}

func (s *stubInvoiceService) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if s.generalErr != nil {
		return invoicedomain.Invoice{}, s.generalErr
	}
	return invoicedomain.Invoice{ID: 1, UserID: req.UserID, Amount: req.Amount, DueDate: time.Now().Add(time.Hour)}, nil
}

func (s *stubInvoiceService) CreateFromPayment(ctx context.Context, data events.PaymentSucceededData) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (s *stubInvoiceService) UpdateStatus(ctx context.Context, id snowflake.ID, status invoicedomain.InvoiceStatus) (invoicedomain.Invoice, error) {
	s.statusCalls = append(s.statusCalls, status)
	if !invoicedomain.ValidStoredStatus(status) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidStatus
	}
	if s.generalErr != nil {
		return invoicedomain.Invoice{}, s.generalErr
	}
	return invoicedomain.Invoice{ID: id, Status: status, DueDate: time.Now().Add(time.Hour)}, nil
}

func (s *stubInvoiceService) FindOverdue(ctx context.Context) ([]invoicedomain.Invoice, error) {
	return s.invoices, s.generalErr
}

func (s *stubInvoiceService) SendReminder(ctx context.Context, id snowflake.ID) error {
	return s.reminderErr
}

func (s *stubInvoiceService) Resend(ctx context.Context, req invoicedomain.ResendInvoiceRequest) error {
	return s.generalErr
}

type testServer struct {
	engine   *gin.Engine
	reports  *stubReportService
	invoices *stubInvoiceService
	store    *storage.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := storage.NewStoreAt(t.TempDir(), "http://localhost:8008", zap.NewNop())
	assert.NoError(t, err)

	engine := NewEngine(observability.Config{}, nil)
	reports := &stubReportService{}
	invoices := &stubInvoiceService{}
	NewServer(ServerParams{
		Gin:        engine,
		ReportSvc:  reports,
		InvoiceSvc: invoices,
		Store:      store,
	})

	return &testServer{engine: engine, reports: reports, invoices: invoices, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGenerateReport(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/reports", map[string]any{
		"inspection_id": 42,
		"user_id":       7,
		"report_type":   "detailed_report",
		"send_email":    true,
		"inspection_data": map[string]any{
			"vehicle_registration": "AB-123-CD",
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.NotNil(t, ts.reports.generated)
	assert.Equal(t, int64(42), ts.reports.generated.InspectionID)
	assert.Equal(t, reportdomain.ReportTypeDetailed, ts.reports.generated.ReportType)
	assert.True(t, ts.reports.generated.SendEmail)
	assert.Equal(t, "AB-123-CD", ts.reports.generated.Inspection.VehicleRegistration)
}

func TestGenerateReport_InvalidPayload(t *testing.T) {
	ts := newTestServer(t)
	ts.reports.generalErr = reportdomain.ErrInvalidRequest

	w := ts.do(t, http.MethodPost, "/api/reports", map[string]any{"user_id": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request", body.Error)
}

func TestGetReport_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.reports.getErr = reportdomain.ErrNotFound

	w := ts.do(t, http.MethodGet, "/api/reports/12345", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error)
}

func TestGetReport_BadID(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/reports/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadReport(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.store.SaveReport("inspection_certificate_42_1.pdf", []byte("%PDF-1.4 data"))
	assert.NoError(t, err)

	w := ts.do(t, http.MethodGet, "/api/reports/download/inspection_certificate_42_1.pdf", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inspection_certificate_42_1.pdf")
	assert.Equal(t, "%PDF-1.4 data", w.Body.String())
}

func TestDownloadReport_Missing(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/reports/download/nope.pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResendReport(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/reports/12345/resend", map[string]any{
		"email": "marie@example.fr",
		"name":  "Marie",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NotNil(t, ts.reports.resent)
	assert.Equal(t, "marie@example.fr", ts.reports.resent.Email)
}

func TestDeleteReport(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodDelete, "/api/reports/12345", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListInvoices_DerivedOverdue(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.invoices = []invoicedomain.Invoice{
		{ID: 1, Status: invoicedomain.InvoiceStatusPending, DueDate: time.Now().Add(-time.Hour)},
		{ID: 2, Status: invoicedomain.InvoiceStatusPaid, DueDate: time.Now().Add(-time.Hour)},
	}

	w := ts.do(t, http.MethodGet, "/api/invoices", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []invoicedomain.Invoice `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, body.Data[0].Status)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, body.Data[1].Status)
}

func TestUpdateInvoiceStatus(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/api/invoices/12345", map[string]any{"status": "paid"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []invoicedomain.InvoiceStatus{invoicedomain.InvoiceStatusPaid}, ts.invoices.statusCalls)
}

func TestUpdateInvoiceStatus_RejectsOverdue(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/api/invoices/12345", map[string]any{"status": "overdue"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request", body.Error)
}

func TestSendInvoiceReminder_AlreadyPaid(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.reminderErr = invoicedomain.ErrAlreadyPaid

	w := ts.do(t, http.MethodPost, "/api/invoices/12345/reminder", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "already_paid", body.Error)
}

func TestDownloadInvoice(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.store.SaveInvoice("INV-1.pdf", []byte("%PDF-1.4 invoice"))
	assert.NoError(t, err)

	w := ts.do(t, http.MethodGet, "/api/invoices/download/INV-1.pdf", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 invoice", w.Body.String())
}

func TestCreateInvoice(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/invoices", map[string]any{
		"user_id": 7,
		"amount":  78.90,
		"customer_data": map[string]any{
			"name":  "Marie Dupont",
			"email": "marie@example.fr",
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListOverdueInvoices(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.invoices = []invoicedomain.Invoice{
		{ID: 1, Status: invoicedomain.InvoiceStatusPending, DueDate: time.Now().Add(-time.Hour)},
	}

	w := ts.do(t, http.MethodGet, "/api/invoices/overdue", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []invoicedomain.Invoice `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, body.Data[0].Status)
}
