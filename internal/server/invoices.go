package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/autovisite/reportsvc/internal/events"
	invoicedomain "github.com/autovisite/reportsvc/internal/invoice/domain"
	"github.com/gin-gonic/gin"
)

type createInvoiceRequest struct {
	UserID        int64                `json:"user_id"`
	AppointmentID *int64               `json:"appointment_id"`
	PaymentID     *int64               `json:"payment_id"`
	Amount        float64              `json:"amount"`
	TaxRate       *float64             `json:"tax_rate"`
	SendEmail     bool                 `json:"send_email"`
	Customer      events.CustomerData  `json:"customer_data"`
	Items         []events.InvoiceItem `json:"items"`
}

type updateInvoiceStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) ListInvoices(c *gin.Context) {
	filter := invoicedomain.ListInvoiceFilter{
		UserID: queryInt64(c, "user_id"),
		Status: invoicedomain.InvoiceStatus(strings.TrimSpace(c.Query("status"))),
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoiceViews(invoices)})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		UserID:        req.UserID,
		AppointmentID: req.AppointmentID,
		PaymentID:     req.PaymentID,
		Amount:        req.Amount,
		TaxRate:       req.TaxRate,
		Customer:      req.Customer,
		Items:         req.Items,
		SendEmail:     req.SendEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invoiceView(invoice)})
}

func (s *Server) ListOverdueInvoices(c *gin.Context) {
	invoices, err := s.invoiceSvc.FindOverdue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoiceViews(invoices)})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoiceView(invoice)})
}

func (s *Server) DownloadInvoice(c *gin.Context) {
	fileName := c.Param("filename")
	path, err := s.store.InvoiceFile(fileName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.FileAttachment(path, fileName)
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoice, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), id, invoicedomain.InvoiceStatus(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoiceView(invoice)})
}

func (s *Server) SendInvoiceReminder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.invoiceSvc.SendReminder(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reminder sent"})
}

func (s *Server) ResendInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.invoiceSvc.Resend(c.Request.Context(), invoicedomain.ResendInvoiceRequest{
		ID:    id,
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invoice sent"})
}

// invoiceView substitutes the derived overdue status for API responses.
func invoiceView(invoice invoicedomain.Invoice) invoicedomain.Invoice {
	invoice.Status = invoice.EffectiveStatus(time.Now().UTC())
	return invoice
}

func invoiceViews(invoices []invoicedomain.Invoice) []invoicedomain.Invoice {
	views := make([]invoicedomain.Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		views = append(views, invoiceView(invoice))
	}
	return views
}
