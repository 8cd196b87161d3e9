package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/autovisite/reportsvc/internal/events"
	reportdomain "github.com/autovisite/reportsvc/internal/report/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type generateReportRequest struct {
	InspectionID   int64                 `json:"inspection_id"`
	UserID         int64                 `json:"user_id"`
	ReportType     string                `json:"report_type"`
	SendEmail      bool                  `json:"send_email"`
	InspectionData events.InspectionData `json:"inspection_data"`
}

type resendRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) ListReports(c *gin.Context) {
	filter := reportdomain.ListReportFilter{
		UserID:       queryInt64(c, "user_id"),
		InspectionID: queryInt64(c, "inspection_id"),
	}

	reports, err := s.reportSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reports})
}

func (s *Server) GenerateReport(c *gin.Context) {
	var req generateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	report, err := s.reportSvc.Generate(c.Request.Context(), reportdomain.GenerateReportRequest{
		InspectionID: req.InspectionID,
		UserID:       req.UserID,
		ReportType:   reportdomain.ParseReportType(req.ReportType),
		Inspection:   req.InspectionData,
		SendEmail:    req.SendEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": report})
}

func (s *Server) GetReportByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	report, err := s.reportSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) DownloadReport(c *gin.Context) {
	fileName := c.Param("filename")
	path, err := s.store.ReportFile(fileName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.FileAttachment(path, fileName)
}

func (s *Server) ResendReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.reportSvc.Resend(c.Request.Context(), reportdomain.ResendReportRequest{
		ID:    id,
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "report sent"})
}

func (s *Server) DeleteReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	report, err := s.reportSvc.Delete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func pathID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, key string) int64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
