package kiosk

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/config"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/httpmiddleware"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/report"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/session"
)

// Server is the local HTTP surface the kiosk front panel drives.
type Server struct {
	controller *session.Controller
	client     *api.Client
	cfg        *config.App
	log        zerolog.Logger
}

// NewServer wires the kiosk surface.
func NewServer(controller *session.Controller, client *api.Client, cfg *config.App, log zerolog.Logger) *Server {
	return &Server{controller: controller, client: client, cfg: cfg, log: log}
}

// Router builds the gin engine with the panel routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(s.log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(s.cfg.Server.RateLimitPerMin, s.cfg.Server.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.health)

	panel := r.Group("/kiosk")
	panel.POST("/badge", s.badgeChanged)
	panel.GET("/state", s.state)
	panel.POST("/action", s.actionRequested)
	panel.POST("/verify", s.codeSubmitted)
	panel.POST("/tasks", s.appendTask)
	panel.POST("/setup", s.beginSetup)
	panel.POST("/setup/verify", s.completeSetup)
	panel.GET("/export", s.exportHistory)
	panel.GET("/report", s.downloadReport)

	return r
}

func (s *Server) health(c *gin.Context) {
	upstream := s.client.Health(c.Request.Context()) == nil
	status := http.StatusOK
	if !upstream {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "upstream": upstream})
}

func (s *Server) badgeChanged(c *gin.Context) {
	var req struct {
		Badge string `json:"badge"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	snap := s.controller.BadgeChanged(c.Request.Context(), req.Badge)
	c.JSON(http.StatusOK, snap)
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) actionRequested(c *gin.Context) {
	snap, err := s.controller.ActionRequested(c.Request.Context())
	c.JSON(statusFor(err), snap)
}

func (s *Server) codeSubmitted(c *gin.Context) {
	var req struct {
		Code            string `json:"code"`
		TaskDescription string `json:"task_description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	snap, err := s.controller.CodeSubmitted(c.Request.Context(), req.Code, req.TaskDescription)
	c.JSON(statusFor(err), snap)
}

func (s *Server) appendTask(c *gin.Context) {
	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	snap, err := s.controller.AppendTask(c.Request.Context(), req.Description)
	c.JSON(statusFor(err), snap)
}

func (s *Server) beginSetup(c *gin.Context) {
	snap, err := s.controller.BeginSetup(c.Request.Context())
	c.JSON(statusFor(err), snap)
}

func (s *Server) completeSetup(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	snap, err := s.controller.CompleteSetup(c.Request.Context(), req.Code)
	c.JSON(statusFor(err), snap)
}

func (s *Server) exportHistory(c *gin.Context) {
	student, records := s.controller.Student()
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "no student loaded"})
		return
	}

	var buf bytes.Buffer
	if err := report.ExportHistory(&buf, student, records); err != nil {
		s.log.Error().Err(err).Msg("history export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "export failed"})
		return
	}

	c.Header("Content-Disposition", attachmentHeader(report.Filename(student.Badge)))
	c.Data(http.StatusOK, report.XLSXContentType, buf.Bytes())
}

func (s *Server) downloadReport(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid from date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid to date, expected YYYY-MM-DD"})
		return
	}

	var buf bytes.Buffer
	file, err := s.client.DownloadReport(c.Request.Context(), api.ReportRequest{
		From:  from,
		To:    to,
		Badge: c.Query("id_number"),
	}, &buf)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apiErr.Status, gin.H{"message": apiErr.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"message": "report download failed"})
		return
	}

	c.Header("Content-Disposition", attachmentHeader(file.Filename))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// attachmentHeader builds a Content-Disposition value with the filename
// escaped. The upstream filename is untrusted input.
func attachmentHeader(filename string) string {
	header := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if header == "" {
		return "attachment"
	}
	return header
}

// statusFor maps controller errors onto the panel's HTTP contract. The
// snapshot always carries the toast; the status is advisory.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, session.ErrCooldownActive):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrInvalidBadge),
		errors.Is(err, session.ErrTaskTooShort),
		errors.Is(err, session.ErrCodeRequired),
		errors.Is(err, session.ErrNoActionAvailable):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrCodeRejected):
		return http.StatusUnauthorized
	default:
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
}
