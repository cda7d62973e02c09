package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"FeedNotifier/internal/usecase"
)

// Trigger is the scheduler surface exposed over HTTP.
type Trigger interface {
	RunNow(ctx context.Context) (usecase.Report, error)
	Status() usecase.Status
}

// Server serves the control API on top of a Trigger.
type Server struct {
	trigger Trigger
	logger  *slog.Logger
}

// NewServer wires the trigger; a nil logger discards output.
func NewServer(trigger Trigger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{trigger: trigger, logger: logger}
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts health, fetch and status handlers.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/fetch", s.fetch)
		v1.GET("/status", s.status)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fetch runs one cycle synchronously; it waits for a running cycle instead of failing.
func (s *Server) fetch(c *gin.Context) {
	s.logger.Info("manual fetch requested", "remote", c.ClientIP())

	report, err := s.trigger.RunNow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "cycle_failed",
			"message": err.Error(),
			"data":    report,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    report,
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    s.trigger.Status(),
	})
}
