package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthTimeout = 2 * time.Second

// setupRoutes configures the root endpoints, the module routes under the
// API prefix and the discovery listing
func (s *Server) setupRoutes(r *gin.Engine) {
	r.GET("/", s.handleRoot)
	r.GET("/health", handleHealth)
	if s.cfg.Server.EnableMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group(s.cfg.Server.APIPrefix)
	{
		api.GET("", handleRouteListing)
		api.GET("/health/system", s.handleSystemHealth)
	}

	s.modules.RegisterRoutes(api)

	apiroutes.Register(api.BasePath(), "GET", "Lists all available API endpoints.")
	apiroutes.Register(api.BasePath()+"/health/system", "GET", "Process, host, database and module health.")
}

// handleRoot handles GET /
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + s.cfg.Project.Name,
		"version": s.cfg.Project.Version,
		"docs":    s.cfg.Server.APIPrefix,
	})
}

// handleHealth handles GET /health
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleRouteListing handles GET /api
func handleRouteListing(c *gin.Context) {
	c.JSON(http.StatusOK, apiroutes.Get())
}

// handleSystemHealth handles GET /api/health/system. The status code is
// 503 only when the database cannot be reached.
func (s *Server) handleSystemHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := SystemHealth{
		Status:  string(modulemanager.HealthStateHealthy),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Version: s.cfg.Project.Version,
		Modules: s.modules.HealthCheck(ctx),
		Process: collectProcessStats(),
		Host:    collectHostStats(ctx),
	}

	status := http.StatusOK
	report.Database.Status = "ok"
	if err := s.tx.Ping(ctx); err != nil {
		report.Status = string(modulemanager.HealthStateUnhealthy)
		report.Database.Status = "unreachable"
		report.Database.Error = err.Error()
		status = http.StatusServiceUnavailable
	} else if stats, err := s.tx.Stats(); err == nil {
		report.Database.Pool = &stats
	}

	if report.Status == string(modulemanager.HealthStateHealthy) {
		for _, m := range report.Modules {
			if m.Status != modulemanager.HealthStateHealthy {
				report.Status = string(modulemanager.HealthStateDegraded)
				break
			}
		}
	}

	c.JSON(status, report)
}
