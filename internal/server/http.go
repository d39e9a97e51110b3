package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/healthcheck"
	"github.com/localrivet/reporeader/internal/report"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/tools"
	"github.com/localrivet/reporeader/internal/usage"
)

const shutdownTimeout = 10 * time.Second

// HTTPOptions configure the HTTP front end.
type HTTPOptions struct {
	Addr         string
	Mode         string // gin mode: debug, release or test
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

// HTTPServer serves the JSON API with gin.
type HTTPServer struct {
	service Service
	opts    HTTPOptions
	logger  *slog.Logger
	engine  *gin.Engine

	mu  sync.Mutex
	srv *http.Server
}

// NewHTTPServer creates a new HTTPServer instance.
func NewHTTPServer(service Service, opts HTTPOptions) *HTTPServer {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &HTTPServer{
		service: service,
		opts:    opts,
		logger:  opts.Logger.With("component", "http"),
	}
}

// Initialize builds the router.
func (s *HTTPServer) Initialize() error {
	if s.service == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}
	if s.opts.Mode != "" {
		gin.SetMode(s.opts.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.POST("/summarize", s.handleSummarize)
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/usage-stats", s.handleUsageStats)
	api.GET("/rate-limit", s.handleRateLimit)

	s.engine = router
	s.logger.Info("HTTP server initialized", "addr", s.opts.Addr)
	return nil
}

// Handler returns the router, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address until Stop is called.
func (s *HTTPServer) Start() error {
	if s.engine == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}
	srv := s.srv
	s.mu.Unlock()

	s.logger.Info("Starting HTTP server", "addr", s.opts.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errortypes.NetworkError(err, "http server failed")
	}
	return nil
}

// Stop shuts the listener down and waits for in-flight requests.
func (s *HTTPServer) Stop() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// credentialCheckParam on /health opts in to calling the upstream services.
const credentialCheckParam = "probe"

// healthResponse is the pipeline report plus, with ?probe=true, the result
// of calling GitHub and Hugging Face with the configured credentials.
type healthResponse struct {
	*summarizer.HealthReport
	Credentials []healthcheck.Check `json:"credentials,omitempty"`
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	health, err := s.service.HealthReport()
	if err != nil {
		HandleInternalError(c, "Failed to build health report", err)
		return
	}

	resp := healthResponse{HealthReport: health}
	if check, _ := strconv.ParseBool(c.Query(credentialCheckParam)); check {
		resp.Credentials = s.service.CheckCredentials(c.Request.Context())
	}
	// Summaries degrade to rule-based text, so the service stays up even
	// when every backend is unhealthy.
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) handleSummarize(c *gin.Context) {
	var req tools.SummarizeFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBadRequest(c, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		HandleBadRequest(c, "filename is required", errors.New("missing filename"))
		return
	}

	result := s.service.Summarize(c.Request.Context(), summarizer.Request{Filename: req.Filename, Content: req.Content})
	c.JSON(http.StatusOK, tools.SummarizeFileResponse{
		Status:  tools.StatusSuccess,
		Summary: result.Text,
		Usage:   result.Usage,
	})
}

func (s *HTTPServer) handleAnalyze(c *gin.Context) {
	var req tools.AnalyzeRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBadRequest(c, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.GitHubURL) == "" {
		HandleBadRequest(c, "GitHub URL is required", errors.New("missing github_url"))
		return
	}

	rep, err := s.service.Analyze(c.Request.Context(), req.GitHubURL)
	if err != nil {
		HandleError(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "markdown") {
		var buf bytes.Buffer
		if err := report.RenderMarkdown(&buf, rep); err != nil {
			HandleInternalError(c, "Failed to render report", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="repo_analysis.md"`)
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, tools.AnalyzeRepositoryResponse{Status: tools.StatusSuccess, Report: rep})
}

func (s *HTTPServer) handleUsageStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.UsageSummary())
}

func (s *HTTPServer) handleRateLimit(c *gin.Context) {
	remaining, err := strconv.Atoi(c.DefaultQuery("remaining", "0"))
	if err != nil {
		HandleBadRequest(c, "remaining must be an integer", err)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(usage.UnauthenticatedLimit)))
	if err != nil {
		HandleBadRequest(c, "limit must be an integer", err)
		return
	}
	c.JSON(http.StatusOK, usage.RateLimitStatus(remaining, limit))
}

// requestLogger logs one line per request; health and metrics scrapes only on failure.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest && (path == "/health" || path == "/metrics") {
			return
		}

		fields := []any{
			"method", method,
			"path", path,
			"status", status,
			"latency", time.Since(startedAt),
			"bytes", c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}
