package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	pshttp "github.com/GriffinCanCode/pagestack/internal/api/http"
	"github.com/GriffinCanCode/pagestack/internal/api/middleware"
	"github.com/GriffinCanCode/pagestack/internal/api/ws"
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagestack/internal/session"
	"github.com/GriffinCanCode/pagestack/internal/stack"
	"github.com/GriffinCanCode/pagestack/internal/transport"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	handler  http.Handler
	http     *http.Server
	session  *session.Session
	client   *transport.Client
	stream   *ws.Handler
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
	version  string
}

// Option customizes a Server
type Option func(*Server)

// WithLogger replaces the logger built from the configuration
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported by the root endpoint
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a server and starts its navigation session. The
// session fetches its entry document from the configured origin, so the
// origin must be reachable.
func NewServer(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		config:   cfg,
		registry: prometheus.NewRegistry(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		logger, err := newLogger(cfg.Logging)
		if err != nil {
			return nil, err
		}
		s.logger = logger
	}

	s.logger.Info("Initializing pagestack server",
		zap.String("port", cfg.Server.Port),
		zap.String("origin", cfg.Session.Origin),
		zap.String("entry", cfg.Session.Entry),
	)

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = monitoring.NewMetrics(s.registry)

	client, err := transport.NewClient(transport.Config{
		Origin:    cfg.Session.Origin,
		Timeout:   cfg.Fetch.Timeout,
		Retries:   cfg.Fetch.Retries,
		RPS:       cfg.Fetch.RPS,
		UserAgent: cfg.Fetch.UserAgent,
	},
		transport.WithLogger(s.logger.Component("transport")),
		transport.WithRecorder(s.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("create page client: %w", err)
	}
	for name, value := range cfg.Fetch.Headers {
		client.SetHeader(name, value)
	}
	s.client = client

	stacks, err := loadStacks(cfg.Session.Stacks)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Stacks configured", zap.Int("count", len(stacks)))

	sess, err := session.New(session.Config{
		Entry:    cfg.Session.Entry,
		Stacks:   stacks,
		Sanitize: cfg.Session.Sanitize,
	}, client,
		session.WithLogger(s.logger.Component("session")),
		session.WithRecorder(s.metrics),
	)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(ctx); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	s.session = sess

	s.router = s.routes()
	s.handler = compress(s.router)
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Server initialized successfully", zap.String("session", sess.ID()))
	return s, nil
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Level != "" {
		logCfg.Level = cfg.Level
	}
	return logging.New(logCfg)
}

func loadStacks(path string) ([]stack.Options, error) {
	if path == "" {
		return nil, nil
	}
	defs, err := config.LoadStacks(path)
	if err != nil {
		return nil, err
	}
	stacks := make([]stack.Options, 0, len(defs))
	for i, def := range defs {
		opts, err := def.Options()
		if err != nil {
			return nil, fmt.Errorf("stack %d in %s: %w", i, path, err)
		}
		stacks = append(stacks, opts)
	}
	return stacks, nil
}

func (s *Server) routes() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.CORSFor(s.config.Server.CORSOrigins)))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}))
	}

	handlers := pshttp.NewHandlers(s.session, pshttp.NewHandlerMetrics(s.metrics), s.logger.Component("http"), s.version)
	s.stream = ws.NewHandler(s.session, s.metrics, s.logger.Component("ws"), s.config.Server.CORSOrigins)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	api := router.Group("/api")
	api.GET("/stacks", handlers.ListStacks)
	api.GET("/stacks/:id", handlers.GetStack)
	api.GET("/document", handlers.GetDocument)
	api.GET("/history", handlers.GetHistory)

	// Address changes
	api.POST("/navigate", handlers.Navigate)
	api.POST("/back", handlers.Back)
	api.POST("/forward", handlers.Forward)
	api.POST("/click", handlers.Click)

	// Stack operations
	api.POST("/stacks/:id/open", handlers.OpenPage)
	api.POST("/stacks/:id/close", handlers.ClosePage)
	api.POST("/stacks/:id/reload", handlers.ReloadPage)
	api.POST("/stacks/:id/cancel", handlers.CancelLoad)

	router.GET("/stream", s.stream.HandleConnection)

	aggregator := pshttp.NewMetricsAggregator(s.metrics, s.session, s.client)
	router.GET("/metrics", gin.WrapH(monitoring.Handler(s.registry)))
	router.GET("/metrics/json", aggregator.GetAggregatedMetrics)

	return router
}

// compress gzips responses for clients that accept it, except the
// WebSocket upgrade which needs the raw connection
func compress(h http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stream" {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler served by Run
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Session returns the navigation session served by s
func (s *Server) Session() *session.Session {
	return s.session
}

// Run serves HTTP until the listener fails or Close is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	if s.stream != nil {
		s.stream.Close()
	}
	if s.session != nil {
		s.session.Close()
		s.logger.Info("Closed navigation session")
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
