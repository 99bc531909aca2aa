package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hamadhk7/3D-AR-GENERATOR/api/handlers"
	"github.com/hamadhk7/3D-AR-GENERATOR/config"
	"github.com/hamadhk7/3D-AR-GENERATOR/generation"
	"github.com/hamadhk7/3D-AR-GENERATOR/internal/metrics"
	"github.com/hamadhk7/3D-AR-GENERATOR/internal/server"
	"github.com/hamadhk7/3D-AR-GENERATOR/ledger"
	"github.com/hamadhk7/3D-AR-GENERATOR/mcp"
	"github.com/hamadhk7/3D-AR-GENERATOR/store"
	"github.com/hamadhk7/3D-AR-GENERATOR/tripo"
)

// Server wires the remote client, poller, ledger, record store, HTTP
// handlers, and MCP front door together.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	service      *generation.Service
	creditLedger *ledger.Ledger
	records      store.Store
	collector    *metrics.Collector
	registry     *prometheus.Registry
	redisClient  *redis.Client
	mcpServer    *mcp.Server

	httpManager       *server.Manager
	rateLimiterCancel context.CancelFunc
}

// NewServer builds the full dependency graph from cfg.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	s.registry = prometheus.NewRegistry()
	s.collector = metrics.NewCollector(cfg.Metrics.Namespace, s.registry, logger)

	client := tripo.NewClient(tripo.Config{
		APIKey:  cfg.Tripo.APIKey,
		BaseURL: cfg.Tripo.BaseURL,
		Model:   cfg.Tripo.Model,
		Timeout: cfg.Tripo.Timeout,
	}, logger)

	poller := generation.NewPoller(client, logger,
		generation.WithInterval(cfg.Poll.Interval),
		generation.WithTimeout(cfg.Poll.Timeout),
	)

	ledgerStore, err := s.buildLedgerStore()
	if err != nil {
		return nil, err
	}
	s.creditLedger = ledger.New(ledgerStore, logger,
		ledger.WithInitialBalance(cfg.Ledger.InitialBalance),
	)

	s.records, err = s.buildRecordStore()
	if err != nil {
		return nil, err
	}

	s.service = generation.NewService(
		client,
		poller,
		s.creditLedger,
		s.records,
		cfg.Storage.Dir,
		logger,
		generation.WithCollector(s.collector),
	)

	s.mcpServer = mcp.NewServer("argen", Version, logger)
	if err := mcp.RegisterGenerationTools(s.mcpServer, s.service); err != nil {
		return nil, fmt.Errorf("failed to register MCP tools: %w", err)
	}

	return s, nil
}

func (s *Server) buildLedgerStore() (ledger.Store, error) {
	switch s.cfg.Ledger.Backend {
	case "redis":
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		key := s.cfg.Ledger.RedisKey
		if key == "" {
			key = ledger.DefaultRedisKey
		}
		return ledger.NewRedisStore(s.redisClient, key), nil
	case "file":
		return ledger.NewFileStore(s.cfg.Ledger.Path), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", s.cfg.Ledger.Backend)
	}
}

func (s *Server) buildRecordStore() (store.Store, error) {
	switch s.cfg.Store.Backend {
	case "sqlite":
		return store.NewGormStore(s.cfg.Store.DatabasePath)
	case "file":
		return store.NewFileStore(s.cfg.Store.Path), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", s.cfg.Store.Backend)
	}
}

// Start builds the router and begins serving.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(s.logger)
	healthHandler.RegisterCheck(handlers.NewPingHealthCheck("ledger", func(ctx context.Context) error {
		_, err := s.creditLedger.Status(ctx)
		return err
	}))
	healthHandler.RegisterCheck(handlers.NewPingHealthCheck("store", func(ctx context.Context) error {
		_, _, err := s.records.List(ctx, 1, 0)
		return err
	}))
	if s.redisClient != nil {
		healthHandler.RegisterCheck(handlers.NewPingHealthCheck("redis", func(ctx context.Context) error {
			return s.redisClient.Ping(ctx).Err()
		}))
	}

	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", healthHandler.HandleReady)
	mux.HandleFunc("GET /version", healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	generateHandler := handlers.NewGenerateHandler(s.service, s.logger)
	modelsHandler := handlers.NewModelsHandler(s.service, s.logger)
	convertHandler := handlers.NewConvertHandler(s.service, s.logger)
	creditsHandler := handlers.NewCreditsHandler(s.service, s.logger)

	mux.HandleFunc("POST /api/generate", generateHandler.HandleGenerate)
	mux.HandleFunc("GET /api/models", modelsHandler.HandleList)
	mux.HandleFunc("GET /api/models/{id}", modelsHandler.HandleGet)
	mux.HandleFunc("GET /api/models/{id}/download", modelsHandler.HandleDownload)
	mux.HandleFunc("POST /api/convert", convertHandler.HandleConvert)
	mux.HandleFunc("GET /api/credits", creditsHandler.HandleCredits)

	mux.HandleFunc("POST /mcp", s.mcpServer.HandleHTTP)

	if s.cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
	}
	if s.cfg.RateLimit.Enabled {
		rateLimiterCtx, cancel := context.WithCancel(context.Background())
		s.rateLimiterCancel = cancel
		middlewares = append(middlewares,
			RateLimiter(rateLimiterCtx, s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst, s.logger),
		)
	}
	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// WaitForShutdown blocks until the server stops, then releases resources.
func (s *Server) WaitForShutdown() {
	s.httpManager.WaitForShutdown()
	s.Shutdown()
}

// Shutdown releases background resources.
func (s *Server) Shutdown() {
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if closer, ok := s.records.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn("failed to close record store", zap.Error(err))
		}
	}
}
