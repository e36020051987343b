package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calbooker/internal/booking"
	"github.com/teemow/calbooker/internal/calcom"
	"github.com/teemow/calbooker/internal/chat"
	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/logging"
	"github.com/teemow/calbooker/internal/server"
	"github.com/teemow/calbooker/internal/session"
	"github.com/teemow/calbooker/internal/tools/booking_tools"
)

// Transport names.
const (
	transportHTTP  = "http"
	transportStdio = "stdio"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API and MCP server",
		Long: `Start calbooker.

Supports two transport types:
  - http: the chat API (/api/chat, /api/sessions, /api/health), health probes,
    and the booking tools over streamable HTTP MCP at /mcp (default)
  - stdio: the booking tools over MCP on standard input/output`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(transport, appConfig, appLogger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&transport, "transport", transportHTTP, "Transport type: http or stdio")
	flags.String("http-addr", server.DefaultAddr, "HTTP listen address")

	flags.String("openai-api-key", "", "OpenAI API key (env: OPENAI_API_KEY)")
	flags.String("openai-base-url", "", "OpenAI-compatible API base URL")
	flags.String("openai-model", chat.DefaultModel, "Chat model")
	flags.String("system-prompt-file", chat.DefaultSystemPromptFile, "System prompt file")
	flags.Int("max-tool-rounds", chat.DefaultMaxToolRounds, "Maximum tool calling rounds per chat turn")

	flags.String("session-backend", session.BackendMemory, "Session store: memory, redis, or postgres")
	flags.String("redis-addr", "localhost:6379", "Redis address for the redis session backend")
	flags.String("redis-password", "", "Redis password")
	flags.String("database-url", "", "Postgres connection string for the postgres session backend")
	flags.Duration("session-ttl", session.DefaultTTL, "Idle session expiry (memory and redis backends)")
	flags.Bool("skip-migrations", false, "Do not apply Postgres migrations on startup")
	flags.Bool("generate-session-ids", false, "Give chat requests without a session_id their own random session")

	flags.String("cors-allowed-origins", "*", "Comma-separated list of allowed CORS origins")
	flags.Float64("chat-rate-limit", 0, "Per-IP chat requests per second (0 disables)")
	flags.Bool("trust-proxy", false, "Use X-Forwarded-For/X-Real-IP for rate limiting")

	flags.Bool("metrics-enabled", false, "Serve Prometheus metrics on a separate port")
	flags.String("metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

func runServe(transport string, cfg *Config, logger *slog.Logger) error {
	if transport != transportHTTP && transport != transportStdio {
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("Error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	if transport == transportHTTP && cfg.MetricsEnabled && provider.HasPrometheusExporter() {
		metricsServer, err := startMetricsServer(cfg.MetricsAddr, provider, logger)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(logger, "metrics server", metricsServer.Shutdown)
	}

	client, err := newCalcomClient(cfg, metrics, logger)
	if err != nil {
		return err
	}
	if err := client.Validate(shutdownCtx); err != nil {
		if errors.Is(err, calcom.ErrInvalidAPIKey) {
			return err
		}
		logger.Warn("Could not verify the Cal.com API key", logging.Err(err))
	}

	bookings := booking.NewService(client, booking.WithMetrics(metrics), booking.WithLogger(logger))

	serverContext, err := server.NewServerContext(shutdownCtx, bookings)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = serverContext.Shutdown() }()

	if provider.Enabled() {
		serverContext.SetMetrics(metrics)
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	mcpSrv := mcpserver.NewMCPServer("calbooker", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := booking_tools.RegisterBookingTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register booking tools: %w", err)
	}

	if transport == transportStdio {
		return runStdioServer(mcpSrv)
	}
	return runHTTPServer(shutdownCtx, cfg, mcpSrv, serverContext, metrics, logger)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, cfg *Config, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, metrics *instrumentation.Metrics, logger *slog.Logger) error {
	store, err := session.Open(ctx, session.Config{
		Backend:        cfg.SessionBackend,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		DatabaseURL:    cfg.DatabaseURL,
		TTL:            cfg.SessionTTL,
		SkipMigrations: cfg.SkipMigrations,
		OnExpire:       func(string) {
			metrics.DecrementActiveSessions(context.Background())
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() { _ = store.Close() }()

	prompt, err := chat.LoadSystemPrompt(cfg.SystemPromptFile, logger)
	if err != nil {
		return err
	}

	completer := chat.NewOpenAICompleter(chat.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Metrics: metrics,
	})
	chatService := chat.NewService(completer, mcpSrv, store,
		chat.WithSystemPrompt(prompt),
		chat.WithMaxToolRounds(cfg.MaxToolRounds),
		chat.WithMetrics(metrics),
		chat.WithLogger(logger),
	)

	apiServer, err := server.NewAPIServer(server.APIServerConfig{
		Chat:               chatService,
		Sessions:           store,
		MCPServer:          mcpSrv,
		Health:             server.NewHealthChecker(sc, store),
		Metrics:            metrics,
		AllowedOrigins:     parseCommaSeparatedList(cfg.CORSAllowedOrigins),
		RateLimit:          cfg.ChatRateLimit,
		TrustProxy:         cfg.TrustProxy,
		GenerateSessionIDs: cfg.GenerateSessionIDs,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	logger.Info("Starting calbooker",
		"addr", cfg.HTTPAddr,
		"model", completer.Model(),
		"session_backend", cfg.SessionBackend,
		"calcom_api_key", logging.SanitizeToken(cfg.CalcomAPIKey))

	serverErr := make(chan error, 1)
	ready := make(chan net.Addr, 1)
	go func() {
		serverErr <- apiServer.StartWithReadySignal(cfg.HTTPAddr, ready)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("API server failed to start: %w", err)
	case addr := <-ready:
		logger.Info("API server listening", "addr", addr.String())
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownWithTimeout(logger, "API server", apiServer.Shutdown)
		return <-serverErr
	case err := <-serverErr:
		return err
	}
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("Metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func shutdownWithTimeout(logger *slog.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("Error during shutdown", "component", name, logging.Err(err))
	}
}
