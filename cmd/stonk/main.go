package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jmanzanog/stonk/internal/application"
	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/infrastructure/config"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata/sources"
	"github.com/jmanzanog/stonk/internal/infrastructure/persistence/memory"
	"github.com/jmanzanog/stonk/internal/infrastructure/persistence/sqldb"
	httpHandler "github.com/jmanzanog/stonk/internal/interfaces/http"
)

// setupLogger configures and returns a structured logger with source information
func setupLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

// initializeRepository returns the in-memory store or a migrated SQL store.
// The returned close func releases the database connection, if any.
func initializeRepository(ctx context.Context, cfg *config.Config) (domain.PortfolioRepository, func() error, error) {
	if cfg.DBDriver == config.DriverMemory {
		slog.Warn("Using in-memory storage; portfolios are lost on restart")
		return memory.NewPortfolioRepository(), func() error { return nil }, nil
	}

	db, err := sqldb.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	repo := sqldb.NewRepository(db)
	if err := repo.Migrate(migrateCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, db.Close, nil
}

// createQuoteClient wraps the configured market data source.
func createQuoteClient(cfg *config.Config) (*marketdata.QuoteClient, error) {
	baseURL := ""
	if cfg.MarketDataProvider == config.ProviderYFinance {
		baseURL = cfg.YFinanceBaseURL
	}
	source, err := sources.New(sources.Options{
		Provider:         cfg.MarketDataProvider,
		BaseURL:          baseURL,
		FinnhubAPIKey:    cfg.FinnhubAPIKey,
		TwelveDataAPIKey: cfg.TwelveDataAPIKey,
		Timeout:          cfg.QuoteTimeout,
	})
	if err != nil {
		return nil, err
	}
	return marketdata.NewQuoteClient(source, marketdata.WithRateLimit(cfg.QuoteRateLimit)), nil
}

// buildServer creates and configures the HTTP server with all routes and handlers
func buildServer(cfg *config.Config, portfolioService httpHandler.PortfolioService) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	handler := httpHandler.NewHandler(portfolioService)
	httpHandler.SetupRoutes(router, handler)

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// App wraps the application components for easier testing
type App struct {
	Server        *http.Server
	PriceUpdater  *application.PriceUpdater
	CancelContext context.CancelFunc
	closeStore    func() error
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application...")

	a.PriceUpdater.Stop()
	a.CancelContext()

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// run contains the main application logic without os.Exit calls
func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogger(cfg.SlogLevel())

	quotes, err := createQuoteClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create quote client: %w", err)
	}
	slog.Info("Using market data provider",
		"provider", cfg.MarketDataProvider, "rate_limit", cfg.QuoteRateLimit, "timeout", cfg.QuoteTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeStore, err := initializeRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	slog.Info("Using storage", "driver", cfg.DBDriver)

	portfolioService := application.NewPortfolioService(repo, quotes,
		application.WithMaxConcurrency(cfg.MaxConcurrentQuotes))

	priceUpdater := application.NewPriceUpdater(portfolioService, cfg.PriceRefreshInterval)
	go priceUpdater.Start(ctx)

	app := &App{
		Server:        buildServer(cfg, portfolioService),
		PriceUpdater:  priceUpdater,
		CancelContext: cancel,
		closeStore:    closeStore,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", app.Server.Addr)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		_ = closeStore()
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		slog.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("Server exited gracefully")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}
