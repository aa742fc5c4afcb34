package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trading-psych-analyzer/internal/analysis"
	"trading-psych-analyzer/internal/config"
	"trading-psych-analyzer/internal/httpapi"
	"trading-psych-analyzer/internal/logger"
	"trading-psych-analyzer/internal/price"
	"trading-psych-analyzer/internal/simulator"
	"trading-psych-analyzer/internal/store"
	"trading-psych-analyzer/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A .env file is optional; real environment variables win.
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn("Failed to load .env file", zap.Error(envErr))
	}

	records, err := store.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open record store", zap.Error(err))
	}

	fallback, err := simulator.ParseFallback(cfg.Simulator.SeedFallback)
	if err != nil {
		log.Fatal("Invalid simulator configuration", zap.Error(err))
	}
	generator := simulator.NewGenerator(log, simulator.WithFallback(fallback))

	prices := price.NewService(
		price.NewCoinGecko(&cfg.Price, log),
		price.NewMemoryCache(time.Now),
		cfg.Price.CacheTTL,
		cfg.Price.Fallback,
		log,
	)

	var analyzer analysis.Analyzer
	if openai, err := analysis.NewOpenAI(&cfg.OpenAI, log); err != nil {
		log.Warn("OpenAI analyzer disabled, reports will be placeholders", zap.Error(err))
	} else {
		analyzer = openai
	}

	handlers := httpapi.NewHandlers(
		generator,
		prices,
		analysis.NewService(analyzer, log),
		wallet.NewConnector(prices, log),
		records,
		httpapi.Options{
			MinAddressLength: cfg.Simulator.MinAddressLength,
			ReuseWindow:      cfg.Analysis.ReuseWindow,
		},
		log,
	)

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpapi.NewRouter(handlers, log),
	}

	go func() {
		log.Info("Starting web server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}
