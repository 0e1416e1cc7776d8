package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/sprout-finance/sprout/internal/config"
	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/metrics"
	"github.com/sprout-finance/sprout/internal/node"
	"github.com/sprout-finance/sprout/internal/state"
	"github.com/sprout-finance/sprout/internal/web"
)

// main is the entry point for the Sprout daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	var logFile *logger.FileOptions
	if config.LogFile != "" {
		logFile = &logger.FileOptions{Path: config.LogFile}
	}
	logger.Initialize(config.LogLevel, logFile)
	log.Info().Msg("Sprout daemon starting...")

	// Safety switch: there is no live chain integration, refuse anything but an explicit simulation.
	if config.Mode != config.ModeSimulation {
		log.Fatal().Str("mode", config.Mode).Msg("SPROUT_MODE is not set to 'simulation'. Halting to prevent accidental execution.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. Recorder and metrics ---
	recorder, err := state.NewRecorder(ctx, config.RecorderOptions())
	if err != nil {
		log.Fatal().Err(err).Str("backend", config.RecorderBackend).Msg("Failed to open action recorder")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	indicators := metrics.NewPromIndicators(registry, "node")

	// --- 3. Boot the chain from genesis ---
	genesis, err := config.LoadGenesis(config.GenesisFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load genesis")
	}

	n, err := node.NewNode(ctx, node.Config{
		Genesis:    genesis,
		Recorder:   recorder,
		Indicators: indicators,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to boot node")
	}
	defer n.Close()

	// --- 4. Start Web Server ---
	webServer := web.NewWebServer(config.WebPort, n, registry)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting Sprout API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed")
			stop()
		}
	}()

	// --- 5. Status loop until shutdown ---
	n.RunLoop(ctx, config.TickInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Web server shutdown failed")
	}
	log.Info().Msg("Sprout daemon stopped")
}
