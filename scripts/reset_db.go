package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/state"
)

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		log.Warn().Msg("Warning: .env file not found or error loading .env file. Relying on OS environment variables.")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Initialize(logLevel, nil)
	log.Info().Msg("Starting action receipt database reset...")

	dbCfg := state.DBConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     5432,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}
	if dbCfg.Host == "" {
		dbCfg.Host = "localhost"
	}
	if dbCfg.User == "" {
		log.Fatal().Msg("DB_USER environment variable not set.")
	}
	if dbCfg.DBName == "" {
		log.Fatal().Msg("DB_NAME environment variable not set.")
	}
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Fatal().Err(err).Str("DB_PORT", portStr).Msg("DB_PORT must be an integer")
		}
		dbCfg.Port = port
	}

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("user", dbCfg.User).
		Str("dbname", dbCfg.DBName).
		Msg("Connecting to database")

	ctx := context.Background()
	recorder, err := state.NewPostgresRecorder(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer recorder.Close()

	if err := recorder.Reset(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset action receipt schema")
	}
	log.Info().Msg("Database reset complete!")
}
