package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sprout-finance/sprout/internal/state"
)

// ModeSimulation is the only mode sproutd runs in: an in-process chain seeded from genesis.
const ModeSimulation = "simulation"

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Mode is the operating mode (SPROUT_MODE). It must be set explicitly.
	Mode string

	// LogLevel is the zerolog level name.
	LogLevel string
	// LogFile is an optional path for a rotated log file written alongside the console.
	LogFile string

	// RecorderBackend selects where action receipts are stored: "postgres", "sqlite" or "none".
	RecorderBackend string
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string
	// DB holds the PostgreSQL connection parameters used by the postgres backend.
	DB state.DBConfig

	// GenesisFile is an optional YAML genesis. DefaultGenesis is used when empty.
	GenesisFile string

	// TickInterval is how often the node refreshes its gauges and logs a status line.
	TickInterval time.Duration
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// SPROUT_MODE is required; everything else has a default.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Mode, err = getEnv("SPROUT_MODE")
	if err != nil {
		return err
	}
	Mode = strings.ToLower(strings.TrimSpace(Mode))

	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	LogFile = getEnvOrDefault("LOG_FILE", "")

	RecorderBackend = strings.ToLower(getEnvOrDefault("RECORDER_BACKEND", state.BackendNone))
	SQLitePath = getEnvOrDefault("SQLITE_PATH", "sprout.db")
	GenesisFile = getEnvOrDefault("GENESIS_FILE", "")

	tickSeconds, err := getEnvAsUint64OrDefault("SPROUT_TICK_SECONDS", 30)
	if err != nil {
		return err
	}
	if tickSeconds == 0 {
		return errors.New("environment variable SPROUT_TICK_SECONDS must be positive")
	}
	TickInterval = time.Duration(tickSeconds) * time.Second

	if RecorderBackend == state.BackendPostgres {
		if err := loadDBConfig(); err != nil {
			return err
		}
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("Mode", Mode).
		Str("RecorderBackend", RecorderBackend).
		Str("GenesisFile", GenesisFile).
		Dur("TickInterval", TickInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

// RecorderOptions returns the recorder selection described by the loaded configuration.
func RecorderOptions() state.Options {
	return state.Options{
		Backend:    RecorderBackend,
		SQLitePath: SQLitePath,
		Postgres:   DB,
	}
}

// loadDBConfig reads the PostgreSQL parameters; they are required only for the postgres backend.
func loadDBConfig() error {
	var err error

	if DB.Host, err = getEnv("DB_HOST"); err != nil {
		return err
	}
	port, err := getEnvAsUint64OrDefault("DB_PORT", 5432)
	if err != nil {
		return err
	}
	DB.Port = int(port)
	if DB.User, err = getEnv("DB_USER"); err != nil {
		return err
	}
	DB.Password = getEnvOrDefault("DB_PASSWORD", "")
	if DB.DBName, err = getEnv("DB_NAME"); err != nil {
		return err
	}
	DB.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")
	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, falling back when unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsUint64OrDefault is getEnvAsUint64 for optional variables.
func getEnvAsUint64OrDefault(key string, fallback uint64) (uint64, error) {
	if value, exists := os.LookupEnv(key); !exists || value == "" {
		return fallback, nil
	}
	return getEnvAsUint64(key)
}
