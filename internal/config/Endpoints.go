package config

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// WebPort is the port the daemon's REST API and /metrics listen on.
	WebPort string
	// APIURL is the base URL sproutctl talks to.
	APIURL string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	WebPort = strings.TrimPrefix(getEnvOrDefault("WEB_PORT", "8080"), ":")
	APIURL = strings.TrimRight(getEnvOrDefault("SPROUT_API_URL", "http://localhost:"+WebPort), "/")

	log.Debug().
		Str("WebPort", WebPort).
		Str("APIURL", APIURL).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}

// LoadEndpointConfig loads only the endpoint settings, for tools that do not run a node.
func LoadEndpointConfig() error {
	return loadEndpointConfig()
}
