/*
Package configs is responsible for loading and parsing the application's configuration settings.

It primarily configures server parameters by reading operating system environment variables,
including the running environment, UDP listen port, ops API port, directory capacities,
the audit log path, and the optional snapshot database DSN.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults matching the bounded tables and listen port of the wire protocol.
const (
	DefaultPort       = 8000
	DefaultMaxClients = 50
	DefaultMaxGroups  = 10
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	OpsPort     int

	// Directory Settings
	MaxClients int
	MaxGroups  int

	// Audit Settings
	AuditLogPath string

	// Database Settings (empty DSN disables directory snapshots)
	DatabaseDSN string
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port (UDP message transport)
	port, err := intFromEnv("PORT", DefaultPort)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the valid range (1-65535)", cfg.Port)
	}

	// OpsPort (read-only HTTP API)
	opsPort, err := intFromEnv("OPS_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.OpsPort = opsPort

	if cfg.OpsPort < 1024 || cfg.OpsPort > 65535 {
		return nil, fmt.Errorf("ops port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.OpsPort, 1024, 65535)
	}

	if cfg.OpsPort == cfg.Port {
		return nil, fmt.Errorf("PORT and OPS_PORT must differ (both set to %d)", cfg.Port)
	}

	// --- Directory Settings ---
	cfg.MaxClients, err = intFromEnv("MAX_CLIENTS", DefaultMaxClients)
	if err != nil {
		return nil, err
	}
	if cfg.MaxClients < 1 {
		return nil, fmt.Errorf("MAX_CLIENTS must be at least 1, got %d", cfg.MaxClients)
	}

	cfg.MaxGroups, err = intFromEnv("MAX_GROUPS", DefaultMaxGroups)
	if err != nil {
		return nil, err
	}
	if cfg.MaxGroups < 1 {
		return nil, fmt.Errorf("MAX_GROUPS must be at least 1, got %d", cfg.MaxGroups)
	}

	// --- Audit Settings ---
	cfg.AuditLogPath = os.Getenv("AUDIT_LOG_PATH")
	if cfg.AuditLogPath == "" {
		cfg.AuditLogPath = "server.log"
	}

	// --- Database Settings ---
	// An empty DATABASE_URL is valid: the server starts with an empty directory
	// and skips snapshot persistence entirely.
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	return cfg, nil
}

// intFromEnv reads an integer environment variable, falling back to def when unset.
func intFromEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}
