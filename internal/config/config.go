// Package config resolves service configuration from the environment once
// at startup. The resulting struct is injected into constructors; nothing
// reads the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Extraction backends. The backend is chosen at load time from the
// available credential, mirroring how the service used to pick a language
// model provider at startup.
const (
	BackendGemini   = "gemini"
	BackendDisabled = "disabled"
)

// Config holds all runtime configuration for the service.
type Config struct {
	// HTTP server
	Port string

	// Persistence
	DataDir string

	// Extraction collaborator
	ExtractionBackend string
	ExtractionModel   string
	ExtractionAPIKey  string
	ExtractionTimeout time.Duration
}

// Load populates a Config from the environment, applying defaults.
func Load() *Config {
	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		DataDir: getEnv("DATA_DIR", "data"),

		ExtractionModel:   getEnv("EXTRACT_MODEL", "gemini-2.5-flash"),
		ExtractionTimeout: getEnvDuration("EXTRACT_TIMEOUT", 30*time.Second),
	}

	// Credential probing: a Gemini API key enables the extraction
	// collaborator; without one the chat endpoint degrades to failure
	// responses while everything else keeps working.
	if key := firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"); key != "" {
		cfg.ExtractionBackend = BackendGemini
		cfg.ExtractionAPIKey = key
	} else {
		cfg.ExtractionBackend = BackendDisabled
	}

	return cfg
}

// Validate checks the configuration and returns an error describing every
// invalid field.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DataDir) == "" {
		problems = append(problems, "data dir must not be empty")
	}

	if c.ExtractionTimeout <= 0 {
		problems = append(problems, "extraction timeout must be positive")
	}

	switch c.ExtractionBackend {
	case BackendGemini, BackendDisabled:
	default:
		problems = append(problems, fmt.Sprintf("unknown extraction backend %q", c.ExtractionBackend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
