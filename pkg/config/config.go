package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ClassifierMode defines how the semantic classifier participates in scoring
type ClassifierMode string

const (
	ClassifierAuto     ClassifierMode = "auto"     // Use the classifier when the model loads, fall back to rules otherwise (default)
	ClassifierDisabled ClassifierMode = "disabled" // Rules-only scoring, never load the model
	ClassifierRequired ClassifierMode = "required" // Refuse to start if the model cannot be loaded
)

// Config holds global settings for the Haven gateway
// All settings can be configured via environment variables or programmatically
type Config struct {
	// === Core Settings ===
	ListenAddr string // Address the HTTP gateway binds to (default: ":8090")
	RulesPath  string // Path to the YAML rule store (default: "rules.yaml")

	// === Classifier Configuration ===
	// These settings control the optional embedding-based semantic scorer
	ClassifierMode      ClassifierMode // "auto", "disabled", "required"
	ModelPath           string         // Path to the ONNX embedding model directory
	OnnxLibraryPath     string         // Path to libonnxruntime; empty = pure-Go backend
	ClassifierTimeoutMs int            // Per-call classifier timeout in milliseconds (default: 2000)

	// === Input Bounds ===
	MaxInputBytes int // Analysis runs on at most this many bytes (default: 20000)

	// === Concurrency ===
	MaxConcurrentInference int // Simultaneous classifier calls allowed (default: 4)

	// === Feature Flags ===
	EnableRuleStats bool // Expose the rule statistics endpoint (default: true)
}

// NewDefaultConfig creates a Config with sensible defaults
// All settings can be overridden via environment variables
func NewDefaultConfig() *Config {
	return &Config{
		ListenAddr: GetEnv("HAVEN_LISTEN_ADDR", ":8090"),
		RulesPath:  GetEnv("HAVEN_RULES_PATH", "rules.yaml"),

		ClassifierMode:      ClassifierMode(GetEnv("HAVEN_CLASSIFIER_MODE", "auto")),
		ModelPath:           GetEnv("HAVEN_MODEL_PATH", "models/all-MiniLM-L6-v2"),
		OnnxLibraryPath:     GetEnv("HAVEN_ONNX_LIB_PATH", ""),
		ClassifierTimeoutMs: clampInt(GetEnvInt("HAVEN_CLASSIFIER_TIMEOUT_MS", 2000), 100, 60000),

		MaxInputBytes: clampInt(GetEnvInt("HAVEN_MAX_INPUT_BYTES", 20000), 1, 1<<20),

		MaxConcurrentInference: clampInt(GetEnvInt("HAVEN_MAX_INFERENCE", 4), 1, 256),

		EnableRuleStats: GetEnvBool("HAVEN_ENABLE_RULE_STATS", true),
	}
}

// NewRulesOnlyConfig creates a Config that never loads the embedding model
// Use this for air-gapped deployments or when startup time matters more
// than semantic recall
func NewRulesOnlyConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ClassifierMode = ClassifierDisabled
	return cfg
}

// ClassifierTimeout returns the classifier timeout as a duration
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.ClassifierTimeoutMs) * time.Millisecond
}

// Validate checks that the configuration is internally consistent.
// It returns an error for values the gateway cannot start with.
func (c *Config) Validate() error {
	switch c.ClassifierMode {
	case ClassifierAuto, ClassifierDisabled, ClassifierRequired:
	default:
		return fmt.Errorf("unknown classifier mode %q (want auto, disabled, or required)", c.ClassifierMode)
	}

	if c.RulesPath == "" {
		return fmt.Errorf("rules path must not be empty")
	}
	if _, err := os.Stat(c.RulesPath); err != nil {
		return fmt.Errorf("rule store %s: %w", c.RulesPath, err)
	}

	if c.ClassifierMode == ClassifierRequired {
		if _, err := os.Stat(c.ModelPath); err != nil {
			return fmt.Errorf("classifier mode is required but model path %s: %w", c.ModelPath, err)
		}
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before starting the server.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing
// These are exported for use by other packages

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
