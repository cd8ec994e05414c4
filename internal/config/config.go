// Package config loads and validates all environment variables at startup.
// Every other package receives typed values; nothing reads os.Getenv directly.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port    string // default "8080"
	Env     string // "development" | "staging" | "production"
	BaseURL string // used for the result link in emails

	// ── Database ──────────────────────────────────────────────────────────────
	DatabaseURL string
	AutoMigrate bool // apply the embedded schema on boot; default true

	// ── Narratives ────────────────────────────────────────────────────────────
	// Both providers are optional. With neither key set, assessments are
	// finalised without a narrative.
	AnthropicAPIKey string
	AnthropicModel  string
	DeepSeekAPIKey  string
	DeepSeekModel   string

	// ── Resend ────────────────────────────────────────────────────────────────
	// Empty key disables the "assessment ready" email.
	ResendAPIKey  string
	EmailFromAddr string
	EmailFromName string

	// ── Worker ────────────────────────────────────────────────────────────────
	WorkerCount  int
	PollInterval time.Duration
	JobTimeout   time.Duration
	MaxRetries   int

	// ── Batch evaluation ──────────────────────────────────────────────────────
	BatchMaxRecords  int
	BatchConcurrency int
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// NarrativesEnabled reports whether at least one narrative provider is set.
func (c *Config) NarrativesEnabled() bool {
	return c.AnthropicAPIKey != "" || c.DeepSeekAPIKey != ""
}

// Load reads ./.env (when present) and the environment and returns a
// validated Config. Real environment variables always win over .env values.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(dotEnvPath string) (*Config, error) {
	loadDotEnv(dotEnvPath)

	c := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AutoMigrate:      getEnvAsBool("AUTO_MIGRATE", true),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		DeepSeekAPIKey:   os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekModel:    getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		EmailFromAddr:    getEnv("EMAIL_FROM_ADDR", "results@strokerisk.local"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Stroke Risk"),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 3),
		PollInterval:     getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
		JobTimeout:       getEnvAsDuration("JOB_TIMEOUT", 2*time.Minute),
		MaxRetries:       getEnvAsInt("MAX_RETRIES", 3),
		BatchMaxRecords:  getEnvAsInt("BATCH_MAX_RECORDS", 100),
		BatchConcurrency: getEnvAsInt("BATCH_CONCURRENCY", 8),
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env var: DATABASE_URL"))
	}

	positive := []struct {
		name string
		val  int
	}{
		{"WORKER_COUNT", c.WorkerCount},
		{"MAX_RETRIES", c.MaxRetries},
		{"BATCH_MAX_RECORDS", c.BatchMaxRecords},
		{"BATCH_CONCURRENCY", c.BatchConcurrency},
	}
	for _, p := range positive {
		if p.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.val))
		}
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval))
	}
	if c.JobTimeout <= 0 {
		errs = append(errs, fmt.Errorf("JOB_TIMEOUT must be positive, got %s", c.JobTimeout))
	}

	return errors.Join(errs...)
}

// ─── DOT-ENV LOADER ──────────────────────────────────────────────────────────

// loadDotEnv sets KEY=value pairs from path for keys not already in the
// environment. A missing file, blank lines and #-comments are ignored.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = unquote(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
			_ = os.Setenv(key, value)
		}
	}
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration syntax ("30s", "2m") or a bare integer
// number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * time.Second
	}
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
