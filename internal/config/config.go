package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort        = "8080"
	defaultSMTPPort    = 587
	defaultLLMBaseURL  = "https://models.github.ai/inference"
	defaultLLMModel    = "openai/gpt-4.1"
	defaultLLMTimeout  = 20 * time.Second
	defaultBcryptCost  = 10
	productionEnvValue = "production"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string
	Env         string
	JWTSecret   string
	OTPSalt     string
	DevMode     bool
	BcryptCost  int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration
}

// Load reads configuration from environment variables. Every required value
// that is missing is reported; callers treat the error as fatal.
func Load() (*Config, error) {
	cfg := &Config{
		Port:       defaultPort,
		SMTPPort:   defaultSMTPPort,
		LLMBaseURL: defaultLLMBaseURL,
		LLMModel:   defaultLLMModel,
		LLMTimeout: defaultLLMTimeout,
		BcryptCost: defaultBcryptCost,
	}

	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.DatabaseURL = required("DATABASE_URL")
	cfg.JWTSecret = required("JWT_SECRET")
	cfg.OTPSalt = required("OTP_SALT")
	cfg.LLMAPIKey = required("LLM_API_KEY")

	cfg.Env = os.Getenv("APP_ENV")
	cfg.DevMode = os.Getenv("OTP_DEV_MODE") == "true"

	// OTP delivery credentials are only optional in dev mode, where codes are not emailed.
	if cfg.DevMode {
		cfg.SMTPHost = os.Getenv("SMTP_HOST")
		cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
		cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	} else {
		cfg.SMTPHost = required("SMTP_HOST")
		cfg.SMTPUsername = required("SMTP_USERNAME")
		cfg.SMTPPassword = required("SMTP_PASSWORD")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.DevMode && cfg.Env == productionEnvValue {
		return nil, fmt.Errorf("OTP_DEV_MODE must not be true when APP_ENV=%s", productionEnvValue)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUsername
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("SMTP_PORT must be a positive integer, got %q", v)
		}
		cfg.SMTPPort = p
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		if _, err := url.ParseRequestURI(v); err != nil {
			return nil, fmt.Errorf("LLM_BASE_URL is not a valid URL: %w", err)
		}
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("LLM_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.LLMTimeout = d
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		c, err := strconv.Atoi(v)
		if err != nil || c < 4 || c > 31 {
			return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %q", v)
		}
		cfg.BcryptCost = c
	}

	logDatabaseTarget(cfg.DatabaseURL)

	return cfg, nil
}

// logDatabaseTarget logs where the database lives without the password.
func logDatabaseTarget(databaseURL string) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	user := u.User.Username()
	if user == "" {
		user = "(none)"
	}
	slog.Info("db connect target", "host", host, "port", port, "db", strings.TrimPrefix(u.Path, "/"), "user", user)
}
