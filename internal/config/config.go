package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultSMTPHost    = "smtp.gmail.com"
	defaultSMTPPort    = 587
	defaultSMTPTimeout = 30 * time.Second
	defaultAppAddr     = ":8080"
	defaultConfigPath  = "./data/branding.toml"
	defaultSubmitRate  = 10
)

// MailCredentials identifies the relay and the account used to send through it.
// The sender address doubles as the operator inbox.
type MailCredentials struct {
	Host     string
	Port     int
	Email    string
	Password string
}

// Addr returns host:port for dialing.
func (c MailCredentials) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

type Config struct {
	Mail          MailCredentials
	SMTPTimeout   time.Duration
	SMTPInsecure  bool
	TestEmailOnly string // If set, all emails go to this address (for testing)

	AppAddr            string
	GinMode            string
	CORSAllowedOrigins []string
	FeatureConfigPath  string
	SubmitRatePerMin   int // Per-client submissions per minute; 0 disables limiting
}

// Load loads configuration from environment variables only.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration from an optional .env file and environment variables.
func LoadWithFile(envFile string) (*Config, error) {
	// Attempt to load .env file if provided, but don't fail if it doesn't exist.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	port, err := parsePort(os.Getenv("SMTP_PORT"))
	if err != nil {
		return nil, err
	}
	timeout, err := parseTimeout(os.Getenv("SMTP_TIMEOUT"))
	if err != nil {
		return nil, err
	}
	submitRate, err := parseSubmitRate(os.Getenv("SUBMIT_RATE_PER_MINUTE"))
	if err != nil {
		return nil, err
	}
	password, err := resolvePassword(os.Getenv("SMTP_PASSWORD"), os.Getenv("SMTP_PASSWORD_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mail: MailCredentials{
			Host:     getEnvOrDefault("SMTP_SERVER", defaultSMTPHost),
			Port:     port,
			Email:    strings.TrimSpace(os.Getenv("SMTP_EMAIL")),
			Password: password,
		},
		SMTPTimeout:        timeout,
		SMTPInsecure:       parseInsecure(os.Getenv("SMTP_TLS_INSECURE")),
		TestEmailOnly:      strings.TrimSpace(os.Getenv("TEST_EMAIL_ONLY")),
		AppAddr:            getEnvOrDefault("APP_ADDR", defaultAppAddr),
		GinMode:            strings.TrimSpace(os.Getenv("GIN_MODE")),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		FeatureConfigPath:  getEnvOrDefault("CONFIG_PATH", defaultConfigPath),
		SubmitRatePerMin:   submitRate,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required fields are set.
func (c *Config) Validate() error {
	if c.Mail.Email == "" {
		return fmt.Errorf("SMTP_EMAIL is required")
	}
	if c.Mail.Password == "" {
		return fmt.Errorf("SMTP_PASSWORD is required")
	}
	if c.Mail.Host == "" {
		return fmt.Errorf("SMTP_SERVER is required")
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	return nil
}

// resolvePassword prefers the secret file (Docker secrets) over the plain variable.
func resolvePassword(password, passwordFile string) (string, error) {
	if passwordFile == "" {
		return password, nil
	}
	data, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", fmt.Errorf("failed to read SMTP_PASSWORD_FILE: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func parsePort(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return defaultSMTPPort, nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid SMTP_PORT %q: %w", s, err)
	}
	return port, nil
}

// parseTimeout accepts a Go duration ("45s") or a bare number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultSMTPTimeout, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid SMTP_TIMEOUT %q: %w", s, err)
	}
	return d, nil
}

func parseSubmitRate(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultSubmitRate, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid SUBMIT_RATE_PER_MINUTE %q", s)
	}
	return n, nil
}

// parseInsecure converts a string to a boolean, defaulting to false.
func parseInsecure(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
