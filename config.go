package blog

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything the server binary needs, sourced from the environment
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	Links  LinkConfig
	SMTP   SMTPConfig
	Debug  bool
}

type ServerConfig struct {
	Port    string
	BaseURL string
	Site    string
}

type DBConfig struct {
	DSN string
}

type AuthConfig struct {
	SigningKey []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Audience   []string
}

// LinkConfig drives the activation and reset link lifetime: links live for
// roughly Window buckets of Bucket each.
type LinkConfig struct {
	Bucket time.Duration
	Window int
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Enabled  bool
}

// LoadConfig reads the environment, collecting every problem before failing
// so a misconfigured deploy reports all missing keys at once.
func LoadConfig() (*Config, error) {
	var errs []string

	cfg := &Config{
		Server: ServerConfig{
			Port:    getOptionalEnv("PORT", "8080"),
			BaseURL: getOptionalEnv("BASE_URL", "http://localhost:8080"),
			Site:    getOptionalEnv("SITE_NAME", "blog"),
		},
		DB: DBConfig{
			DSN: getOptionalEnv("DB_DSN", "file:blog.db?cache=shared"),
		},
		Auth: AuthConfig{
			SigningKey: []byte(getRequiredEnv("JWT_SECRET", &errs)),
			AccessTTL:  getOptionalEnvDuration("JWT_ACCESS_TTL", 15*time.Minute, &errs),
			RefreshTTL: getOptionalEnvDuration("JWT_REFRESH_TTL", 168*time.Hour, &errs),
			Issuer:     getOptionalEnv("JWT_ISSUER", "blog"),
		},
		Links: LinkConfig{
			Bucket: getOptionalEnvDuration("LINK_BUCKET", 24*time.Hour, &errs),
			Window: getOptionalEnvInt("LINK_WINDOW", 3, &errs),
		},
		SMTP: SMTPConfig{
			Host:     getOptionalEnv("SMTP_HOST", ""),
			Port:     getOptionalEnv("SMTP_PORT", "465"),
			Username: getOptionalEnv("SMTP_USERNAME", ""),
			Password: getOptionalEnv("SMTP_PASSWORD", ""),
		},
		Debug: getOptionalEnvBool("DEBUG", false, &errs),
	}

	if audience := getOptionalEnv("JWT_AUDIENCE", ""); audience != "" {
		cfg.Auth.Audience = strings.Split(audience, ",")
	}

	cfg.SMTP.Enabled = cfg.SMTP.Host != ""

	if cfg.Links.Window < 1 {
		errs = append(errs, "LINK_WINDOW must be at least 1")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return cfg, nil
}

func getRequiredEnv(key string, errs *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

func getOptionalEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getOptionalEnvInt(key string, defaultValue int, errs *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected integer, got %q: %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

func getOptionalEnvBool(key string, defaultValue bool, errs *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected boolean, got %q: %v", key, valueStr, err))
		return defaultValue
	}
	return valueBool
}

func getOptionalEnvDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected duration string, got %q: %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}
