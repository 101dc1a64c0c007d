package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values
type Config struct {
	Port           int
	Environment    string
	GinMode        string
	AllowedOrigins []string

	StorageDriver   string
	SubmissionsFile string
	SeedSubmissions bool
	SQLitePath      string

	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTimeout  time.Duration
	FromEmail    string
	FromName     string
	EmailWorkers int
}

// EmailConfigured reports whether SMTP credentials are present
func (c *Config) EmailConfigured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	username := os.Getenv("SMTP_USERNAME")

	return &Config{
		Port:           getEnvInt("PORT", 8000),
		Environment:    getEnv("ENVIRONMENT", "development"),
		GinMode:        os.Getenv("GIN_MODE"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", "json")),
		SubmissionsFile: getEnv("SUBMISSIONS_FILE", "submissions.json"),
		SeedSubmissions: getEnvBool("SUBMISSIONS_SEED", false),
		SQLitePath:      getEnv("SQLITE_PATH", "data/submissions.db"),

		SMTPServer:   getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: username,
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPTimeout:  getEnvDuration("SMTP_TIMEOUT", 15*time.Second),
		FromEmail:    getEnv("FROM_EMAIL", username),
		FromName:     getEnv("FROM_NAME", "Lemur Waitlist"),
		EmailWorkers: getEnvInt("EMAIL_WORKERS", 3),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
