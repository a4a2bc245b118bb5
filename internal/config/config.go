package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Seed data
	DataFile string
	SeedBlob string

	// Storage configuration
	StorageAccount   string
	StorageContainer string
	SnapshotDir      string

	// Schedule configuration
	SnapshotSchedule  string // cron spec with seconds field
	SnapshotRetention int    // snapshots kept; 0 keeps all
	ReportSchedule    string // "daily", "weekly" or empty

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Negative review alerts
	EnableAlerts   bool
	AlertThreshold float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8000"),
		Debug: getBoolEnv("DEBUG", false),

		DataFile: getEnv("DATA_FILE", "data/reviews.csv"),
		SeedBlob: getEnv("SEED_BLOB", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "reviews"),
		SnapshotDir:      getEnv("SNAPSHOT_DIR", ""),

		SnapshotSchedule:  getEnv("SNAPSHOT_SCHEDULE", ""),
		SnapshotRetention: getIntEnv("SNAPSHOT_RETENTION", 24),
		ReportSchedule:    getEnv("REPORT_SCHEDULE", ""),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		EnableAlerts:   getBoolEnv("ENABLE_ALERTS", true),
		AlertThreshold: getFloatEnv("ALERT_THRESHOLD", -0.5),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReportSchedule != "" && c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily', 'weekly' or empty")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.AlertThreshold < -1 || c.AlertThreshold > 1 {
		return fmt.Errorf("ALERT_THRESHOLD must be between -1 and 1")
	}

	if c.SnapshotRetention < 0 {
		return fmt.Errorf("SNAPSHOT_RETENTION must not be negative")
	}

	if !c.HasStorage() {
		if c.SeedBlob != "" {
			return fmt.Errorf("SEED_BLOB requires AZURE_STORAGE_ACCOUNT or SNAPSHOT_DIR")
		}
		if c.SnapshotSchedule != "" {
			return fmt.Errorf("SNAPSHOT_SCHEDULE requires AZURE_STORAGE_ACCOUNT or SNAPSHOT_DIR")
		}
	}

	return nil
}

// HasStorage reports whether a storage backend is configured
func (c *Config) HasStorage() bool {
	return c.StorageAccount != "" || c.SnapshotDir != ""
}

// HasNotifications reports whether at least one notification channel is configured
func (c *Config) HasNotifications() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
