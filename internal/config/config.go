// Package config provides YAML-based configuration loading for Greylit.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Greylit configuration, loaded from greylit.yaml.
type Config struct {
	Actor         string          `yaml:"actor"` // default actor identity for CLI commands
	Database      DatabaseConfig  `yaml:"database"`
	Dashboard     DashboardConfig `yaml:"dashboard"`
	Notify        NotifyConfig    `yaml:"notify"`
	RetentionDays int             `yaml:"retention_days"` // comment-record retention; 0 disables the sweep
}

// DatabaseConfig holds storage backend settings. The sqlite driver is the
// local default; mysql serves shared deployments.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or mysql
	Path   string `yaml:"path"`   // sqlite file path
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
}

// DashboardConfig holds dashboard HTTP server settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// NotifyConfig controls where activity notifications are delivered. All
// targets are optional; unset targets are skipped.
type NotifyConfig struct {
	SlackWebhookURL  string `yaml:"slack_webhook_url"`
	DiscordToken     string `yaml:"discord_token"`
	DiscordChannelID string `yaml:"discord_channel_id"`
	Command          string `yaml:"command"`     // shell command template, e.g. "notify-send 'Greylit' '{{.Title}}'"
	DigestCron       string `yaml:"digest_cron"` // 5-field cron expression for the daily digest
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "greylit.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "greylit"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Notify.DigestCron == "" {
		c.Notify.DigestCron = "0 9 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Actor == "" {
		errs = append(errs, "actor is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.RetentionDays < 0 {
		errs = append(errs, "retention_days must not be negative")
	}
	if c.Notify.DiscordToken != "" && c.Notify.DiscordChannelID == "" {
		errs = append(errs, "notify.discord_channel_id is required when notify.discord_token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
