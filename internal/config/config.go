// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leadgate/pipeline/internal/models"
)

// IMAPConfig holds the inbound mailbox connection settings.
type IMAPConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Encryption string `yaml:"encryption"` // "ssl", "tls", "starttls", "none"
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Folder     string `yaml:"folder"`

	// OAuth2 client-credentials settings; when TokenURL is set XOAUTH2 is
	// used instead of the password.
	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`
	OAuthTokenURL     string `yaml:"oauth_token_url"`
	OAuthScope        string `yaml:"oauth_scope"`
}

// SMTPConfig holds the outbound notification transport settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Config holds all configuration for the lead pipeline.
type Config struct {
	IMAP IMAPConfig
	SMTP SMTPConfig

	DatabaseURL string
	RedisURL    string
	EventsQueue string

	// DefaultClientID receives leads no routing rule claims; zero disables
	// the fallback.
	DefaultClientID int64

	// AdminDefaults is the notification fallback for admins with no stored
	// preference row, keyed by alert kind.
	AdminDefaults map[models.AdminKind]bool

	// RunInterval between mailbox polls; zero means run once and exit.
	RunInterval time.Duration

	// DedupTTL bounds the message seen-filter; zero uses the filter default.
	DedupTTL time.Duration

	// Server (health check only)
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	IMAP IMAPConfig `yaml:"imap"`
	SMTP SMTPConfig `yaml:"smtp"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Events string `yaml:"events"`
		} `yaml:"queues"`
	} `yaml:"redis"`

	Routing struct {
		DefaultClientID int64 `yaml:"default_client_id"`
	} `yaml:"routing"`

	Admin struct {
		Defaults map[string]bool `yaml:"defaults"`
	} `yaml:"admin"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		IMAP:            raw.IMAP,
		SMTP:            raw.SMTP,
		DatabaseURL:     firstNonEmpty(raw.Database.URL, envOrDefault("DATABASE_URL", "")),
		RedisURL:        firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		EventsQueue:     firstNonEmpty(raw.Redis.Queues.Events, envOrDefault("EVENTS_QUEUE", "lead_events")),
		DefaultClientID: raw.Routing.DefaultClientID,
		RunInterval:     envOrDefaultDuration("RUN_INTERVAL", 0),
		DedupTTL:        envOrDefaultDuration("DEDUP_TTL", 0),
		Port:            envOrDefaultInt("PORT", 8080),
		AdminDefaults:   map[models.AdminKind]bool{},
	}

	if cfg.DefaultClientID == 0 {
		cfg.DefaultClientID = int64(envOrDefaultInt("DEFAULT_CLIENT_ID", 0))
	}

	for kind, on := range raw.Admin.Defaults {
		cfg.AdminDefaults[models.AdminKind(kind)] = on
	}

	if cfg.IMAP.Host == "" {
		return nil, fmt.Errorf("imap.host is required")
	}
	if cfg.IMAP.Port == 0 {
		cfg.IMAP.Port = 993
	}
	if cfg.IMAP.Encryption == "" {
		cfg.IMAP.Encryption = "ssl"
	}
	if cfg.IMAP.Folder == "" {
		cfg.IMAP.Folder = "INBOX"
	}
	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("smtp.host is required")
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.From == "" {
		return nil, fmt.Errorf("smtp.from is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database.url is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
