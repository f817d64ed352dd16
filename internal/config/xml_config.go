// Package config provides file-based configuration for the web UI and CLI.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is created next to the binary on first run.
const DefaultConfigFile = "SpamDetectorUI.config"

// DefaultAPIBaseURL is the loopback address of a locally running prediction API.
const DefaultAPIBaseURL = "http://127.0.0.1:8000"

// AppConfig represents the root configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"SpamDetectorUI" yaml:"-"`

	// Server configuration
	Server ServerConfig `xml:"Server" yaml:"server"`

	// Remote prediction API
	API APIConfig `xml:"API" yaml:"api"`

	// Upload and input bounds
	Limits LimitsConfig `xml:"Limits" yaml:"limits"`

	// Browser session lifetime
	Session SessionConfig `xml:"Session" yaml:"session"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" yaml:"port"`
	BindAddress  string `xml:"BindAddress" yaml:"bind_address"`
	EnableCORS   bool   `xml:"EnableCORS" yaml:"enable_cors"`
	AllowOrigins string `xml:"AllowOrigins" yaml:"allow_origins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds" yaml:"read_timeout_seconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds" yaml:"write_timeout_seconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds" yaml:"idle_timeout_seconds"`
	BodyLimit    string `xml:"BodyLimit" yaml:"body_limit"`
}

// APIConfig locates the prediction API.
type APIConfig struct {
	BaseURL        string `xml:"BaseURL" yaml:"base_url"`
	TimeoutSeconds int    `xml:"TimeoutSeconds" yaml:"timeout_seconds"`
}

// LimitsConfig bounds uploads and input text.
type LimitsConfig struct {
	MaxRows       int `xml:"MaxRows" yaml:"max_rows"`
	MaxTextLength int `xml:"MaxTextLength" yaml:"max_text_length"`
	PreviewRows   int `xml:"PreviewRows" yaml:"preview_rows"`
}

// SessionConfig controls how long idle browser sessions are kept.
type SessionConfig struct {
	TimeoutMinutes         int    `xml:"TimeoutMinutes" yaml:"timeout_minutes"`
	CleanupIntervalMinutes int    `xml:"CleanupIntervalMinutes" yaml:"cleanup_interval_minutes"`
	CookieName             string `xml:"CookieName" yaml:"cookie_name"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" yaml:"log_level"`
	LogFormat            string `xml:"LogFormat" yaml:"log_format"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging" yaml:"enable_request_logging"`
	EnableMetrics        bool   `xml:"EnableMetrics" yaml:"enable_metrics"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   false,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "10M",
		},
		API: APIConfig{
			BaseURL:        DefaultAPIBaseURL,
			TimeoutSeconds: 10,
		},
		Limits: LimitsConfig{
			MaxRows:       500,
			MaxTextLength: 5000,
			PreviewRows:   50,
		},
		Session: SessionConfig{
			TimeoutMinutes:         30,
			CleanupIntervalMinutes: 5,
			CookieName:             "spamui_session",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "console",
			EnableRequestLogging: true,
			EnableMetrics:        true,
		},
	}
}

// LoadConfig loads configuration from an XML file, or YAML when the path ends
// in .yaml or .yml. A missing file is created with defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data, isYAML(configPath))
	if err != nil {
		return nil, err
	}

	config.applyEnvironmentOverrides()

	return config, nil
}

// FromEnvironment returns the defaults with environment overrides applied,
// for callers that run without a config file.
func FromEnvironment() *AppConfig {
	config := DefaultConfig()
	config.applyEnvironmentOverrides()
	return config
}

// Parse decodes a configuration document over the defaults, so omitted
// settings keep their default values.
func Parse(data []byte, asYAML bool) (*AppConfig, error) {
	config := DefaultConfig()
	if asYAML {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration, as YAML for .yaml/.yml paths and XML otherwise.
func (c *AppConfig) Save(configPath string) error {
	var content []byte
	if isYAML(configPath) {
		output, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		content = append([]byte("# Spam Detector UI configuration\n# This file is auto-generated on first run\n\n"), output...)
	} else {
		output, err := xml.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte(xml.Header + "\n<!-- Spam Detector UI Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
		content = append(header, output...)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the server cannot run with.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("API base URL must not be empty")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid API timeout %d: must be at least 1 second", c.API.TimeoutSeconds)
	}
	if c.Limits.MaxRows <= 0 || c.Limits.MaxTextLength <= 0 || c.Limits.PreviewRows <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// REACT_APP_API_BASE_URL is honoured so existing deployments keep working.
	if base := os.Getenv("REACT_APP_API_BASE_URL"); base != "" {
		c.API.BaseURL = base
	}
	if base := os.Getenv("API_BASE_URL"); base != "" {
		c.API.BaseURL = base
	}

	if timeout := os.Getenv("API_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			c.API.TimeoutSeconds = t
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// APITimeout returns the per-request timeout for the prediction API.
func (c *AppConfig) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// SessionTimeout returns the idle age after which a session is dropped.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often expired sessions are swept.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Session.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Session.CleanupIntervalMinutes) * time.Minute
}
