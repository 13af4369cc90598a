// Package config loads and validates the filter configuration.
//
// DESIGN: Defaults mirror the documented option set; a YAML file overrides
// them. Environment variables are expanded with ${VAR:-default} syntax before
// parsing, so deployments can redirect the log file path without editing the
// config file.
//
// FILES:
//   - config.go:  Root Config struct, Load(), LoadFromBytes(), Validate()
//   - options.go: Sub-structs for capture, sinks, fields, redaction, report,
//     and status texts, plus Default()
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/rex-nihilo/chatlens/internal/monitoring"
)

// Config is the root configuration for the debug filter.
// Each lifecycle phase reads the config it was constructed with; the host may
// swap configs between requests but not during one.
type Config struct {
	Priority int                     `yaml:"priority"` // Filter execution order in the host pipeline
	Capture  CaptureConfig           `yaml:"capture"`  // Which lifecycle phases to capture
	Sinks    SinksConfig             `yaml:"sinks"`    // Where finished entries are delivered
	Fields   FieldsConfig            `yaml:"fields"`   // Which snapshot fields to render
	Redact   RedactConfig            `yaml:"redact"`   // Sensitive-key masking
	Report   ReportConfig            `yaml:"report"`   // Chat report layout and markers
	Status   StatusConfig            `yaml:"status"`   // Host status-channel notifications
	Logging  monitoring.LoggerConfig `yaml:"logging"`  // Diagnostic logging (zerolog)
}

// expandEnvWithDefaults expands environment variables with support for
// default values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// Load reads configuration from a YAML file, applied on top of Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes on top of Default().
// Supports ${VAR:-default} env var expansion, env overrides, and validation.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// This lets external systems redirect output paths without modifying the
// base config files.
func (c *Config) applyEnvOverrides() {
	// CHATLENS_LOG_FILE overrides the file-sink path and enables the sink
	if envPath := os.Getenv("CHATLENS_LOG_FILE"); envPath != "" {
		c.Sinks.FilePath = envPath
		c.Sinks.File = true
	}

	// CHATLENS_LOG_LEVEL overrides the diagnostic log level
	if level := os.Getenv("CHATLENS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Sinks.File && c.Sinks.FilePath == "" {
		return fmt.Errorf("sinks.file_path is required when the file sink is enabled")
	}
	if c.Sinks.FileMaxSizeMB < 0 {
		return fmt.Errorf("invalid sinks.file_max_size_mb: %d (must be >= 0)", c.Sinks.FileMaxSizeMB)
	}
	if c.Sinks.FileBackups < 0 {
		return fmt.Errorf("invalid sinks.file_backups: %d (must be >= 0)", c.Sinks.FileBackups)
	}
	if c.Redact.MaxDepth < 1 {
		return fmt.Errorf("invalid redact.max_depth: %d (must be >= 1)", c.Redact.MaxDepth)
	}
	if c.Redact.Enabled && c.Redact.Mask == "" {
		return fmt.Errorf("redact.mask is required when redaction is enabled")
	}
	if (c.Report.MarkerBegin == "") != (c.Report.MarkerEnd == "") {
		return fmt.Errorf("report.marker_begin and report.marker_end must be set together")
	}

	return nil
}
