// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Defaults live in New; Load layers a YAML file and env vars on top.
//   - Validate reports problems wrapped in ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Model backends.
const (
	BackendFile   = "file"
	BackendKServe = "kserve"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// ModelBackend is "file" for local artifacts or "kserve" for a remote
	// V2 inference server.
	ModelBackend string `koanf:"model_backend"`

	// LeadershipModelPath and AttritionModelPath locate local artifacts.
	LeadershipModelPath string `koanf:"leadership_model_path"`
	AttritionModelPath  string `koanf:"attrition_model_path"`

	// KServeEndpoint is the base URL of the inference server.
	KServeEndpoint string `koanf:"kserve_endpoint"`

	// LeadershipModelName and AttritionModelName are the remote model names.
	LeadershipModelName string `koanf:"leadership_model_name"`
	AttritionModelName  string `koanf:"attrition_model_name"`

	// KServeInputName is the input tensor name the remote models expect.
	KServeInputName string `koanf:"kserve_input_name"`

	// KServeTimeoutMS bounds a single remote inference call.
	KServeTimeoutMS int `koanf:"kserve_timeout_ms"`

	// LegacyStatusCodes answers every /predict call with 200 and reports
	// failures only in the body.
	LegacyStatusCodes bool `koanf:"legacy_status_codes"`

	// MaxBodyBytes caps the size of a /predict request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config with defaults. The context is reserved for loaders
// that need one and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":5000",
		ModelBackend:        BackendFile,
		LeadershipModelPath: "models/leadership.yaml",
		AttritionModelPath:  "models/attrition.yaml",
		LeadershipModelName: "leadership",
		AttritionModelName:  "attrition",
		KServeInputName:     "input0",
		KServeTimeoutMS:     2000,
		MaxBodyBytes:        64 << 10,
	}
}

// KServeTimeout returns KServeTimeoutMS as a duration.
func (c *Config) KServeTimeout() time.Duration {
	return time.Duration(c.KServeTimeoutMS) * time.Millisecond
}

// Validate checks field values and backend-specific requirements.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unknown log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return invalid("unknown log_format %q", c.LogFormat)
	}
	if c.MaxBodyBytes <= 0 {
		return invalid("max_body_bytes must be positive")
	}

	switch c.ModelBackend {
	case BackendFile:
		if c.LeadershipModelPath == "" || c.AttritionModelPath == "" {
			return invalid("file backend needs leadership_model_path and attrition_model_path")
		}
	case BackendKServe:
		if c.KServeEndpoint == "" {
			return invalid("kserve backend needs kserve_endpoint")
		}
		if c.LeadershipModelName == "" || c.AttritionModelName == "" {
			return invalid("kserve backend needs leadership_model_name and attrition_model_name")
		}
		if c.KServeInputName == "" {
			return invalid("kserve backend needs kserve_input_name")
		}
		if c.KServeTimeoutMS <= 0 {
			return invalid("kserve_timeout_ms must be positive")
		}
	default:
		return invalid("unknown model_backend %q", c.ModelBackend)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
