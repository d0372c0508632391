// Package config loads ghostwriter-mcp configuration from defaults, an
// optional YAML or TOML file, and environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Codename sources.
const (
	CodenameSourceLocal  = "local"
	CodenameSourceRemote = "remote"
)

// DefaultMaxCodenameAttempts bounds codename generation when neither the
// request nor the configuration says otherwise.
const DefaultMaxCodenameAttempts = 10

// Config holds the full ghostwriter-mcp configuration.
type Config struct {
	Ghostwriter GhostwriterConfig `koanf:"ghostwriter" yaml:"ghostwriter"`
	Codename    CodenameConfig    `koanf:"codename" yaml:"codename"`
	Transport   TransportConfig   `koanf:"transport" yaml:"transport"`
	HTTP        HTTPConfig        `koanf:"http" yaml:"http"`
	Logging     LoggingConfig     `koanf:"logging" yaml:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry" yaml:"telemetry"`
}

// GhostwriterConfig points at the remote GraphQL API.
type GhostwriterConfig struct {
	// URL is the full GraphQL endpoint, e.g. https://ghostwriter.local/v1/graphql.
	URL      string   `koanf:"url" yaml:"url"`
	APIToken Secret   `koanf:"api_token" yaml:"api_token"`
	Timeout  Duration `koanf:"timeout" yaml:"timeout"`

	TLSSkipVerify bool `koanf:"tls_skip_verify" yaml:"tls_skip_verify"`

	// RateLimit is requests per second to the API; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	Burst     int     `koanf:"burst" yaml:"burst"`

	// DefaultProjectType is used when create_or_find_project gets no type.
	DefaultProjectType string `koanf:"default_project_type" yaml:"default_project_type"`

	// ProjectDuration sets end_date when only start_date (or neither) is given.
	ProjectDuration Duration `koanf:"project_duration" yaml:"project_duration"`
}

// CodenameConfig controls codename generation.
type CodenameConfig struct {
	MaxAttempts int    `koanf:"max_attempts" yaml:"max_attempts"`
	Source      string `koanf:"source" yaml:"source"`
}

// TransportConfig selects how the MCP server is exposed.
type TransportConfig struct {
	Mode string `koanf:"mode" yaml:"mode"`
}

// HTTPConfig configures the HTTP bridge.
type HTTPConfig struct {
	Host            string   `koanf:"host" yaml:"host"`
	Port            int      `koanf:"port" yaml:"port"`
	AuthToken       Secret   `koanf:"auth_token" yaml:"auth_token"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig is the subset of logging settings exposed to operators.
type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled" yaml:"enabled"`
	Endpoint        string   `koanf:"endpoint" yaml:"endpoint"`
	Protocol        string   `koanf:"protocol" yaml:"protocol"`
	Insecure        bool     `koanf:"insecure" yaml:"insecure"`
	ServiceName     string   `koanf:"service_name" yaml:"service_name"`
	SamplingRate    float64  `koanf:"sampling_rate" yaml:"sampling_rate"`
	MetricsInterval Duration `koanf:"metrics_interval" yaml:"metrics_interval"`
}

// Default returns the configuration used before any file or env overrides.
func Default() *Config {
	return &Config{
		Ghostwriter: GhostwriterConfig{
			Timeout:            Duration(30 * time.Second),
			RateLimit:          10,
			Burst:              5,
			DefaultProjectType: "Web App",
			ProjectDuration:    Duration(14 * 24 * time.Hour),
		},
		Codename: CodenameConfig{
			MaxAttempts: DefaultMaxCodenameAttempts,
			Source:      CodenameSourceLocal,
		},
		Transport: TransportConfig{
			Mode: TransportStdio,
		},
		HTTP: HTTPConfig{
			Host:            "localhost",
			Port:            9091,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Endpoint:        "localhost:4317",
			Protocol:        "grpc",
			Insecure:        true,
			ServiceName:     "ghostwriter-mcp",
			SamplingRate:    1.0,
			MetricsInterval: Duration(15 * time.Second),
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Ghostwriter.URL == "" {
		return fmt.Errorf("ghostwriter.url is required (GHOSTWRITER_URL)")
	}
	u, err := url.Parse(c.Ghostwriter.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ghostwriter.url must be an absolute URL, got %q", c.Ghostwriter.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ghostwriter.url scheme must be http or https, got %q", u.Scheme)
	}
	if !c.Ghostwriter.APIToken.IsSet() {
		return fmt.Errorf("ghostwriter.api_token is required (GHOSTWRITER_API_TOKEN)")
	}
	if c.Ghostwriter.Timeout.Duration() <= 0 {
		return fmt.Errorf("ghostwriter.timeout must be positive")
	}
	if c.Ghostwriter.RateLimit < 0 {
		return fmt.Errorf("ghostwriter.rate_limit cannot be negative")
	}
	if c.Ghostwriter.RateLimit > 0 && c.Ghostwriter.Burst < 1 {
		return fmt.Errorf("ghostwriter.burst must be at least 1 when rate limiting")
	}

	if c.Codename.MaxAttempts < 1 {
		return fmt.Errorf("codename.max_attempts must be at least 1, got %d", c.Codename.MaxAttempts)
	}
	switch c.Codename.Source {
	case CodenameSourceLocal, CodenameSourceRemote:
	default:
		return fmt.Errorf("codename.source must be %q or %q, got %q",
			CodenameSourceLocal, CodenameSourceRemote, c.Codename.Source)
	}

	switch c.Transport.Mode {
	case TransportStdio:
	case TransportHTTP:
		if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
			return fmt.Errorf("http.port must be 1-65535, got %d", c.HTTP.Port)
		}
	default:
		return fmt.Errorf("transport.mode must be %q or %q, got %q",
			TransportStdio, TransportHTTP, c.Transport.Mode)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("telemetry.sampling_rate must be between 0 and 1, got %f", c.Telemetry.SamplingRate)
	}

	return nil
}
