package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Transport modes for the MCP server.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Transport       string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NWS API configuration.
	NWSBaseURL   string
	NWSUserAgent string
	NWSTimeout   time.Duration

	// Kafka audit sink configuration. Disabled when no brokers are set.
	AuditBrokers []string
	AuditTopic   string
}

// AuditEnabled reports whether tool invocations are published to Kafka.
func (c *Config) AuditEnabled() bool {
	return len(c.AuditBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
// A non-empty transport argument overrides MCP_TRANSPORT.
func Load(transport string) (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	nwsTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("NWS_TIMEOUT", "10s"))
	if err != nil || nwsTimeout <= 0 {
		return nil, errors.New("invalid NWS_TIMEOUT")
	}

	if transport == "" {
		transport = sharedcfg.EnvOrDefault("MCP_TRANSPORT", TransportSSE)
	}

	cfg := &Config{
		Transport:       strings.ToLower(transport),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NWSBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"), "/"),
		NWSUserAgent: sharedcfg.EnvOrDefault("NWS_USER_AGENT", "weather-app/1.0"),
		NWSTimeout:   nwsTimeout,

		AuditBrokers: parseBrokers(os.Getenv("AUDIT_KAFKA_BROKERS")),
		AuditTopic:   sharedcfg.EnvOrDefault("AUDIT_KAFKA_TOPIC", "weather-mcp-invocations"),
	}

	if cfg.Transport != TransportStdio && cfg.Transport != TransportSSE {
		return nil, fmt.Errorf("unknown transport %q: use %q or %q", cfg.Transport, TransportStdio, TransportSSE)
	}
	if u, err := url.Parse(cfg.NWSBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid NWS_BASE_URL")
	}
	if cfg.NWSUserAgent == "" {
		return nil, errors.New("NWS_USER_AGENT is required")
	}
	if cfg.AuditEnabled() && cfg.AuditTopic == "" {
		return nil, errors.New("AUDIT_KAFKA_TOPIC is required when AUDIT_KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}
