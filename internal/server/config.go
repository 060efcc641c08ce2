package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the evaluation API.
type Config struct {
	Address string `yaml:"address"`
	// MaxBodySize caps a scenario request body, e.g. "64K". Scenario JSON
	// is a few hundred bytes, so the default is generous.
	MaxBodySize string `yaml:"maxBodySize"`
	// ShutdownGrace is how long in-flight evaluations may finish after
	// SIGINT or SIGTERM, as a Go duration.
	ShutdownGrace string               `yaml:"shutdownGrace"`
	Logging       config.LoggingConfig `yaml:"logging"`
	// ShareBase is the calculator page URL share links are built on; empty
	// returns bare tokens only.
	ShareBase string        `yaml:"shareBase"`
	Tracing   TracingConfig `yaml:"tracing"`

	bodySizeBytes int64
	shutdownGrace time.Duration
}

// TracingConfig selects where spans are exported. An empty endpoint keeps
// tracing in-process.
type TracingConfig struct {
	ServiceName string `yaml:"serviceName"`
	Endpoint    string `yaml:"endpoint"`
}

// LoadConfig loads the API configuration from YAML. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:       constants.DefaultServerAddress,
		MaxBodySize:   strconv.FormatInt(constants.DefaultMaxBodyBytes, 10),
		ShutdownGrace: constants.DefaultShutdownGrace.String(),
		Tracing:       TracingConfig{ServiceName: constants.DefaultServiceName},
		bodySizeBytes: constants.DefaultMaxBodyBytes,
		shutdownGrace: constants.DefaultShutdownGrace,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// ShutdownGraceDuration returns the graceful shutdown window.
func (c *Config) ShutdownGraceDuration() time.Duration {
	return c.shutdownGrace
}

// SetShareBase overrides the configured share link base, e.g. from a flag.
func (c *Config) SetShareBase(base string) error {
	base = strings.TrimSpace(base)
	if err := validateShareBase(base); err != nil {
		return err
	}
	c.ShareBase = base
	return nil
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	c.Tracing.ServiceName = strings.TrimSpace(c.Tracing.ServiceName)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = constants.DefaultServiceName
	}
	c.Tracing.Endpoint = strings.TrimSpace(c.Tracing.Endpoint)

	c.ShareBase = strings.TrimSpace(c.ShareBase)
	if err := validateShareBase(c.ShareBase); err != nil {
		return err
	}

	c.shutdownGrace = constants.DefaultShutdownGrace
	if grace := strings.TrimSpace(c.ShutdownGrace); grace != "" {
		d, err := time.ParseDuration(grace)
		if err != nil {
			return fmt.Errorf("invalid shutdownGrace %q: %w", c.ShutdownGrace, err)
		}
		if d > 0 {
			c.shutdownGrace = d
		}
	}

	size, err := ParseSize(c.MaxBodySize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxBodyBytes
	}
	c.bodySizeBytes = size
	return nil
}

// validateShareBase accepts an empty base or an absolute http(s) URL, since
// the token is appended as the fragment of that page.
func validateShareBase(base string) error {
	if base == "" {
		return nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid shareBase %q: %w", base, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid shareBase %q: need an absolute http or https URL", base)
	}
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodyBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
