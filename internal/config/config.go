package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	DiscoverySSDP = "ssdp"
	DiscoveryMDNS = "mdns"

	appName = "bulby"
	// The bridge rejects device types longer than this
	maxDeviceTypeLen = 40
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config stores all application configuration
type Config struct {
	Bridge    BridgeConfig    `yaml:"bridge"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       LogConfig       `yaml:"log"`
}

// BridgeConfig stores connection details for the Hue bridge
type BridgeConfig struct {
	// IP address or hostname, empty means discover
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	Scheme  string `yaml:"scheme"`
	// Application key registered with the bridge
	Username   string   `yaml:"username"`
	DeviceType string   `yaml:"device_type"`
	Timeout    Duration `yaml:"timeout"` // HTTP timeout for bridge requests
	// How long "pair" waits for the link button
	PairTimeout  Duration `yaml:"pair_timeout"`
	RateLimitRPS float64  `yaml:"rate_limit_rps"`
}

// DiscoveryConfig contains bridge discovery settings
type DiscoveryConfig struct {
	Method       string   `yaml:"method"` // ssdp or mdns
	SearchTarget string   `yaml:"search_target"`
	Timeout      Duration `yaml:"timeout"` // Per-read timeout
	Retries      int      `yaml:"retries"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors bool   `yaml:"colors"`
	// Where logs go while the TUI owns the terminal (empty = discard)
	File string `yaml:"file"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// configDir returns the configuration directory path
func configDir() (string, error) {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName), nil
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the full path to the default config file
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file at path. An empty path means the default
// location, where a missing file yields the defaults.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	// Bridge defaults
	if c.Bridge.Scheme == "" {
		c.Bridge.Scheme = "http"
	}
	if c.Bridge.DeviceType == "" {
		c.Bridge.DeviceType = defaultDeviceType()
	}
	if c.Bridge.Username == "" {
		c.Bridge.Username = DefaultUsername(c.Bridge.DeviceType)
	}
	if c.Bridge.Timeout == 0 {
		c.Bridge.Timeout = Duration(10 * time.Second)
	}
	if c.Bridge.PairTimeout == 0 {
		c.Bridge.PairTimeout = Duration(30 * time.Second)
	}
	if c.Bridge.RateLimitRPS == 0 {
		c.Bridge.RateLimitRPS = 10.0 // bridge recommendation
	}

	// Discovery defaults
	if c.Discovery.Method == "" {
		c.Discovery.Method = DiscoverySSDP
	}
	if c.Discovery.SearchTarget == "" {
		c.Discovery.SearchTarget = "IpBridge"
	}
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = Duration(5 * time.Second)
	}
	if c.Discovery.Retries == 0 {
		c.Discovery.Retries = 5
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch c.Discovery.Method {
	case DiscoverySSDP, DiscoveryMDNS:
	default:
		return fmt.Errorf("%w: discovery.method must be %q or %q, got %q",
			ErrInvalidConfig, DiscoverySSDP, DiscoveryMDNS, c.Discovery.Method)
	}
	switch c.Bridge.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("%w: bridge.scheme must be http or https, got %q", ErrInvalidConfig, c.Bridge.Scheme)
	}
	if c.Bridge.Port < 0 || c.Bridge.Port > 65535 {
		return fmt.Errorf("%w: bridge.port %d out of range", ErrInvalidConfig, c.Bridge.Port)
	}
	if len(c.Bridge.DeviceType) > maxDeviceTypeLen {
		return fmt.Errorf("%w: bridge.device_type longer than %d characters", ErrInvalidConfig, maxDeviceTypeLen)
	}
	if c.Discovery.Retries < 0 {
		return fmt.Errorf("%w: discovery.retries must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DefaultUsername derives a stable application key from the host and device
// type, so repeated runs reuse one registration without storing it.
func DefaultUsername(deviceType string) string {
	host, _ := os.Hostname()
	id := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(host+"/"+deviceType))
	return strings.ReplaceAll(id.String(), "-", "")
}

func defaultDeviceType() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return appName
	}
	dt := appName + "#" + host
	if len(dt) > maxDeviceTypeLen {
		dt = dt[:maxDeviceTypeLen]
	}
	return dt
}

// envVarPattern matches ${VAR} or ${VAR:default}
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
