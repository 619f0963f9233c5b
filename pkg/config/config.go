// Package config loads and validates the inbound discovery
// configuration document from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied when the configuration document omits them.
const (
	DefaultPort           = 22
	DefaultMaxDepth       = 10
	DefaultTimeoutSeconds = 30
	DefaultBannerSeconds  = 15
	DefaultMaxWorkers     = 5
	DefaultQueueSize      = 100
)

// Credentials holds the username/password/key material used to
// authenticate a remote shell session.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseKeys  bool   `yaml:"use_keys"`
	KeyFile  string `yaml:"key_file"`
	Secret   string `yaml:"secret,omitempty"`
}

// SeedDevice is one configured starting point for the crawl.
type SeedDevice struct {
	Hostname   string `yaml:"hostname"`
	IP         string `yaml:"ip"`
	DeviceType string `yaml:"device_type"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Secret     string `yaml:"secret,omitempty"`
}

// DiscoveryOptions controls the crawl's depth, timeouts, and which
// optional commands are collected.
type DiscoveryOptions struct {
	Recursive              bool     `yaml:"recursive"`
	MaxDepth               int      `yaml:"max_depth"`
	Timeout                int      `yaml:"timeout"`
	BannerTimeout          int      `yaml:"banner_timeout"`
	CollectMACTables       bool     `yaml:"collect_mac_tables"`
	CollectARPTables       bool     `yaml:"collect_arp_tables"`
	CollectInterfaceStats  bool     `yaml:"collect_interface_stats"`
	Protocols              []string `yaml:"protocols"`
}

// Filters narrows which devices participate in the crawl.
type Filters struct {
	ExcludeHostnames []string `yaml:"exclude_hostnames,omitempty"`
	IncludeTypes     []string `yaml:"include_types,omitempty"`
}

// Parallel controls the engine's worker pool.
type Parallel struct {
	MaxWorkers int `yaml:"max_workers"`
	QueueSize  int `yaml:"queue_size"`
}

// Config is the full discovery configuration document.
type Config struct {
	SeedDevices      []SeedDevice     `yaml:"seed_devices"`
	Credentials      Credentials      `yaml:"credentials"`
	DiscoveryOptions DiscoveryOptions `yaml:"discovery_options"`
	Filters          Filters          `yaml:"filters"`
	Parallel         Parallel         `yaml:"parallel"`
}

// Load reads and parses a YAML configuration document from path,
// fills defaults, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a Config, applying defaults and
// validating the result.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DiscoveryOptions.MaxDepth <= 0 {
		c.DiscoveryOptions.MaxDepth = DefaultMaxDepth
	}
	if c.DiscoveryOptions.Timeout <= 0 {
		c.DiscoveryOptions.Timeout = DefaultTimeoutSeconds
	}
	if c.DiscoveryOptions.BannerTimeout <= 0 {
		c.DiscoveryOptions.BannerTimeout = DefaultBannerSeconds
	}
	if len(c.DiscoveryOptions.Protocols) == 0 {
		c.DiscoveryOptions.Protocols = []string{"cdp", "lldp"}
	}
	// Boolean options have no zero-value check here: Parse decodes the
	// document onto NewDefault(), so keys the document omits keep their
	// defaults (recursive: true, collect_mac_tables: true,
	// collect_interface_stats: true, collect_arp_tables: false).

	if c.Parallel.MaxWorkers <= 0 {
		c.Parallel.MaxWorkers = DefaultMaxWorkers
	}
	if c.Parallel.QueueSize <= 0 {
		c.Parallel.QueueSize = DefaultQueueSize
	}
	for i := range c.SeedDevices {
		if c.SeedDevices[i].Port <= 0 {
			c.SeedDevices[i].Port = DefaultPort
		}
		if c.SeedDevices[i].Username == "" {
			c.SeedDevices[i].Username = c.Credentials.Username
		}
		if c.SeedDevices[i].Password == "" {
			c.SeedDevices[i].Password = c.Credentials.Password
		}
		if c.SeedDevices[i].Secret == "" {
			c.SeedDevices[i].Secret = c.Credentials.Secret
		}
	}
}

// Validate checks the structural requirements the configuration
// document must satisfy.
func (c *Config) Validate() error {
	if len(c.SeedDevices) == 0 {
		return fmt.Errorf("config: seed_devices must be non-empty")
	}
	seen := make(map[string]struct{}, len(c.SeedDevices))
	for i, d := range c.SeedDevices {
		if strings.TrimSpace(d.Hostname) == "" {
			return fmt.Errorf("config: seed_devices[%d]: hostname is required", i)
		}
		if strings.TrimSpace(d.IP) == "" {
			return fmt.Errorf("config: seed_devices[%d](%s): ip is required", i, d.Hostname)
		}
		switch strings.ToLower(d.DeviceType) {
		case "switch", "router", "endpoint":
		default:
			return fmt.Errorf("config: seed_devices[%d](%s): invalid device_type %q", i, d.Hostname, d.DeviceType)
		}
		if _, dup := seen[d.Hostname]; dup {
			return fmt.Errorf("config: seed_devices[%d]: duplicate hostname %q", i, d.Hostname)
		}
		seen[d.Hostname] = struct{}{}
	}
	if c.DiscoveryOptions.MaxDepth < 1 {
		return fmt.Errorf("config: discovery_options.max_depth must be >= 1")
	}
	if c.Parallel.MaxWorkers < 1 {
		return fmt.Errorf("config: parallel.max_workers must be >= 1")
	}
	return nil
}

// NewDefault returns a Config populated with documented defaults, for
// callers that construct a configuration document in memory rather
// than from YAML (such as tests), and as the base Parse decodes onto.
func NewDefault() Config {
	return Config{
		DiscoveryOptions: DiscoveryOptions{
			Recursive:             true,
			MaxDepth:              DefaultMaxDepth,
			Timeout:               DefaultTimeoutSeconds,
			BannerTimeout:         DefaultBannerSeconds,
			CollectMACTables:      true,
			CollectARPTables:      false,
			CollectInterfaceStats: true,
			Protocols:             []string{"cdp", "lldp"},
		},
		Parallel: Parallel{
			MaxWorkers: DefaultMaxWorkers,
			QueueSize:  DefaultQueueSize,
		},
	}
}
