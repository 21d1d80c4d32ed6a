// Package config loads the simulator's YAML server configuration, using
// the same yaml-tagged struct style and gopkg.in/yaml.v3 tagging
// convention as the rest of this codebase's config packages, narrowed to
// what an atomic-tag ENIP/CIP server needs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Identity holds the ListIdentity values the simulator advertises,
// configurable at startup.
type Identity struct {
	VendorID    uint16 `yaml:"vendor_id"`
	DeviceType  uint16 `yaml:"device_type"`
	ProductCode uint16 `yaml:"product_code"`
	RevMajor    uint8  `yaml:"rev_major"`
	RevMinor    uint8  `yaml:"rev_minor"`
	Serial      uint32 `yaml:"serial"`
	ProductName string `yaml:"product_name"`
}

// DefaultIdentity returns the simulator's fallback identity values
// (vendor 1, rev 1.0) used when no configuration overrides them.
func DefaultIdentity() Identity {
	return Identity{
		VendorID:    1,
		DeviceType:  14,
		ProductCode: 54,
		RevMajor:    1,
		RevMinor:    0,
		Serial:      0x00000001,
		ProductName: "CIPDIP-ENIPSIM",
	}
}

// FaultConfig is the YAML-facing shape of the control plane's delay knob:
// a single options.delay surface.
type FaultConfig struct {
	Delay string `yaml:"delay"` // "0.25" or "0.1-0.5", same grammar as --delay
}

// ServerConfig is the top-level YAML document for `enipsim serve --config`.
type ServerConfig struct {
	ListenAddress string      `yaml:"listen_address"`
	Identity      Identity    `yaml:"identity"`
	Faults        FaultConfig `yaml:"faults"`
	Tags          []string    `yaml:"tags"`
	LogLevel      string      `yaml:"log_level"`
	LogFile       string      `yaml:"log_file"`
	HTTPAddress   string      `yaml:"http_address"`
}

// DefaultServerConfig matches the simulator's default listen address.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddress: "0.0.0.0:44818",
		Identity:      DefaultIdentity(),
		LogLevel:      "info",
	}
}

// Load reads and parses a YAML server config file. A missing path is not an
// error; callers get DefaultServerConfig() back so the CLI can run with no
// config file at all.
func Load(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
