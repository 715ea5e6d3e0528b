package mediamtx

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default locations used by the installed MediaMTX package.
const (
	DefaultBinary     = "/usr/local/bin/mediamtx"
	DefaultConfigFile = "/etc/mediamtx/mediamtx.yml"
	DefaultPathName   = "cam"
	DefaultRTSPPort   = 8554
)

// Config represents the subset of the MediaMTX configuration we manage
type Config struct {
	LogLevel    string `yaml:"logLevel,omitempty"`
	API         bool   `yaml:"api"`
	APIAddress  string `yaml:"apiAddress"`
	RTSP        bool   `yaml:"rtsp"`
	RTSPAddress string `yaml:"rtspAddress"`

	Paths map[string]PathConfig `yaml:"paths"`
}

// PathConfig represents a MediaMTX path configuration
type PathConfig struct {
	Source           string `yaml:"source,omitempty"`
	SourceOnDemand   bool   `yaml:"sourceOnDemand,omitempty"`
	RTSPTransport    string `yaml:"rtspTransport,omitempty"`
	RunOnInit        string `yaml:"runOnInit,omitempty"`
	RunOnInitRestart bool   `yaml:"runOnInitRestart,omitempty"`
}

// NewConfig creates a basic MediaMTX configuration
func NewConfig() *Config {
	return &Config{
		LogLevel:    "info",
		API:         true,
		APIAddress:  ":9997",
		RTSP:        true,
		RTSPAddress: fmt.Sprintf(":%d", DefaultRTSPPort),
		Paths:       make(map[string]PathConfig),
	}
}

// AddPath adds or replaces a path. A path needs a source or a publisher command.
func (c *Config) AddPath(name string, path PathConfig) error {
	if name == "" {
		return fmt.Errorf("path name cannot be empty")
	}
	if path.Source == "" && path.RunOnInit == "" {
		return fmt.Errorf("path %s needs a source or runOnInit command", name)
	}
	if c.Paths == nil {
		c.Paths = make(map[string]PathConfig)
	}
	c.Paths[name] = path
	return nil
}

// RemovePath removes a path from the configuration
func (c *Config) RemovePath(name string) {
	delete(c.Paths, name)
}

// WriteToFile writes the configuration to a YAML file
func (c *Config) WriteToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file.
// A missing file yields NewConfig().
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML config: %w", err)
	}

	if config.Paths == nil {
		config.Paths = make(map[string]PathConfig)
	}
	if config.APIAddress == "" {
		config.APIAddress = ":9997"
	}
	if config.RTSPAddress == "" {
		config.RTSPAddress = fmt.Sprintf(":%d", DefaultRTSPPort)
	}

	return &config, nil
}

// RTSPURL returns the URL a local reader uses for pathName
func (c *Config) RTSPURL(host, pathName string) string {
	addr := c.RTSPAddress
	if len(addr) > 0 && addr[0] == ':' {
		addr = host + addr
	}
	return fmt.Sprintf("rtsp://%s/%s", addr, pathName)
}
