// Package config handles updater config file discovery, parsing and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bluecraft-server/bcupdater/internal/types"
)

// DefaultDescriptorURL is the endpoint that publishes the update descriptor.
const DefaultDescriptorURL = "https://Bluecraft-Server.github.io/API/Python_Downloader_API/Check_Version.json"

const (
	// DefaultChunkSize is the download read size between progress events.
	DefaultChunkSize = 8 * 1024
	// DefaultTimeout bounds the descriptor request.
	DefaultTimeout = "30s"
	// DefaultLauncher is the relaunch target's base name.
	DefaultLauncher = "Launcher"
)

// Environment variables consulted during discovery and loading.
const (
	EnvConfigPath    = "BCUPDATER_CONFIG"
	EnvDescriptorURL = "BCUPDATER_DESCRIPTOR_URL"
)

// Config is the parsed updater configuration.
type Config struct {
	DescriptorURL    string              `yaml:"descriptor_url" toml:"descriptor_url" json:"descriptor_url"`
	DescriptorFormat types.PayloadFormat `yaml:"descriptor_format,omitempty" toml:"descriptor_format,omitempty" json:"descriptor_format,omitempty"`
	StateDir         string              `yaml:"state_dir,omitempty" toml:"state_dir,omitempty" json:"state_dir,omitempty"`
	CleanDirs        []string            `yaml:"clean_dirs" toml:"clean_dirs" json:"clean_dirs"`
	Launcher         string              `yaml:"launcher,omitempty" toml:"launcher,omitempty" json:"launcher,omitempty"`
	ChunkSize        int                 `yaml:"chunk_size,omitempty" toml:"chunk_size,omitempty" json:"chunk_size,omitempty"`
	Timeout          string              `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
	UserAgent        string              `yaml:"user_agent,omitempty" toml:"user_agent,omitempty" json:"user_agent,omitempty"`
	DownloadDir      string              `yaml:"download_dir,omitempty" toml:"download_dir,omitempty" json:"download_dir,omitempty"` // Empty means the OS temp dir
	RequireElevation bool                `yaml:"require_elevation,omitempty" toml:"require_elevation,omitempty" json:"require_elevation,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DescriptorURL:    DefaultDescriptorURL,
		DescriptorFormat: types.PayloadAuto,
		StateDir:         "Version_Check",
		CleanDirs:        []string{"Resources"},
		Launcher:         DefaultLauncher,
		ChunkSize:        DefaultChunkSize,
		Timeout:          DefaultTimeout,
		UserAgent:        "bcupdater",
	}
}

// RequestTimeout returns the parsed descriptor request timeout.
// Validate guarantees the value parses.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultTimeout)
	}
	return d
}

// fileNames are the config names searched in each directory, in order.
var fileNames = []string{
	"bcupdater.yaml",
	"bcupdater.yml",
	"bcupdater.toml",
	"bcupdater.json",
}

// Find returns the config path to load. An explicit path must exist.
// Otherwise BCUPDATER_CONFIG, the installation root and the user config
// directory are searched; "" with a nil error means no file was found and
// defaults apply.
func Find(explicitPath, root string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	searchPaths := []string{root}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdgConfig = filepath.Join(home, ".config")
		}
	}
	if xdgConfig != "" {
		searchPaths = append(searchPaths, filepath.Join(xdgConfig, "bcupdater"))
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", nil
}

// Load reads the config at path on top of the defaults. An empty path
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		applyEnv(cfg)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(content, path)
}

// Parse decodes content on top of the defaults and validates the result.
// name selects the format by extension; content is sniffed otherwise.
func Parse(content []byte, name string) (*Config, error) {
	cfg := Default()

	format := detectFormat(name, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", name)
	}

	if err := parse(content, format, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if url := os.Getenv(EnvDescriptorURL); url != "" {
		cfg.DescriptorURL = url
	}
}
