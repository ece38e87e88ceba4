// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// InstallPathEnv overrides the configured install path
const InstallPathEnv = "REPONERE_INSTALL_PATH"

// Config holds reponere configuration
type Config struct {
	// Backend is pacman, apt, dnf, or empty/auto to probe the host
	Backend        string        `yaml:"backend"`
	Sudo           bool          `yaml:"sudo"`
	ElevateCommand string        `yaml:"elevate_command"`
	InstallPath    string        `yaml:"install_path"`
	StatePath      string        `yaml:"state_path"`
	RegistryPath   string        `yaml:"registry_path"`
	IndexURL       string        `yaml:"index_url,omitempty"`
	Timeout        time.Duration `yaml:"timeout"`
	BuildTimeout   time.Duration `yaml:"build_timeout"`
	KeepGoing      bool          `yaml:"keep_going"`
	Debug          bool          `yaml:"debug"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend:        "", // Auto-detect
		Sudo:           true,
		ElevateCommand: "sudo",
		InstallPath:    getDefaultInstallPath(),
		StatePath:      filepath.Join(dataDir(), "installed.json"),
		RegistryPath:   filepath.Join(dataDir(), "deps"),
		Timeout:        10 * time.Minute,
		BuildTimeout:   2 * time.Hour,
	}
}

// DefaultPath returns $HOME/.config/reponere/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reponere", "config.yaml"), nil
}

// LoadConfig loads configuration from file. Fields the file leaves out keep
// their defaults; a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if p := os.Getenv(InstallPathEnv); p != "" {
		cfg.InstallPath = p
	}
	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func getDefaultInstallPath() string {
	if path := os.Getenv(InstallPathEnv); path != "" {
		return path
	}
	return "/usr/local"
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "reponere")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "reponere")
	}
	return filepath.Join(home, ".local", "share", "reponere")
}
