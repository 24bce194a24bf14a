package globalconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lowrydr/tapline/internal/config"
)

// PersistentConfig is the on-disk user configuration.
type PersistentConfig struct {
	Repo         string `yaml:"repo"`
	Binary       string `yaml:"binary"`
	InstallPath  string `yaml:"install_path,omitempty"`
	StoreDir     string `yaml:"store_dir,omitempty"`
	KeepVersions int    `yaml:"keep_versions,omitempty"`
}

const (
	configDir  = ".config/tapline"
	configFile = "config.yml"
)

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// DefaultStoreDir is where versions/, cache/ and the current pointer live.
func DefaultStoreDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tapline"), nil
}

// Load reads the persistent config, falling back to defaults when absent.
func Load() (*PersistentConfig, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, configFile)

	cfg := defaults()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	cfg.fillMissing()
	return cfg, nil
}

func (c *PersistentConfig) Save() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Runtime merges the persistent values onto the compiled-in defaults.
func (c *PersistentConfig) Runtime() config.Config {
	rc := config.Default()
	if c.Repo != "" {
		rc.Repo = c.Repo
	}
	if c.Binary != "" {
		rc.Binary = c.Binary
		rc.InstallPath = config.DefaultInstallDir + "/" + c.Binary
	}
	if c.InstallPath != "" {
		rc.InstallPath = c.InstallPath
	}
	if c.KeepVersions > 0 {
		rc.KeepVersions = c.KeepVersions
	}
	return rc
}

func defaults() *PersistentConfig {
	return &PersistentConfig{
		Repo:         config.DefaultRepo,
		Binary:       config.DefaultBinary,
		KeepVersions: config.DefaultKeep,
	}
}

func (c *PersistentConfig) fillMissing() {
	if c.Repo == "" {
		c.Repo = config.DefaultRepo
	}
	if c.Binary == "" {
		c.Binary = config.DefaultBinary
	}
	if c.KeepVersions <= 0 {
		c.KeepVersions = config.DefaultKeep
	}
}
