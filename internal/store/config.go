package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProxyConfig holds inference proxy settings. The same proxy fronts
// both the model and the remote key-value data endpoint.
type ProxyConfig struct {
	URL    string `yaml:"url,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Sync    bool   `yaml:"sync"`    // mirror saves to the proxy's /data endpoint
}

// Config holds attic configuration.
type Config struct {
	Version string        `yaml:"version"`
	Proxy   ProxyConfig   `yaml:"proxy,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Storage: StorageConfig{Backend: "file", Sync: true},
	}
}

// Home returns the attic home path, respecting the ATTIC_HOME env var.
func Home() string {
	if h := os.Getenv("ATTIC_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".attic")
	}
	return filepath.Join(home, ".attic")
}

// Init creates the attic home directory and default config.
func Init(home string, force bool) error {
	cfgPath := filepath.Join(home, "config.yaml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("attic home already exists at %s (use --force to reinitialize)", home)
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Env holds a loaded attic home.
type Env struct {
	Home   string
	Config Config
}

// LoadEnv reads the config at the given home, filling missing fields
// from defaults. A missing config file yields the defaults so read-only
// commands work before init.
func LoadEnv(home string) (*Env, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filepath.Join(home, "config.yaml"))
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("invalid config.yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot read config at %s: %w", home, err)
	}
	if v := os.Getenv("ATTIC_PROXY_URL"); v != "" {
		cfg.Proxy.URL = v
	}
	if v := os.Getenv("ATTIC_API_KEY"); v != "" {
		cfg.Proxy.APIKey = v
	}
	return &Env{Home: home, Config: cfg}, nil
}

// SaveConfig writes the current config back to config.yaml.
func (e *Env) SaveConfig() error {
	data, err := yaml.Marshal(e.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(e.Home, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(e.Home, "config.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetConfigValue sets a config value by dot-path key.
func (e *Env) SetConfigValue(key, value string) error {
	switch key {
	case "proxy.url":
		e.Config.Proxy.URL = value
	case "proxy.api_key":
		e.Config.Proxy.APIKey = value
	case "storage.backend":
		if value != "file" && value != "sqlite" {
			return fmt.Errorf("storage.backend must be \"file\" or \"sqlite\"")
		}
		e.Config.Storage.Backend = value
	case "storage.sync":
		e.Config.Storage.Sync = value == "true"
	default:
		return fmt.Errorf("unknown config key: %s\nValid keys: proxy.url, proxy.api_key, storage.backend, storage.sync", key)
	}
	return e.SaveConfig()
}

// Path resolves a path within the attic home.
func (e *Env) Path(parts ...string) string {
	all := append([]string{e.Home}, parts...)
	return filepath.Join(all...)
}

// Open builds the configured store stack: the file or sqlite backend,
// wrapped with remote sync when a proxy is configured and sync is on.
func (e *Env) Open() (Store, error) {
	var base Store
	var err error
	switch e.Config.Storage.Backend {
	case "sqlite":
		base, err = NewSQLiteStore(e.Path("attic.db"))
	default:
		base, err = NewFileStore(e.Path("inventory.json"))
	}
	if err != nil {
		return nil, err
	}
	if e.Config.Storage.Sync && e.Config.Proxy.URL != "" {
		return NewSyncStore(base, e.Config.Proxy.URL, e.Config.Proxy.APIKey), nil
	}
	return base, nil
}
