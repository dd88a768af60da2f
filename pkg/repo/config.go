package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config stores repository-local settings.
type Config struct {
	LFS LFSConfig `toml:"lfs"`
}

// LFSConfig holds large file settings. A nil Enabled defers to the server
// default.
type LFSConfig struct {
	Enabled *bool `toml:"enabled,omitempty"`
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GotDir, "config.toml")
}

// ReadConfig reads .got/config.toml. Missing config returns an empty config.
func (r *Repo) ReadConfig() (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(r.configPath(), &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}

// WriteConfig atomically writes .got/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}

	tmp, err := os.CreateTemp(r.GotDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// SetLFSEnabled records a repository-local large file override.
func (r *Repo) SetLFSEnabled(enabled bool) error {
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.LFS.Enabled = &enabled
	return r.WriteConfig(cfg)
}

// LFSEnabled reports the repository-local large file setting, or def when
// the repository has none.
func (r *Repo) LFSEnabled(def bool) (bool, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return false, err
	}
	if cfg.LFS.Enabled == nil {
		return def, nil
	}
	return *cfg.LFS.Enabled, nil
}

// ConfigToggle reads the large file setting from a repository's own config.
// The repository id passed to EnabledFor is ignored.
type ConfigToggle struct {
	Repo    *Repo
	Default bool
}

// EnabledFor reports whether large file checks are enabled for the repository.
func (t ConfigToggle) EnabledFor(_ context.Context, _ string) (bool, error) {
	return t.Repo.LFSEnabled(t.Default)
}
