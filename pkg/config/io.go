package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigPath follows persisted layout:
// $XDG_CONFIG_HOME/natshell/config.toml, falling back to ~/.config.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "natshell", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "natshell", "config.toml")
}

// Load reads path if it exists (backfilling any zero-valued fields with
// Default()'s values) or returns a fresh Default() if it does not. A
// present file containing an API key whose mode grants any group or world
// permission emits a warning string rather than failing outright.
func Load(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, "", fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg = *MergeDefaults(&cfg)

	warning := ""
	if cfg.Remote.APIKey != "" {
		if info, statErr := os.Stat(path); statErr == nil && info.Mode().Perm()&0o077 != 0 {
			warning = fmt.Sprintf("warning: %s contains an API key but is readable by group/world (mode %o)", path, info.Mode().Perm())
		}
	}
	return &cfg, warning, nil
}

// Save writes cfg to path atomically: marshal to a sibling temp file, then
// rename over the destination so a crash mid-write never leaves a
// half-written config file behind.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming temp config into place: %w", err)
	}
	return nil
}

// SaveEnginePreference persists engine.preferred without rewriting the
// rest of the config document.
func SaveEnginePreference(path string, preferred EnginePreferred) error {
	cfg, _, err := Load(path)
	if err != nil {
		return err
	}
	cfg.Engine.Preferred = preferred
	return Save(path, cfg)
}

// SaveOllamaDefault persists model.path, matching save_ollama_default.
func SaveOllamaDefault(path, modelPath string) error {
	cfg, _, err := Load(path)
	if err != nil {
		return err
	}
	cfg.Model.Path = modelPath
	return Save(path, cfg)
}

var apiKeyLikePattern = regexp.MustCompile(`(?i)(sk-[a-z0-9]{10,}|api[_-]?key\s*[:=]\s*\S+)`)

// ContainsAPIKeyLike is a small helper reused by callers that want to warn
// before writing a plaintext secret somewhere other than the config file
// (e.g. logs); it is not used by Load/Save directly.
func ContainsAPIKeyLike(s string) bool {
	return apiKeyLikePattern.MatchString(s)
}
