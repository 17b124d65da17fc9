// Package config loads, defaults, and persists NatShell's TOML
// configuration document: domain-grouped structs, a Default()/
// MergeDefaults() pair that never leaves a zero-valued field in play, and
// atomic-rename persistence.
package config

import "github.com/natshell-dev/natshell/pkg/safety"

// ModelConfig is the `model.*` section: local model selection.
type ModelConfig struct {
	Path       string `toml:"path"`        // file path; "auto" loads no local model (--download fetches the default one)
	NCtx       int    `toml:"n_ctx"`       // 0 = auto-detect from model filename
	NGPULayers int    `toml:"n_gpu_layers"`
	MainGPU    int    `toml:"main_gpu"`
}

// RemoteConfig is the `remote.*` section: OpenAI-compatible endpoint.
type RemoteConfig struct {
	URL    string `toml:"url"`
	Model  string `toml:"model"`
	APIKey string `toml:"api_key"` // may also come from NATSHELL_API_KEY
}

// EnginePreferred enumerates the engine.preferred values.
type EnginePreferred string

const (
	EngineAuto   EnginePreferred = "auto"
	EngineLocal  EnginePreferred = "local"
	EngineRemote EnginePreferred = "remote"
)

// EngineConfig is the `engine.*` section, persisted across sessions.
type EngineConfig struct {
	Preferred EnginePreferred `toml:"preferred"`
}

// AgentConfig is the `agent.*` section.
type AgentConfig struct {
	MaxSteps    int     `toml:"max_steps"` // 0 = scale from context window
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// SafetyConfig is the `safety.*` section: policy mode plus pattern
// overrides layered on top of the compiled-in defaults.
type SafetyConfig struct {
	Mode           safety.Mode `toml:"mode"`
	AlwaysConfirm  []string    `toml:"always_confirm"`
	Blocked        []string    `toml:"blocked"`
	SensitivePaths []string    `toml:"sensitive_paths"`
}

// BackupConfig is the `backup.*` section.
type BackupConfig struct {
	Dir        string `toml:"dir"`
	MaxPerFile int    `toml:"max_per_file"`
}

// Config is the full recognized document.
type Config struct {
	Model  ModelConfig  `toml:"model"`
	Remote RemoteConfig `toml:"remote"`
	Engine EngineConfig `toml:"engine"`
	Agent  AgentConfig  `toml:"agent"`
	Safety SafetyConfig `toml:"safety"`
	Backup BackupConfig `toml:"backup"`
}

// Default returns the recognized document with every field populated to
// its documented default, never leaving a zero-value config in play.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Path:       "auto",
			NCtx:       0,
			NGPULayers: -1,
			MainGPU:    0,
		},
		Remote: RemoteConfig{
			URL:   "",
			Model: "",
		},
		Engine: EngineConfig{
			Preferred: EngineAuto,
		},
		Agent: AgentConfig{
			MaxSteps:    0,
			Temperature: 0.2,
			MaxTokens:   4096,
		},
		Safety: SafetyConfig{
			Mode: safety.ModeConfirm,
		},
		Backup: BackupConfig{
			Dir:        "",
			MaxPerFile: 10,
		},
	}
}

// MergeDefaults fills zero-valued fields of c with Default()'s values, so
// older config files gain new fields without a migration step.
func MergeDefaults(c *Config) *Config {
	d := Default()
	if c.Model.Path == "" {
		c.Model.Path = d.Model.Path
	}
	if c.Model.NGPULayers == 0 {
		c.Model.NGPULayers = d.Model.NGPULayers
	}
	if c.Engine.Preferred == "" {
		c.Engine.Preferred = d.Engine.Preferred
	}
	if c.Agent.Temperature == 0 {
		c.Agent.Temperature = d.Agent.Temperature
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = d.Agent.MaxTokens
	}
	if c.Safety.Mode == "" {
		c.Safety.Mode = d.Safety.Mode
	}
	if c.Backup.MaxPerFile == 0 {
		c.Backup.MaxPerFile = d.Backup.MaxPerFile
	}
	return c
}

// BuildPolicy constructs a safety.Policy from the config's safety section,
// layering any user-supplied pattern overrides on top of the compiled-in
// default pattern lists rather than replacing them outright.
func BuildPolicy(c *Config) (*safety.Policy, error) {
	policy := safety.NewDefaultPolicy()
	policy.Mode = c.Safety.Mode
	if policy.Mode == "" {
		policy.Mode = safety.ModeConfirm
	}

	extraBlocked, err := compilePatterns(c.Safety.Blocked)
	if err != nil {
		return nil, err
	}
	policy.Blocked = append(policy.Blocked, extraBlocked...)

	extraConfirm, err := compilePatterns(c.Safety.AlwaysConfirm)
	if err != nil {
		return nil, err
	}
	policy.AlwaysConfirm = append(policy.AlwaysConfirm, extraConfirm...)

	extraSensitive, err := compilePatterns(c.Safety.SensitivePaths)
	if err != nil {
		return nil, err
	}
	policy.SensitivePaths = append(policy.SensitivePaths, extraSensitive...)

	return policy, nil
}

func compilePatterns(raw []string) ([]safety.Pattern, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return safety.CompileUserPatterns(raw)
}
