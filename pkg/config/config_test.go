package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natshell-dev/natshell/pkg/safety"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, warning, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTripsRecognizedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Model.Path = "/models/qwen.gguf"
	cfg.Remote.URL = "https://api.example.com/v1"
	cfg.Remote.Model = "gpt-test"
	cfg.Engine.Preferred = EngineRemote
	cfg.Agent.MaxSteps = 42
	cfg.Agent.Temperature = 0.5
	cfg.Safety.Mode = safety.ModeWarn
	cfg.Backup.MaxPerFile = 5

	require.NoError(t, Save(path, cfg))

	loaded, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Model.Path, loaded.Model.Path)
	assert.Equal(t, cfg.Remote.URL, loaded.Remote.URL)
	assert.Equal(t, cfg.Remote.Model, loaded.Remote.Model)
	assert.Equal(t, cfg.Engine.Preferred, loaded.Engine.Preferred)
	assert.Equal(t, cfg.Agent.MaxSteps, loaded.Agent.MaxSteps)
	assert.Equal(t, cfg.Agent.Temperature, loaded.Agent.Temperature)
	assert.Equal(t, cfg.Safety.Mode, loaded.Safety.Mode)
	assert.Equal(t, cfg.Backup.MaxPerFile, loaded.Backup.MaxPerFile)
}

func TestSaveUsesAtomicRenameLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Save(path, Default()))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadWarnsOnWorldReadableAPIKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Remote.APIKey = "sk-test-secret"
	require.NoError(t, Save(path, cfg))
	require.NoError(t, os.Chmod(path, 0o644))

	_, warning, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, warning, "readable by group/world")
}

func TestBuildPolicyLayersUserPatternsOnDefaults(t *testing.T) {
	cfg := Default()
	cfg.Safety.Blocked = []string{`^\s*nuke\s+everything\s*$`}

	policy, err := BuildPolicy(cfg)
	require.NoError(t, err)

	v := safety.ClassifyShellCommand(policy, "nuke everything")
	assert.Equal(t, safety.Blocked, v.Risk)

	// Compiled-in defaults still apply.
	v = safety.ClassifyShellCommand(policy, "rm -rf /")
	assert.Equal(t, safety.Blocked, v.Risk)
}

func TestBuildPolicyRejectsInvalidUserRegex(t *testing.T) {
	cfg := Default()
	cfg.Safety.Blocked = []string{`(unclosed`}

	_, err := BuildPolicy(cfg)
	assert.Error(t, err)
}
