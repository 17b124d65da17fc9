package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natshell-dev/natshell/pkg/config"
)

func TestBuildEnginePreferredRemoteWithoutURLErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Preferred = config.EngineRemote
	_, err := buildEngine(cfg, "", "", "")
	assert.Error(t, err)
}

func TestBuildEnginePreferredLocalWithoutModelErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = "auto"
	cfg.Engine.Preferred = config.EngineLocal
	_, err := buildEngine(cfg, "", "", "")
	assert.Error(t, err)
}

func TestBuildEngineAutoWithNeitherConfiguredErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = "auto"
	_, err := buildEngine(cfg, "", "", "")
	assert.Error(t, err)
}

func TestBuildEngineLocalModelOverrideSelectsLocal(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = "auto"
	cfg.Engine.Preferred = config.EngineLocal
	eng, err := buildEngine(cfg, "/models/llama-3-8b.gguf", "", "")
	require.NoError(t, err)
	assert.Contains(t, eng.Name(), "local:")
}

func TestBuildEngineAutoWithBothConfiguredReturnsSwapper(t *testing.T) {
	cfg := config.Default()
	cfg.Remote.URL = "http://localhost:9999"
	eng, err := buildEngine(cfg, "/models/llama-3-8b.gguf", "", "")
	require.NoError(t, err)
	assert.Contains(t, eng.Name(), "remote")
}
