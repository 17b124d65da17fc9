package main

import (
	"fmt"
	"os"
	"time"

	"github.com/natshell-dev/natshell/pkg/config"
	"github.com/natshell-dev/natshell/pkg/engine"
)

// remoteReadTimeout bounds a single remote chat-completion round trip
// (exclusive of the fixed 1s/2s retry schedule the remote engine itself
// applies on transient failures).
const remoteReadTimeout = 90 * time.Second

// buildEngine constructs the Inference Engine the agent loop will drive,
// honoring engine.preferred: auto tries remote first (if configured) and
// falls back to local on a transient failure for the rest of the turn;
// local/remote pin to one backend with no fallback.
func buildEngine(cfg *config.Config, modelOverride, remoteURLOverride, remoteModelOverride string) (engine.Engine, error) {
	modelPath := cfg.Model.Path
	if modelOverride != "" {
		modelPath = modelOverride
	}
	remoteURL := cfg.Remote.URL
	if remoteURLOverride != "" {
		remoteURL = remoteURLOverride
	}
	remoteModel := cfg.Remote.Model
	if remoteModelOverride != "" {
		remoteModel = remoteModelOverride
	}

	apiKey := cfg.Remote.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("NATSHELL_API_KEY")
	}

	var local engine.Engine
	var localErr error
	if modelPath != "" && modelPath != "auto" {
		local, localErr = engine.NewLocalEngine(modelPath, cfg.Model.NCtx)
	}

	var remote engine.Engine
	if remoteURL != "" {
		remote = engine.NewRemoteEngine(remoteURL, remoteModel, apiKey, engine.ContextWindowForModelName(remoteModel), remoteReadTimeout)
	}

	switch cfg.Engine.Preferred {
	case config.EngineRemote:
		if remote == nil {
			return nil, fmt.Errorf("engine.preferred is remote but no remote.url is configured")
		}
		return remote, nil

	case config.EngineLocal:
		if local == nil {
			return nil, fmt.Errorf("engine.preferred is local but model.path is unset: %w", localErr)
		}
		return local, nil

	default: // auto
		switch {
		case remote != nil && local != nil:
			return engine.NewSwapper(remote, local, false), nil
		case remote != nil:
			return remote, nil
		case local != nil:
			return local, nil
		default:
			return nil, fmt.Errorf("no usable engine: set model.path or remote.url")
		}
	}
}
