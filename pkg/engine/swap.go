package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/logging"
)

// Swapper holds the preferred engine and a local fallback, and implements
// Engine itself so the Agent Loop can call through it without knowing
// whether a fallback is currently active. A transient failure on the
// preferred engine swaps in the fallback for the remainder of the
// current user turn; Reset restores the preferred engine for the next
// turn, per the one-fallback-per-turn rule.
type Swapper struct {
	preferred      Engine
	fallback       Engine
	fallbackHasGPU bool

	active        atomic.Value // Engine
	warnedOffload sync.Once
}

// NewSwapper builds a Swapper starting on preferred, with fallback held
// in reserve for the first transient failure. fallbackHasGPU controls the
// one-time no-GPU-offload warning emitted the first time the fallback
// actually activates.
func NewSwapper(preferred, fallback Engine, fallbackHasGPU bool) *Swapper {
	s := &Swapper{preferred: preferred, fallback: fallback, fallbackHasGPU: fallbackHasGPU}
	s.active.Store(preferred)
	return s
}

// Reset restores the preferred engine as active, called at the start of
// each new user turn so a fallback from a prior turn doesn't stick.
func (s *Swapper) Reset() {
	s.active.Store(s.preferred)
}

// Active returns the currently active engine (preferred, unless a
// fallback is in effect for this turn).
func (s *Swapper) Active() Engine {
	return s.active.Load().(Engine)
}

func (s *Swapper) Name() string       { return s.Active().Name() }
func (s *Swapper) ContextWindow() int { return s.Active().ContextWindow() }

// ChatCompletion delegates to the active engine. On a TransientError from
// the preferred engine (and only the preferred engine — a fallback
// failure propagates as-is, since there's nowhere further to fall back
// to), it swaps in the fallback, logs the substitution, and retries once
// against the fallback within the same call.
func (s *Swapper) ChatCompletion(ctx context.Context, messages []conversation.Message, tools []Tool, temperature float64, maxTokens int) (CompletionResult, error) {
	active := s.Active()
	result, err := active.ChatCompletion(ctx, messages, tools, temperature, maxTokens)
	if err == nil || !IsTransient(err) || active == s.fallback || s.fallback == nil {
		return result, err
	}

	logging.Get(logging.Options{}).Error("engine %s failed transiently (%v); falling back to %s for this turn", active.Name(), err, s.fallback.Name())
	s.active.Store(s.fallback)
	if !s.fallbackHasGPU {
		s.warnedOffload.Do(func() {
			logging.Get(logging.Options{}).Error("fallback engine %s has no GPU offload configured; expect slower generation", s.fallback.Name())
		})
	}

	return s.fallback.ChatCompletion(ctx, messages, tools, temperature, maxTokens)
}
