package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/natshell-dev/natshell/pkg/tools"
)

func TestRoleTextVariesByPlatform(t *testing.T) {
	assert.Contains(t, roleText(PlatformMacOS), "macOS")
	assert.Contains(t, roleText(PlatformLinux), "Linux")
	assert.Contains(t, roleText(PlatformLinuxWSL), "WSL")
}

func TestBuildSystemPromptIncludesToolCatalogue(t *testing.T) {
	schemas := []tools.Schema{
		{Name: "read_file", Description: "reads a file"},
		{Name: "execute_shell", Description: "runs a shell command"},
	}
	info := SystemInfo{Platform: PlatformLinux, Hostname: "box1"}

	prompt := BuildSystemPrompt(info, schemas, "")

	assert.Contains(t, prompt, "read_file: reads a file")
	assert.Contains(t, prompt, "execute_shell: runs a shell command")
	assert.Contains(t, prompt, "box1")
	for _, rule := range behaviorRules {
		assert.Contains(t, prompt, rule)
	}
}

func TestBuildSystemPromptOmitsTaskContextWhenEmpty(t *testing.T) {
	prompt := BuildSystemPrompt(SystemInfo{}, nil, "")
	assert.False(t, strings.Contains(prompt, "Task context:"))
}

func TestBuildSystemPromptIncludesTaskContextWhenSet(t *testing.T) {
	prompt := BuildSystemPrompt(SystemInfo{}, nil, "this repo is a Go module using cobra")
	assert.Contains(t, prompt, "Task context:")
	assert.Contains(t, prompt, "cobra")
}

func TestRenderSystemInfoFallsBackToUnknown(t *testing.T) {
	rendered := renderSystemInfo(SystemInfo{})
	assert.Contains(t, rendered, "unknown")
}
