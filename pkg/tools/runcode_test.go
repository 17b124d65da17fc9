package tools

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireInterpreter(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestRunCodeRejectsUnsupportedLanguage(t *testing.T) {
	handler := NewRunCodeHandler(ShellDeps{})
	result, err := handler(context.Background(), map[string]interface{}{
		"language": "cobol", "code": "",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Error, "Tool.Validation")
}

func TestRunCodeRunsPythonSnippet(t *testing.T) {
	requireInterpreter(t, "python3")
	handler := NewRunCodeHandler(ShellDeps{})
	result, err := handler(context.Background(), map[string]interface{}{
		"language": "python", "code": "print('hello from snippet')",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Output, "hello from snippet")
}

func TestRunCodePassesStdin(t *testing.T) {
	requireInterpreter(t, "python3")
	handler := NewRunCodeHandler(ShellDeps{})
	result, err := handler(context.Background(), map[string]interface{}{
		"language": "python",
		"code":     "import sys; print(sys.stdin.read().strip())",
		"stdin":    "piped in",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "piped in")
}

func TestRunCodeCompileFailureReturnsToolExecutionError(t *testing.T) {
	requireInterpreter(t, "gcc")
	handler := NewRunCodeHandler(ShellDeps{})
	result, err := handler(context.Background(), map[string]interface{}{
		"language": "c", "code": "this is not valid C",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Error, "Tool.Execution")
}

func TestRunArgsRejectsEmptyArgv(t *testing.T) {
	_, exitCode, err := runArgs(context.Background(), nil, "", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, 1, exitCode)
}
