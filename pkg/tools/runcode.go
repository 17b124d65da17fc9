package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

// languageSpec describes how to materialize and run a run_code language
// variant: the source extension, the interpreter invocation (for
// interpreted languages), or the compile-then-run steps (for compiled
// languages). Every language here is executed via whatever toolchain is
// already on the host, never vendored.
type languageSpec struct {
	ext         string
	interp      []string // interpreter argv prefix; empty means compiled
	compile     func(srcPath, binPath string) []string
	runCompiled func(binPath string) []string
}

var languageSpecs = map[string]languageSpec{
	"python":     {ext: ".py", interp: []string{"python3"}},
	"javascript": {ext: ".js", interp: []string{"node"}},
	"bash":       {ext: ".sh", interp: []string{"bash"}},
	"ruby":       {ext: ".rb", interp: []string{"ruby"}},
	"perl":       {ext: ".pl", interp: []string{"perl"}},
	"php":        {ext: ".php", interp: []string{"php"}},
	"c": {
		ext:         ".c",
		compile:     func(src, bin string) []string { return []string{"gcc", "-O0", "-o", bin, src} },
		runCompiled: func(bin string) []string { return []string{bin} },
	},
	"cpp": {
		ext:         ".cpp",
		compile:     func(src, bin string) []string { return []string{"g++", "-O0", "-o", bin, src} },
		runCompiled: func(bin string) []string { return []string{bin} },
	},
	"rust": {
		ext:         ".rs",
		compile:     func(src, bin string) []string { return []string{"rustc", "-O", "-o", bin, src} },
		runCompiled: func(bin string) []string { return []string{bin} },
	},
	"go": {
		ext:         ".go",
		compile:     func(src, bin string) []string { return []string{"go", "build", "-o", bin, src} },
		runCompiled: func(bin string) []string { return []string{bin} },
	},
}

// NewRunCodeHandler builds run_code: ten languages, temp
// artifacts cleaned up on every exit path.
func NewRunCodeHandler(deps ShellDeps) Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		language, _ := args["language"].(string)
		code, _ := args["code"].(string)
		stdin, _ := args["stdin"].(string)

		spec, ok := languageSpecs[language]
		if !ok {
			return conversation.ToolResult{
				Error:    "Tool.Validation: unsupported language " + language,
				ExitCode: 1,
			}, nil
		}

		tmpDir, err := os.MkdirTemp("", "natshell-runcode-*")
		if err != nil {
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}
		defer os.RemoveAll(tmpDir)

		srcPath := filepath.Join(tmpDir, "snippet"+spec.ext)
		if err := os.WriteFile(srcPath, []byte(code), 0o644); err != nil {
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}

		var runArgv []string
		if spec.interp != nil {
			runArgv = append(append([]string{}, spec.interp...), srcPath)
		} else {
			binPath := filepath.Join(tmpDir, "snippet.bin")
			compileArgv := spec.compile(srcPath, binPath)
			out, exitCode, err := runArgs(ctx, compileArgv, "", tmpDir)
			if err != nil || exitCode != 0 {
				return conversation.ToolResult{
					Error:    "Tool.Execution: compilation failed",
					Output:   out,
					ExitCode: exitCode,
				}, nil
			}
			runArgv = spec.runCompiled(binPath)
		}

		outputCap := DefaultOutputCap
		if deps.OutputCapForCall != nil {
			outputCap = deps.OutputCapForCall()
		}

		out, exitCode, runErr := runArgs(ctx, runArgv, stdin, tmpDir)
		truncated, wasTruncated := Truncate(out, outputCap)

		result := conversation.ToolResult{Output: truncated, ExitCode: exitCode, Truncated: wasTruncated}
		if runErr != nil && exitCode == 0 {
			result.Error = runErr.Error()
			result.ExitCode = 1
		}
		return result, nil
	}
}

func runArgs(ctx context.Context, argv []string, stdin, dir string) (string, int, error) {
	if len(argv) == 0 {
		return "", 1, fmt.Errorf("empty argv")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = filteredEnviron()
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), exitCodeOf(err), err
}
