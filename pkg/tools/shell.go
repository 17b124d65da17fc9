package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

// ExitCodeSudoCredentialNeeded is a sentinel ToolResult.ExitCode the agent
// loop recognizes to enter AWAIT_SUDO: either no cached
// credential was available, or a prior attempt's credential was rejected.
const ExitCodeSudoCredentialNeeded = -2

// DefaultShellTimeout is the default wall-clock budget for a shell call.
const DefaultShellTimeout = 60 * time.Second

// longRunningPrefixes names commands that are auto-detected as
// long-running or interactive, a hard-coded closed set (no user-extension
// knob yet).
var longRunningPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(^|\s)nmap(\s|$)`),
	regexp.MustCompile(`(^|\s)apt(-get)?\s+install(\s|$)`),
	regexp.MustCompile(`(^|\s)make(\s|$)`),
	regexp.MustCompile(`(^|\s)(npm|yarn|pnpm)\s+install(\s|$)`),
	regexp.MustCompile(`(^|\s)pip\d?\s+install(\s|$)`),
	regexp.MustCompile(`(^|\s)docker\s+build(\s|$)`),
	regexp.MustCompile(`(^|\s)cargo\s+build(\s|$)`),
	regexp.MustCompile(`(^|\s)go\s+(build|test)(\s|$)`),
	regexp.MustCompile(`(^|\s)brew\s+install(\s|$)`),
	regexp.MustCompile(`(^|\s)git\s+clone(\s|$)`),
}

// longRunningTimeout is the upgraded timeout auto-detection applies when
// the caller did not set one explicitly.
const longRunningTimeout = 10 * time.Minute

var sudoWordPattern = regexp.MustCompile(`\bsudo\b`)

var sensitiveEnvPrefixes = []string{"AWS_"}
var sensitiveEnvSubstrings = []string{"KEY", "TOKEN", "SECRET", "PASSWORD", "CREDENTIAL"}

func isSensitiveEnvName(name string) bool {
	upper := strings.ToUpper(name)
	if upper == "GITHUB_TOKEN" {
		return true
	}
	for _, p := range sensitiveEnvPrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	for _, s := range sensitiveEnvSubstrings {
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}

// filteredEnviron returns the current process environment with sensitive
// variable names removed.
func filteredEnviron() []string {
	env := os.Environ()
	out := make([]string, 0, len(env))
	for _, kv := range env {
		name := kv
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			name = kv[:idx]
		}
		if isSensitiveEnvName(name) {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "LC_ALL=C")
}

// ShellDeps bundles the collaborators NewExecuteShellHandler needs: the
// sudo credential cache and the output-cap-by-context-window function the
// agent loop's active engine determines.
type ShellDeps struct {
	SudoCache        *SudoCredentialCache
	OutputCapForCall func() int // returns the current context-scaled cap
}

// NewExecuteShellHandler builds the execute_shell Handler.
func NewExecuteShellHandler(deps ShellDeps) Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		command, _ := args["command"].(string)
		if strings.TrimSpace(command) == "" {
			return conversation.ToolResult{Error: "empty command", ExitCode: 1}, nil
		}

		timeout := DefaultShellTimeout
		if t, ok := args["timeout"].(float64); ok && t > 0 {
			timeout = time.Duration(t) * time.Second
		} else if isLongRunning(command) {
			timeout = longRunningTimeout
		}

		workdir, _ := args["workdir"].(string)

		needsSudo := sudoWordPattern.MatchString(command)
		runCommand := command
		var stdinPassword string

		if needsSudo {
			password, fresh := deps.SudoCache.Get(time.Now())
			if !fresh {
				return conversation.ToolResult{
					Error:    "sudo credential required",
					ExitCode: ExitCodeSudoCredentialNeeded,
				}, nil
			}
			runCommand = rewriteFirstSudo(command)
			stdinPassword = password
		}

		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		out, exitCode, runErr := runShell(runCtx, runCommand, workdir, stdinPassword)

		if needsSudo && sudoAuthFailed(exitCode, out) {
			deps.SudoCache.Invalidate()
			return conversation.ToolResult{
				Error:    "sudo authentication failed",
				ExitCode: ExitCodeSudoCredentialNeeded,
			}, nil
		}

		outputCap := DefaultOutputCap
		if deps.OutputCapForCall != nil {
			outputCap = deps.OutputCapForCall()
		}
		truncated, wasTruncated := Truncate(out, outputCap)

		result := conversation.ToolResult{
			Output:    truncated,
			ExitCode:  exitCode,
			Truncated: wasTruncated,
		}
		if runErr != nil && exitCode == 0 {
			result.Error = runErr.Error()
			result.ExitCode = 1
		}
		return result, nil
	}
}

func isLongRunning(command string) bool {
	for _, re := range longRunningPrefixes {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

// rewriteFirstSudo rewrites only the first sudo occurrence to "sudo -S",
// so the password can be piped via stdin.
func rewriteFirstSudo(command string) string {
	loc := sudoWordPattern.FindStringIndex(command)
	if loc == nil {
		return command
	}
	return command[:loc[0]] + "sudo -S" + command[loc[0]+len("sudo"):]
}

var sudoFailurePatterns = regexp.MustCompile(`(?i)sorry, try again|incorrect password|sudo: \d+ incorrect password attempt|a password is required`)

func sudoAuthFailed(exitCode int, output string) bool {
	return exitCode != 0 && sudoFailurePatterns.MatchString(output)
}

// runShell invokes bash -c command, optionally under a pty (for
// long-running/interactive commands, so tools that probe isatty behave
// realistically), enforcing the timeout via the child's own process group
// so a timed-out subshell cannot leave orphaned descendants.
func runShell(ctx context.Context, command, workdir, stdinPassword string) (string, int, error) {
	shell := "bash"
	cmd := exec.Command(shell, "-c", command)
	cmd.Env = filteredEnviron()
	if workdir != "" {
		cmd.Dir = workdir
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf bytes.Buffer
	outputDone := make(chan struct{})

	if isLongRunning(command) {
		f, err := pty.Start(cmd)
		if err != nil {
			return "", 1, fmt.Errorf("starting pty: %w", err)
		}
		defer f.Close()
		if stdinPassword != "" {
			fmt.Fprintln(f, stdinPassword)
		}
		go func() {
			buf.ReadFrom(f)
			close(outputDone)
		}()
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
		if stdinPassword != "" {
			cmd.Stdin = strings.NewReader(stdinPassword + "\n")
		}
		if err := cmd.Start(); err != nil {
			return "", 1, fmt.Errorf("starting command: %w", err)
		}
		close(outputDone) // os/exec copies Stdout/Stderr internally before Wait returns
	}

	return waitForCompletion(ctx, cmd, &buf, outputDone)
}

// waitForCompletion waits for cmd to exit or ctx to expire, killing the
// whole process group (SIGTERM then SIGKILL after a grace period) on
// timeout or cancellation.
func waitForCompletion(ctx context.Context, cmd *exec.Cmd, buf *bytes.Buffer, outputDone <-chan struct{}) (string, int, error) {
	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		<-outputDone
		return buf.String(), exitCodeOf(err), err
	case <-ctx.Done():
		killProcessGroup(cmd, syscall.SIGTERM)
		select {
		case <-waitErr:
		case <-time.After(5 * time.Second):
			killProcessGroup(cmd, syscall.SIGKILL)
			<-waitErr
		}
		<-outputDone
		return buf.String(), 124, ctx.Err()
	}
}

func killProcessGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	syscall.Kill(-cmd.Process.Pid, sig)
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
	}
	return 1
}
