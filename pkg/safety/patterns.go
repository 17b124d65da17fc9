// Package safety classifies execute_shell commands into Safe, Confirm, or
// Blocked before the tool runtime is allowed to run them.
package safety

import "regexp"

// Pattern pairs a compiled regex with a human-readable reason shown to the
// user and recorded in the conversation on a match.
type Pattern struct {
	Regexp *regexp.Regexp
	Reason string
}

// CompileUserPatterns compiles config-supplied regex strings into Patterns
// with a generic "user-configured pattern" reason, used by pkg/config to
// layer safety.blocked / safety.always_confirm / safety.sensitive_paths
// overrides on top of the compiled-in defaults.
func CompileUserPatterns(raw []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, Pattern{Regexp: re, Reason: "user-configured pattern: " + p})
	}
	return out, nil
}

func compile(list []struct{ pattern, reason string }) []Pattern {
	out := make([]Pattern, 0, len(list))
	for _, p := range list {
		out = append(out, Pattern{Regexp: regexp.MustCompile(p.pattern), Reason: p.reason})
	}
	return out
}

// DefaultBlocked combines a high-risk tier of irreversible-data-loss
// commands with a more exhaustive set of container-escape,
// privilege-escalation, reverse-shell, secret-exfiltration, and
// kernel-manipulation patterns. These never downgrade, regardless of
// policy mode.
var DefaultBlocked = compile([]struct{ pattern, reason string }{
	{`^\s*rm\s+-rf?\s+/\s*$`, "recursive deletion of root filesystem"},
	{`^\s*rm\s+-rf?\s+/\S*`, "recursive deletion rooted at a filesystem root path"},
	{`^\s*rm\s+-fr\s+`, "recursive force deletion"},
	{`^\s*rm\s+.*-rf.*\*`, "recursive wildcard deletion"},
	{`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;`, "fork bomb"},
	{`^\s*dd\s+.*of=/dev/(sd|nvme|hd)`, "direct write to a block device"},
	{`^\s*mkfs(\.\w+)?\s+`, "filesystem creation over an existing device"},
	{`>\s*/dev/sd[a-z]`, "raw write to a disk device"},
	{`/etc/passwd`, "tampering with the system password database"},
	{`/etc/shadow`, "tampering with the system shadow password database"},
	{`/etc/sudoers`, "tampering with the sudoers policy"},
	{`>\s*/proc/sys(rq-trigger)?`, "kernel sysrq/proc manipulation"},
	{`^\s*sysctl\s+-w\s+`, "live kernel parameter manipulation"},
	{`^\s*(insmod|rmmod|modprobe)\s+`, "kernel module manipulation"},
	{`\bnsenter\b.*--target\s+1\b`, "container escape via nsenter into PID 1's namespaces"},
	{`/var/run/docker\.sock`, "docker socket access enabling host escape"},
	{`^\s*cat\s+/proc/\d+/root/`, "reading another process's root filesystem via /proc"},
	{`/dev/tcp/`, "bash /dev/tcp reverse shell"},
	{`\bnc\s+.*-e\s+`, "netcat reverse shell with -e"},
	{`\bsocat\b.*exec:`, "socat-based reverse shell"},
	{`curl\s+[^|]*\|\s*(sudo\s+)?(bash|sh)\b`, "piping a remote download directly into a shell"},
	{`wget\s+[^|]*\|\s*(sudo\s+)?(bash|sh)\b`, "piping a remote download directly into a shell"},
	{`^\s*:\s*>\s*/`, "truncating a root-rooted file to empty"},
})

// DefaultAlwaysConfirm covers medium/low-risk operations: git history
// rewriting, permission changes, process termination, power state, plus
// generic mutation prefixes.
var DefaultAlwaysConfirm = compile([]struct{ pattern, reason string }{
	{`^\s*git\s+push\s+.*--force`, "force push rewrites remote history"},
	{`^\s*git\s+reset\s+--hard`, "hard reset discards uncommitted work"},
	{`^\s*git\s+clean\s+-[a-z]*f`, "git clean permanently deletes untracked files"},
	{`^\s*git\s+checkout\s+.*--\s+`, "checkout can discard local file modifications"},
	{`^\s*chmod\s+`, "file permission change"},
	{`^\s*chown\s+`, "file ownership change"},
	{`^\s*kill\s+(-9\s+)?-?\d+`, "process termination"},
	{`^\s*pkill\s+`, "process termination by name"},
	{`^\s*killall\s+`, "process termination by name"},
	{`^\s*reboot\b`, "system reboot"},
	{`^\s*shutdown\b`, "system shutdown"},
	{`^\s*systemctl\s+(stop|restart|disable|mask)\s+`, "service state change"},
	{`^\s*mv\s+.*\s+/dev/null`, "redirecting a file to the void"},
	{`^\s*>\s*\S+`, "output redirection truncates or overwrites a file"},
	{`^\s*truncate\s+`, "explicit file truncation"},
})

// DefaultSensitivePaths gates read_file: a path matching one of these
// patterns is Confirm even though read_file is otherwise Safe-by-default.
var DefaultSensitivePaths = compile([]struct{ pattern, reason string }{
	{`(^|/)\.ssh/`, "SSH key material"},
	{`/etc/shadow$`, "system shadow password database"},
	{`(^|/)\.env(\.[\w.-]+)?$`, "environment/secret file"},
	{`(^|/)\.aws/credentials$`, "cloud credential file"},
	{`(^|/)\.netrc$`, "stored network credentials"},
	{`id_rsa|id_ed25519|id_ecdsa`, "private key file"},
})
