package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

// bannedCommitFlagPrefixes mirrors pkg/safety's list; duplicated here
// (rather than imported) so the tool runtime refuses these flags before
// any I/O, independently of whatever classification already happened at
// the gate.
var bannedCommitFlagPrefixes = []string{"--amend", "--author=", "--date=", "--reset-author", "--allow-empty-message"}

var allowedGitSubcommands = map[string]bool{
	"status": true, "diff": true, "log": true, "branch": true, "commit": true, "stash": true,
}

// NewGitToolHandler builds git_tool, shelling out to the real git binary
// per subcommand rather than reimplementing git's object model.
func NewGitToolHandler() Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		sub, _ := args["subcommand"].(string)
		extra := stringSliceArg(args["args"])

		if !allowedGitSubcommands[sub] {
			return conversation.ToolResult{Error: "Tool.Validation: unsupported git subcommand " + sub, ExitCode: 1}, nil
		}

		if sub == "commit" {
			for _, a := range extra {
				for _, banned := range bannedCommitFlagPrefixes {
					if strings.HasPrefix(a, banned) {
						return conversation.ToolResult{
							Error:    "Security.Refused: banned git commit flag " + banned,
							ExitCode: 1,
						}, nil
					}
				}
			}
		}

		cmdArgs := append([]string{sub}, extra...)
		cmd := exec.CommandContext(ctx, "git", cmdArgs...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()

		output := stdout.String()
		if stderr.Len() > 0 {
			output += "\n" + stderr.String()
		}
		exitCode := exitCodeOf(err)

		result := conversation.ToolResult{Output: output, ExitCode: exitCode}
		if err != nil && exitCode == 0 {
			result.Error = fmt.Sprintf("failed to run git %s: %v", sub, err)
			result.ExitCode = 1
		}
		return result, nil
	}
}

func stringSliceArg(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
