package safety

// ClassifyToolCall applies the full Safety Classifier gate to
// any tool call, not just execute_shell: non-shell tools have a fixed
// mapping, execute_shell runs the five-step algorithm.
func ClassifyToolCall(policy *Policy, toolName string, args map[string]interface{}) Verdict {
	switch toolName {
	case "list_directory", "search_files", "natshell_help":
		return Verdict{Risk: Safe}
	case "read_file":
		path, _ := args["path"].(string)
		if reason, ok := policy.MatchesSensitivePath(path); ok {
			return Verdict{Risk: Confirm, Reason: reason}
		}
		return Verdict{Risk: Safe}
	case "write_file", "edit_file", "run_code":
		return Verdict{Risk: Confirm, Reason: "tool mutates or executes unconditionally"}
	case "execute_shell":
		command, _ := args["command"].(string)
		return ClassifyShellCommand(policy, command)
	case "git_tool":
		return classifyGitTool(args)
	default:
		return Verdict{Risk: Confirm, Reason: "unrecognized tool defaults to confirm"}
	}
}

// bannedCommitFlags are rejected unconditionally before the subprocess is
// ever started.
var bannedCommitFlags = []string{"--amend", "--author=", "--date=", "--reset-author", "--allow-empty-message"}

// gitArgList coerces the git_tool "args" argument into a []string: it may
// arrive as []string (constructed in-process) or []interface{} (decoded
// from JSON), depending on the caller.
func gitArgList(v interface{}) []string {
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

func classifyGitTool(args map[string]interface{}) Verdict {
	sub, _ := args["subcommand"].(string)
	switch sub {
	case "status", "diff", "log", "branch":
		return Verdict{Risk: Safe}
	case "commit":
		for _, f := range gitArgList(args["args"]) {
			for _, banned := range bannedCommitFlags {
				if len(f) >= len(banned) && f[:len(banned)] == banned {
					return Verdict{Risk: Blocked, Reason: "banned git commit flag " + banned}
				}
			}
		}
		return Verdict{Risk: Confirm, Reason: "git commit mutates history"}
	case "stash":
		return Verdict{Risk: Confirm, Reason: "git stash mutates the working tree"}
	default:
		return Verdict{Risk: Confirm, Reason: "unrecognized git subcommand defaults to confirm"}
	}
}
