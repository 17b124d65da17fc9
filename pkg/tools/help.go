package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/safety"
)

var staticHelpTopics = map[string]string{
	"overview": strings.TrimSpace(`
NatShell turns a natural-language request into a plan of tool calls: read
and write files, run shell commands, search a tree, run a throwaway code
snippet, or inspect git state. Every mutating or executing action is
classified for risk before it runs; anything above Safe pauses for your
confirmation unless the active policy mode says otherwise.
`),
	"commands": strings.TrimSpace(`
/help           list the slash commands
/clear          empty the conversation, keeping the system prompt
/save [name]    save the conversation under a newly generated id
/load <id>      replace the conversation with a saved session
/sessions       list saved session ids, newest first
/quit, /exit    leave natshell
Any other slash command (for example /undo or /compact) is reported as
unrecognized and is not sent to the model.
`),
	"tools": strings.TrimSpace(`
execute_shell     run a shell command (bash -c), subject to the safety
                  classifier
read_file         read a file, recording its content hash for
                  read-before-edit enforcement
write_file        overwrite or append to a file, backing up the previous
                  content first
edit_file         exact-match search/replace against a previously read
                  file
list_directory    list a directory's entries
search_files      grep file contents or glob-match file names, honoring
                  .gitignore
git_tool          run a whitelisted git subcommand against the real git
                  binary
run_code          compile and/or run a short snippet in one of several
                  languages in a throwaway temp directory
natshell_help     this tool
`),
	"models": strings.TrimSpace(`
NatShell can use a local model (model.path, or --model) and an
OpenAI-compatible endpoint (remote.url, or --remote; --remote-model picks
the model on that endpoint). engine.preferred in the config file chooses
between them: "local" or "remote" uses only that backend; "auto" prefers
the endpoint when both are configured and falls back to the local model
on a transport error for the rest of that turn, and otherwise uses
whichever one is configured. NatShell reads engine.preferred at startup
and does not write it.
`),
	"troubleshooting": strings.TrimSpace(`
- A tool call at a "confirm ... [y/N]" prompt is waiting on your answer;
  y or yes runs it, anything else declines it.
- "must read file before editing" means edit_file needs a fresh
  read_file call against that exact path first.
- A shell command stops after 60s unless it matches the built-in
  long-running list (package installs, builds, make, nmap, git clone),
  which gets 10 minutes; for anything else, ask for a longer explicit
  timeout.
- If responses seem to be missing earlier context, older turns may have
  been compacted into a summary, or a /load may have replaced the
  conversation.
`),
}

// NewHelpHandler builds natshell_help: static docs for most topics, and a
// couple of topics whose content is generated from the live policy so it
// never drifts from what's actually enforced.
func NewHelpHandler(policy *safety.Policy) Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		topic, _ := args["topic"].(string)
		if topic == "" {
			topic = "overview"
		}

		if body, ok := staticHelpTopics[topic]; ok {
			return conversation.ToolResult{Output: body, ExitCode: 0}, nil
		}

		switch topic {
		case "safety":
			return conversation.ToolResult{Output: renderSafetyHelp(policy), ExitCode: 0}, nil
		case "config", "config_reference":
			return conversation.ToolResult{Output: renderConfigReference(), ExitCode: 0}, nil
		}

		return conversation.ToolResult{
			Error:    "Tool.Validation: unknown help topic " + topic + "; try one of " + strings.Join(helpTopicNames(), ", "),
			ExitCode: 1,
		}, nil
	}
}

func helpTopicNames() []string {
	names := make([]string, 0, len(staticHelpTopics)+2)
	for k := range staticHelpTopics {
		names = append(names, k)
	}
	names = append(names, "safety", "config")
	sort.Strings(names)
	return names
}

func renderSafetyHelp(policy *safety.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current policy mode: %s\n\n", policy.Mode)
	b.WriteString("Blocked patterns are never allowed to run, regardless of mode:\n")
	for _, p := range policy.Blocked {
		fmt.Fprintf(&b, "  - %s\n", p.Reason)
	}
	b.WriteString("\nThese always require confirmation in confirm mode:\n")
	for _, p := range policy.AlwaysConfirm {
		fmt.Fprintf(&b, "  - %s\n", p.Reason)
	}
	b.WriteString("\nReading these paths requires confirmation:\n")
	for _, p := range policy.SensitivePaths {
		fmt.Fprintf(&b, "  - %s\n", p.Reason)
	}
	return b.String()
}

func renderConfigReference() string {
	return strings.TrimSpace(`
[model]
path = "auto"           # local model path; "auto" loads no local model (--download fetches the default one)
n_ctx = 0               # 0 = auto-detect from the model filename
n_gpu_layers = -1       # -1 = offload as many layers as fit
main_gpu = 0

[remote]
url = ""                # OpenAI-compatible base URL
model = ""
api_key = ""            # prefer NATSHELL_API_KEY over a plaintext value here

[engine]
preferred = "auto"      # "auto" | "local" | "remote"

[agent]
max_steps = 0           # 0 = scale with the active engine's context window
temperature = 0.2
max_tokens = 4096

[safety]
mode = "confirm"        # "confirm" | "warn" | "yolo"
always_confirm = []     # extra regex patterns, layered on the built-in list
blocked = []
sensitive_paths = []

[backup]
dir = ""                # defaults to the state directory's backups/ folder
max_per_file = 10
`)
}
