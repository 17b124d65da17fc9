package tools

import (
	"github.com/natshell-dev/natshell/pkg/safety"
	"github.com/natshell-dev/natshell/pkg/session"
)

// BuiltinDeps bundles every collaborator the eight builtin tools need,
// so RegisterBuiltins has a single place to assemble them from whatever
// the caller constructed at startup.
type BuiltinDeps struct {
	Tracker          *FileReadTracker
	Backups          *session.BackupStore
	SudoCache        *SudoCredentialCache
	Policy           *safety.Policy
	OutputCapForCall func() int
}

func jsonSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func strProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func numProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": desc}
}

func boolProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": desc}
}

func arrProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": desc,
	}
}

// RegisterBuiltins wires the eight builtin tools into a fresh Registry,
// returning it for the agent loop to hand to an Executor.
func RegisterBuiltins(deps BuiltinDeps) (*Registry, error) {
	reg := NewRegistry()

	shellDeps := ShellDeps{SudoCache: deps.SudoCache, OutputCapForCall: deps.OutputCapForCall}

	entries := []Entry{
		{
			Schema: Schema{
				Name:        "execute_shell",
				Description: "Run a shell command via bash -c. Subject to safety classification; mutating or destructive commands require confirmation.",
				Parameters: jsonSchema(map[string]interface{}{
					"command": strProp("the shell command to run"),
					"workdir": strProp("working directory for the command; defaults to the current directory"),
					"timeout": numProp("timeout in seconds; defaults to 60, or longer for auto-detected long-running commands"),
				}, "command"),
			},
			Handler:              NewExecuteShellHandler(shellDeps),
			RequiresConfirmation: true,
		},
		{
			Schema: Schema{
				Name:        "read_file",
				Description: "Read a file's contents, optionally limited to the first max_lines lines. Required before edit_file on the same path.",
				Parameters: jsonSchema(map[string]interface{}{
					"path":      strProp("path of the file to read"),
					"max_lines": numProp("maximum number of lines to return; defaults to 200"),
				}, "path"),
			},
			Handler: NewReadFileHandler(deps.Tracker),
		},
		{
			Schema: Schema{
				Name:        "write_file",
				Description: "Write content to a file, overwriting or appending. Overwriting an existing file creates a backup first.",
				Parameters: jsonSchema(map[string]interface{}{
					"path":    strProp("path of the file to write"),
					"content": strProp("content to write"),
					"mode":    strProp("\"overwrite\" (default) or \"append\""),
				}, "path", "content"),
			},
			Handler:              NewWriteFileHandler(deps.Backups),
			RequiresConfirmation: true,
		},
		{
			Schema: Schema{
				Name:        "edit_file",
				Description: "Replace the single occurrence of search with replace in a previously read file. Fails if the file has changed since it was last read, or if search matches zero or more than one time.",
				Parameters: jsonSchema(map[string]interface{}{
					"path":    strProp("path of the file to edit"),
					"search":  strProp("exact text to find, must match exactly once"),
					"replace": strProp("text to replace it with"),
				}, "path", "search"),
			},
			Handler:              NewEditFileHandler(deps.Tracker, deps.Backups),
			RequiresConfirmation: true,
		},
		{
			Schema: Schema{
				Name:        "list_directory",
				Description: "List a directory's entries with type, size, and modification time.",
				Parameters: jsonSchema(map[string]interface{}{
					"path":        strProp("directory to list; defaults to the current directory"),
					"show_hidden": boolProp("include dotfiles; defaults to false"),
					"max_entries": numProp("maximum entries to return; defaults to 200"),
				}),
			},
			Handler: NewListDirectoryHandler(),
		},
		{
			Schema: Schema{
				Name:        "search_files",
				Description: "Search a directory tree. A glob-looking pattern (e.g. *.go) matches file names; anything else is treated as a regular expression and greps file contents. Honors .gitignore.",
				Parameters: jsonSchema(map[string]interface{}{
					"pattern":      strProp("glob for file names, or regex for content"),
					"path":         strProp("root directory to search; defaults to the current directory"),
					"file_pattern": strProp("optional glob to further restrict which file names are searched"),
					"max_results":  numProp("maximum results to return; defaults to 100"),
				}, "pattern"),
			},
			Handler: NewSearchFilesHandler(),
		},
		{
			Schema: Schema{
				Name:        "git_tool",
				Description: "Run a whitelisted git subcommand (status, diff, log, branch, commit, stash) against the real git binary.",
				Parameters: jsonSchema(map[string]interface{}{
					"subcommand": strProp("one of status, diff, log, branch, commit, stash"),
					"args":       arrProp("additional arguments passed to the subcommand"),
				}, "subcommand"),
			},
			Handler:              NewGitToolHandler(),
			RequiresConfirmation: true,
		},
		{
			Schema: Schema{
				Name:        "run_code",
				Description: "Compile (if needed) and run a short code snippet in a throwaway temp directory. Supports python, javascript, bash, ruby, perl, php, c, cpp, rust, and go.",
				Parameters: jsonSchema(map[string]interface{}{
					"language": strProp("one of python, javascript, bash, ruby, perl, php, c, cpp, rust, go"),
					"code":     strProp("the source code to run"),
					"stdin":    strProp("optional standard input for the program"),
				}, "language", "code"),
			},
			Handler:              NewRunCodeHandler(shellDeps),
			RequiresConfirmation: true,
		},
		{
			Schema: Schema{
				Name:        "natshell_help",
				Description: "Show built-in help. Topics: overview, commands, tools, models, troubleshooting, safety, config.",
				Parameters: jsonSchema(map[string]interface{}{
					"topic": strProp("help topic; defaults to overview"),
				}),
			},
			Handler: NewHelpHandler(deps.Policy),
		},
	}

	for _, e := range entries {
		if err := reg.Register(e); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
