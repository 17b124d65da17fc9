package tools

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/difftext"
	"github.com/natshell-dev/natshell/pkg/session"
)

const maxFuzzySuggestions = 3

// NewEditFileHandler builds edit_file: tracker-gated, exact-one-match
// search/replace, with a read-before-edit tracker check and fuzzy
// NoMatch suggestions when the search text isn't found.
func NewEditFileHandler(tracker *FileReadTracker, backups *session.BackupStore) Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		path, _ := args["path"].(string)
		search, _ := args["search"].(string)
		replace, _ := args["replace"].(string)

		if path == "" || search == "" {
			return conversation.ToolResult{Error: "path and search are required", ExitCode: 1}, nil
		}

		current, err := os.ReadFile(path)
		if err != nil {
			return conversation.ToolResult{Error: "NotFound: " + path, ExitCode: 1}, nil
		}

		if !tracker.Allows(path, current) {
			return conversation.ToolResult{
				Error:    "Tool.Validation: must read file before editing (" + path + ")",
				ExitCode: 1,
			}, nil
		}

		content := string(current)
		count := strings.Count(content, search)

		switch {
		case count == 0:
			suggestions := fuzzySuggestions(content, search)
			msg := "NoMatch: search text not found in " + path
			if len(suggestions) > 0 {
				msg += "; closest lines: " + strings.Join(suggestions, " | ")
			}
			return conversation.ToolResult{Error: msg, ExitCode: 1}, nil

		case count > 1:
			return conversation.ToolResult{
				Error:    fmt.Sprintf("Ambiguous: search text occurs %d times in %s, use a more specific match", count, path),
				ExitCode: 1,
			}, nil
		}

		if _, err := backups.Create(path, current); err != nil {
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}

		newContent := strings.Replace(content, search, replace, 1)
		if err := os.WriteFile(path, []byte(newContent), 0o644); err != nil {
			return conversation.ToolResult{Error: "PermissionDenied: " + err.Error(), ExitCode: 1}, nil
		}

		tracker.Refresh(path, []byte(newContent))

		diff := difftext.Unified(path, content, newContent)
		window := difftext.Window(content, newContent, 5)

		return conversation.ToolResult{
			Output:   diff + "\n" + window,
			ExitCode: 0,
		}, nil
	}
}

// fuzzySuggestions ranks content's lines by Levenshtein distance to
// search, returning up to maxFuzzySuggestions closest lines to surface
// on a NoMatch result.
func fuzzySuggestions(content, search string) []string {
	type scored struct {
		line string
		dist int
	}
	var candidates []scored
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		candidates = append(candidates, scored{line: trimmed, dist: levenshtein.ComputeDistance(trimmed, search)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	n := maxFuzzySuggestions
	if len(candidates) < n {
		n = len(candidates)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].line
	}
	return out
}
