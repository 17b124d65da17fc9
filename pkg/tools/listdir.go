package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

const defaultMaxEntries = 200

// NewListDirectoryHandler builds list_directory.
func NewListDirectoryHandler() Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		path, _ := args["path"].(string)
		if path == "" {
			path = "."
		}
		showHidden, _ := args["show_hidden"].(bool)
		maxEntries := defaultMaxEntries
		if v, ok := args["max_entries"].(float64); ok && v > 0 {
			maxEntries = int(v)
		}

		entries, err := os.ReadDir(path)
		if os.IsNotExist(err) {
			return conversation.ToolResult{Error: "NotFound: " + path, ExitCode: 1}, nil
		}
		if os.IsPermission(err) {
			return conversation.ToolResult{Error: "PermissionDenied: " + path, ExitCode: 1}, nil
		}
		if err != nil {
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}

		var b strings.Builder
		count := 0
		for _, e := range entries {
			if count >= maxEntries {
				fmt.Fprintf(&b, "… [%d more entries omitted]\n", len(entries)-count)
				break
			}
			if !showHidden && strings.HasPrefix(e.Name(), ".") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			kind := "file"
			if e.IsDir() {
				kind = "dir"
			}
			fmt.Fprintf(&b, "%s\t%s\t%d\t%s\n", e.Name(), kind, info.Size(), info.ModTime().Format("2006-01-02T15:04:05"))
			count++
		}

		return conversation.ToolResult{Output: b.String(), ExitCode: 0}, nil
	}
}
