package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/session"
)

const defaultMaxLines = 200

// NewReadFileHandler builds read_file: stat-then-classify errors into
// NotFound/PermissionDenied/IsDirectory before attempting to open.
func NewReadFileHandler(tracker *FileReadTracker) Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		path, _ := args["path"].(string)
		if path == "" {
			return conversation.ToolResult{Error: "path is required", ExitCode: 1}, nil
		}
		maxLines := defaultMaxLines
		if v, ok := args["max_lines"].(float64); ok && v > 0 {
			maxLines = int(v)
		}

		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return conversation.ToolResult{Error: "NotFound: " + path, ExitCode: 1}, nil
		}
		if os.IsPermission(err) {
			return conversation.ToolResult{Error: "PermissionDenied: " + path, ExitCode: 1}, nil
		}
		if err != nil {
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}
		if info.IsDir() {
			return conversation.ToolResult{Error: "IsDirectory: " + path, ExitCode: 1}, nil
		}

		f, err := os.Open(path)
		if err != nil {
			if os.IsPermission(err) {
				return conversation.ToolResult{Error: "PermissionDenied: " + path, ExitCode: 1}, nil
			}
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}
		defer f.Close()

		var b strings.Builder
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lines := 0
		for scanner.Scan() && lines < maxLines {
			b.WriteString(scanner.Text())
			b.WriteByte('\n')
			lines++
		}

		full, err := os.ReadFile(path)
		if err != nil {
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}
		tracker.RecordRead(path, full)

		return conversation.ToolResult{Output: b.String(), ExitCode: 0}, nil
	}
}

// NewWriteFileHandler builds write_file.
func NewWriteFileHandler(backups *session.BackupStore) Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		mode, _ := args["mode"].(string)
		if mode == "" {
			mode = "overwrite"
		}
		if path == "" {
			return conversation.ToolResult{Error: "path is required", ExitCode: 1}, nil
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return conversation.ToolResult{Error: "PermissionDenied: " + err.Error(), ExitCode: 1}, nil
		}

		if mode == "overwrite" {
			if existing, err := os.ReadFile(path); err == nil {
				if _, berr := backups.Create(path, existing); berr != nil {
					return conversation.ToolResult{Error: berr.Error(), ExitCode: 1}, nil
				}
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return conversation.ToolResult{Error: "PermissionDenied: " + err.Error(), ExitCode: 1}, nil
			}
			return conversation.ToolResult{Output: fmt.Sprintf("wrote %d bytes to %s", len(content), path), ExitCode: 0}, nil
		}

		// append
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return conversation.ToolResult{Error: "PermissionDenied: " + err.Error(), ExitCode: 1}, nil
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}
		return conversation.ToolResult{Output: fmt.Sprintf("appended %d bytes to %s", len(content), path), ExitCode: 0}, nil
	}
}
