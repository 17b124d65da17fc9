package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

const defaultMaxResults = 100

// isGlobLooking decides whether pattern should dispatch to a name-glob
// search or a content grep: glob metacharacters (*, ?, [...]) with no
// regex-only syntax present (one of ( | ^ $ + { } \, or a dot followed by
// *, + or ?, as in ".*") means glob; anything else is compiled as a
// regular expression and greps file contents.
var globMetaPattern = regexp.MustCompile(`[*?\[\]]`)
var regexOnlyMetaPattern = regexp.MustCompile(`[(|^$+{}\\]|\.[*+?]`)

func isGlobLooking(pattern string) bool {
	return globMetaPattern.MatchString(pattern) && !regexOnlyMetaPattern.MatchString(pattern)
}

// NewSearchFilesHandler builds search_files, honoring .gitignore rules
// (via go-gitignore) during directory traversal.
func NewSearchFilesHandler() Handler {
	return func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
		pattern, _ := args["pattern"].(string)
		root, _ := args["path"].(string)
		if root == "" {
			root = "."
		}
		filePattern, _ := args["file_pattern"].(string)
		maxResults := defaultMaxResults
		if v, ok := args["max_results"].(float64); ok && v > 0 {
			maxResults = int(v)
		}
		if pattern == "" {
			return conversation.ToolResult{Error: "pattern is required", ExitCode: 1}, nil
		}

		matcher := loadIgnoreRules(root)

		var results []string
		var grepRe *regexp.Regexp
		useGlob := isGlobLooking(pattern)
		if !useGlob {
			var err error
			grepRe, err = regexp.Compile(pattern)
			if err != nil {
				return conversation.ToolResult{Error: "Tool.Validation: invalid pattern: " + err.Error(), ExitCode: 1}, nil
			}
		}

		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip unreadable entries, don't abort the whole walk
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && matcher != nil && matcher.MatchesPath(rel) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() {
				if info.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			if len(results) >= maxResults {
				return filepath.SkipAll
			}

			if filePattern != "" {
				if ok, _ := filepath.Match(filePattern, filepath.Base(path)); !ok {
					return nil
				}
			}

			if useGlob {
				if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
					results = append(results, path)
				}
				return nil
			}

			matches := grepMatches(path, grepRe, maxResults-len(results))
			results = append(results, matches...)
			return nil
		})
		if err != nil && err != filepath.SkipAll {
			return conversation.ToolResult{Error: err.Error(), ExitCode: 1}, nil
		}

		sort.Strings(results)
		truncated := len(results) >= maxResults
		out := strings.Join(results, "\n")
		capped, capTruncated := Truncate(out, OutputCapForContextWindow(0))

		return conversation.ToolResult{
			Output:    capped,
			ExitCode:  0,
			Truncated: truncated || capTruncated,
		}, nil
	}
}

func loadIgnoreRules(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	return ignore.CompileIgnoreLines(lines...)
}

func grepMatches(path string, re *regexp.Regexp, remaining int) []string {
	if remaining <= 0 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() && len(out) < remaining {
		lineNo++
		if re.MatchString(scanner.Text()) {
			out = append(out, fmt.Sprintf("%s:%d:%s", path, lineNo, scanner.Text()))
		}
	}
	return out
}
