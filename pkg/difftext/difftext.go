// Package difftext produces unified-diff-style text shared by edit_file
// (pkg/tools) and /undo (pkg/session): diffmatchpatch's DiffMain plus
// semantic cleanup, rendered as unified +/- lines rather than an
// ANSI-colored console format, since the diff is returned to the model as
// plain text, not printed to a terminal.
package difftext

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Unified returns a minimal unified diff between before and after,
// labeled with filename in the conventional --- / +++ header lines.
func Unified(filename, before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", filename, filename)
	for _, d := range diffs {
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				fmt.Fprintf(&b, "-%s\n", line)
			case diffmatchpatch.DiffInsert:
				fmt.Fprintf(&b, "+%s\n", line)
			case diffmatchpatch.DiffEqual:
				fmt.Fprintf(&b, " %s\n", line)
			}
		}
	}
	return b.String()
}

// Window returns the lines of after within radius lines of the first
// changed line relative to before, used by edit_file to show "a window of
// ±5 lines around the edit point".
func Window(before, after string, radius int) string {
	beforeLines := strings.Split(before, "\n")
	afterLines := strings.Split(after, "\n")

	firstDiff := 0
	for firstDiff < len(beforeLines) && firstDiff < len(afterLines) && beforeLines[firstDiff] == afterLines[firstDiff] {
		firstDiff++
	}
	if firstDiff == len(beforeLines) && firstDiff == len(afterLines) {
		return ""
	}

	start := firstDiff - radius
	if start < 0 {
		start = 0
	}
	end := firstDiff + radius + 1
	if end > len(afterLines) {
		end = len(afterLines)
	}
	if start >= end {
		return ""
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%4d| %s\n", i+1, afterLines[i])
	}
	return b.String()
}
