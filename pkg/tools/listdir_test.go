package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDirectoryMissingReturnsNotFound(t *testing.T) {
	handler := NewListDirectoryHandler()
	result, err := handler(context.Background(), map[string]interface{}{"path": "/nonexistent/dir/xyz"})
	require.NoError(t, err)
	assert.Contains(t, result.Error, "NotFound")
}

func TestListDirectoryHidesDotfilesByDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))

	handler := NewListDirectoryHandler()
	result, err := handler(context.Background(), map[string]interface{}{"path": dir})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "visible.txt")
	assert.NotContains(t, result.Output, ".hidden")
}

func TestListDirectoryShowHiddenIncludesDotfiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))

	handler := NewListDirectoryHandler()
	result, err := handler(context.Background(), map[string]interface{}{"path": dir, "show_hidden": true})
	require.NoError(t, err)
	assert.Contains(t, result.Output, ".hidden")
}

func TestListDirectoryMaxEntriesTruncatesWithOmittedCount(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f"+string(rune('a'+i))), []byte("x"), 0o644))
	}

	handler := NewListDirectoryHandler()
	result, err := handler(context.Background(), map[string]interface{}{"path": dir, "max_entries": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(result.Output, "\tfile\t"))
	assert.Contains(t, result.Output, "more entries omitted")
}
