package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileReadTrackerAllowsAfterMatchingRead(t *testing.T) {
	tracker := NewFileReadTracker()
	content := []byte("hello world")
	tracker.RecordRead("/tmp/a.txt", content)
	assert.True(t, tracker.Allows("/tmp/a.txt", content))
}

func TestFileReadTrackerRefusesWithoutRead(t *testing.T) {
	tracker := NewFileReadTracker()
	assert.False(t, tracker.Allows("/tmp/never-read.txt", []byte("x")))
}

func TestFileReadTrackerRefusesStaleContent(t *testing.T) {
	tracker := NewFileReadTracker()
	tracker.RecordRead("/tmp/a.txt", []byte("original"))
	assert.False(t, tracker.Allows("/tmp/a.txt", []byte("changed underneath us")))
}

func TestFileReadTrackerRefreshUpdatesHash(t *testing.T) {
	tracker := NewFileReadTracker()
	tracker.RecordRead("/tmp/a.txt", []byte("original"))
	tracker.Refresh("/tmp/a.txt", []byte("after edit"))
	assert.True(t, tracker.Allows("/tmp/a.txt", []byte("after edit")))
	assert.False(t, tracker.Allows("/tmp/a.txt", []byte("original")))
}

func TestHashContentIsDeterministic(t *testing.T) {
	a := HashContent([]byte("same bytes"))
	b := HashContent([]byte("same bytes"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, HashContent([]byte("different bytes")))
}
