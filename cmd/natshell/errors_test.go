package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeForNilIsZero(t *testing.T) {
	assert.Equal(t, 0, exitCodeFor(nil))
}

func TestExitCodeForUsageErrorIsTwo(t *testing.T) {
	assert.Equal(t, 2, exitCodeFor(&usageError{msg: "bad flag"}))
}

func TestExitCodeForOtherErrorIsOne(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(errors.New("boom")))
}
