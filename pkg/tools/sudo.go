package tools

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// SudoCredentialExpiry is how long a cached sudo password remains usable
// past the moment it was acquired.
const SudoCredentialExpiry = 5 * time.Minute

// SudoCredentialCache holds one cached sudo password, discarding it once
// stale, so the user isn't re-prompted for every privileged command
// within the same short window.
type SudoCredentialCache struct {
	mu         sync.Mutex
	password   string
	acquiredAt time.Time
	hasValue   bool
}

// NewSudoCredentialCache returns an empty cache.
func NewSudoCredentialCache() *SudoCredentialCache { return &SudoCredentialCache{} }

// Get returns the cached password if it is still fresh. A stale entry is
// discarded.
func (c *SudoCredentialCache) Get(now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasValue {
		return "", false
	}
	if now.Sub(c.acquiredAt) > SudoCredentialExpiry {
		c.password = ""
		c.hasValue = false
		return "", false
	}
	return c.password, true
}

// Set stores password as freshly acquired at now.
func (c *SudoCredentialCache) Set(password string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.password = password
	c.acquiredAt = now
	c.hasValue = true
}

// Invalidate discards the cached credential, e.g. after a sudo
// authentication failure.
func (c *SudoCredentialCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.password = ""
	c.hasValue = false
}

// PromptSudoPassword reads a password from the controlling terminal
// without echoing it.
func PromptSudoPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading sudo password: %w", err)
	}
	return string(b), nil
}
