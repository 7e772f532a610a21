package remote

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Credential holds one vendor secret. It is safe for concurrent use and
// never renders the secret when printed or logged.
type Credential struct {
	mu        sync.RWMutex
	secret    string
	updatedAt time.Time
	version   uint64
}

// NewCredential returns a credential holding secret. An empty or blank
// secret leaves the credential unset.
func NewCredential(secret string) *Credential {
	c := &Credential{}
	c.Set(secret)
	return c
}

// Set replaces the secret. A blank value clears it.
func (c *Credential) Set(secret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = strings.TrimSpace(secret)
	c.updatedAt = time.Now()
	c.version++
}

// Clear removes the secret.
func (c *Credential) Clear() {
	c.Set("")
}

// Secret returns the secret and whether one is set.
func (c *Credential) Secret() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secret, c.secret != ""
}

// Configured reports whether a secret is set.
func (c *Credential) Configured() bool {
	_, ok := c.Secret()
	return ok
}

// Version increases on every Set or Clear.
func (c *Credential) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// UpdatedAt returns when the secret was last set or cleared.
func (c *Credential) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// String implements fmt.Stringer without revealing the secret.
func (c *Credential) String() string {
	if c.Configured() {
		return "[redacted]"
	}
	return "[unset]"
}

// LogValue implements slog.LogValuer without revealing the secret.
func (c *Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}
