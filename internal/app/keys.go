package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bledden/tinker-voice/internal/metrics"
	"github.com/bledden/tinker-voice/internal/remote"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// ErrUnknownService is returned for a service with no registered credential.
var ErrUnknownService = errors.New("unknown service")

// Pinger verifies a vendor credential with a cheap authenticated call.
type Pinger interface {
	Ping(ctx context.Context) error
}

type check struct {
	valid bool
	at    time.Time
	err   string
}

// Keys manages vendor credentials at runtime and remembers the outcome of
// the last connection test per service.
type Keys struct {
	creds   map[domain.Service]*remote.Credential
	pingers map[domain.Service]Pinger

	mu     sync.Mutex
	checks map[domain.Service]check

	nowFunc func() time.Time
	log     *slog.Logger
}

// KeysOption configures Keys.
type KeysOption func(*Keys)

// WithKeysNowFunc overrides the time function for testing.
func WithKeysNowFunc(f func() time.Time) KeysOption {
	return func(k *Keys) {
		k.nowFunc = f
	}
}

// WithKeysLogger sets the logger.
func WithKeysLogger(l *slog.Logger) KeysOption {
	return func(k *Keys) {
		k.log = l
	}
}

// NewKeys creates a key manager over creds. pingers may omit services that
// cannot be tested.
func NewKeys(
	creds map[domain.Service]*remote.Credential,
	pingers map[domain.Service]Pinger,
	opts ...KeysOption,
) *Keys {
	k := &Keys{
		creds:   creds,
		pingers: pingers,
		checks:  make(map[domain.Service]check),
		nowFunc: time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Status returns the key status of every known service in display order.
func (k *Keys) Status() []domain.KeyStatus {
	out := make([]domain.KeyStatus, 0, len(domain.Services))
	for _, s := range domain.Services {
		if _, ok := k.creds[s]; ok {
			out = append(out, k.status(s))
		}
	}
	return out
}

// StatusOf returns the key status of one service.
func (k *Keys) StatusOf(s domain.Service) (domain.KeyStatus, error) {
	if _, ok := k.creds[s]; !ok {
		return domain.KeyStatus{}, fmt.Errorf("%w: %s", ErrUnknownService, s)
	}
	return k.status(s), nil
}

// Set replaces a service's key. An empty key clears it. The previous
// connection test result is discarded.
func (k *Keys) Set(s domain.Service, key string) error {
	cred, ok := k.creds[s]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, s)
	}
	cred.Set(key)

	k.mu.Lock()
	delete(k.checks, s)
	k.mu.Unlock()

	k.log.Info("api key updated", "service", s, "configured", cred.Configured())
	return nil
}

// Test pings the service with its current key and records the outcome. A
// failed ping is reported in the returned status, not as an error. An
// outcome for a key that was replaced during the ping is discarded.
func (k *Keys) Test(ctx context.Context, s domain.Service) (domain.KeyStatus, error) {
	cred, ok := k.creds[s]
	if !ok {
		return domain.KeyStatus{}, fmt.Errorf("%w: %s", ErrUnknownService, s)
	}
	p, ok := k.pingers[s]
	if !ok {
		return domain.KeyStatus{}, fmt.Errorf("%w: %s has no connection test", ErrUnknownService, s)
	}

	version := cred.Version()
	err := p.Ping(ctx)
	c := check{valid: err == nil, at: k.nowFunc()}
	if err != nil {
		c.err = err.Error()
	}

	// Set swaps the credential before clearing checks under k.mu, so the
	// version is compared under the same lock.
	k.mu.Lock()
	stale := cred.Version() != version
	if !stale {
		k.checks[s] = c
	}
	k.mu.Unlock()

	if stale {
		k.log.Info("discarding connection test of replaced key", "service", s)
		return k.status(s), nil
	}
	if err != nil {
		k.log.Warn("connection test failed", "service", s, "error", err)
	}

	up := 0.0
	if c.valid {
		up = 1
	}
	metrics.VendorUp.WithLabelValues(string(s)).Set(up)

	return k.status(s), nil
}

// TestAll tests every configured service. Unconfigured services are
// skipped.
func (k *Keys) TestAll(ctx context.Context) []domain.KeyStatus {
	out := make([]domain.KeyStatus, 0, len(domain.Services))
	for _, s := range domain.Services {
		cred, ok := k.creds[s]
		if !ok || !cred.Configured() {
			continue
		}
		st, err := k.Test(ctx, s)
		if err != nil {
			continue
		}
		out = append(out, st)
	}
	return out
}

func (k *Keys) status(s domain.Service) domain.KeyStatus {
	st := domain.KeyStatus{Service: s, Configured: k.creds[s].Configured()}

	k.mu.Lock()
	c, ok := k.checks[s]
	k.mu.Unlock()

	if ok {
		valid, at := c.valid, c.at
		st.Valid = &valid
		st.LastChecked = &at
		st.LastError = c.err
	}
	return st
}
