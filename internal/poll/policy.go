package poll

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy is returned when a Policy cannot bound a poll loop.
var ErrInvalidPolicy = errors.New("invalid poll policy")

// Policy controls the delay between status fetches and when a poll loop
// gives up. At least one of MaxAttempts and MaxElapsed must be set.
type Policy struct {
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"     json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"    json:"multiplier"`
	MaxAttempts  int           `yaml:"max_attempts"  json:"max_attempts"`
	MaxElapsed   time.Duration `yaml:"max_elapsed"   json:"max_elapsed"`
	// FetchTimeout bounds each status fetch when positive.
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
}

// DefaultPolicy returns a policy of 1s initial delay doubling up to 10s,
// for at most 60 fetches.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		MaxAttempts:  60,
	}
}

// Validate checks that delays are non-negative, the multiplier does not
// shrink delays, and the loop is bounded. A zero initial_delay is only
// allowed with a zero max_delay, since backoff from zero never grows.
func (p Policy) Validate() error {
	var errs []error
	if p.InitialDelay < 0 {
		errs = append(errs, fmt.Errorf("initial_delay must be >= 0 (got %s)", p.InitialDelay))
	}
	if p.InitialDelay == 0 && p.MaxDelay > 0 {
		errs = append(errs, fmt.Errorf(
			"initial_delay must be > 0 when max_delay is set (got 0 < %s)", p.MaxDelay,
		))
	}
	if p.MaxDelay < p.InitialDelay {
		errs = append(errs, fmt.Errorf(
			"max_delay must be >= initial_delay (got %s < %s)", p.MaxDelay, p.InitialDelay,
		))
	}
	if p.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("multiplier must be >= 1 (got %g)", p.Multiplier))
	}
	if p.MaxAttempts < 0 || p.MaxElapsed < 0 {
		errs = append(errs, fmt.Errorf("max_attempts and max_elapsed must be >= 0"))
	}
	if p.MaxAttempts == 0 && p.MaxElapsed == 0 {
		errs = append(errs, fmt.Errorf("one of max_attempts or max_elapsed is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, errors.Join(errs...))
	}
	return nil
}

// Next returns the delay that follows d: d scaled by the multiplier and
// capped at MaxDelay.
func (p Policy) Next(d time.Duration) time.Duration {
	next := time.Duration(float64(d) * p.Multiplier)
	if next > p.MaxDelay || next < d {
		return p.MaxDelay
	}
	return next
}

// Delays returns the first n delays the policy produces.
func (p Policy) Delays(n int) []time.Duration {
	out := make([]time.Duration, 0, n)
	d := p.InitialDelay
	for range n {
		out = append(out, d)
		d = p.Next(d)
	}
	return out
}

// Budget returns the longest a poll loop under p can run. Each fetch is
// counted at FetchTimeout, or at fetchBound when FetchTimeout is unset.
// Attempt-bounded loops sum their sleeps; elapsed-bounded loops stop
// scheduling fetches at MaxElapsed. With both bounds the smaller wins.
func (p Policy) Budget(fetchBound time.Duration) time.Duration {
	fetch := fetchBound
	if p.FetchTimeout > 0 {
		fetch = p.FetchTimeout
	}

	var budget time.Duration
	if p.MaxAttempts > 0 {
		budget = time.Duration(p.MaxAttempts) * fetch
		for _, d := range p.Delays(p.MaxAttempts - 1) {
			budget += d
		}
	}
	if p.MaxElapsed > 0 {
		if elapsed := p.MaxElapsed + fetch; budget == 0 || elapsed < budget {
			budget = elapsed
		}
	}
	return budget
}
