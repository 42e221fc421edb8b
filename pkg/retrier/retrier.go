// Package retrier provides a reusable retry policy for fallible
// operations against flaky collaborators (the document store, HTTP
// endpoints). It replaces per-call-site retry loops with one
// configurable component.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// BaseDelay is slept after the first failure.
	BaseDelay time.Duration
	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
	// Jitter, when positive, adds a random fraction [0, Jitter) of the
	// current delay to spread out concurrent retriers.
	Jitter float64
}

// Default matches the status-write contract: 3 attempts, delay
// doubling from one second.
var Default = Policy{
	Attempts:   3,
	BaseDelay:  time.Second,
	Multiplier: 2,
}

// Do runs op until it succeeds, attempts are exhausted, or ctx is
// done. The last error is returned.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}

	delay := p.BaseDelay
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		sleep := delay
		if p.Jitter > 0 {
			sleep += time.Duration(rand.Float64() * p.Jitter * float64(delay))
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = time.Duration(float64(delay) * mult)
	}
	return err
}
