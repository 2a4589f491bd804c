// Package health checks that the stores a binary depends on are reachable.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// checkTimeout bounds one store ping.
const checkTimeout = 3 * time.Second

// Pinger checks connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

type namedPinger struct {
	name string
	p    Pinger
}

// Checker pings every registered store. The zero value has no stores and is always healthy.
type Checker struct {
	service string
	stores  []namedPinger
}

// NewChecker returns a Checker reporting under service.
func NewChecker(service string) *Checker {
	return &Checker{service: service}
}

// Service returns the name the checker reports under.
func (c *Checker) Service() string { return c.service }

// Add registers a store. A nil pinger is skipped.
func (c *Checker) Add(name string, p Pinger) *Checker {
	if p != nil {
		c.stores = append(c.stores, namedPinger{name: name, p: p})
	}
	return c
}

// Check pings every store and returns all failures joined, or nil when all are reachable.
func (c *Checker) Check(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var result *multierror.Error
	for _, s := range c.stores {
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.p.PingContext(pingCtx)
		cancel()
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s store: %w", s.name, err))
		}
	}
	return result.ErrorOrNil()
}
