package http

import (
	"context"
	"fmt"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// namedChecker labels a readiness check in failure messages.
type namedChecker struct {
	name    string
	checker sharedobs.ReadinessChecker
}

// Readiness reports ready only when every registered check passes.
type Readiness struct {
	checks []namedChecker
}

// Add registers a check. Nil checkers are ignored so optional components
// can be passed unconditionally.
func (r *Readiness) Add(name string, c sharedobs.ReadinessChecker) *Readiness {
	if c != nil {
		r.checks = append(r.checks, namedChecker{name: name, checker: c})
	}
	return r
}

// CheckReadiness runs checks in registration order and returns the first failure.
func (r *Readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r.checks {
		if err := c.checker.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}
