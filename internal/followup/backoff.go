package followup

import (
	"context"
	"time"
)

// DefaultCooldown matches the provider's rate-limit window with a little
// headroom over the one-minute quota.
const DefaultCooldown = 65 * time.Second

// BackoffPolicy controls how the dispatcher reacts to a provider rate limit.
// The pause is loop-global: the tick sleeps, and the rate-limited task stays
// pending so a later tick retries it.
type BackoffPolicy struct {
	Cooldown time.Duration
}

// DefaultBackoff returns the standard policy.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{Cooldown: DefaultCooldown}
}

// Pause blocks for the cooldown or until the context is done.
func (p BackoffPolicy) Pause(ctx context.Context) error {
	if p.Cooldown <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
