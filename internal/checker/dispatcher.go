package checker

import (
	"context"
	"log"

	"github.com/avritt/raincheck/internal/commute"
)

// RainChecker is the outbound call the dispatcher depends on. Satisfied by
// *Client in production and by stubs in tests.
type RainChecker interface {
	CheckRain(ctx context.Context, user, home, work string, vehicle commute.Vehicle) (RainCheck, *commute.Failure)
}

// ResultCache receives the most recent check result per label.
type ResultCache interface {
	Save(result commute.CheckResult)
}

// Dispatcher runs one rain check per eligible window: precondition checks,
// one backend call, failure normalization. It never writes to the
// notification channel itself.
type Dispatcher struct {
	client RainChecker
	cache  ResultCache
	clock  commute.Clock
	user   string
}

// NewDispatcher creates a Dispatcher. user identifies the route owner to
// the backend.
func NewDispatcher(client RainChecker, cache ResultCache, clock commute.Clock, user string) *Dispatcher {
	return &Dispatcher{
		client: client,
		cache:  cache,
		clock:  clock,
		user:   user,
	}
}

// Dispatch performs a single check for one commute window. Exactly one of
// the return values is non-nil. No retries on failure; retry policy, if
// any, belongs to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, label commute.Label, cfg commute.Config) (*commute.CheckResult, *commute.Failure) {
	if !cfg.HasAddresses() {
		return nil, &commute.Failure{
			Reason:  commute.ReasonConfigIncomplete,
			Message: "home and work addresses must be set before checking the weather",
		}
	}

	check, failure := d.client.CheckRain(ctx, d.user, cfg.HomeAddress, cfg.WorkAddress, cfg.Vehicle)
	if failure != nil {
		log.Printf("dispatcher: %s check failed: %v", label, failure)
		return nil, failure
	}

	result := commute.CheckResult{
		Label:     label,
		WillRain:  check.WillRain,
		Condition: check.Condition,
		MapImage:  check.MapImage,
		Timestamp: d.clock.Now(),
	}
	if d.cache != nil {
		d.cache.Save(result)
	}
	return &result, nil
}
