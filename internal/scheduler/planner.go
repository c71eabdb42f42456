// Package scheduler plans the background rain checks: one weekly-recurring
// trigger per enabled (commute window, weekday) pair, firing at the
// window's time minus the lead time.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avritt/raincheck/internal/commute"
	"github.com/avritt/raincheck/internal/notify"
)

// dispatchTimeout bounds one backend call from a fired trigger.
const dispatchTimeout = 60 * time.Second

// SettingsSource yields the current configuration snapshot. The fire
// handler re-reads it so a trigger registered before a reconfiguration
// still acts on fresh settings.
type SettingsSource interface {
	Load() (commute.Config, error)
}

// Dispatcher runs one rain check for a window.
type Dispatcher interface {
	Dispatch(ctx context.Context, label commute.Label, cfg commute.Config) (*commute.CheckResult, *commute.Failure)
}

// Planner owns the trigger set. Replan derives it from the configuration;
// fired triggers run the evaluate → dispatch → compose → deliver pipeline.
type Planner struct {
	mu sync.Mutex

	channel    notify.Channel
	dispatcher Dispatcher
	composer   notify.Composer
	settings   SettingsSource
	clock      commute.Clock

	// ids of currently registered recurring triggers
	registered map[string]struct{}
}

// NewPlanner creates a Planner. Call Replan to register triggers.
func NewPlanner(channel notify.Channel, dispatcher Dispatcher, settings SettingsSource, clock commute.Clock) *Planner {
	return &Planner{
		channel:    channel,
		dispatcher: dispatcher,
		settings:   settings,
		clock:      clock,
		registered: make(map[string]struct{}),
	}
}

// TriggerID derives the deterministic trigger key for a window/weekday
// slot, so replanning replaces instead of duplicating.
func TriggerID(label commute.Label, day time.Weekday) string {
	return fmt.Sprintf("%s-%s", label, strings.ToLower(day.String()))
}

// Replan cancels every registered trigger and re-derives the set from the
// configuration. Safe to call redundantly; calling it twice with the same
// configuration converges on the same trigger ids. When notifications are
// globally disabled it stops after cancellation and registers nothing.
func (p *Planner) Replan(cfg commute.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Cancellation must complete before any new registration so no stale
	// trigger survives a reconfiguration.
	for id := range p.registered {
		if err := p.channel.Cancel(id); err != nil {
			log.Printf("planner: cancelling trigger %s: %v", id, err)
		}
		delete(p.registered, id)
	}

	if !cfg.NotificationsEnabled {
		log.Println("planner: notifications disabled; no triggers registered")
		return nil
	}

	var firstErr error
	for _, label := range []commute.Label{commute.LabelMorning, commute.LabelEvening} {
		window := cfg.Window(label)
		if !window.Enabled {
			continue
		}
		for _, day := range cfg.Days.Weekdays() {
			fireDay, fireAt := commute.TriggerSlot(day, window.At)
			id := TriggerID(label, day)

			label := label
			err := p.channel.ScheduleRecurring(id, fireDay, fireAt, func() {
				p.handleFire(label)
			})
			if err != nil {
				log.Printf("planner: registering trigger %s: %v", id, err)
				if firstErr == nil {
					firstErr = fmt.Errorf("registering trigger %s: %w", id, err)
				}
				continue
			}
			p.registered[id] = struct{}{}
		}
	}

	log.Printf("planner: %d triggers registered", len(p.registered))
	return firstErr
}

// Triggers lists the registered recurring triggers with their next fire
// times. One-shot reminder triggers are internal and not reported.
func (p *Planner) Triggers() []notify.Trigger {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []notify.Trigger
	for _, t := range p.channel.Triggers() {
		if _, ok := p.registered[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// handleFire is the trigger fire handler. It re-validates eligibility
// against a fresh settings snapshot (a trigger may have raced a
// reconfiguration), dispatches, composes and forwards payloads in order.
// Errors stay contained here; a failing slot never disturbs the others.
func (p *Planner) handleFire(label commute.Label) {
	cfg, err := p.settings.Load()
	if err != nil {
		log.Printf("planner: loading settings for %s trigger: %v", label, err)
		return
	}

	now := p.clock.Now()
	if !commute.IsEligible(now, cfg, label) {
		log.Printf("planner: %s trigger fired but window no longer eligible; skipping", label)
		return
	}

	p.runCheck(context.Background(), label, cfg)
}

// CheckNow runs a user-initiated check outside the trigger schedule. The
// result (or failure) is returned to the caller and, when notifications
// are enabled, also delivered through the channel.
func (p *Planner) CheckNow(ctx context.Context, label commute.Label) (*commute.CheckResult, *commute.Failure, error) {
	cfg, err := p.settings.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	result, failure := p.runCheck(ctx, label, cfg)
	return result, failure, nil
}

func (p *Planner) runCheck(ctx context.Context, label commute.Label, cfg commute.Config) (*commute.CheckResult, *commute.Failure) {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	result, failure := p.dispatcher.Dispatch(ctx, label, cfg)

	payloads := p.composer.Compose(result, failure, label, p.clock.Now(), cfg.NotificationsEnabled)
	p.deliver(ctx, payloads)

	return result, failure
}

// deliver forwards payloads in composition order: the immediate one goes
// out before the deferred reminder is scheduled.
func (p *Planner) deliver(ctx context.Context, payloads []notify.Payload) {
	for _, payload := range payloads {
		if payload.Deferred() {
			id := "reminder-" + uuid.NewString()
			if err := p.channel.ScheduleOnce(id, payload); err != nil {
				log.Printf("planner: scheduling reminder: %v", err)
			}
			continue
		}
		if err := p.channel.FireImmediate(ctx, payload); err != nil {
			log.Printf("planner: delivering notification: %v", err)
		}
	}
}
