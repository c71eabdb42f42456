package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/avritt/raincheck/internal/commute"
)

// sendTimeout bounds a single sink delivery.
const sendTimeout = 30 * time.Second

// Sink is the terminal delivery endpoint a payload is pushed into.
type Sink interface {
	Send(ctx context.Context, p Payload) error
}

// Channel is the notification delivery channel: it registers recurring
// triggers, fires immediate payloads, schedules deferred ones and cancels
// by id. All scheduling goes through a single gocron scheduler, so every
// payload passes through one place.
type Channel interface {
	// ScheduleRecurring registers a weekly trigger. The handler runs at
	// every occurrence; payloads are composed at fire time, not frozen at
	// registration.
	ScheduleRecurring(id string, day time.Weekday, at commute.TimeOfDay, handler func()) error
	// Cancel removes a trigger by id. Cancelling an unknown id is a no-op.
	Cancel(id string) error
	// FireImmediate delivers a payload right away.
	FireImmediate(ctx context.Context, p Payload) error
	// ScheduleOnce registers a one-shot delivery at p.FireAt.
	ScheduleOnce(id string, p Payload) error
	// Triggers lists registered trigger ids with their next fire time.
	Triggers() []Trigger
}

// Trigger describes one registered activation point.
type Trigger struct {
	ID      string    `json:"id"`
	NextRun time.Time `json:"next_run"`
}

// GocronChannel implements Channel on top of a gocron scheduler and a Sink.
type GocronChannel struct {
	scheduler *gocron.Scheduler
	sink      Sink
}

// NewGocronChannel creates a channel whose triggers fire in the given
// location's wall-clock time.
func NewGocronChannel(sink Sink, loc *time.Location) *GocronChannel {
	if loc == nil {
		loc = time.Local
	}
	return &GocronChannel{
		scheduler: gocron.NewScheduler(loc),
		sink:      sink,
	}
}

// Start begins firing triggers in the background.
func (c *GocronChannel) Start() {
	c.scheduler.StartAsync()
}

// Stop stops the scheduler and drops all pending triggers.
func (c *GocronChannel) Stop() {
	c.scheduler.Stop()
}

func (c *GocronChannel) ScheduleRecurring(id string, day time.Weekday, at commute.TimeOfDay, handler func()) error {
	_, err := c.scheduler.Every(1).Week().Weekday(day).At(at.String()).Tag(id).Do(handler)
	return err
}

func (c *GocronChannel) Cancel(id string) error {
	err := c.scheduler.RemoveByTag(id)
	if err != nil && errors.Is(err, gocron.ErrJobNotFoundWithTag) {
		return nil
	}
	return err
}

func (c *GocronChannel) FireImmediate(ctx context.Context, p Payload) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return c.sink.Send(ctx, p)
}

func (c *GocronChannel) ScheduleOnce(id string, p Payload) error {
	if p.FireAt.IsZero() {
		return errors.New("deferred payload has no fire time")
	}
	_, err := c.scheduler.Every(1).Day().StartAt(p.FireAt).LimitRunsTo(1).Tag(id).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := c.sink.Send(ctx, p); err != nil {
			log.Printf("channel: deferred delivery %s failed: %v", id, err)
		}
		if err := c.scheduler.RemoveByTag(id); err != nil {
			log.Printf("channel: removing finished trigger %s: %v", id, err)
		}
	})
	return err
}

func (c *GocronChannel) Triggers() []Trigger {
	var out []Trigger
	for _, job := range c.scheduler.Jobs() {
		tags := job.Tags()
		if len(tags) == 0 {
			continue
		}
		out = append(out, Trigger{ID: tags[0], NextRun: job.NextRun()})
	}
	return out
}
