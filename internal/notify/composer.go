package notify

import (
	"fmt"
	"time"

	"github.com/avritt/raincheck/internal/commute"
)

// reminderDelay is how long after composition the follow-up reminder fires.
const reminderDelay = 10 * time.Minute

// Composer maps a check result or failure to notification payloads. It is
// a pure mapping: no I/O, deterministic given its inputs and now.
type Composer struct{}

// Compose builds the notification sequence for one dispatch, immediate
// payload first.
//
//   - enabled=false suppresses everything (the global kill-switch; manual
//     checks still return their result over the API).
//   - A failure yields exactly one error payload and no reminder.
//   - A result yields one immediate payload keyed off WillRain plus one
//     reminder deferred by ten minutes, with different copy for the rain
//     and no-rain cases.
//
// Calling Compose twice produces two independent pairs; deduplication is
// the planner's job, one dispatch per eligible window per cycle.
func (Composer) Compose(result *commute.CheckResult, failure *commute.Failure, label commute.Label, now time.Time, enabled bool) []Payload {
	if !enabled {
		return nil
	}

	if failure != nil {
		return []Payload{{
			Title: fmt.Sprintf("Commute check failed (%s)", label),
			Body:  failure.Message,
			Tone:  ToneError,
		}}
	}
	if result == nil {
		return nil
	}

	if result.WillRain {
		return []Payload{
			{
				Title: fmt.Sprintf("🌧️ Rain expected on your %s commute", label),
				Body:  result.Condition,
				Tone:  ToneWarning,
				Sound: true,
			},
			{
				Title:  fmt.Sprintf("Reminder: rain on your %s commute", label),
				Body:   "Don't forget your rain gear before you leave.",
				Tone:   ToneWarning,
				FireAt: now.Add(reminderDelay),
			},
		}
	}

	return []Payload{
		{
			Title: fmt.Sprintf("☀️ No rain expected on your %s commute", label),
			Body:  result.Condition,
			Tone:  ToneOK,
		},
		{
			Title:  fmt.Sprintf("Reminder: %s commute coming up", label),
			Body:   "Clear skies ahead. Have a great ride!",
			Tone:   ToneOK,
			FireAt: now.Add(reminderDelay),
		},
	}
}
