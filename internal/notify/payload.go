package notify

import "time"

// Tone is the styling of a notification: confirmation, warning or error.
type Tone string

const (
	ToneOK      Tone = "ok"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// Payload is a fully composed notification ready for delivery. A zero
// FireAt means "deliver immediately"; a future FireAt marks the deferred
// reminder half of a check's notification pair.
type Payload struct {
	Title  string
	Body   string
	Tone   Tone
	Sound  bool
	FireAt time.Time
}

// Deferred reports whether the payload carries a future fire time.
func (p Payload) Deferred() bool {
	return !p.FireAt.IsZero()
}
