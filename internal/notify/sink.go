package notify

import (
	"context"
	"log"
)

// LogSink writes payloads to the process log. Used when no Slack
// credentials are configured, and handy during development.
type LogSink struct{}

func (LogSink) Send(_ context.Context, p Payload) error {
	log.Printf("notify: [%s] %s: %s", p.Tone, p.Title, p.Body)
	return nil
}
