package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// toneColors maps payload tones to Slack attachment colors.
var toneColors = map[Tone]string{
	ToneOK:      "#2eb886",
	ToneWarning: "#daa038",
	ToneError:   "#a30200",
}

// SlackSink delivers payloads as Slack messages to a single channel.
type SlackSink struct {
	client    *slack.Client
	channelID string
}

// NewSlackSink creates a sink posting to the given channel.
func NewSlackSink(token, channelID string) *SlackSink {
	return &SlackSink{
		client:    slack.New(token),
		channelID: channelID,
	}
}

func (s *SlackSink) Send(ctx context.Context, p Payload) error {
	attachment := slack.Attachment{
		Color: toneColors[p.Tone],
		Title: p.Title,
		Text:  p.Body,
	}

	_, _, err := s.client.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionAttachments(attachment),
		slack.MsgOptionAsUser(false),
	)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	return nil
}
