package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// ResponseTypeInChannel makes the delayed reply visible to the whole channel
const ResponseTypeInChannel = "in_channel"

// Responder delivers command results to the response URL supplied by the
// original slash-command request. It implements interfaces.Responder.
type Responder struct{}

// NewResponder creates a new Responder
func NewResponder() *Responder {
	return &Responder{}
}

// Respond posts the result text to the callback address. Delivery is
// best-effort here; a failure surfaces as a processor error and the queue's
// redelivery policy retries the whole work item.
func (r *Responder) Respond(ctx context.Context, responseURL, text string) error {
	if responseURL == "" {
		return goerr.New("response URL is required")
	}

	msg := &slack.WebhookMessage{
		ResponseType: ResponseTypeInChannel,
		Text:         text,
	}
	if err := slack.PostWebhookContext(ctx, responseURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post response to Slack", goerr.V("response_url", responseURL))
	}

	return nil
}
