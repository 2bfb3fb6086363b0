package queue

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/utils/async"
	"github.com/kintai-lab/dakoku/pkg/utils/logging"
)

// DefaultTopic is the queue topic carrying slash-command work items
const DefaultTopic = "dakoku.command"

// encode serializes a work item into a queue message. The message UUID is
// the work item's idempotency key.
func encode(qm *model.QueueMessage) (*message.Message, error) {
	payload, err := json.Marshal(qm)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal queue message")
	}
	return message.NewMessage(qm.ID(), payload), nil
}

// consume drains the subscription until the context is cancelled. Each
// message is acked on success and nacked on handler failure so the backend
// redelivers it (at-least-once).
func consume(ctx context.Context, sub message.Subscriber, topic string, handler interfaces.QueueHandler) error {
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return goerr.Wrap(err, "failed to subscribe", goerr.V("topic", topic))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			dispatch(ctx, msg, handler)
		}
	}
}

func dispatch(ctx context.Context, msg *message.Message, handler interfaces.QueueHandler) {
	var qm model.QueueMessage
	if err := json.Unmarshal(msg.Payload, &qm); err != nil {
		// Poison message: redelivery cannot fix it, drop with a log
		logging.From(ctx).Error("dropping undecodable queue message",
			"uuid", msg.UUID,
			"error", err.Error(),
		)
		msg.Ack()
		return
	}

	// A panicking handler nacks like any other failure instead of taking
	// down the consumer loop
	err := async.Guard(ctx, func(ctx context.Context) error {
		return handler(ctx, &qm)
	})
	if err != nil {
		logging.From(ctx).Error("queue handler failed, message will be redelivered",
			"uuid", msg.UUID,
			"user_id", qm.Command.UserID,
			"error", err.Error(),
		)
		msg.Nack()
		return
	}

	msg.Ack()
}
