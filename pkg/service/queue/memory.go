package queue

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/domain/model"
)

// Memory is an in-process queue for development and single-binary mode.
// The gateway and the processor share one instance; delivery survives only
// as long as the process does.
type Memory struct {
	bus   *gochannel.GoChannel
	topic string
}

// NewMemory creates a new in-process queue
func NewMemory(logger *slog.Logger) *Memory {
	return &Memory{
		bus: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, watermill.NewSlogLogger(logger)),
		topic: DefaultTopic,
	}
}

// Publish enqueues one work item
func (m *Memory) Publish(ctx context.Context, qm *model.QueueMessage) error {
	msg, err := encode(qm)
	if err != nil {
		return err
	}
	if err := m.bus.Publish(m.topic, msg); err != nil {
		return goerr.Wrap(err, "failed to publish to memory queue", goerr.V("uuid", msg.UUID))
	}
	return nil
}

// Consume delivers work items to the handler until the context is cancelled
func (m *Memory) Consume(ctx context.Context, handler interfaces.QueueHandler) error {
	return consume(ctx, m.bus, m.topic, handler)
}

// Close shuts down the queue
func (m *Memory) Close() error {
	return m.bus.Close()
}
