package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/m-mizutani/goerr/v2"
	natsgo "github.com/nats-io/nats.go"

	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/domain/model"
)

// NATSConfig holds the JetStream connection settings
type NATSConfig struct {
	URL            string
	Topic          string
	DurableName    string
	QueueGroup     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

func (c *NATSConfig) setDefaults() {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.DurableName == "" {
		c.DurableName = "dakoku-processor"
	}
	if c.QueueGroup == "" {
		c.QueueGroup = "dakoku"
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.AckWaitTimeout == 0 {
		c.AckWaitTimeout = 30 * time.Second
	}
	if c.MaxDeliver == 0 {
		c.MaxDeliver = 5
	}
}

// NATS is a durable JetStream queue. Publishing tracks message IDs so the
// broker deduplicates retried enqueues of the same work item; consumption
// is at-least-once via a durable consumer.
type NATS struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
}

// NewNATS connects to the JetStream broker with the given settings
func NewNATS(cfg NATSConfig, logger *slog.Logger) (*NATS, error) {
	if cfg.URL == "" {
		return nil, goerr.New("NATS URL is required")
	}
	cfg.setDefaults()

	wmLogger := watermill.NewSlogLogger(logger)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				wmLogger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			wmLogger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true, // Deduplicate retried enqueues by message ID
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, wmLogger)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create NATS publisher", goerr.V("url", cfg.URL))
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			AckAsync:      false,
			DurablePrefix: cfg.DurableName,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(cfg.MaxDeliver),
				natsgo.AckWait(cfg.AckWaitTimeout),
			},
		},
	}, wmLogger)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create NATS subscriber", goerr.V("url", cfg.URL))
	}

	return &NATS{
		publisher:  pub,
		subscriber: sub,
		topic:      cfg.Topic,
	}, nil
}

// Publish enqueues one work item. The idempotency key doubles as the
// Nats-Msg-Id for broker-side deduplication.
func (n *NATS) Publish(ctx context.Context, qm *model.QueueMessage) error {
	msg, err := encode(qm)
	if err != nil {
		return err
	}
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	if err := n.publisher.Publish(n.topic, msg); err != nil {
		return goerr.Wrap(err, "failed to publish to NATS", goerr.V("uuid", msg.UUID))
	}
	return nil
}

// Consume delivers work items to the handler until the context is cancelled
func (n *NATS) Consume(ctx context.Context, handler interfaces.QueueHandler) error {
	return consume(ctx, n.subscriber, n.topic, handler)
}

// Close shuts down both connections
func (n *NATS) Close() error {
	return errors.Join(n.publisher.Close(), n.subscriber.Close())
}
