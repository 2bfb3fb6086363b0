package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/service/queue"
	"github.com/kintai-lab/dakoku/pkg/utils/logging"
)

// Queue holds CLI flags for the queue backend
type Queue struct {
	backend     string
	natsURL     string
	topic       string
	durableName string
}

// Flags returns CLI flags for queue configuration
func (x *Queue) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "queue-backend",
			Usage:       "Queue backend type (nats or memory)",
			Category:    "Queue",
			Value:       "nats",
			Sources:     cli.EnvVars("DAKOKU_QUEUE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "nats-url",
			Usage:       "NATS server URL (required when using nats backend)",
			Category:    "Queue",
			Sources:     cli.EnvVars("DAKOKU_NATS_URL"),
			Destination: &x.natsURL,
		},
		&cli.StringFlag{
			Name:        "queue-topic",
			Usage:       "Queue topic for command work items",
			Category:    "Queue",
			Value:       queue.DefaultTopic,
			Sources:     cli.EnvVars("DAKOKU_QUEUE_TOPIC"),
			Destination: &x.topic,
		},
		&cli.StringFlag{
			Name:        "queue-durable-name",
			Usage:       "Durable consumer name for the JetStream subscription",
			Category:    "Queue",
			Value:       "dakoku-processor",
			Sources:     cli.EnvVars("DAKOKU_QUEUE_DURABLE_NAME"),
			Destination: &x.durableName,
		},
	}
}

// IsMemory reports whether the in-process backend is selected. In that
// mode the gateway runs the command processor itself.
func (x *Queue) IsMemory() bool {
	return x.backend == "memory"
}

// Configure initializes the queue based on the configured backend.
// The caller is responsible for calling Close() on the returned queue.
func (x *Queue) Configure() (interfaces.Queue, error) {
	switch x.backend {
	case "nats":
		if x.natsURL == "" {
			return nil, goerr.New("nats-url is required when using nats backend")
		}
		q, err := queue.NewNATS(queue.NATSConfig{
			URL:         x.natsURL,
			Topic:       x.topic,
			DurableName: x.durableName,
		}, logging.Default())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize NATS queue")
		}
		logging.Default().Info("Using NATS queue", "url", x.natsURL, "topic", x.topic)
		return q, nil

	case "memory":
		logging.Default().Info("Using in-memory queue (single binary mode)")
		return queue.NewMemory(logging.Default()), nil

	default:
		return nil, goerr.New("invalid queue backend", goerr.V("backend", x.backend))
	}
}

func (x Queue) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("nats-url", x.natsURL),
		slog.String("topic", x.topic),
	)
}
