package interfaces

import (
	"context"
	"time"

	"github.com/kintai-lab/dakoku/pkg/domain/model"
)

// Repository is the attendance event store. The backend is the sole source
// of truth; this system only appends records and reads them back per month.
type Repository interface {
	// CreateRecord persists one punch event as a new page
	CreateRecord(ctx context.Context, record *model.AttendanceRecord) error

	// QueryPunches returns all punch events for one user and month, sorted
	// ascending by timestamp. Malformed individual results are skipped.
	QueryPunches(ctx context.Context, userID string, year int, month time.Month) ([]model.PunchEvent, error)
}

// QueueHandler processes one dequeued work item. A returned error triggers
// the queue's redelivery policy (at-least-once).
type QueueHandler func(ctx context.Context, msg *model.QueueMessage) error

// Queue is the durable hand-off between the ingestion gateway and the
// command processor. Delivery is at-least-once and unordered.
type Queue interface {
	// Publish enqueues exactly one work item
	Publish(ctx context.Context, msg *model.QueueMessage) error

	// Consume delivers work items to the handler until the context is
	// cancelled or the subscription closes
	Consume(ctx context.Context, handler QueueHandler) error

	Close() error
}

// Responder delivers the final result of a command back to the caller via
// the callback URL supplied in the original request
type Responder interface {
	Respond(ctx context.Context, responseURL, text string) error
}
