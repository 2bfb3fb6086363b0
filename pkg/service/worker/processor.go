package worker

import (
	"context"
	"errors"

	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/usecase"
	"github.com/kintai-lab/dakoku/pkg/utils/logging"
)

// CommandProcessor dequeues work items and executes them. Each item is
// processed independently; there is no shared mutable state between
// invocations.
//
// Delivery is at-least-once and unordered. Record creation is not
// idempotent against the persistence backend, so a redelivered item can
// create a duplicate punch; duplicates are visually detectable in reports
// and the enqueue hop deduplicates by idempotency key.
type CommandProcessor struct {
	queue  interfaces.Queue
	uc     *usecase.UseCases
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewCommandProcessor creates a new processor consuming from the queue
func NewCommandProcessor(queue interfaces.Queue, uc *usecase.UseCases) *CommandProcessor {
	return &CommandProcessor{
		queue:  queue,
		uc:     uc,
		doneCh: make(chan struct{}),
	}
}

// Start begins consuming in a background goroutine. It does not block.
func (p *CommandProcessor) Start(ctx context.Context) error {
	logging.From(ctx).Info("command processor starting")

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go p.run(runCtx)

	return nil
}

// Stop signals the processor to stop and waits for completion
func (p *CommandProcessor) Stop() {
	logging.Default().Info("command processor stopping")
	if p.cancel != nil {
		p.cancel()
	}
	<-p.doneCh
	logging.Default().Info("command processor stopped")
}

// Run consumes until the context is cancelled. It blocks; use Start for
// the background variant.
func (p *CommandProcessor) Run(ctx context.Context) error {
	err := p.queue.Consume(ctx, p.handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (p *CommandProcessor) run(ctx context.Context) {
	defer close(p.doneCh)

	if err := p.Run(ctx); err != nil {
		logging.From(ctx).Error("command processor terminated", "error", err.Error())
	}
}

func (p *CommandProcessor) handle(ctx context.Context, msg *model.QueueMessage) error {
	logging.From(ctx).Info("dequeued command",
		"key", msg.ID(),
		"user_id", msg.Command.UserID,
	)
	return p.uc.HandleCommand(ctx, &msg.Command)
}
