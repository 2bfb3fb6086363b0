package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/domain/types"
	"github.com/kintai-lab/dakoku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// reportKeyword switches a slash command from recording to reporting.
// Matched exactly (case-sensitive) after trimming.
const reportKeyword = "report"

type UseCases struct {
	repo      interfaces.Repository
	responder interfaces.Responder
	now       func() time.Time
}

type Option func(*UseCases)

// WithClock replaces the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, responder interfaces.Responder, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		responder: responder,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// HandleCommand executes one queued work item and delivers the result to
// the command's callback address. A command the user got wrong (unknown
// action keyword) is still a successful execution: the parse error text is
// the reply. Only infrastructure failures return an error, which triggers
// the queue's redelivery policy.
func (uc *UseCases) HandleCommand(ctx context.Context, cmd *model.Command) error {
	logging.From(ctx).Info("processing command",
		"user_id", cmd.UserID,
		"text", cmd.Text,
	)

	var result string

	if strings.TrimSpace(cmd.Text) == reportKeyword {
		// Reporting month is evaluated at processing time, in JST like
		// everything else
		now := uc.now().In(types.JST)
		report, err := uc.MonthlyReport(ctx, cmd.UserID, now.Year(), now.Month())
		if err != nil {
			return goerr.Wrap(err, "failed to build monthly report", goerr.V("user_id", cmd.UserID))
		}
		result = cmd.UserName + " さんの月次レポート:\n" + report
	} else {
		action, err := types.ParseAttendanceAction(cmd.Text)
		if err != nil {
			// User error, not a system fault: reply with the parse error
			result = err.Error()
		} else {
			confirmation, err := uc.RecordAttendance(ctx, cmd, action)
			if err != nil {
				return goerr.Wrap(err, "failed to record attendance",
					goerr.V("user_id", cmd.UserID),
					goerr.V("action", action),
				)
			}
			result = confirmation
		}
	}

	if err := uc.responder.Respond(ctx, cmd.ResponseURL, result); err != nil {
		return goerr.Wrap(err, "failed to deliver result", goerr.V("user_id", cmd.UserID))
	}

	return nil
}
