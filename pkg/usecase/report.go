package usecase

import (
	"context"
	"time"

	"github.com/kintai-lab/dakoku/pkg/service/report"
	"github.com/m-mizutani/goerr/v2"
)

// MonthlyReport queries one user's punches for the month and reconstructs
// the formatted attendance report
func (uc *UseCases) MonthlyReport(ctx context.Context, userID string, year int, month time.Month) (string, error) {
	events, err := uc.repo.QueryPunches(ctx, userID, year, month)
	if err != nil {
		return "", goerr.Wrap(err, "failed to query punch events",
			goerr.V("user_id", userID),
			goerr.V("year", year),
			goerr.V("month", month),
		)
	}

	return report.Generate(year, month, events).Report, nil
}
