package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kintai-lab/dakoku/pkg/cli/config"
	"github.com/kintai-lab/dakoku/pkg/domain/types"
	"github.com/kintai-lab/dakoku/pkg/usecase"
	"github.com/kintai-lab/dakoku/pkg/utils/safe"
)

func cmdReport() *cli.Command {
	var userID string
	var year, month int64
	var notionCfg config.Notion

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Usage:       "Slack user ID to report on",
			Required:    true,
			Destination: &userID,
		},
		&cli.Int64Flag{
			Name:        "year",
			Usage:       "Report year (defaults to the current year in JST)",
			Destination: &year,
		},
		&cli.Int64Flag{
			Name:        "month",
			Usage:       "Report month 1-12 (defaults to the current month in JST)",
			Destination: &month,
		},
	}
	flags = append(flags, notionCfg.Flags()...)

	return &cli.Command{
		Name:  "report",
		Usage: "Print the monthly attendance report for one user",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := notionCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}

			now := time.Now().In(types.JST)
			if year == 0 {
				year = int64(now.Year())
			}
			if month == 0 {
				month = int64(now.Month())
			}
			if month < 1 || month > 12 {
				return goerr.New("month must be between 1 and 12", goerr.V("month", month))
			}

			uc := usecase.New(repo, nil)
			report, err := uc.MonthlyReport(ctx, userID, int(year), time.Month(month))
			if err != nil {
				return goerr.Wrap(err, "failed to build monthly report")
			}

			safe.Write(ctx, os.Stdout, []byte(report+"\n"))
			return nil
		},
	}
}
