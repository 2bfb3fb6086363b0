package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kintai-lab/dakoku/pkg/cli/config"
	slacksvc "github.com/kintai-lab/dakoku/pkg/service/slack"
	"github.com/kintai-lab/dakoku/pkg/service/worker"
	"github.com/kintai-lab/dakoku/pkg/usecase"
	"github.com/kintai-lab/dakoku/pkg/utils/logging"
)

func cmdProcess() *cli.Command {
	var notionCfg config.Notion
	var queueCfg config.Queue

	var flags []cli.Flag
	flags = append(flags, notionCfg.Flags()...)
	flags = append(flags, queueCfg.Flags()...)

	return &cli.Command{
		Name:    "process",
		Aliases: []string{"p"},
		Usage:   "Start the command processor",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := notionCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}

			q, err := queueCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize queue")
			}
			defer func() {
				if err := q.Close(); err != nil {
					logging.Default().Error("failed to close queue", "error", err.Error())
				}
			}()

			uc := usecase.New(repo, slacksvc.NewResponder())
			processor := worker.NewCommandProcessor(q, uc)

			runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logging.Default().Info("Starting command processor", "queue", queueCfg)
			return processor.Run(runCtx)
		},
	}
}
