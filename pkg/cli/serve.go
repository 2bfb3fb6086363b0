package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kintai-lab/dakoku/pkg/cli/config"
	httpctrl "github.com/kintai-lab/dakoku/pkg/controller/http"
	slacksvc "github.com/kintai-lab/dakoku/pkg/service/slack"
	"github.com/kintai-lab/dakoku/pkg/service/worker"
	"github.com/kintai-lab/dakoku/pkg/usecase"
	"github.com/kintai-lab/dakoku/pkg/utils/async"
	"github.com/kintai-lab/dakoku/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var slackCfg config.Slack
	var notionCfg config.Notion
	var queueCfg config.Queue

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("DAKOKU_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, notionCfg.Flags()...)
	flags = append(flags, queueCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the ingestion gateway",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := slackCfg.Validate(); err != nil {
				return goerr.Wrap(err, "invalid slack configuration")
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

			// With the in-process queue there is no separate processor
			// deployment; the gateway consumes its own queue
			var processor *worker.CommandProcessor
			if queueCfg.IsMemory() {
				repo, err := notionCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to initialize repository")
				}

				uc := usecase.New(repo, slacksvc.NewResponder())
				processor = worker.NewCommandProcessor(q, uc)
				if err := processor.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start command processor")
				}
			}

			handler := httpctrl.New(
				httpctrl.WithSlashCommand(
					httpctrl.NewSlashCommandHandler(q),
					slackCfg.SigningSecret(),
				),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			async.Dispatch(ctx, func(ctx context.Context) error {
				logging.Default().Info("Starting HTTP server", "addr", addr, "queue", queueCfg)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
				return nil
			})

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if processor != nil {
					processor.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
