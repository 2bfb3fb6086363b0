package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the inbound webhook
type Slack struct {
	signingSecret string
}

// Flags returns CLI flags for Slack configuration
func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Sources:     cli.EnvVars("DAKOKU_SLACK_SIGNING_SECRET"),
			Destination: &x.signingSecret,
		},
	}
}

// Validate checks that the webhook can be verified
func (x *Slack) Validate() error {
	if x.signingSecret == "" {
		return goerr.New("slack-signing-secret is required")
	}
	return nil
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("signing-secret.len", len(x.signingSecret)),
	)
}
