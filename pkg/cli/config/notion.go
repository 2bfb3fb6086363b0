package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/service/notion"
)

// Notion holds CLI flags for the persistence backend
type Notion struct {
	apiToken   string
	databaseID string
}

// Flags returns CLI flags for Notion configuration
func (x *Notion) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token",
			Category:    "Notion",
			Sources:     cli.EnvVars("DAKOKU_NOTION_API_TOKEN"),
			Destination: &x.apiToken,
		},
		&cli.StringFlag{
			Name:        "notion-database-id",
			Usage:       "Notion database ID of the attendance table",
			Category:    "Notion",
			Sources:     cli.EnvVars("DAKOKU_NOTION_DATABASE_ID"),
			Destination: &x.databaseID,
		},
	}
}

// Configure creates the attendance repository backed by the configured
// Notion database
func (x *Notion) Configure() (interfaces.Repository, error) {
	if x.apiToken == "" {
		return nil, goerr.New("notion-api-token is required")
	}
	if x.databaseID == "" {
		return nil, goerr.New("notion-database-id is required")
	}

	client, err := notion.New(x.apiToken, x.databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize notion client")
	}
	return client, nil
}

func (x Notion) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("api-token.len", len(x.apiToken)),
		slog.String("database-id", x.databaseID),
	)
}
