package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/domain/types"
	"github.com/kintai-lab/dakoku/pkg/utils/logging"
)

// Property names of the attendance database
const (
	propUserID    = "ユーザーID"
	propUserName  = "ユーザー名"
	propAction    = "アクション"
	propTimestamp = "タイムスタンプ"
	propDate      = "日付"
)

// Client translates attendance records into Notion pages and query results
// back into punch events. It implements interfaces.Repository.
type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
}

// New creates a new Notion client for the given database
func New(token, databaseID string) (*Client, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}
	if databaseID == "" {
		return nil, goerr.New("Notion database ID is required")
	}

	return &Client{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // Retry up to 3 times on rate limit (HTTP 429)
		),
		databaseID: notionapi.DatabaseID(databaseID),
	}, nil
}

// CreateRecord persists one punch event as a new page in the database
func (c *Client) CreateRecord(ctx context.Context, record *model.AttendanceRecord) error {
	if err := record.Validate(); err != nil {
		return goerr.Wrap(err, "invalid attendance record")
	}

	if _, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: buildProperties(record),
	}); err != nil {
		return goerr.Wrap(err, "failed to create attendance page",
			goerr.V("user_id", record.UserID),
			goerr.V("action", record.Action),
		)
	}

	return nil
}

// QueryPunches returns all punch events for one user and month. The filter
// and the ascending timestamp sort are delegated to the database query; the
// client only builds the filter expression and decodes the response shape.
func (c *Client) QueryPunches(ctx context.Context, userID string, year int, month time.Month) ([]model.PunchEvent, error) {
	monthKey := time.Date(year, month, 1, 0, 0, 0, 0, types.JST).Format(types.MonthFormat)

	var events []model.PunchEvent
	var cursor notionapi.Cursor

	for {
		resp, err := c.api.Database.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
			Filter: notionapi.AndCompoundFilter{
				notionapi.PropertyFilter{
					Property: propUserID,
					RichText: &notionapi.TextFilterCondition{Equals: userID},
				},
				notionapi.PropertyFilter{
					Property: propDate,
					RichText: &notionapi.TextFilterCondition{Contains: monthKey},
				},
			},
			Sorts: []notionapi.SortObject{
				{Property: propTimestamp, Direction: notionapi.SortOrderASC},
			},
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query attendance database",
				goerr.V("user_id", userID),
				goerr.V("month", monthKey),
			)
		}

		if resp.Results == nil {
			return nil, goerr.New("no results in query response",
				goerr.V("user_id", userID),
				goerr.V("month", monthKey),
			)
		}

		for _, page := range resp.Results {
			event, err := decodePage(&page)
			if err != nil {
				// Degraded report over hard failure: skip this result
				logging.From(ctx).Warn("skipping malformed attendance page",
					"page_id", page.ID.String(),
					"error", err.Error(),
				)
				continue
			}
			events = append(events, *event)
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return events, nil
}

// buildProperties maps a record onto the database's page property schema
func buildProperties(record *model.AttendanceRecord) notionapi.Properties {
	start := notionapi.Date(record.Timestamp)

	return notionapi.Properties{
		propUserID: &notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: record.UserID}}},
		},
		propUserName: &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: record.UserName}}},
		},
		propAction: &notionapi.SelectProperty{
			Select: notionapi.Option{Name: record.Action.Label()},
		},
		propTimestamp: &notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start},
		},
		propDate: &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: record.Date}}},
		},
	}
}

// decodePage extracts the (date, timestamp, action) tuple from one page
func decodePage(page *notionapi.Page) (*model.PunchEvent, error) {
	dateProp, ok := page.Properties[propDate].(*notionapi.RichTextProperty)
	if !ok {
		return nil, goerr.New("missing date property")
	}
	date := richTextValue(dateProp.RichText)
	if date == "" {
		return nil, goerr.New("empty date property")
	}

	tsProp, ok := page.Properties[propTimestamp].(*notionapi.DateProperty)
	if !ok || tsProp.Date == nil || tsProp.Date.Start == nil {
		return nil, goerr.New("missing timestamp property", goerr.V("date", date))
	}
	ts := time.Time(*tsProp.Date.Start)

	actionProp, ok := page.Properties[propAction].(*notionapi.SelectProperty)
	if !ok {
		return nil, goerr.New("missing action property", goerr.V("date", date))
	}
	action, ok := types.ActionFromLabel(actionProp.Select.Name)
	if !ok {
		return nil, goerr.New("unknown action label",
			goerr.V("date", date),
			goerr.V("label", actionProp.Select.Name),
		)
	}

	return &model.PunchEvent{
		Date:      date,
		Timestamp: ts,
		Action:    action,
	}, nil
}

// richTextValue concatenates the plain text of a rich text array. Pages
// returned by the API carry PlainText; locally built properties carry only
// Text.Content.
func richTextValue(richText []notionapi.RichText) string {
	var out string
	for _, rt := range richText {
		if rt.PlainText != "" {
			out += rt.PlainText
		} else if rt.Text != nil {
			out += rt.Text.Content
		}
	}
	return out
}
