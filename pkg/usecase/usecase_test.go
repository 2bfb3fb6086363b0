package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/domain/types"
	"github.com/kintai-lab/dakoku/pkg/usecase"
)

type mockRepository struct {
	records   []*model.AttendanceRecord
	createErr error
	punches   []model.PunchEvent
	queryErr  error

	queriedUserID string
	queriedYear   int
	queriedMonth  time.Month
}

func (m *mockRepository) CreateRecord(ctx context.Context, record *model.AttendanceRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockRepository) QueryPunches(ctx context.Context, userID string, year int, month time.Month) ([]model.PunchEvent, error) {
	m.queriedUserID = userID
	m.queriedYear = year
	m.queriedMonth = month
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.punches, nil
}

type mockResponder struct {
	responses  []string
	urls       []string
	respondErr error
}

func (m *mockResponder) Respond(ctx context.Context, responseURL, text string) error {
	if m.respondErr != nil {
		return m.respondErr
	}
	m.urls = append(m.urls, responseURL)
	m.responses = append(m.responses, text)
	return nil
}

func fixedClock(value string) func() time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", value, types.JST)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func testCommand(text string) *model.Command {
	return &model.Command{
		UserID:      "U123",
		UserName:    "tanaka",
		Text:        text,
		ResponseURL: "https://hooks.slack.com/commands/T123/42",
	}
}

func TestHandleCommand_RecordAttendance(t *testing.T) {
	repo := &mockRepository{}
	responder := &mockResponder{}
	uc := usecase.New(repo, responder, usecase.WithClock(fixedClock("2026-08-15 09:00:00")))

	gt.NoError(t, uc.HandleCommand(context.Background(), testCommand("in")))

	gt.Array(t, repo.records).Length(1).Required()
	record := repo.records[0]
	gt.Value(t, record.UserID).Equal("U123")
	gt.Value(t, record.Action).Equal(types.ActionClockIn)
	gt.Value(t, record.Date).Equal("2026-08-15")

	gt.Array(t, responder.responses).Length(1).Required()
	gt.Value(t, responder.responses[0]).Equal("tanaka さんが 出勤 しました (2026-08-15 09:00:00)")
	gt.Value(t, responder.urls[0]).Equal("https://hooks.slack.com/commands/T123/42")
}

func TestHandleCommand_ActionVerbs(t *testing.T) {
	cases := map[string]struct {
		text string
		verb string
	}{
		"clock in":    {text: "in", verb: "出勤"},
		"break start": {text: "break", verb: "休憩開始"},
		"break end":   {text: "back", verb: "休憩終了"},
		"clock out":   {text: "out", verb: "退勤"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &mockRepository{}
			responder := &mockResponder{}
			uc := usecase.New(repo, responder, usecase.WithClock(fixedClock("2026-08-15 09:00:00")))

			gt.NoError(t, uc.HandleCommand(context.Background(), testCommand(tc.text)))

			gt.Array(t, responder.responses).Length(1).Required()
			gt.Bool(t, strings.Contains(responder.responses[0], tc.verb)).True()
		})
	}
}

func TestHandleCommand_UnknownAction(t *testing.T) {
	repo := &mockRepository{}
	responder := &mockResponder{}
	uc := usecase.New(repo, responder)

	// A command the user got wrong is still handled successfully: the reply
	// carries the explanation and nothing is persisted
	gt.NoError(t, uc.HandleCommand(context.Background(), testCommand("lunch")))

	gt.Array(t, repo.records).Length(0)
	gt.Array(t, responder.responses).Length(1).Required()
	gt.Value(t, responder.responses[0]).Equal("Unknown action: lunch. Use: in, break, back, or out")
}

func TestHandleCommand_WhitespaceAndCase(t *testing.T) {
	repo := &mockRepository{}
	responder := &mockResponder{}
	uc := usecase.New(repo, responder, usecase.WithClock(fixedClock("2026-08-15 09:00:00")))

	gt.NoError(t, uc.HandleCommand(context.Background(), testCommand("  IN  ")))

	gt.Array(t, repo.records).Length(1).Required()
	gt.Value(t, repo.records[0].Action).Equal(types.ActionClockIn)
}

func TestHandleCommand_Report(t *testing.T) {
	punch := func(value string, action types.AttendanceAction) model.PunchEvent {
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", value, types.JST)
		if err != nil {
			panic(err)
		}
		return model.PunchEvent{
			Date:      ts.Format(types.DateFormat),
			Timestamp: ts,
			Action:    action,
		}
	}

	repo := &mockRepository{
		punches: []model.PunchEvent{
			punch("2026-08-03 09:00:00", types.ActionClockIn),
			punch("2026-08-03 18:00:00", types.ActionClockOut),
		},
	}
	responder := &mockResponder{}
	uc := usecase.New(repo, responder, usecase.WithClock(fixedClock("2026-08-15 12:00:00")))

	gt.NoError(t, uc.HandleCommand(context.Background(), testCommand("report")))

	// The month comes from the processing-time clock
	gt.Value(t, repo.queriedUserID).Equal("U123")
	gt.Value(t, repo.queriedYear).Equal(2026)
	gt.Value(t, repo.queriedMonth).Equal(time.August)

	gt.Array(t, responder.responses).Length(1).Required()
	reply := responder.responses[0]
	gt.Bool(t, strings.HasPrefix(reply, "tanaka さんの月次レポート:\n")).True()
	gt.Bool(t, strings.Contains(reply, "2026年8月の勤怠レポート")).True()
	gt.Bool(t, strings.Contains(reply, "2026-08-03")).True()
}

func TestHandleCommand_ReportKeywordTrimmed(t *testing.T) {
	repo := &mockRepository{}
	responder := &mockResponder{}
	uc := usecase.New(repo, responder, usecase.WithClock(fixedClock("2026-08-15 12:00:00")))

	gt.NoError(t, uc.HandleCommand(context.Background(), testCommand(" report ")))

	gt.Value(t, repo.queriedUserID).Equal("U123")
	gt.Array(t, responder.responses).Length(1).Required()
	gt.Bool(t, strings.Contains(responder.responses[0], "勤務記録がありません")).True()
}

func TestHandleCommand_RepositoryError(t *testing.T) {
	repo := &mockRepository{createErr: goerr.New("backend unavailable")}
	responder := &mockResponder{}
	uc := usecase.New(repo, responder)

	// Infrastructure failures propagate so the queue can redeliver
	gt.Error(t, uc.HandleCommand(context.Background(), testCommand("in")))
	gt.Array(t, responder.responses).Length(0)
}

func TestHandleCommand_QueryError(t *testing.T) {
	repo := &mockRepository{queryErr: goerr.New("backend unavailable")}
	responder := &mockResponder{}
	uc := usecase.New(repo, responder)

	gt.Error(t, uc.HandleCommand(context.Background(), testCommand("report")))
	gt.Array(t, responder.responses).Length(0)
}

func TestHandleCommand_ResponderError(t *testing.T) {
	repo := &mockRepository{}
	responder := &mockResponder{respondErr: goerr.New("webhook gone")}
	uc := usecase.New(repo, responder, usecase.WithClock(fixedClock("2026-08-15 09:00:00")))

	gt.Error(t, uc.HandleCommand(context.Background(), testCommand("in")))
}
