package http_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/kintai-lab/dakoku/pkg/controller/http"
	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// computeSlackSignature computes the Slack signature for testing
func computeSlackSignature(signingSecret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

func TestVerifySlackSignature(t *testing.T) {
	signingSecret := "test-signing-secret"
	body := []byte("user_id=U123&text=in")

	t.Run("valid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		gt.NoError(t, httpctrl.VerifySlackSignature(signingSecret, timestamp, signature, body))
	})

	t.Run("invalid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)

		gt.Error(t, httpctrl.VerifySlackSignature(signingSecret, timestamp, "v0=invalid", body))
	})

	t.Run("wrong secret", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature("another-secret", timestamp, string(body))

		gt.Error(t, httpctrl.VerifySlackSignature(signingSecret, timestamp, signature, body))
	})

	t.Run("timestamp too old", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		gt.Error(t, httpctrl.VerifySlackSignature(signingSecret, timestamp, signature, body))
	})

	t.Run("timestamp from the future", func(t *testing.T) {
		// The window is an absolute difference; future timestamps are
		// rejected too
		timestamp := strconv.FormatInt(time.Now().Add(10*time.Minute).Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		gt.Error(t, httpctrl.VerifySlackSignature(signingSecret, timestamp, signature, body))
	})

	t.Run("within window", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Add(-4*time.Minute).Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		gt.NoError(t, httpctrl.VerifySlackSignature(signingSecret, timestamp, signature, body))
	})

	t.Run("missing timestamp", func(t *testing.T) {
		signature := computeSlackSignature(signingSecret, "123456", string(body))

		gt.Error(t, httpctrl.VerifySlackSignature(signingSecret, "", signature, body))
	})

	t.Run("missing signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)

		gt.Error(t, httpctrl.VerifySlackSignature(signingSecret, timestamp, "", body))
	})

	t.Run("non-numeric timestamp", func(t *testing.T) {
		signature := computeSlackSignature(signingSecret, "not-a-number", string(body))

		gt.Error(t, httpctrl.VerifySlackSignature(signingSecret, "not-a-number", signature, body))
	})
}

type mockQueue struct {
	published  []*model.QueueMessage
	publishErr error
}

func (m *mockQueue) Publish(ctx context.Context, msg *model.QueueMessage) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, msg)
	return nil
}

func (m *mockQueue) Consume(ctx context.Context, handler interfaces.QueueHandler) error {
	return nil
}

func (m *mockQueue) Close() error { return nil }

func slashCommandForm() url.Values {
	return url.Values{
		"token":        {"tok"},
		"team_id":      {"T123"},
		"team_domain":  {"example"},
		"channel_id":   {"C123"},
		"channel_name": {"general"},
		"user_id":      {"U123"},
		"user_name":    {"tanaka"},
		"command":      {"/dakoku"},
		"text":         {"in"},
		"response_url": {"https://hooks.slack.com/commands/T123/42"},
		"trigger_id":   {"trig"},
	}
}

func postSlashCommand(t *testing.T, srv *httpctrl.Server, secret string, form url.Values, sign bool) *httptest.ResponseRecorder {
	t.Helper()

	body := form.Encode()
	req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	if sign {
		req.Header.Set("X-Slack-Signature", computeSlackSignature(secret, timestamp, body))
	} else {
		req.Header.Set("X-Slack-Signature", "v0=bogus")
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestSlashCommandHandler(t *testing.T) {
	const secret = "test-secret"

	t.Run("valid request is enqueued and acknowledged", func(t *testing.T) {
		q := &mockQueue{}
		srv := httpctrl.New(httpctrl.WithSlashCommand(httpctrl.NewSlashCommandHandler(q), secret))

		rec := postSlashCommand(t, srv, secret, slashCommandForm(), true)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, q.published).Length(1).Required()

		cmd := q.published[0].Command
		gt.Value(t, cmd.UserID).Equal("U123")
		gt.Value(t, cmd.UserName).Equal("tanaka")
		gt.Value(t, cmd.Text).Equal("in")
		gt.Value(t, cmd.ResponseURL).Equal("https://hooks.slack.com/commands/T123/42")

		var resp struct {
			ResponseType string `json:"response_type"`
			Text         string `json:"text"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.Value(t, resp.ResponseType).Equal("in_channel")
		gt.Bool(t, strings.Contains(resp.Text, "処理中")).True()
	})

	t.Run("bad signature gets 401 and no enqueue", func(t *testing.T) {
		q := &mockQueue{}
		srv := httpctrl.New(httpctrl.WithSlashCommand(httpctrl.NewSlashCommandHandler(q), secret))

		rec := postSlashCommand(t, srv, secret, slashCommandForm(), false)

		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Array(t, q.published).Length(0)
	})

	t.Run("enqueue failure gets 500", func(t *testing.T) {
		q := &mockQueue{publishErr: goerr.New("broker down")}
		srv := httpctrl.New(httpctrl.WithSlashCommand(httpctrl.NewSlashCommandHandler(q), secret))

		rec := postSlashCommand(t, srv, secret, slashCommandForm(), true)

		gt.Value(t, rec.Code).Equal(http.StatusInternalServerError)
	})

	t.Run("missing form fields default to empty", func(t *testing.T) {
		q := &mockQueue{}
		srv := httpctrl.New(httpctrl.WithSlashCommand(httpctrl.NewSlashCommandHandler(q), secret))

		form := url.Values{"user_id": {"U123"}, "text": {"out"}}
		rec := postSlashCommand(t, srv, secret, form, true)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, q.published).Length(1).Required()
		gt.Value(t, q.published[0].Command.UserName).Equal("")
		gt.Value(t, q.published[0].Command.Text).Equal("out")
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := httpctrl.New()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), "ok")).True()
}
