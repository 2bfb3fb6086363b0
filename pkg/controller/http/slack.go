package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/kintai-lab/dakoku/pkg/domain/interfaces"
	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/utils/errutil"
	"github.com/kintai-lab/dakoku/pkg/utils/logging"
	"github.com/kintai-lab/dakoku/pkg/utils/safe"
)

// maxTimestampSkew bounds replay-attack exposure. The absolute difference
// matters: a timestamp from the future is as suspect as a stale one.
const maxTimestampSkew = 300 * time.Second

// verifySlackSignature verifies the Slack request signature.
// This is a pure function that can be used independently for testing.
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	skew := now - ts
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > maxTimestampSkew {
		return goerr.New("timestamp outside allowed window", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison to avoid a timing side channel
	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request
// signatures. Verification happens before any other processing; a failure
// returns 401 and nothing is enqueued.
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer func() {
				if err := r.Body.Close(); err != nil {
					logging.From(ctx).Error("failed to close request body", "error", err)
				}
			}()

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Restore the body for the next handler
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			next.ServeHTTP(w, r)
		})
	}
}

// ackText is the immediate acknowledgement; the real result arrives later
// via the response URL
const ackText = "コマンドを受け付けました。処理中です... ⏳"

type slashResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// SlashCommandHandler handles slash-command webhook requests. It enqueues
// exactly one work item per authenticated request and acknowledges
// immediately: Slack enforces a hard response-time ceiling that a
// synchronous round-trip to the persistence backend could exceed.
type SlashCommandHandler struct {
	queue interfaces.Queue
}

// NewSlashCommandHandler creates a new slash-command handler
func NewSlashCommandHandler(queue interfaces.Queue) *SlashCommandHandler {
	return &SlashCommandHandler{queue: queue}
}

// ServeHTTP handles one slash-command request (already signature-verified
// by the middleware)
func (h *SlashCommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Missing form fields default to empty strings; semantic validation is
	// the processor's job
	sc, err := slack.SlashCommandParse(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
		return
	}

	qm := &model.QueueMessage{
		Command: model.Command{
			Token:       sc.Token,
			TeamID:      sc.TeamID,
			TeamDomain:  sc.TeamDomain,
			ChannelID:   sc.ChannelID,
			ChannelName: sc.ChannelName,
			UserID:      sc.UserID,
			UserName:    sc.UserName,
			Command:     sc.Command,
			Text:        sc.Text,
			ResponseURL: sc.ResponseURL,
			TriggerID:   sc.TriggerID,
		},
		Timestamp: r.Header.Get("X-Slack-Request-Timestamp"),
	}

	if err := h.queue.Publish(ctx, qm); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to enqueue command"), http.StatusInternalServerError)
		return
	}

	logging.From(ctx).Info("command enqueued",
		"key", qm.ID(),
		"user_id", qm.Command.UserID,
	)

	data, err := json.Marshal(slashResponse{
		ResponseType: "in_channel",
		Text:         ackText,
	})
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal acknowledgement"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(ctx, w, data)
}
