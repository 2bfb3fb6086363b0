package model

import (
	"github.com/google/uuid"
)

// Command is one inbound slash-command request. It is immutable once
// received and is serialized verbatim into the queue payload so that the
// processor can run independently of the ingestion request's lifetime.
type Command struct {
	Token       string `json:"token"`
	TeamID      string `json:"team_id"`
	TeamDomain  string `json:"team_domain"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Command     string `json:"command"`
	Text        string `json:"text"`
	ResponseURL string `json:"response_url"`
	TriggerID   string `json:"trigger_id"`
}

// QueueMessage is the work item handed from the ingestion gateway to the
// command processor. Timestamp is the raw request timestamp header.
type QueueMessage struct {
	Command   Command `json:"command"`
	Timestamp string  `json:"timestamp"`
}

// ID derives a deterministic idempotency key from the user and the request
// timestamp. A retried enqueue of the same request produces the same key,
// letting the queue backend deduplicate redeliveries.
func (m *QueueMessage) ID() string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(m.Command.UserID+"/"+m.Timestamp)).String()
}
