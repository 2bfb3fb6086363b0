package model

import (
	"time"

	"github.com/kintai-lab/dakoku/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// AttendanceRecord is one persisted punch event. Records are append-only:
// created exactly once per valid command, never mutated or deleted.
type AttendanceRecord struct {
	UserID    string
	UserName  string
	Action    types.AttendanceAction
	Timestamp time.Time
	Date      string
}

// NewAttendanceRecord builds a record at the given instant, normalized to
// JST. The Date field is denormalized from the same timestamp and used as a
// secondary filter key in the backend.
func NewAttendanceRecord(userID, userName string, action types.AttendanceAction, at time.Time) *AttendanceRecord {
	jst := at.In(types.JST)
	return &AttendanceRecord{
		UserID:    userID,
		UserName:  userName,
		Action:    action,
		Timestamp: jst,
		Date:      jst.Format(types.DateFormat),
	}
}

// Validate checks the invariants every persisted record must carry
func (r *AttendanceRecord) Validate() error {
	if r.UserID == "" {
		return goerr.New("user ID is required")
	}
	if !r.Action.IsValid() {
		return goerr.New("invalid attendance action", goerr.V("action", r.Action))
	}
	if r.Timestamp.IsZero() {
		return goerr.New("timestamp is required")
	}
	if r.Date == "" {
		return goerr.New("date is required")
	}
	return nil
}

// PunchEvent is one raw event tuple decoded from a backend query result.
// It is the report engine's input.
type PunchEvent struct {
	Date      string
	Timestamp time.Time
	Action    types.AttendanceAction
}
