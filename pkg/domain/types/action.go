package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// AttendanceAction represents a single kind of time punch
type AttendanceAction string

const (
	ActionClockIn    AttendanceAction = "in"
	ActionBreakStart AttendanceAction = "break"
	ActionBreakEnd   AttendanceAction = "back"
	ActionClockOut   AttendanceAction = "out"
)

// AllAttendanceActions returns all valid attendance actions
func AllAttendanceActions() []AttendanceAction {
	return []AttendanceAction{
		ActionClockIn,
		ActionBreakStart,
		ActionBreakEnd,
		ActionClockOut,
	}
}

// ParseAttendanceAction parses a slash-command argument into an action.
// Matching is case-insensitive after trimming. The returned error message
// is user-facing and echoes the rejected input.
func ParseAttendanceAction(text string) (AttendanceAction, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "in":
		return ActionClockIn, nil
	case "break":
		return ActionBreakStart, nil
	case "back":
		return ActionBreakEnd, nil
	case "out":
		return ActionClockOut, nil
	default:
		return "", goerr.New("Unknown action: "+text+". Use: in, break, back, or out",
			goerr.V("input", text))
	}
}

// IsValid checks if the action is one of the four recognized punches
func (a AttendanceAction) IsValid() bool {
	switch a {
	case ActionClockIn, ActionBreakStart, ActionBreakEnd, ActionClockOut:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action
func (a AttendanceAction) String() string {
	return string(a)
}

// Label returns the select option stored in the Notion database
func (a AttendanceAction) Label() string {
	switch a {
	case ActionClockIn:
		return "出勤"
	case ActionBreakStart:
		return "休憩入り"
	case ActionBreakEnd:
		return "休憩戻り"
	case ActionClockOut:
		return "退勤"
	default:
		return ""
	}
}

// Verb returns the phrase used in the confirmation message to the user
func (a AttendanceAction) Verb() string {
	switch a {
	case ActionClockIn:
		return "出勤"
	case ActionBreakStart:
		return "休憩開始"
	case ActionBreakEnd:
		return "休憩終了"
	case ActionClockOut:
		return "退勤"
	default:
		return ""
	}
}

// ActionFromLabel resolves a stored select label back into an action.
// Unknown labels report false so that query decoding can skip them.
func ActionFromLabel(label string) (AttendanceAction, bool) {
	for _, a := range AllAttendanceActions() {
		if a.Label() == label {
			return a, true
		}
	}
	return "", false
}
