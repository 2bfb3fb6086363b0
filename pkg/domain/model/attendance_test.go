package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/domain/types"
)

func TestNewAttendanceRecord(t *testing.T) {
	t.Run("normalizes to JST", func(t *testing.T) {
		// 2026-08-15 00:30 UTC is 09:30 the same day in JST
		at := time.Date(2026, 8, 15, 0, 30, 0, 0, time.UTC)
		record := model.NewAttendanceRecord("U123", "tanaka", types.ActionClockIn, at)

		gt.Value(t, record.Timestamp.Format("2006-01-02 15:04:05")).Equal("2026-08-15 09:30:00")
		gt.Value(t, record.Date).Equal("2026-08-15")
	})

	t.Run("date crosses midnight in JST", func(t *testing.T) {
		// 2026-08-15 16:00 UTC is already 2026-08-16 01:00 in JST
		at := time.Date(2026, 8, 15, 16, 0, 0, 0, time.UTC)
		record := model.NewAttendanceRecord("U123", "tanaka", types.ActionClockOut, at)

		gt.Value(t, record.Date).Equal("2026-08-16")
	})
}

func TestAttendanceRecordValidate(t *testing.T) {
	valid := func() *model.AttendanceRecord {
		return model.NewAttendanceRecord("U123", "tanaka", types.ActionClockIn, time.Now())
	}

	t.Run("valid", func(t *testing.T) {
		gt.NoError(t, valid().Validate())
	})

	t.Run("missing user ID", func(t *testing.T) {
		r := valid()
		r.UserID = ""
		gt.Error(t, r.Validate())
	})

	t.Run("invalid action", func(t *testing.T) {
		r := valid()
		r.Action = types.AttendanceAction("overtime")
		gt.Error(t, r.Validate())
	})

	t.Run("zero timestamp", func(t *testing.T) {
		r := valid()
		r.Timestamp = time.Time{}
		gt.Error(t, r.Validate())
	})

	t.Run("missing date", func(t *testing.T) {
		r := valid()
		r.Date = ""
		gt.Error(t, r.Validate())
	})
}
