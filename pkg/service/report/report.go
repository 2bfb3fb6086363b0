package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/domain/types"
)

// BreakInterval is a single break within one day. End stays nil while the
// break has no matching 休憩戻り event.
type BreakInterval struct {
	Start time.Time
	End   *time.Time
}

// DayRecord aggregates one user's punch events for a single calendar date.
// It exists only during report computation and is never persisted.
type DayRecord struct {
	ClockIn  *time.Time
	ClockOut *time.Time
	Breaks   []BreakInterval
}

// Complete reports whether the day counts toward totals. A day needs both a
// clock-in and a clock-out; anything else contributes zero.
func (d *DayRecord) Complete() bool {
	return d.ClockIn != nil && d.ClockOut != nil
}

// WorkedMinutes returns the worked and break minutes for a complete day.
// Worked = (clock-out − clock-in) − Σ(closed break durations); open breaks
// deduct nothing.
func (d *DayRecord) WorkedMinutes() (worked, breaks int64) {
	if !d.Complete() {
		return 0, 0
	}
	for _, b := range d.Breaks {
		if b.End != nil {
			breaks += int64(b.End.Sub(b.Start) / time.Minute)
		}
	}
	worked = int64(d.ClockOut.Sub(*d.ClockIn)/time.Minute) - breaks
	return worked, breaks
}

// Result is a reconstructed monthly report
type Result struct {
	Year        int
	Month       time.Month
	WorkDays    int
	TotalWorked time.Duration
	Report      string
}

// Generate reconstructs daily work and break intervals from an unordered
// set of punch events and aggregates total worked time. The computation is
// pure: no network or persistence calls occur inside it.
func Generate(year int, month time.Month, events []model.PunchEvent) *Result {
	days := buildDayRecords(events)

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	// Lexicographic order is chronological for YYYY-MM-DD keys
	sort.Strings(dates)

	var totalMinutes int64
	var workDays int
	var lines []string

	for _, date := range dates {
		day := days[date]
		if !day.Complete() {
			continue
		}
		workDays++

		worked, breaks := day.WorkedMinutes()
		totalMinutes += worked

		in := day.ClockIn.In(types.JST)
		out := day.ClockOut.In(types.JST)
		lines = append(lines, fmt.Sprintf(
			"%s  %02d:%02d - %02d:%02d  勤務: %d時間%d分  休憩: %d時間%d分",
			date,
			in.Hour(), in.Minute(),
			out.Hour(), out.Minute(),
			worked/60, worked%60,
			breaks/60, breaks%60,
		))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d年%d月の勤怠レポート\n\n", year, int(month))

	if len(lines) == 0 {
		sb.WriteString("勤務記録がありません")
	} else {
		sb.WriteString(strings.Join(lines, "\n"))
		fmt.Fprintf(&sb, "\n\n合計: %d日勤務  %d時間%d分", workDays, totalMinutes/60, totalMinutes%60)
	}

	return &Result{
		Year:        year,
		Month:       month,
		WorkDays:    workDays,
		TotalWorked: time.Duration(totalMinutes) * time.Minute,
		Report:      sb.String(),
	}
}

// buildDayRecords groups events by date and pairs breaks by arrival order.
// Events are sorted by timestamp first: break pairing depends on it and the
// backend's ascending sort is not taken on trust.
func buildDayRecords(events []model.PunchEvent) map[string]*DayRecord {
	sorted := make([]model.PunchEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	days := make(map[string]*DayRecord)
	for _, ev := range sorted {
		day, ok := days[ev.Date]
		if !ok {
			day = &DayRecord{}
			days[ev.Date] = day
		}

		ts := ev.Timestamp
		switch ev.Action {
		case types.ActionClockIn:
			day.ClockIn = &ts
		case types.ActionClockOut:
			day.ClockOut = &ts
		case types.ActionBreakStart:
			day.Breaks = append(day.Breaks, BreakInterval{Start: ts})
		case types.ActionBreakEnd:
			// Close the most recently opened unclosed break. A stray
			// break-end with no open break is dropped.
			if n := len(day.Breaks); n > 0 && day.Breaks[n-1].End == nil {
				day.Breaks[n-1].End = &ts
			}
		}
	}

	return days
}
