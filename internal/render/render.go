package render

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
)

// EmptyHistoryMessage is shown when a student has no attendance records.
const EmptyHistoryMessage = "No attendance records yet"

// Toast levels used by the kiosk panel.
const (
	ToastSuccess = "success"
	ToastWarning = "warning"
	ToastError   = "error"
)

// Hours formats decimal hours as "Xh Ym". Zero renders as "0h", whole
// hours drop the minutes part, and sub-hour values drop the hours part.
func Hours(h float64) string {
	if h <= 0 {
		return "0h"
	}
	totalMinutes := int(math.Round(h * 60))
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	switch {
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	case hours == 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}

// ProgressPercent returns completion percent with one decimal, capped at 100.
func ProgressPercent(total, required float64) float64 {
	if required <= 0 {
		return 0
	}
	pct := total / required * 100
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*10) / 10
}

// ProgressTier buckets a percentage into the ten discrete visual tiers
// (0, 10, ..., 90) the progress bar supports.
func ProgressTier(pct float64) int {
	if pct < 0 {
		return 0
	}
	tier := int(pct/10) * 10
	if tier > 90 {
		tier = 90
	}
	return tier
}

// TimeAgo renders a relative timestamp.
func TimeAgo(at, now time.Time) string {
	diff := now.Sub(at)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}

// Elapsed formats a session duration as HH:MM:SS.
func Elapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// ClockTime formats a timestamp for the in/out columns.
func ClockTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// DateLong formats a timestamp for row headers.
func DateLong(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// HistoryRow is one pre-formatted attendance table row.
type HistoryRow struct {
	Date    string `json:"date"`
	TimeIn  string `json:"time_in"`
	TimeOut string `json:"time_out"`
	Status  string `json:"status"`
	Hours   string `json:"hours"`
}

// HistoryRows renders the most recent records, newest first, truncated to
// limit. The caller renders EmptyHistoryMessage when the result is empty.
func HistoryRows(records []api.AttendanceRecord, limit int) []HistoryRow {
	if limit <= 0 {
		limit = 10
	}
	sorted := make([]api.AttendanceRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimeIn.After(sorted[j].TimeIn)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([]HistoryRow, 0, len(sorted))
	for _, rec := range sorted {
		row := HistoryRow{
			Date:   DateLong(rec.TimeIn),
			TimeIn: ClockTime(rec.TimeIn),
			Status: StatusLabel(rec.Status),
			Hours:  Hours(rec.TotalHours),
		}
		if rec.TimeOut != nil {
			row.TimeOut = ClockTime(*rec.TimeOut)
		} else {
			row.TimeOut = "—"
			row.Hours = "—"
		}
		rows = append(rows, row)
	}
	return rows
}

// StatusLabel maps a record status to its display text.
func StatusLabel(status string) string {
	switch status {
	case api.RecordTimedIn:
		return "Timed In"
	case api.RecordTimedOut:
		return "Timed Out"
	case api.RecordAutoTimedOut:
		return "Auto Timed Out"
	case api.RecordAdminCorrected:
		return "Corrected"
	default:
		return status
	}
}
