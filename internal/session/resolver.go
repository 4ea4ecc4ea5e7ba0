package session

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
)

// resolution is the outcome of one badge status lookup, applied to the
// controller only if its sequence number is still current.
type resolution struct {
	state          State
	student        *api.Student
	records        []api.AttendanceRecord
	todayTaskCount int
	estimatedDays  int
	anchor         time.Time
}

// resolve derives the UI state for a badge: credential lookup first, then
// the dashboard. Lookup failures reset to neutral without surfacing an
// error; status polling fails silently, unlike explicit user actions.
func (c *Controller) resolve(ctx context.Context, badge string) resolution {
	cred, err := c.api.CredentialStatus(ctx, badge)
	if err != nil {
		if api.IsNotFound(err) {
			return resolution{state: StateNotRegistered}
		}
		c.log.Debug().Str("badge", badge).Err(err).Msg("credential lookup failed")
		return resolution{state: StateNeutral}
	}
	if !cred.Exists {
		return resolution{state: StateNotRegistered}
	}
	if cred.RequiresSetup || !cred.Enabled {
		return resolution{state: StateSetupRequired}
	}

	dash, err := c.api.Dashboard(ctx, badge)
	if err != nil {
		c.log.Debug().Str("badge", badge).Err(err).Msg("dashboard lookup failed")
		return resolution{state: StateNeutral}
	}

	res := resolution{
		student:        &dash.Student,
		records:        dash.Records,
		todayTaskCount: dash.TodayTaskCount,
	}
	if open := dash.OpenRecord(); open != nil {
		res.state = StateTimedIn
		res.anchor = open.TimeIn
	} else {
		res.state = StateReadyToTimeIn
		res.estimatedDays = c.estimateDays(dash.Student, dash.Records)
	}
	return res
}

// estimateDays projects how many working days remain until the required
// hours are met. The daily rate is the average of the most recent closed
// sessions, floored at the configured minimum plausible rate; with no
// usable history the standard working day is assumed.
func (c *Controller) estimateDays(student api.Student, records []api.AttendanceRecord) int {
	if student.RequiredHours == nil {
		return 0
	}
	remaining := *student.RequiredHours - student.TotalHours
	if remaining <= 0 {
		return 0
	}

	sorted := make([]api.AttendanceRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimeIn.After(sorted[j].TimeIn)
	})

	var sum float64
	var n int
	for _, rec := range sorted {
		if rec.Open() || rec.TotalHours <= 0 {
			continue
		}
		sum += rec.TotalHours
		n++
		if n == c.cfg.AverageWindow {
			break
		}
	}

	daily := c.cfg.StandardDayHours
	if n > 0 {
		daily = sum / float64(n)
	}
	if daily < c.cfg.MinDailyHours {
		daily = c.cfg.MinDailyHours
	}
	return int(math.Ceil(remaining / daily))
}
