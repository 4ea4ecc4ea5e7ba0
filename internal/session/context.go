package session

import (
	"strings"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/render"
)

// State is the resolved UI state for the currently entered badge.
type State int

const (
	// StateNeutral means no badge context: nothing entered, an incomplete
	// badge, or a failed passive lookup. No action is available.
	StateNeutral State = iota
	// StateNotRegistered routes the operator to a registration prompt.
	StateNotRegistered
	// StateSetupRequired routes the operator to the credential-setup flow.
	StateSetupRequired
	// StateReadyToTimeIn shows the time-in control.
	StateReadyToTimeIn
	// StateTimedIn shows the time-out control and the elapsed ticker.
	StateTimedIn
	// StateTimedOut is the terminal display state after a successful
	// time-out, before the badge field is cleared for the next operator.
	StateTimedOut
)

// String returns the wire name used by the kiosk panel.
func (s State) String() string {
	switch s {
	case StateNotRegistered:
		return "not_registered"
	case StateSetupRequired:
		return "setup_required"
	case StateReadyToTimeIn:
		return "ready_to_time_in"
	case StateTimedIn:
		return "timed_in"
	case StateTimedOut:
		return "timed_out"
	default:
		return "neutral"
	}
}

// Pending verification flows.
const (
	PendingNone    = ""
	PendingTimeIn  = "time_in"
	PendingTimeOut = "time_out"
)

// Toast is a one-shot message for the kiosk panel.
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Snapshot is a render-ready copy of the controller state. It is what the
// panel polls; nothing in it aliases controller internals.
type Snapshot struct {
	Badge           string              `json:"badge"`
	State           string              `json:"state"`
	Busy            bool                `json:"busy"`
	Student         *api.Student        `json:"student,omitempty"`
	ProgressPercent float64             `json:"progress_percent"`
	ProgressTier    int                 `json:"progress_tier"`
	EstimatedDays   int                 `json:"estimated_days,omitempty"`
	Elapsed         string              `json:"elapsed,omitempty"`
	History         []render.HistoryRow `json:"history"`
	HistoryEmpty    string              `json:"history_empty,omitempty"`
	TodayTaskCount  int                 `json:"today_task_count"`
	PendingAction   string              `json:"pending_action,omitempty"`
	SessionTasks    []api.TaskEntry     `json:"session_tasks,omitempty"`
	Toast           *Toast              `json:"toast,omitempty"`
	LastResult      *api.LogResult      `json:"last_result,omitempty"`
}

// SanitizeBadge strips non-digit characters and truncates to length.
// Applying it twice yields the same result as applying it once.
func SanitizeBadge(raw string, length int) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == length {
			break
		}
	}
	return b.String()
}
