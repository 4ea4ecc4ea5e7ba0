package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/config"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/metrics"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/render"
)

// Controller owns the session gate state for one kiosk: the badge currently
// entered, the resolved UI state, the action cooldown and the elapsed-time
// ticker. It receives typed events from the kiosk surface (BadgeChanged,
// ActionRequested, CodeSubmitted, tick) and exposes render-ready snapshots.
// All state is rebuilt from scratch on process start and discarded when the
// badge field is cleared.
type Controller struct {
	api *api.Client
	cfg config.KioskConfig
	log zerolog.Logger

	now       func() time.Time
	ticker    *Ticker
	tickEvery time.Duration

	mu             sync.Mutex
	seq            uint64
	badge          string
	state          State
	student        *api.Student
	records        []api.AttendanceRecord
	todayTaskCount int
	estimatedDays  int
	cooldownUntil  time.Time
	anchor         time.Time
	elapsed        string
	busy           bool
	pending        string
	sessionTasks   []api.TaskEntry
	toast          *Toast
	lastResult     *api.LogResult
}

// NewController wires a controller against the attendance API client.
func NewController(client *api.Client, cfg config.KioskConfig, log zerolog.Logger) *Controller {
	return &Controller{
		api:       client,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		ticker:    NewTicker(),
		tickEvery: time.Second,
	}
}

// BadgeChanged handles badge input. The raw value is sanitized to digits;
// an incomplete badge clears the session context without any network call,
// a complete one triggers a status resolution.
func (c *Controller) BadgeChanged(ctx context.Context, raw string) Snapshot {
	badge := SanitizeBadge(raw, c.cfg.BadgeLength)

	c.mu.Lock()
	c.badge = badge
	c.toast = nil
	c.lastResult = nil
	c.pending = PendingNone
	c.sessionTasks = nil
	if len(badge) != c.cfg.BadgeLength {
		c.clearContextLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	c.seq++
	seq := c.seq
	c.busy = true
	c.mu.Unlock()

	res := c.resolve(ctx, badge)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.applyResolutionLocked(res)
	}
	return c.snapshotLocked()
}

// Refresh re-resolves the current badge for the periodic status poll. It
// skips while a verification prompt is open or a call is in flight, and it
// leaves the toast alone; background polling must be invisible on success
// and silent on failure.
func (c *Controller) Refresh(ctx context.Context) Snapshot {
	c.mu.Lock()
	badge := c.badge
	if len(badge) != c.cfg.BadgeLength || c.pending != PendingNone || c.busy {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	res := c.resolve(ctx, badge)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.applyResolutionLocked(res)
	}
	return c.snapshotLocked()
}

// ActionRequested dispatches whichever action the resolved state allows:
// time-in opens the verification prompt, time-out additionally prefetches
// the tasks already logged in the open session. This is the Enter-key path.
func (c *Controller) ActionRequested(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if len(c.badge) != c.cfg.BadgeLength {
		return c.rejectLocked("invalid_badge", ErrInvalidBadge,
			fmt.Sprintf("Enter a valid %d-digit badge number.", c.cfg.BadgeLength))
	}
	if c.now().Before(c.cooldownUntil) {
		return c.rejectLocked("cooldown", ErrCooldownActive,
			"Please wait a moment before trying again.")
	}

	switch c.state {
	case StateReadyToTimeIn:
		c.pending = PendingTimeIn
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil

	case StateTimedIn:
		c.pending = PendingTimeOut
		c.busy = true
		badge := c.badge
		c.mu.Unlock()

		tasks, err := c.api.SessionTasks(ctx, badge)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.busy = false
		if err != nil {
			// Prefetch failure is not fatal: the modal falls back to
			// requiring a full task description.
			c.log.Debug().Str("badge", badge).Err(err).Msg("session task prefetch failed")
			c.sessionTasks = nil
		} else {
			c.sessionTasks = tasks
		}
		return c.snapshotLocked(), nil

	default:
		return c.rejectLocked("no_action", ErrNoActionAvailable,
			"No attendance action is available for this badge.")
	}
}

// CodeSubmitted completes the pending action with the operator's one-time
// code and, for time-out, the task description. The cooldown starts on
// every attempt that reaches the network, regardless of outcome.
func (c *Controller) CodeSubmitted(ctx context.Context, code, task string) (Snapshot, error) {
	code = strings.TrimSpace(code)
	task = strings.TrimSpace(task)

	c.mu.Lock()
	if c.pending == PendingNone {
		return c.rejectLocked("no_action", ErrNoActionAvailable,
			"No attendance action is in progress.")
	}
	if c.now().Before(c.cooldownUntil) {
		return c.rejectLocked("cooldown", ErrCooldownActive,
			"Please wait a moment before trying again.")
	}
	if code == "" {
		return c.rejectLocked("code_required", ErrCodeRequired,
			"Enter your verification code.")
	}

	req := api.LogRequest{Badge: c.badge, Code: code}
	pending := c.pending
	if pending == PendingTimeOut {
		if len(c.sessionTasks) == 0 {
			if len([]rune(task)) < c.cfg.MinTaskLength {
				return c.rejectLocked("task_too_short", ErrTaskTooShort,
					fmt.Sprintf("Describe your tasks for this session (at least %d characters).", c.cfg.MinTaskLength))
			}
			req.TaskDescription = task
		} else {
			req.AdditionalTasks = task
		}
	}

	c.busy = true
	c.cooldownUntil = c.now().Add(c.cfg.Cooldown)
	c.mu.Unlock()

	res, err := c.api.LogAttendance(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		return c.logFailureLocked(pending, err)
	}

	metrics.Actions.WithLabelValues(res.Action, "success").Inc()
	// a completed action invalidates any status lookup still in flight
	c.seq++
	c.pending = PendingNone
	c.sessionTasks = nil
	c.lastResult = res

	switch res.Action {
	case api.ActionTimeOut:
		c.state = StateTimedOut
		c.stopTickerLocked()
		c.badge = ""
		c.toast = &Toast{Level: render.ToastSuccess, Message: timeOutMessage(res)}
	default:
		c.state = StateTimedIn
		c.records = append([]api.AttendanceRecord{res.Record}, c.records...)
		c.startTickerLocked(res.Record.TimeIn)
		msg := res.Message
		if msg == "" {
			msg = "Timed in at " + render.ClockTime(res.Record.TimeIn) + "."
		}
		c.toast = &Toast{Level: render.ToastSuccess, Message: msg}
	}
	return c.snapshotLocked(), nil
}

// AppendTask logs an extra task entry against the open session.
func (c *Controller) AppendTask(ctx context.Context, description string) (Snapshot, error) {
	description = strings.TrimSpace(description)

	c.mu.Lock()
	if c.state != StateTimedIn {
		return c.rejectLocked("no_action", ErrNoActionAvailable,
			"Time in before logging tasks.")
	}
	if len([]rune(description)) < c.cfg.MinTaskLength {
		return c.rejectLocked("task_too_short", ErrTaskTooShort,
			fmt.Sprintf("Describe your task (at least %d characters).", c.cfg.MinTaskLength))
	}
	badge := c.badge
	c.busy = true
	c.mu.Unlock()

	entry, err := c.api.AppendTask(ctx, badge, description, c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.toast = &Toast{Level: render.ToastError, Message: userMessage(err)}
		return c.snapshotLocked(), err
	}
	c.todayTaskCount++
	c.sessionTasks = append(c.sessionTasks, *entry)
	c.toast = &Toast{Level: render.ToastSuccess, Message: "Task logged."}
	return c.snapshotLocked(), nil
}

// BeginSetup requests a credential-setup code for the entered badge.
func (c *Controller) BeginSetup(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.state != StateSetupRequired {
		return c.rejectLocked("no_action", ErrNoActionAvailable,
			"Credential setup is not required for this badge.")
	}
	badge := c.badge
	c.busy = true
	c.mu.Unlock()

	err := c.api.RequestSetupCode(ctx, badge)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.toast = &Toast{Level: render.ToastError, Message: userMessage(err)}
		return c.snapshotLocked(), err
	}
	c.toast = &Toast{Level: render.ToastSuccess, Message: "Setup code sent. Enter it to finish setup."}
	return c.snapshotLocked(), nil
}

// CompleteSetup verifies the setup code and re-resolves the badge.
func (c *Controller) CompleteSetup(ctx context.Context, code string) (Snapshot, error) {
	code = strings.TrimSpace(code)

	c.mu.Lock()
	if c.state != StateSetupRequired {
		return c.rejectLocked("no_action", ErrNoActionAvailable,
			"Credential setup is not required for this badge.")
	}
	if code == "" {
		return c.rejectLocked("code_required", ErrCodeRequired,
			"Enter your verification code.")
	}
	badge := c.badge
	c.busy = true
	c.mu.Unlock()

	err := c.api.VerifySetupCode(ctx, badge, code)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		defer c.mu.Unlock()
		if api.IsRejectedCode(err) {
			c.toast = &Toast{Level: render.ToastWarning, Message: "Setup code rejected. Try again."}
			return c.snapshotLocked(), ErrCodeRejected
		}
		c.toast = &Toast{Level: render.ToastError, Message: userMessage(err)}
		return c.snapshotLocked(), err
	}
	c.mu.Unlock()

	snap := c.BadgeChanged(ctx, badge)
	return snap, nil
}

// Snapshot returns a render-ready copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Student returns the last-fetched student record and history, if any.
func (c *Controller) Student() (*api.Student, []api.AttendanceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.student == nil {
		return nil, nil
	}
	student := *c.student
	records := make([]api.AttendanceRecord, len(c.records))
	copy(records, c.records)
	return &student, records
}

// Close stops the ticker.
func (c *Controller) Close() {
	c.ticker.Stop()
}

func (c *Controller) tickElapsed(d time.Duration) {
	c.mu.Lock()
	c.elapsed = render.Elapsed(d)
	c.mu.Unlock()
}

// rejectLocked records a gate rejection and releases the lock.
func (c *Controller) rejectLocked(reason string, err error, message string) (Snapshot, error) {
	defer c.mu.Unlock()
	metrics.GateRejections.WithLabelValues(reason).Inc()
	c.toast = &Toast{Level: render.ToastWarning, Message: message}
	return c.snapshotLocked(), err
}

// logFailureLocked maps a failed attendance call onto the UI contract:
// rejected codes re-prompt, server messages surface verbatim, transport
// failures show a generic network error. Caller holds the lock.
func (c *Controller) logFailureLocked(action string, err error) (Snapshot, error) {
	metrics.Actions.WithLabelValues(action, "failure").Inc()
	if api.IsRejectedCode(err) {
		c.toast = &Toast{Level: render.ToastWarning, Message: "Verification code rejected. Try again."}
		return c.snapshotLocked(), ErrCodeRejected
	}
	c.toast = &Toast{Level: render.ToastError, Message: userMessage(err)}
	return c.snapshotLocked(), err
}

func (c *Controller) applyResolutionLocked(res resolution) {
	c.state = res.state
	c.student = res.student
	c.records = res.records
	c.todayTaskCount = res.todayTaskCount
	c.estimatedDays = res.estimatedDays
	c.busy = false
	metrics.Resolutions.WithLabelValues(res.state.String()).Inc()

	if res.state == StateTimedIn {
		c.startTickerLocked(res.anchor)
	} else {
		c.stopTickerLocked()
	}
}

func (c *Controller) startTickerLocked(anchor time.Time) {
	c.anchor = anchor
	c.elapsed = render.Elapsed(c.now().Sub(anchor))
	c.ticker.Start(anchor, c.tickEvery, c.tickElapsed)
}

func (c *Controller) stopTickerLocked() {
	c.ticker.Stop()
	c.anchor = time.Time{}
	c.elapsed = ""
}

// clearContextLocked discards the session context when the badge field is
// cleared. The cooldown deadline survives; it guards the kiosk, not a badge.
func (c *Controller) clearContextLocked() {
	c.seq++
	c.state = StateNeutral
	c.student = nil
	c.records = nil
	c.todayTaskCount = 0
	c.estimatedDays = 0
	c.busy = false
	c.stopTickerLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Badge:          c.badge,
		State:          c.state.String(),
		Busy:           c.busy,
		EstimatedDays:  c.estimatedDays,
		Elapsed:        c.elapsed,
		TodayTaskCount: c.todayTaskCount,
		PendingAction:  c.pending,
		History:        render.HistoryRows(c.records, c.cfg.HistoryLimit),
		LastResult:     c.lastResult,
	}
	if len(snap.History) == 0 {
		snap.HistoryEmpty = render.EmptyHistoryMessage
	}
	if c.student != nil {
		student := *c.student
		snap.Student = &student
		if student.RequiredHours != nil {
			snap.ProgressPercent = render.ProgressPercent(student.TotalHours, *student.RequiredHours)
			snap.ProgressTier = render.ProgressTier(snap.ProgressPercent)
		}
	}
	if len(c.sessionTasks) > 0 {
		snap.SessionTasks = make([]api.TaskEntry, len(c.sessionTasks))
		copy(snap.SessionTasks, c.sessionTasks)
	}
	if c.toast != nil {
		toast := *c.toast
		snap.Toast = &toast
	}
	return snap
}

// timeOutMessage summarizes the closed session for the success toast.
func timeOutMessage(res *api.LogResult) string {
	msg := "Timed out. Total: " + render.Hours(res.TotalHours)
	if res.OvertimeHours > 0 {
		msg += ", overtime: " + render.Hours(res.OvertimeHours)
	}
	if res.UndertimeHours > 0 {
		msg += ", undertime: " + render.Hours(res.UndertimeHours)
	}
	if res.BreakDeducted {
		msg += " (break deducted)"
	}
	return msg
}

// userMessage renders an error for the operator: server messages verbatim,
// anything else as a generic network failure.
func userMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Network error. Please try again."
}
