package api

import "time"

// Student statuses as reported by the server.
const (
	StudentActive    = "ACTIVE"
	StudentCompleted = "COMPLETED"
)

// Attendance record statuses as reported by the server.
const (
	RecordTimedIn        = "TIMED_IN"
	RecordTimedOut       = "TIMED_OUT"
	RecordAutoTimedOut   = "AUTO_TIMED_OUT"
	RecordAdminCorrected = "ADMIN_CORRECTED"
)

// Student is the identity and progress snapshot owned by the server. The
// client only ever holds a transient copy fetched per badge lookup.
type Student struct {
	Badge         string   `json:"id_number"`
	FullName      string   `json:"full_name"`
	School        string   `json:"school"`
	TotalHours    float64  `json:"total_hours"`
	RequiredHours *float64 `json:"required_hours,omitempty"`
	Status        string   `json:"status"`
}

// AttendanceRecord is one clock-in/clock-out session. TimeOut absent means
// the session is still open. The client never mutates these.
type AttendanceRecord struct {
	ID             string     `json:"id"`
	TimeIn         time.Time  `json:"time_in"`
	TimeOut        *time.Time `json:"time_out,omitempty"`
	Status         string     `json:"status"`
	TotalHours     float64    `json:"total_hours"`
	RegularHours   float64    `json:"regular_hours"`
	OvertimeHours  float64    `json:"overtime_hours"`
	UndertimeHours float64    `json:"undertime_hours"`
	BreakDeducted  bool       `json:"break_deducted"`
}

// Open reports whether the session has a time-in but no time-out yet.
func (r AttendanceRecord) Open() bool {
	return !r.TimeIn.IsZero() && r.TimeOut == nil
}

// TaskEntry is one logged task description, append-only from the client.
type TaskEntry struct {
	Description string    `json:"description"`
	LoggedAt    time.Time `json:"logged_at"`
}

// CredentialStatus is the per-badge credential lookup result.
type CredentialStatus struct {
	Exists        bool `json:"exists"`
	RequiresSetup bool `json:"requires_setup"`
	Enabled       bool `json:"enabled"`
}

// DashboardStatus is the badge dashboard lookup result.
type DashboardStatus struct {
	Student        Student            `json:"student"`
	Records        []AttendanceRecord `json:"attendance_records"`
	TodayTaskCount int                `json:"today_task_count"`
}

// OpenRecord returns the currently open session, if any.
func (d DashboardStatus) OpenRecord() *AttendanceRecord {
	for i := range d.Records {
		if d.Records[i].Open() {
			return &d.Records[i]
		}
	}
	return nil
}

// LogRequest is the payload for the attendance logging endpoint. The server
// decides whether it opens or closes a session based on current state.
type LogRequest struct {
	Badge           string `json:"id_number"`
	Code            string `json:"code,omitempty"`
	TaskDescription string `json:"task_description,omitempty"`
	AdditionalTasks string `json:"additional_tasks,omitempty"`
}

// Attendance actions returned in LogResult.
const (
	ActionTimeIn  = "time_in"
	ActionTimeOut = "time_out"
)

// LogResult is the created or closed record returned by a logging call.
type LogResult struct {
	Action         string           `json:"action"`
	Record         AttendanceRecord `json:"record"`
	TotalHours     float64          `json:"total_hours"`
	OvertimeHours  float64          `json:"overtime_hours"`
	UndertimeHours float64          `json:"undertime_hours"`
	BreakDeducted  bool             `json:"break_deducted"`
	Message        string           `json:"message"`
}

// ReportRequest selects a report by date range and optionally one student.
type ReportRequest struct {
	From  time.Time
	To    time.Time
	Badge string
}

// ReportFile describes a downloaded report body.
type ReportFile struct {
	Filename    string
	ContentType string
	Size        int64
}
