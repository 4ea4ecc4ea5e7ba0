package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/config"
)

func testKioskConfig() config.KioskConfig {
	return config.KioskConfig{
		BadgeLength:      4,
		Cooldown:         3 * time.Second,
		MinTaskLength:    10,
		HistoryLimit:     10,
		StandardDayHours: 8,
		MinDailyHours:    4,
		AverageWindow:    7,
	}
}

func newTestController(t *testing.T, handler http.Handler) *Controller {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.New(server.URL, 5*time.Second, zerolog.Nop())
	c := NewController(client, testKioskConfig(), zerolog.Nop())
	t.Cleanup(c.Close)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func floatPtr(v float64) *float64 { return &v }

// upstream is a scriptable fake attendance server shared by the tests.
type upstream struct {
	mu         sync.Mutex
	credential api.CredentialStatus
	credStatus int
	dashboard  api.DashboardStatus
	tasks      []api.TaskEntry
	logResult  *api.LogResult
	logStatus  int
	logMessage string

	credCalls int
	dashCalls int
	logCalls  int
	lastLog   api.LogRequest
}

func (u *upstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/credential-status"):
			u.credCalls++
			if u.credStatus != 0 && u.credStatus != http.StatusOK {
				writeJSON(w, u.credStatus, map[string]string{"message": "student not found"})
				return
			}
			writeJSON(w, http.StatusOK, u.credential)
		case strings.HasSuffix(r.URL.Path, "/dashboard"):
			u.dashCalls++
			writeJSON(w, http.StatusOK, u.dashboard)
		case strings.HasSuffix(r.URL.Path, "/tasks") && r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": u.tasks})
		case r.URL.Path == "/api/v1/tasks" && r.Method == http.MethodPost:
			writeJSON(w, http.StatusOK, api.TaskEntry{Description: "ok", LoggedAt: time.Now()})
		case r.URL.Path == "/api/v1/attendance/log":
			u.logCalls++
			var req api.LogRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			u.lastLog = req
			if u.logStatus != 0 && u.logStatus != http.StatusOK {
				writeJSON(w, u.logStatus, map[string]string{"message": u.logMessage})
				return
			}
			writeJSON(w, http.StatusOK, u.logResult)
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		}
	})
}

func (u *upstream) counts() (cred, dash, log int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.credCalls, u.dashCalls, u.logCalls
}

func (u *upstream) setDashboard(d api.DashboardStatus) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.dashboard = d
}

func (u *upstream) lastLogRequest() api.LogRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastLog
}

func enrolledCredential() api.CredentialStatus {
	return api.CredentialStatus{Exists: true, RequiresSetup: false, Enabled: true}
}

func readyDashboard() api.DashboardStatus {
	out := time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC)
	return api.DashboardStatus{
		Student: api.Student{
			Badge:         "1234",
			FullName:      "Ana Cruz",
			School:        "STI College",
			TotalHours:    95,
			RequiredHours: floatPtr(100),
			Status:        api.StudentActive,
		},
		Records: []api.AttendanceRecord{
			{ID: "r0", TimeIn: out.Add(-9 * time.Hour), TimeOut: &out, Status: api.RecordTimedOut, TotalHours: 8},
		},
		TodayTaskCount: 0,
	}
}

func timedInDashboard() api.DashboardStatus {
	dash := readyDashboard()
	dash.Records = append([]api.AttendanceRecord{
		{ID: "r1", TimeIn: time.Now().Add(-2 * time.Hour), Status: api.RecordTimedIn},
	}, dash.Records...)
	return dash
}
