package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
)

func TestSanitizeBadgeIdempotent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234", "1234"},
		{"12ab34", "1234"},
		{"123456", "1234"},
		{"ab", ""},
		{"", ""},
		{" 1 2 3 4 5 ", "1234"},
	}
	for _, tt := range tests {
		once := SanitizeBadge(tt.in, 4)
		if once != tt.want {
			t.Errorf("SanitizeBadge(%q) = %q, want %q", tt.in, once, tt.want)
		}
		if twice := SanitizeBadge(once, 4); twice != once {
			t.Errorf("sanitization not idempotent: %q -> %q -> %q", tt.in, once, twice)
		}
	}
}

func TestIncompleteBadgeShortCircuits(t *testing.T) {
	up := &upstream{}
	c := newTestController(t, up.handler())

	snap := c.BadgeChanged(context.Background(), "12a")
	if snap.State != "neutral" {
		t.Errorf("state = %q, want neutral", snap.State)
	}
	if cred, dash, _ := up.counts(); cred+dash != 0 {
		t.Errorf("incomplete badge must not reach the network (cred=%d dash=%d)", cred, dash)
	}
}

func TestUnknownBadgeShowsRegisterPrompt(t *testing.T) {
	up := &upstream{credStatus: http.StatusNotFound}
	c := newTestController(t, up.handler())

	snap := c.BadgeChanged(context.Background(), "1234")
	if snap.State != "not_registered" {
		t.Errorf("state = %q, want not_registered", snap.State)
	}
	if _, dash, _ := up.counts(); dash != 0 {
		t.Errorf("registration prompt must issue no further calls, dashboard hit %d times", dash)
	}
}

func TestSetupRequiredRoutes(t *testing.T) {
	tests := []struct {
		name string
		cred api.CredentialStatus
	}{
		{"requires setup", api.CredentialStatus{Exists: true, RequiresSetup: true}},
		{"disabled", api.CredentialStatus{Exists: true, Enabled: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &upstream{credential: tt.cred}
			c := newTestController(t, up.handler())
			if snap := c.BadgeChanged(context.Background(), "1234"); snap.State != "setup_required" {
				t.Errorf("state = %q, want setup_required", snap.State)
			}
		})
	}
}

func TestOpenSessionResolvesTimedIn(t *testing.T) {
	up := &upstream{credential: enrolledCredential(), dashboard: timedInDashboard()}
	c := newTestController(t, up.handler())

	snap := c.BadgeChanged(context.Background(), "1234")
	if snap.State != "timed_in" {
		t.Fatalf("state = %q, want timed_in", snap.State)
	}
	if snap.Elapsed == "" {
		t.Error("timed-in state must expose an elapsed display")
	}
	if !c.ticker.Running() {
		t.Error("resolving an open session must start the ticker")
	}
}

func TestClosedHistoryResolvesReadyToTimeIn(t *testing.T) {
	up := &upstream{credential: enrolledCredential(), dashboard: readyDashboard()}
	c := newTestController(t, up.handler())

	snap := c.BadgeChanged(context.Background(), "1234")
	if snap.State != "ready_to_time_in" {
		t.Fatalf("state = %q, want ready_to_time_in", snap.State)
	}
	if c.ticker.Running() {
		t.Error("no open session, ticker must not run")
	}
	if snap.ProgressPercent != 95.0 {
		t.Errorf("progress = %v, want 95.0", snap.ProgressPercent)
	}
	if snap.ProgressTier != 90 {
		t.Errorf("tier = %d, want 90", snap.ProgressTier)
	}
}

func TestEstimatedDays(t *testing.T) {
	tests := []struct {
		name string
		dash func() api.DashboardStatus
		want int
	}{
		{
			// remaining 5h over an 8h standard day with no closed history
			name: "standard day fallback",
			dash: func() api.DashboardStatus {
				dash := readyDashboard()
				dash.Records = nil
				return dash
			},
			want: 1,
		},
		{
			// recent sessions average 2h, floored at the 4h minimum rate
			name: "minimum daily floor",
			dash: func() api.DashboardStatus {
				dash := readyDashboard()
				out := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
				dash.Records = nil
				for i := 0; i < 3; i++ {
					end := out.AddDate(0, 0, -i)
					dash.Records = append(dash.Records, api.AttendanceRecord{
						TimeIn: end.Add(-2 * time.Hour), TimeOut: &end,
						Status: api.RecordTimedOut, TotalHours: 2,
					})
				}
				return dash
			},
			want: 2,
		},
		{
			name: "no target set",
			dash: func() api.DashboardStatus {
				dash := readyDashboard()
				dash.Student.RequiredHours = nil
				return dash
			},
			want: 0,
		},
		{
			name: "already met",
			dash: func() api.DashboardStatus {
				dash := readyDashboard()
				dash.Student.TotalHours = 120
				return dash
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &upstream{credential: enrolledCredential(), dashboard: tt.dash()}
			c := newTestController(t, up.handler())
			snap := c.BadgeChanged(context.Background(), "1234")
			if snap.EstimatedDays != tt.want {
				t.Errorf("estimated days = %d, want %d", snap.EstimatedDays, tt.want)
			}
		})
	}
}

func TestPollingFailureResetsToNeutral(t *testing.T) {
	up := &upstream{credStatus: http.StatusInternalServerError}
	c := newTestController(t, up.handler())

	snap := c.BadgeChanged(context.Background(), "1234")
	if snap.State != "neutral" {
		t.Errorf("state = %q, want neutral", snap.State)
	}
	if snap.Toast != nil {
		t.Error("passive polling failures must never surface a toast")
	}
}

func TestBadgeClearDiscardsContext(t *testing.T) {
	up := &upstream{credential: enrolledCredential(), dashboard: timedInDashboard()}
	c := newTestController(t, up.handler())

	c.BadgeChanged(context.Background(), "1234")
	snap := c.BadgeChanged(context.Background(), "")
	if snap.State != "neutral" || snap.Student != nil {
		t.Errorf("clearing the badge must reset the context, got %+v", snap)
	}
	if c.ticker.Running() {
		t.Error("clearing the badge must stop the ticker")
	}
}

func TestStaleResolutionDiscarded(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{}, 1)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badge := "2222"
		if strings.Contains(r.URL.Path, "/1111/") {
			badge = "1111"
			if strings.HasSuffix(r.URL.Path, "/credential-status") {
				select {
				case arrived <- struct{}{}:
				default:
				}
				<-release
			}
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/credential-status"):
			writeJSON(w, http.StatusOK, enrolledCredential())
		case strings.HasSuffix(r.URL.Path, "/dashboard"):
			dash := readyDashboard()
			dash.Student.Badge = badge
			dash.Student.FullName = "Student " + badge
			writeJSON(w, http.StatusOK, dash)
		}
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.New(server.URL, 5*time.Second, zerolog.Nop())
	c := NewController(client, testKioskConfig(), zerolog.Nop())
	t.Cleanup(c.Close)

	done := make(chan Snapshot, 1)
	go func() {
		done <- c.BadgeChanged(context.Background(), "1111")
	}()
	<-arrived

	snap := c.BadgeChanged(context.Background(), "2222")
	if snap.Student == nil || snap.Student.FullName != "Student 2222" {
		t.Fatalf("expected the newer badge's student, got %+v", snap.Student)
	}

	close(release)
	<-done

	final := c.Snapshot()
	if final.Student == nil || final.Student.FullName != "Student 2222" {
		t.Errorf("stale resolution overwrote newer state: %+v", final.Student)
	}
	if final.Badge != "2222" {
		t.Errorf("badge = %q, want 2222", final.Badge)
	}
}
