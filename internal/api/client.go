package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// APIError is a server rejection carrying the server's human-readable
// message. The message is shown to the operator verbatim on user actions.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("attendance api %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a server 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsRejectedCode reports whether err is a one-time-code rejection.
func IsRejectedCode(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

// Client calls the remote attendance server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  zerolog.Logger
}

// New creates a client with the configured timeout.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// CredentialStatus looks up credential setup state for a badge.
func (c *Client) CredentialStatus(ctx context.Context, badge string) (*CredentialStatus, error) {
	var out CredentialStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/students/"+url.PathEscape(badge)+"/credential-status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestSetupCode asks the server to issue a credential-setup code.
func (c *Client) RequestSetupCode(ctx context.Context, badge string) error {
	body := map[string]string{"id_number": badge}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/credentials/setup", body, nil)
}

// VerifySetupCode completes credential setup with a code.
func (c *Client) VerifySetupCode(ctx context.Context, badge, code string) error {
	body := map[string]string{"id_number": badge, "code": code}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/credentials/verify", body, nil)
}

// Dashboard fetches the student profile, attendance history and today's
// task count for a badge.
func (c *Client) Dashboard(ctx context.Context, badge string) (*DashboardStatus, error) {
	var out DashboardStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/students/"+url.PathEscape(badge)+"/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LogAttendance performs a time-in or time-out for a badge. The server
// chooses the action from the current session state.
func (c *Client) LogAttendance(ctx context.Context, req LogRequest) (*LogResult, error) {
	var out LogResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/attendance/log", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionTasks returns task entries already logged in the open session.
func (c *Client) SessionTasks(ctx context.Context, badge string) ([]TaskEntry, error) {
	var out struct {
		Tasks []TaskEntry `json:"tasks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/students/"+url.PathEscape(badge)+"/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// AppendTask logs an additional task against the open session.
func (c *Client) AppendTask(ctx context.Context, badge, description string, at time.Time) (*TaskEntry, error) {
	body := map[string]interface{}{
		"id_number":   badge,
		"description": description,
		"logged_at":   at.UTC().Format(time.RFC3339),
	}
	var out TaskEntry
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/tasks", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks whether the attendance server is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("attendance server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("attendance server unhealthy: %s", resp.Status)
	}
	return nil
}

// DownloadReport streams a generated report (CSV or Excel) into w and
// returns the file metadata from the response headers.
func (c *Client) DownloadReport(ctx context.Context, req ReportRequest, w io.Writer) (*ReportFile, error) {
	q := url.Values{}
	q.Set("from", req.From.Format("2006-01-02"))
	q.Set("to", req.To.Format("2006-01-02"))
	if req.Badge != "" {
		q.Set("id_number", req.Badge)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v1/reports?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("report download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	file := &ReportFile{
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    "attendance-report",
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			file.Filename = name
		}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report body: %w", err)
	}
	file.Size = n
	return file, nil
}

// doJSON issues one JSON request and decodes the response into out when
// out is non-nil. Non-2xx responses become *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logger.Debug().Str("request_id", requestID).Str("path", path).Err(err).Msg("attendance api request failed")
		return fmt.Errorf("attendance api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		c.logger.Debug().Str("request_id", requestID).Str("path", path).Int("status", resp.StatusCode).Msg("attendance api rejected request")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError extracts the machine-readable error body. The server contract
// is a JSON object with a human-readable "message" field on every non-2xx.
func decodeError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			msg = body.Message
		} else if body.Error != "" {
			msg = body.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
