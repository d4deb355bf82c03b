package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/smartinstall/field-reports/internal"
	"github.com/smartinstall/field-reports/internal/report"
)

const apiTimeout = 5 * time.Second

// Client talks to the report API as an editing session's Store.
// Transport failures are classified: a deadline overrun becomes a
// Timeout error, anything else on the wire a NetworkError. Neither is
// fatal to the session.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: apiTimeout},
	}
}

// SetAccessToken installs the bearer token used on every request.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// Fetch returns the snapshot for one date, (nil, nil) when no report
// exists yet.
func (c *Client) Fetch(ctx context.Context, date string) (*Snapshot, error) {
	var reports []report.ReportDTO
	err := c.do(ctx, http.MethodGet, "/api/v1/schedule?date="+date, nil, &reports)
	if err != nil {
		return nil, err
	}

	for i := range reports {
		if reports[i].Date == date {
			return snapshotFromDTO(&reports[i])
		}
	}
	return nil, nil
}

// Save upserts the report for a date and returns the confirmed state.
func (c *Client) Save(ctx context.Context, date, status string, objectID *int64, workLog report.WorkLog) (*Snapshot, error) {
	body := report.ReportDTO{
		Date:    date,
		Status:  status,
		WorkLog: workLogToDTO(workLog),
	}
	if objectID != nil {
		s := strconv.FormatInt(*objectID, 10)
		body.ObjectID = &s
	}

	var saved report.ReportDTO
	if err := c.do(ctx, http.MethodPost, "/api/v1/schedule/complete", body, &saved); err != nil {
		return nil, err
	}
	return snapshotFromDTO(&saved)
}

// Transition runs a lifecycle action on a report.
func (c *Client) Transition(ctx context.Context, reportID int64, action string) (*Snapshot, error) {
	path := fmt.Sprintf("/api/v1/schedule/%d/%s", reportID, action)

	var updated report.ReportDTO
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &updated); err != nil {
		return nil, err
	}
	return snapshotFromDTO(&updated)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return internal.NewTimeoutError("request timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return internal.NewTimeoutError("request timed out", err)
	}
	return internal.NewNetworkError("request failed", err)
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Error != nil && body.Error.Message != "" {
			msg = body.Error.Message
		} else if body.Message != "" {
			msg = body.Message
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return internal.NewNotFoundError(msg, internal.ErrCodeReportNotFound)
	case http.StatusForbidden:
		return internal.NewForbiddenError(msg, internal.ErrCodeUnauthorizedAccess)
	case http.StatusUnauthorized:
		return internal.NewUnauthorizedError(msg, internal.ErrCodeInvalidToken)
	case http.StatusConflict:
		return internal.NewValidationError(msg, internal.ErrCodeInvalidTransition)
	default:
		return internal.NewValidationError(msg, internal.ErrCodeValidationFailed)
	}
}

func snapshotFromDTO(dto *report.ReportDTO) (*Snapshot, error) {
	workLog, err := report.ParseWorkLog(dto.WorkLog)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Status:   report.EffectiveStatus(dto.Status, dto.Completed),
		Earnings: dto.Earnings,
		ObjectID: report.ParseObjectID(dto.ObjectID),
		WorkLog:  workLog,
	}
	if dto.ID != nil {
		snap.ReportID = *dto.ID
	}
	return snap, nil
}

func workLogToDTO(workLog report.WorkLog) []report.WorkLogItemDTO {
	items := make([]report.WorkLogItemDTO, 0, len(workLog))
	for _, entry := range workLog {
		item := report.WorkLogItemDTO{
			ItemID:   strconv.FormatInt(entry.ItemID, 10),
			Quantity: entry.Quantity,
		}
		if entry.Coefficient > 0 {
			coefficient := entry.Coefficient
			item.Coefficient = &coefficient
		}
		items = append(items, item)
	}
	return items
}
