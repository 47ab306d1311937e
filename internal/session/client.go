package session

import (
	"bytes"
	"context"
	"fmt"
	json "github.com/goccy/go-json"
	"io"
	"net/http"
	"net/url"
	"statpulse/internal/models"
	"strings"
	"time"
)

const (
	heartbeatPath = "/api/heartbeat"
	dataPath      = "/api/data"
	statusPath    = "/api/status"
)

// Client is the HTTP transport to the sink.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL:    normalized,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NormalizeBaseURL trims the sink url and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("sink url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid sink url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("sink url must include scheme and host: %q", value)
	}
	return strings.TrimRight(value, "/"), nil
}

func (c *Client) Heartbeat(ctx context.Context, id string) error {
	var ack models.Ack
	return c.doJSON(ctx, http.MethodPost, heartbeatPath, models.HeartbeatRequest{SessionID: id}, &ack)
}

func (c *Client) Push(ctx context.Context, req models.DataRequest) error {
	var ack models.Ack
	return c.doJSON(ctx, http.MethodPost, dataPath, req, &ack)
}

// Status fetches the read-only view of the sink.
func (c *Client) Status(ctx context.Context) (models.SinkStatus, error) {
	var status models.SinkStatus
	if err := c.doJSON(ctx, http.MethodGet, statusPath, nil, &status); err != nil {
		return models.SinkStatus{}, err
	}
	return status, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody any, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respData)
	}
	if respBody == nil || len(respData) == 0 {
		return nil
	}
	return json.Unmarshal(respData, respBody)
}

func decodeError(status int, data []byte) error {
	var payload models.ErrorResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		payload.Error = strings.TrimSpace(string(data))
	}

	switch status {
	case http.StatusConflict:
		return &ConflictError{CurrentID: payload.CurrentSessionID}
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnrecognized, payload.Error)
	case http.StatusBadRequest:
		if payload.Error == ErrMissingID.Error() {
			return ErrMissingID
		}
	}
	return &APIError{Status: status, Message: payload.Error}
}
