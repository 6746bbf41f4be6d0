package notifyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// APIError is a structured error returned by the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Fields     []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// HTTPTransport talks to the notification API over HTTP.
type HTTPTransport struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPTransport constructs an HTTPTransport. The httpClient may be nil, in
// which case a client with a sane timeout is used.
func NewHTTPTransport(baseURL, token string, httpClient *http.Client) (*HTTPTransport, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("notifyclient: base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &HTTPTransport{baseURL: baseURL, token: token, client: httpClient}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *APIError       `json:"error,omitempty"`
}

// Fetch retrieves the notification list and unread count.
func (t *HTTPTransport) Fetch(ctx context.Context, unreadOnly bool, limit int) ([]Notification, int64, error) {
	query := url.Values{}
	if unreadOnly {
		query.Set("unread_only", "true")
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	endpoint := t.baseURL + "/api/notifications"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var payload struct {
		Notifications []Notification `json:"notifications"`
		UnreadCount   int64          `json:"unread_count"`
	}
	if err := t.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, 0, err
	}
	return payload.Notifications, payload.UnreadCount, nil
}

// MarkRead marks the supplied notifications as read.
func (t *HTTPTransport) MarkRead(ctx context.Context, ids []string) error {
	body := map[string]any{"notification_ids": ids}
	return t.do(ctx, http.MethodPatch, t.baseURL+"/api/notifications", body, nil)
}

// MarkAllRead marks every notification as read.
func (t *HTTPTransport) MarkAllRead(ctx context.Context) error {
	body := map[string]any{"mark_all_read": true}
	return t.do(ctx, http.MethodPatch, t.baseURL+"/api/notifications", body, nil)
}

// Delete removes the supplied notifications.
func (t *HTTPTransport) Delete(ctx context.Context, ids []string) error {
	body := map[string]any{"notification_ids": ids}
	return t.do(ctx, http.MethodDelete, t.baseURL+"/api/notifications", body, nil)
}

func (t *HTTPTransport) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("notifyclient: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("notifyclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("notifyclient: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("notifyclient: decode response: %w", err)
	}

	if !env.Success {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "UNKNOWN", Message: http.StatusText(resp.StatusCode)}
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("notifyclient: decode data: %w", err)
		}
	}
	return nil
}
