package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"mechanic-setu/internal/config"
	"mechanic-setu/internal/job-tracking-service/core/domain/dto"
	"mechanic-setu/internal/mylogger"
)

// Client talks to the product's HTTP API. Requests carry the session
// cookie, which is why the client keeps a jar.
type Client struct {
	baseURL string
	client  *http.Client
	logger  mylogger.Logger
}

// StatusError is a non-2xx response. ServerMessage exposes the
// backend's human-readable message when it sent one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api responded %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api responded %d", e.StatusCode)
}

func (e *StatusError) ServerMessage() string { return e.Message }

func NewClient(cfg *config.APIconfig, l mylogger.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.RequestTimeout,
		},
		logger: l.Action("api"),
	}
}

func (c *Client) FetchWSToken(ctx context.Context) (string, error) {
	var out dto.WSTokenResponse
	if err := c.do(ctx, http.MethodGet, "/core/ws-token/", nil, &out); err != nil {
		return "", fmt.Errorf("fetching ws token: %w", err)
	}
	if out.WSToken == "" {
		return "", fmt.Errorf("ws token endpoint returned an empty token")
	}
	return out.WSToken, nil
}

func (c *Client) CreateRequest(ctx context.Context, req dto.CreateServiceRequest) (string, error) {
	var out dto.CreateServiceResponse
	if err := c.do(ctx, http.MethodPost, "/jobs/CreateServiceRequest/", req, &out); err != nil {
		return "", fmt.Errorf("creating service request: %w", err)
	}
	if out.RequestID == "" {
		return "", fmt.Errorf("create endpoint returned no request id")
	}
	return string(out.RequestID), nil
}

func (c *Client) CancelRequest(ctx context.Context, requestID, reason string) error {
	path := fmt.Sprintf("/jobs/CancelServiceRequest/%s/", requestID)
	body := dto.CancelServiceRequest{CancellationReason: reason}
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("cancelling service request %s: %w", requestID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var apiErr dto.APIError
		if json.Unmarshal(data, &apiErr) == nil {
			statusErr.Message = apiErr.Message
		}
		c.logger.Warn("request failed", "method", method, "path", path, "status", resp.StatusCode)
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}
