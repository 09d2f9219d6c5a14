// Client for the CineSync WebDavHub backend API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
)

const defaultAPIBaseURL = "http://localhost:8082"

// APIService talks to the WebDavHub backend: typed configuration endpoints plus raw requests for debugging.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewAPIService creates a new backend client. An empty baseURL points at a local WebDavHub.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		now:        time.Now,
	}
}

// BaseURL returns the backend root.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (a *APIService) do(req *http.Request) (*APIResponse, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func statusError(op string, resp *APIResponse) error {
	msg := strings.TrimSpace(string(resp.Body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return fmt.Errorf("%w: %s: status %d", shared.ErrAPIRequest, op, resp.StatusCode)
	}
	return fmt.Errorf("%w: %s: status %d: %s", shared.ErrAPIRequest, op, resp.StatusCode, msg)
}

// GetConfig fetches the full configuration list, bypassing any intermediate caches.
func (a *APIService) GetConfig(ctx context.Context) ([]models.ConfigItem, error) {
	q := url.Values{"t": {strconv.FormatInt(a.now().UnixMilli(), 10)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/config?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := a.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, statusError("get config", resp)
	}

	var body models.ConfigResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return body.Config, nil
}

// UpdateConfig submits one batch of updates. Anything but 200 is a failure.
func (a *APIService) UpdateConfig(ctx context.Context, updates []models.ConfigUpdate) error {
	data, err := json.Marshal(models.ConfigUpdateRequest{Updates: updates})
	if err != nil {
		return fmt.Errorf("failed to encode updates: %w", err)
	}

	resp, err := a.Post(ctx, "/api/config/update", data)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusError("update config", resp)
	}
	return nil
}

// ConfigStatus fetches the placeholder and destination directory flags.
func (a *APIService) ConfigStatus(ctx context.Context) (*models.ConfigStatus, error) {
	resp, err := a.Get(ctx, "/api/config-status")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, statusError("config status", resp)
	}

	var status models.ConfigStatus
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return nil, fmt.Errorf("failed to decode config status: %w", err)
	}
	return &status, nil
}
