package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// UpsertPath is the remote endpoint that receives upload chunks.
const UpsertPath = "/stage1/text:upsert"

// ErrLocalOnly is returned by every network call when the API base selects
// local-only mode. The pipeline treats it as "use the local queue".
var ErrLocalOnly = errors.New("LOCAL_ONLY")

// APIError is a non-2xx response from the remote API.
type APIError struct {
	Method     string
	Path       string
	Status     int
	StatusText string
	Body       string
}

func (e *APIError) Error() string {
	detail := e.Body
	if detail == "" {
		detail = e.StatusText
	}
	return fmt.Sprintf("API %s %s %d: %s", e.Method, e.Path, e.Status, detail)
}

// Client posts JSON to the remote API.
type Client struct {
	api  types.APIConfig
	http *http.Client
}

// NewClient returns a client for api. A zero timeout means no limit.
func NewClient(api types.APIConfig, timeout time.Duration) *Client {
	return &Client{api: api, http: &http.Client{Timeout: timeout}}
}

// PostJSON sends body to path and decodes a JSON response into out when out
// is non-nil. An empty or non-JSON success body leaves out untouched.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	if c.api.IsLocalOnly() {
		return ErrLocalOnly
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	url := strings.TrimRight(c.api.Base, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if readErr != nil {
			glog.Warningf("[upload] %s: reading %d body: %v", path, resp.StatusCode, readErr)
		}
		return &APIError{
			Method:     http.MethodPost,
			Path:       path,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if readErr != nil {
		return fmt.Errorf("read %s response: %w", path, readErr)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			glog.V(2).Infof("[upload] %s: ignoring non-JSON response: %v", path, err)
		}
	}
	return nil
}

// UpsertResponse is the optional success body of the upsert endpoint.
type UpsertResponse struct {
	OK    bool   `json:"ok"`
	Saved int    `json:"saved"`
	Error string `json:"error,omitempty"`
}

// Upsert submits one chunk of rows.
func (c *Client) Upsert(ctx context.Context, req types.UpsertRequest) (UpsertResponse, error) {
	var resp UpsertResponse
	err := c.PostJSON(ctx, UpsertPath, req, &resp)
	return resp, err
}
