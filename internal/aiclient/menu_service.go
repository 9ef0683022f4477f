package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"minutri/internal/content"
	"minutri/pkg/trace"
)

// MenuServiceClient calls an external weekly-menu service over HTTP.
type MenuServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMenuServiceClient(baseURL string, timeout time.Duration) *MenuServiceClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MenuServiceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *MenuServiceClient) GenerateWeeklyMenu(ctx context.Context, menuReq content.WeeklyMenuRequest) (*content.WeeklyMenuResponse, error) {
	b, err := json.Marshal(menuReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/weekly-menu", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("ai service 5xx: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai service error: %d", resp.StatusCode)
	}

	var out content.WeeklyMenuResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode weekly menu: %w", err)
	}
	return &out, nil
}
