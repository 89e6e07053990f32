// Package apiclient talks to a running lab_post server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tphummel/lab_post/internal/models"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("lab_post API returned status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func NewClient(endpoint, token string) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	return &Client{
		baseURL: strings.TrimRight(endpoint, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// CreateBoot asks the server to run and record one boot.
func (c *Client) CreateBoot(ctx context.Context, req models.BootRequest) (*models.BootRun, error) {
	var out models.BootRun
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/boots", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBoot(ctx context.Context, id string) (*models.BootRun, error) {
	var out models.BootRun
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/boots/"+url.PathEscape(id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBoots returns recorded runs, filtered by outcome unless it is empty.
func (c *Client) ListBoots(ctx context.Context, outcome string) ([]*models.BootRun, error) {
	path := "/api/v1/boots"
	if outcome != "" {
		path += "?outcome=" + url.QueryEscape(outcome)
	}
	var out []*models.BootRun
	if err := c.doJSON(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteBoot(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/boots/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, expectedStatus int, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != expectedStatus {
		return APIError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	return json.Unmarshal(payload, out)
}
