package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Decision mirrors the agent's decision payload.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Path      string `json:"path,omitempty"`
	BlockType string `json:"blockType,omitempty"`
}

type CheckResult struct {
	Hostname    string   `json:"hostname"`
	Gated       bool     `json:"gated"`
	Platform    string   `json:"platform,omitempty"`
	Category    string   `json:"category,omitempty"`
	Decision    Decision `json:"decision"`
	RedirectURL string   `json:"redirectUrl,omitempty"`
}

type BypassStatus struct {
	ID        string `json:"id"`
	Platform  string `json:"platform"`
	BlockType string `json:"blockType"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	Remaining int    `json:"remainingSeconds"`
}

type reasonResult struct {
	Accepted bool         `json:"accepted"`
	Bypass   BypassStatus `json:"bypass"`
}

// Client talks to the agent's local API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(host string, port int, timeout time.Duration) *Client {
	return &Client{
		BaseURL: fmt.Sprintf("http://%s:%d", host, port),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Check(ctx context.Context, host string) (CheckResult, error) {
	var out CheckResult
	err := c.do(ctx, http.MethodPost, "/gate/check", map[string]string{"hostname": host}, &out)
	return out, err
}

func (c *Client) StartBypass(ctx context.Context, host string) (BypassStatus, error) {
	var out BypassStatus
	err := c.do(ctx, http.MethodPost, "/bypass", map[string]string{"hostname": host}, &out)
	return out, err
}

func (c *Client) SubmitReason(ctx context.Context, id, reason string) (BypassStatus, bool, error) {
	var out reasonResult
	err := c.do(ctx, http.MethodPost, "/bypass/"+id+"/reason", map[string]string{"reason": reason}, &out)
	return out.Bypass, out.Accepted, err
}

func (c *Client) Status(ctx context.Context, id string) (BypassStatus, error) {
	var out BypassStatus
	err := c.do(ctx, http.MethodGet, "/bypass/"+id, nil, &out)
	return out, err
}

func (c *Client) Reenter(ctx context.Context, id string) (BypassStatus, error) {
	var out BypassStatus
	err := c.do(ctx, http.MethodPost, "/bypass/"+id+"/begin", nil, &out)
	return out, err
}

func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/bypass/"+id+"/cancel", nil, nil)
}

func (c *Client) Abort(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/bypass/"+id+"/abort", nil, nil)
}

func (c *Client) Close(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/bypass/"+id, nil, nil)
}

func (c *Client) Redirect(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.do(ctx, http.MethodGet, "/redirect", nil, &out)
	return out.URL, err
}
