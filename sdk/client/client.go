package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TamimulAhsan/sentineliam/core/policy"
)

// Client is a minimal HTTP client for the remote policy store. It holds no
// catalog state and never retries; retry policy belongs to the caller.
type Client struct {
	BaseURL     string
	Credentials CredentialProvider
	HTTPClient  *http.Client
	Observer    RequestObserver
}

// RequestObserver receives one observation per completed store request.
type RequestObserver interface {
	ObserveStoreRequest(op, status string, durationSeconds float64)
}

// New returns a client with a default HTTP timeout.
func New(baseURL string, creds CredentialProvider) *Client {
	return &Client{
		BaseURL:     baseURL,
		Credentials: creds,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// errorBody is the shape the store uses for structured failure responses.
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) endpoint(path string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	return base + path
}

// do issues one JSON request. On non-2xx it extracts the server's error
// message when present and falls back to the HTTP status line otherwise.
func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	start := time.Now()
	err := c.doOnce(ctx, method, path, body, out)
	if c.Observer != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.Observer.ObserveStoreRequest(op, status, time.Since(start).Seconds())
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		payload = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), payload)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Credentials != nil {
		token, err := c.Credentials.Token(ctx)
		if err != nil {
			return &TransportError{Message: "resolve credential", Err: err}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return &TransportError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

func errorFromResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	msg := strings.TrimSpace(eb.Error)

	// A rejected payload comes back with a server-supplied reason; anything
	// else is a transport-level failure.
	if (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity) && msg != "" {
		return &ValidationError{Message: msg}
	}
	if msg == "" {
		msg = resp.Status
	}
	return &TransportError{Status: resp.StatusCode, Message: msg}
}

// ListPolicies fetches the full catalog snapshot.
func (c *Client) ListPolicies(ctx context.Context) ([]policy.Record, error) {
	var out []policy.Record
	if err := c.do(ctx, "list", http.MethodGet, "/policies/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PatchDocument updates only the document field of one policy. The store
// rescans the new document and returns the full updated record, including the
// recomputed risk score, vulnerability flag, and findings.
func (c *Client) PatchDocument(ctx context.Context, id policy.ID, doc any) (*policy.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("policy id required")
	}
	body := map[string]any{"document": doc}
	var out policy.Record
	if err := c.do(ctx, "patch", http.MethodPatch, "/policies/"+id.String()+"/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePolicy removes one policy. Success is a 204 with no body.
func (c *Client) DeletePolicy(ctx context.Context, id policy.ID) error {
	if id == "" {
		return fmt.Errorf("policy id required")
	}
	return c.do(ctx, "delete", http.MethodDelete, "/policies/"+id.String()+"/", nil, nil)
}
