// Package vector indexes transcript text in the managed vector search
// service. Embedding generation happens server-side.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns nil when no base URL is configured; callers treat a nil
// client as "indexing disabled".
func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		return fmt.Errorf("vector: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// UpsertTranscript (re)indexes a video's transcript under its video id.
func (c *Client) UpsertTranscript(ctx context.Context, videoID, text string) error {
	req := map[string]any{
		"id":   videoID,
		"text": text,
	}
	return c.post(ctx, "/upsert", req, nil)
}

type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Query returns the closest indexed video ids for a free-text query.
func (c *Client) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 10
	}
	req := map[string]any{"text": text, "topK": topK}

	var out struct {
		Matches []Match `json:"matches"`
	}
	if err := c.post(ctx, "/query", req, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// Delete removes a video's transcript from the index.
func (c *Client) Delete(ctx context.Context, videoID string) error {
	return c.post(ctx, "/delete", map[string]string{"id": videoID}, nil)
}
