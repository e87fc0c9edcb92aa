// Package ai is a thin adapter over the managed inference service. Model
// selection and prompting live server-side; this client just moves text.
package ai

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

func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			// Transcription of long videos is slow.
			Timeout: 5 * time.Minute,
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
		return fmt.Errorf("ai: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type TranscriptResult struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Transcribe runs speech-to-text against the video's playback source.
func (c *Client) Transcribe(ctx context.Context, mediaURL string) (*TranscriptResult, error) {
	var out TranscriptResult
	err := c.post(ctx, "/transcribe", map[string]string{"url": mediaURL}, &out)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("ai: empty transcription result")
	}
	return &out, nil
}

// SuggestTags extracts topical tags from transcript text.
func (c *Client) SuggestTags(ctx context.Context, text string) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	if err := c.post(ctx, "/tags", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

type ChapterSuggestion struct {
	StartSeconds float64 `json:"start"`
	EndSeconds   float64 `json:"end"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
}

// GenerateChapters segments the transcript into chapters.
func (c *Client) GenerateChapters(ctx context.Context, text string, durationSeconds float64) ([]ChapterSuggestion, error) {
	req := map[string]any{"text": text, "duration": durationSeconds}
	var out struct {
		Chapters []ChapterSuggestion `json:"chapters"`
	}
	if err := c.post(ctx, "/chapters", req, &out); err != nil {
		return nil, err
	}
	return out.Chapters, nil
}

// Summarize produces a markdown abstract of the transcript.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	var out struct {
		Abstract string `json:"abstract"`
	}
	if err := c.post(ctx, "/summarize", map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Abstract) == "" {
		return "", fmt.Errorf("ai: empty abstract result")
	}
	return out.Abstract, nil
}

// SuggestTitle produces a short display title from the transcript.
func (c *Client) SuggestTitle(ctx context.Context, text string) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	if err := c.post(ctx, "/title", map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	title := strings.TrimSpace(out.Title)
	if title == "" {
		return "", fmt.Errorf("ai: empty title result")
	}
	return title, nil
}
