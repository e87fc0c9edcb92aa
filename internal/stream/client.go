// Package stream talks to the external transcoding provider. The provider
// owns the authoritative processing state of every uploaded video; this
// service only mirrors it.
package stream

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

// Provider-side lifecycle states.
const (
	StatePendingUpload = "pendingupload"
	StateDownloading   = "downloading"
	StateQueued        = "queued"
	StateInProgress    = "inprogress"
	StateReady         = "ready"
	StateError         = "error"
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
			Timeout: 15 * time.Second,
		},
	}
}

// Video is the provider's view of an uploaded video.
type Video struct {
	UID             string  `json:"uid"`
	State           string  `json:"state"`
	PctComplete     float64 `json:"pctComplete"`
	ErrorReasonCode string  `json:"errorReasonCode"`
	ReadyToStream   bool    `json:"readyToStream"`
	Duration        float64 `json:"duration"`
	PlaybackURL     string  `json:"playbackUrl"`
}

// DirectUpload is a one-time upload slot created for a client-side upload.
type DirectUpload struct {
	UID       string `json:"uid"`
	UploadURL string `json:"uploadUrl"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
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
		return fmt.Errorf("stream: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetVideo queries the provider for the current state of a stream.
func (c *Client) GetVideo(ctx context.Context, uid string) (*Video, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("uid is required")
	}

	var out Video
	if err := c.do(ctx, http.MethodGet, "/videos/"+uid, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDirectUpload reserves an upload slot the browser uploads into.
func (c *Client) CreateDirectUpload(ctx context.Context, maxDurationSeconds int) (*DirectUpload, error) {
	req := map[string]any{"maxDurationSeconds": maxDurationSeconds}

	var out DirectUpload
	if err := c.do(ctx, http.MethodPost, "/direct-uploads", req, &out); err != nil {
		return nil, err
	}
	if out.UID == "" || out.UploadURL == "" {
		return nil, fmt.Errorf("stream: direct upload response missing uid or url")
	}
	return &out, nil
}

// SetThumbnailTimestamp sets the poster frame as a fraction of the duration.
func (c *Client) SetThumbnailTimestamp(ctx context.Context, uid string, pct float64) error {
	if pct < 0 || pct > 1 {
		return fmt.Errorf("thumbnail pct must be within [0,1], got %v", pct)
	}
	req := map[string]any{"thumbnailTimestampPct": pct}
	return c.do(ctx, http.MethodPost, "/videos/"+uid+"/thumbnail", req, nil)
}

// DeleteVideo removes the video from the provider.
func (c *Client) DeleteVideo(ctx context.Context, uid string) error {
	return c.do(ctx, http.MethodDelete, "/videos/"+uid, nil, nil)
}
