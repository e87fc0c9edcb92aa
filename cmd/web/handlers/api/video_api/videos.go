// package video_api provides video-related API handlers.
package video_api

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"brightline.video/relay/cmd/web/handlers/common"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/pipeline"
	"brightline.video/relay/internal/stream"
)

// Upload slots are capped at four hours unless the caller asks for less.
const defaultMaxUploadSeconds = 4 * 60 * 60

type videoView struct {
	ID              string    `json:"id"`
	StreamID        string    `json:"stream_id"`
	Title           *string   `json:"title"`
	Abstract        *string   `json:"abstract,omitempty"`
	Status          string    `json:"status"`
	ErrorReason     *string   `json:"error_reason,omitempty"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	Uploaded        string    `json:"uploaded"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toVideoView(v *db.Video) videoView {
	return videoView{
		ID:              v.ID.String(),
		StreamID:        v.StreamID,
		Title:           v.Title,
		Abstract:        v.Abstract,
		Status:          string(v.Status),
		ErrorReason:     v.ErrorReason,
		DurationSeconds: v.DurationSeconds,
		Uploaded:        humanize.Time(v.CreatedAt.Time),
		CreatedAt:       v.CreatedAt.Time,
		UpdatedAt:       v.UpdatedAt.Time,
	}
}

// HandleCreate registers a new video: it requests a one-time direct upload
// URL from the provider, records the video in pending_upload state and kicks
// off the status poll ladder.
func HandleCreate(dbc *db.DatabaseConnection, streams *stream.Client, dispatcher *pipeline.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body struct {
			Title              string `json:"title"`
			MaxDurationSeconds int    `json:"max_duration_seconds"`
		}
		if err := c.Bind(&body); err != nil {
			return common.ErrBadRequest("invalid request body")
		}
		if body.MaxDurationSeconds <= 0 {
			body.MaxDurationSeconds = defaultMaxUploadSeconds
		}

		ctx := c.Request().Context()
		upload, err := streams.CreateDirectUpload(ctx, body.MaxDurationSeconds)
		if err != nil {
			slog.Error("failed to create direct upload", "error", err)
			return common.ErrBadGateway("upload provider unavailable")
		}

		var title *string
		if t := strings.TrimSpace(body.Title); t != "" {
			title = &t
		}

		video, err := dbc.Queries(ctx).InsertVideo(ctx, db.InsertVideoParams{
			StreamID: upload.UID,
			Title:    title,
		})
		if err != nil {
			slog.Error("failed to insert video", "error", err, "stream_id", upload.UID)
			return common.ErrInternal("failed to create video")
		}

		// Poll ladder backs up the webhook in case the provider never calls.
		if err := dispatcher.ScheduleSync(ctx, video.ID.String(), 0); err != nil {
			slog.Warn("failed to schedule status poll", "error", err, "video_id", video.ID.String())
		}

		slog.Info("video created", "video_id", video.ID.String(), "stream_id", upload.UID)
		return c.JSON(201, map[string]any{
			"id":         video.ID.String(),
			"stream_id":  upload.UID,
			"upload_url": upload.UploadURL,
			"status":     string(video.Status),
		})
	}
}

// HandleIndex returns a paginated list of videos, newest first.
func HandleIndex(dbc *db.DatabaseConnection) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := common.IntQueryParam(c, "limit", 50, 1, 200)
		offset := common.IntQueryParam(c, "offset", 0, 0, 1<<20)

		ctx := c.Request().Context()
		rows, err := dbc.Queries(ctx).ListVideos(ctx, limit, offset)
		if err != nil {
			slog.Error("failed to fetch videos", "error", err)
			return common.ErrInternal("failed to fetch videos")
		}

		views := make([]videoView, 0, len(rows))
		for _, v := range rows {
			views = append(views, toVideoView(v))
		}
		return c.JSON(200, map[string]any{"videos": views, "limit": limit, "offset": offset})
	}
}

// HandleShow returns a single video with its derived processing status.
func HandleShow(dbc *db.DatabaseConnection, completion *pipeline.CompletionChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		video, err := dbc.Queries(ctx).GetVideoByID(ctx, videoUUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.ErrNotFound("video not found")
			}
			slog.Error("failed to fetch video", "error", err, "video_id", videoUUID.String())
			return common.ErrInternal("failed to fetch video")
		}

		return c.JSON(200, map[string]any{
			"video":             toVideoView(video),
			"processing_status": completion.Status(ctx, videoUUID),
		})
	}
}
