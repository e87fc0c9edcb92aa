package video_api

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"brightline.video/relay/cmd/web/handlers/common"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/stream"
	"brightline.video/relay/internal/vector"
)

// HandleDelete removes a video everywhere: the provider copy, the local row
// (artifacts cascade) and the search index entry.
func HandleDelete(dbc *db.DatabaseConnection, streams *stream.Client, vectors *vector.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		q := dbc.Queries(ctx)

		video, err := q.GetVideoByID(ctx, videoUUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.ErrNotFound("video not found")
			}
			slog.Error("failed to fetch video", "error", err, "video_id", videoUUID.String())
			return common.ErrInternal("failed to delete video")
		}

		// Delete the provider copy first. A dangling local row can be retried;
		// a dangling provider asset with no local row cannot.
		if err := streams.DeleteVideo(ctx, video.StreamID); err != nil {
			slog.Error("failed to delete stream", "error", err, "stream_id", video.StreamID)
			return common.ErrBadGateway("failed to delete provider stream")
		}

		if err := q.DeleteVideo(ctx, videoUUID); err != nil {
			slog.Error("failed to delete video", "error", err, "video_id", videoUUID.String())
			return common.ErrInternal("failed to delete video")
		}

		if vectors != nil {
			if err := vectors.Delete(ctx, videoUUID.String()); err != nil {
				// Orphaned index entries are harmless; matches resolve against
				// the videos table and missing rows are filtered out.
				slog.Warn("failed to delete search index entry", "error", err, "video_id", videoUUID.String())
			}
		}

		slog.Info("video deleted", "video_id", videoUUID.String(), "stream_id", video.StreamID)
		return c.JSON(200, map[string]any{"status": "deleted", "video_id": videoUUID.String()})
	}
}
