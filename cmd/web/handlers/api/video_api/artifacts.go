package video_api

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"brightline.video/relay/cmd/web/handlers/common"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/pkg/markdown"
)

// HandleTranscript returns the stored transcript for a video.
func HandleTranscript(dbc *db.DatabaseConnection) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		transcript, err := dbc.Queries(ctx).GetTranscript(ctx, videoUUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.ErrNotFound("transcript not found")
			}
			slog.Error("failed to fetch transcript", "error", err, "video_id", videoUUID.String())
			return common.ErrInternal("failed to fetch transcript")
		}

		return c.JSON(200, map[string]any{
			"video_id": transcript.VideoID.String(),
			"language": transcript.Language,
			"content":  transcript.Content,
		})
	}
}

// HandleChapters returns the chapter list, ordered by start time.
func HandleChapters(dbc *db.DatabaseConnection) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		chapters, err := dbc.Queries(ctx).ListChapters(ctx, videoUUID)
		if err != nil {
			slog.Error("failed to fetch chapters", "error", err, "video_id", videoUUID.String())
			return common.ErrInternal("failed to fetch chapters")
		}

		type chapterView struct {
			ID           string  `json:"id"`
			StartSeconds float64 `json:"start"`
			EndSeconds   float64 `json:"end"`
			Title        string  `json:"title"`
			Summary      string  `json:"summary,omitempty"`
		}
		views := make([]chapterView, 0, len(chapters))
		for _, ch := range chapters {
			views = append(views, chapterView{
				ID:           ch.ID.String(),
				StartSeconds: ch.StartSeconds,
				EndSeconds:   ch.EndSeconds,
				Title:        ch.Title,
				Summary:      ch.Summary,
			})
		}
		return c.JSON(200, map[string]any{"chapters": views})
	}
}

// HandleTags returns the tag list for a video.
func HandleTags(dbc *db.DatabaseConnection) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		tags, err := dbc.Queries(ctx).ListVideoTags(ctx, videoUUID)
		if err != nil {
			slog.Error("failed to fetch tags", "error", err, "video_id", videoUUID.String())
			return common.ErrInternal("failed to fetch tags")
		}
		if tags == nil {
			tags = []string{}
		}
		return c.JSON(200, map[string]any{"tags": tags})
	}
}

// HandleAbstractRender renders the stored markdown abstract as sanitized HTML.
func HandleAbstractRender(dbc *db.DatabaseConnection) echo.HandlerFunc {
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
		if video.Abstract == nil {
			return common.ErrNotFound("abstract not found")
		}

		return c.HTML(200, string(markdown.Render(*video.Abstract)))
	}
}
