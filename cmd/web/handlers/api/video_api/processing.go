package video_api

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"brightline.video/relay/cmd/web/handlers/common"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/pipeline"
)

// HandleProcessingStatus returns the derived artifact checklist for a video.
func HandleProcessingStatus(dbc *db.DatabaseConnection, completion *pipeline.CompletionChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		if _, err := dbc.Queries(ctx).GetVideoByID(ctx, videoUUID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.ErrNotFound("video not found")
			}
			slog.Error("failed to fetch video", "error", err, "video_id", videoUUID.String())
			return common.ErrInternal("failed to fetch video")
		}

		return c.JSON(200, completion.Status(ctx, videoUUID))
	}
}

// HandleProcess retriggers one pipeline phase (or "all"). With force=true the
// phase's own artifacts are cleared first. Accepted requests return 202: the
// work itself runs on the queue.
func HandleProcess(retrigger *pipeline.Retrigger) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		var body struct {
			Phase string `json:"phase"`
			Force bool   `json:"force"`
		}
		if err := c.Bind(&body); err != nil {
			return common.ErrBadRequest("invalid request body")
		}

		receipt, err := retrigger.Run(c.Request().Context(), videoUUID, body.Phase, body.Force)
		if err != nil {
			switch {
			case errors.Is(err, pipeline.ErrInvalidPhase):
				return common.ErrBadRequest(err.Error())
			case errors.Is(err, pipeline.ErrInvalidState):
				return common.ErrBadRequest(err.Error())
			case errors.Is(err, pipeline.ErrVideoNotFound):
				return common.ErrNotFound("video not found")
			default:
				slog.Error("failed to retrigger processing", "error", err, "video_id", videoUUID.String())
				return common.ErrInternal("failed to retrigger processing")
			}
		}

		return c.JSON(202, map[string]any{
			"message":   "processing retriggered",
			"video_id":  receipt.VideoID,
			"phase":     receipt.Phase,
			"force":     receipt.Force,
			"timestamp": receipt.Timestamp,
		})
	}
}

// HandleSync reconciles one video against the provider on demand.
func HandleSync(reconciler *pipeline.Reconciler) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		video, err := reconciler.SyncVideoStatus(c.Request().Context(), videoUUID)
		if err != nil {
			var pErr *pipeline.ProviderError
			switch {
			case errors.Is(err, pipeline.ErrVideoNotFound):
				return common.ErrNotFound("video not found")
			case errors.As(err, &pErr):
				slog.Error("provider query failed during sync", "error", err, "video_id", videoUUID.String())
				return common.ErrBadGateway("provider unavailable")
			default:
				slog.Error("failed to sync video", "error", err, "video_id", videoUUID.String())
				return common.ErrInternal("failed to sync video")
			}
		}

		return c.JSON(200, toVideoView(video))
	}
}

// HandleSyncAll runs a reconciliation sweep over every processing video.
// Individual provider failures are counted, not fatal.
func HandleSyncAll(reconciler *pipeline.Reconciler) echo.HandlerFunc {
	return func(c echo.Context) error {
		result, err := reconciler.SyncAllProcessing(c.Request().Context())
		if err != nil {
			slog.Error("reconciliation sweep failed", "error", err)
			return common.ErrInternal("failed to sync videos")
		}
		return c.JSON(200, result)
	}
}
