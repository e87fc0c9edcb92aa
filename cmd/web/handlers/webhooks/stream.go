// package webhooks receives push notifications from external providers.
package webhooks

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"brightline.video/relay/cmd/web/handlers/common"
	"brightline.video/relay/internal/pipeline"
	"brightline.video/relay/internal/stream"
)

const signatureHeader = "Webhook-Signature"

// HandleStreamWebhook verifies and applies a transcoding status notification.
// The body is read raw first: the signature covers the exact bytes sent.
func HandleStreamWebhook(secret string, reconciler *pipeline.Reconciler) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return common.ErrBadRequest("failed to read body")
		}

		header := c.Request().Header.Get(signatureHeader)
		if err := stream.VerifySignature(secret, header, body, time.Now()); err != nil {
			slog.Warn("rejected webhook with bad signature", "remote_ip", c.RealIP())
			return common.ErrUnauthorized()
		}

		var payload stream.WebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return common.ErrBadRequest("invalid webhook payload")
		}
		if payload.UID == "" {
			return common.ErrBadRequest("missing stream uid")
		}

		if err := reconciler.ApplyWebhook(c.Request().Context(), &payload); err != nil {
			if errors.Is(err, pipeline.ErrVideoNotFound) {
				// Streams created outside this system, or already deleted.
				// Acknowledge so the provider stops redelivering.
				slog.Info("webhook for unknown stream", "stream_id", payload.UID)
				return c.JSON(200, map[string]any{"status": "ignored"})
			}
			slog.Error("failed to apply webhook", "error", err, "stream_id", payload.UID)
			return common.ErrInternal("failed to apply webhook")
		}

		return c.JSON(200, map[string]any{"status": "applied"})
	}
}
